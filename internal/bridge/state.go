package bridge

import (
	"sync"
	"time"
)

// SubjectKey 聚合流标识：(用户, 房间)
type SubjectKey struct {
	UserID string
	RoomID string
}

// Accumulator 单字段累加器
type Accumulator struct {
	Sum   float64
	Count int
}

// SubjectState 单个 (user, room) 的聚合状态
// 进程生命周期内存活，不会销毁；访问需经 Store.WithState
type SubjectState struct {
	mu sync.Mutex

	// 最近一次发送（或尝试发送）的时间；零值保证首个事件通过限速检查
	LastFlushAt time.Time

	// 延迟强制发送的截止时间；零值表示未设置
	DeferredDeadline time.Time

	// 可平均字段的累加器，每次发送后清零
	Acc map[string]*Accumulator

	// 所有跟踪字段的最后已知值（nil 表示从未观测到）；发送不清除
	LastKnown map[string]interface{}

	// 报警窗口计数，由 initTimeshift 控制事件清零
	AlertCount int
}

// Store 按主题键管理聚合状态，首个事件惰性创建
type Store struct {
	mu       sync.RWMutex
	fields   *FieldSet
	subjects map[SubjectKey]*SubjectState
}

// NewStore 创建状态存储
func NewStore(fields *FieldSet) *Store {
	return &Store{
		fields:   fields,
		subjects: make(map[SubjectKey]*SubjectState),
	}
}

// WithState 在该主题的锁内执行 fn，必要时先创建状态
// 创建与后续修改在同一临界区内，避免 create/update 竞争
func (s *Store) WithState(key SubjectKey, fn func(st *SubjectState)) {
	st := s.getOrCreate(key)
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(st)
}

// Get 查询已存在的主题状态（测试与诊断用）
func (s *Store) Get(key SubjectKey) (*SubjectState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.subjects[key]
	return st, ok
}

// Keys 返回所有已知主题键的快照
func (s *Store) Keys() []SubjectKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]SubjectKey, 0, len(s.subjects))
	for key := range s.subjects {
		keys = append(keys, key)
	}
	return keys
}

func (s *Store) getOrCreate(key SubjectKey) *SubjectState {
	s.mu.RLock()
	st, ok := s.subjects[key]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.subjects[key]; ok {
		return st
	}

	st = &SubjectState{
		Acc:       make(map[string]*Accumulator),
		LastKnown: make(map[string]interface{}),
	}
	for _, name := range s.fields.Names() {
		st.LastKnown[name] = nil
		if kind, _ := s.fields.Kind(name); kind == KindAverage {
			st.Acc[name] = &Accumulator{}
		}
	}
	s.subjects[key] = st
	return st
}
