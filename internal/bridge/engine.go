package bridge

import (
	"context"
	"time"

	"wisefido-ts-bridge/internal/senml"

	"go.uber.org/zap"
)

// Engine 聚合引擎：折叠遥测、判定发送、维护报警窗口
// 消息路径与后台定时器路径都经由这里，共享同一套发送语义
type Engine struct {
	store       *Store
	fields      *FieldSet
	fieldMap    map[string]string
	minPeriod   time.Duration
	alertStatus string

	creds     CredentialResolver
	sink      SinkWriter
	publisher SnapshotPublisher
	logger    *zap.Logger
}

// NewEngine 创建聚合引擎
// publisher 可为 nil（禁用快照发布）
func NewEngine(
	store *Store,
	fields *FieldSet,
	fieldMap map[string]string,
	minPeriod time.Duration,
	alertStatus string,
	creds CredentialResolver,
	sink SinkWriter,
	publisher SnapshotPublisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:       store,
		fields:      fields,
		fieldMap:    fieldMap,
		minPeriod:   minPeriod,
		alertStatus: alertStatus,
		creds:       creds,
		sink:        sink,
		publisher:   publisher,
		logger:      logger,
	}
}

// HandleMeasurements 处理一批解码后的遥测并立即评估发送条件
func (e *Engine) HandleMeasurements(ctx context.Context, user, room string, measures []senml.Measurement, now time.Time) {
	key := SubjectKey{UserID: user, RoomID: room}
	e.store.WithState(key, func(st *SubjectState) {
		e.applyMeasurements(st, measures)
		e.maybeFlush(ctx, key, st, now, false)
	})
}

// HandleWakeup 处理强制发送请求
// 截止时间 = now + max(0, minPeriod - (now - lastFlushAt))，
// 保证最迟在下一个限速边界发送，即使之后没有任何遥测（由定时器兜底）
func (e *Engine) HandleWakeup(user, room string, now time.Time) {
	key := SubjectKey{UserID: user, RoomID: room}
	e.store.WithState(key, func(st *SubjectState) {
		remaining := e.minPeriod - now.Sub(st.LastFlushAt)
		if remaining < 0 {
			remaining = 0
		}
		st.DeferredDeadline = now.Add(remaining)

		e.logger.Info("Scheduled forced send",
			zap.String("user_id", user),
			zap.String("room_id", room),
			zap.Duration("remaining", remaining),
		)
	})
}

// TickOnce 扫描所有已知主题，处理到期的延迟强制发送
func (e *Engine) TickOnce(ctx context.Context, now time.Time) {
	for _, key := range e.store.Keys() {
		key := key
		e.store.WithState(key, func(st *SubjectState) {
			e.maybeFlush(ctx, key, st, now, true)
		})
	}
}

// RunTicker 后台定时器循环，直到 ctx 取消
func (e *Engine) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.TickOnce(ctx, now)
		}
	}
}
