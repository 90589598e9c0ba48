package bridge

import "strings"

// FieldKind 跟踪字段的类型
type FieldKind int

const (
	// KindAverage 可平均的数值传感器通道
	KindAverage FieldKind = iota
	// KindBool 布尔执行器状态（不累加，只保留最后值）
	KindBool
	// KindCounter 计数器字段（由报警窗口计数器维护）
	KindCounter
)

// AlertsField 报警窗口计数器对应的跟踪字段名
const AlertsField = "alerts"

// DefaultAliases 原始传感器通道名到跟踪字段名的映射
var DefaultAliases = map[string]string{
	"raw": "light",
}

// truthyTokens 字符串布尔化的真值集合（小写比较）
var truthyTokens = map[string]bool{
	"true": true,
	"1":    true,
	"on":   true,
}

// FieldSet 固定的跟踪字段表，构造时给定划分，不从流量推断
type FieldSet struct {
	kinds   map[string]FieldKind
	aliases map[string]string
}

// NewFieldSet 创建字段表
func NewFieldSet(average, boolean, counter []string, aliases map[string]string) *FieldSet {
	kinds := make(map[string]FieldKind)
	for _, name := range average {
		kinds[name] = KindAverage
	}
	for _, name := range boolean {
		kinds[name] = KindBool
	}
	for _, name := range counter {
		kinds[name] = KindCounter
	}

	return &FieldSet{
		kinds:   kinds,
		aliases: aliases,
	}
}

// Resolve 从测量名称解析跟踪字段
// 取路径最后一段并应用别名；未跟踪的名称返回 ok=false
func (f *FieldSet) Resolve(measurementName string) (name string, kind FieldKind, ok bool) {
	parts := strings.Split(measurementName, "/")
	name = parts[len(parts)-1]
	if alias, hit := f.aliases[name]; hit {
		name = alias
	}
	kind, ok = f.kinds[name]
	return name, kind, ok
}

// Kind 查询跟踪字段的类型
func (f *FieldSet) Kind(name string) (FieldKind, bool) {
	kind, ok := f.kinds[name]
	return kind, ok
}

// Names 返回所有跟踪字段名
func (f *FieldSet) Names() []string {
	names := make([]string, 0, len(f.kinds))
	for name := range f.kinds {
		names = append(names, name)
	}
	return names
}

// ToBool 布尔化规则表：
// 布尔值透传；数值非零为真；字符串匹配真值集合（不区分大小写）
func ToBool(v interface{}) (value bool, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	case string:
		return truthyTokens[strings.ToLower(strings.TrimSpace(val))], true
	default:
		return false, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}
