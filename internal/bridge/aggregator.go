package bridge

import (
	"wisefido-ts-bridge/internal/senml"
)

// applyMeasurements 将解码后的测量折叠进主题状态
// 纯内存操作，不做 I/O；调用方需持有该主题的锁
func (e *Engine) applyMeasurements(st *SubjectState, measures []senml.Measurement) {
	for _, m := range measures {
		if m.Name == "" {
			continue
		}

		name, kind, ok := e.fields.Resolve(m.Name)
		if !ok {
			// 未跟踪的字段直接忽略
			continue
		}

		switch kind {
		case KindAverage:
			v, isNum := toFloat(m.Value)
			if !isNum {
				continue
			}
			st.LastKnown[name] = v
			if acc, hasAcc := st.Acc[name]; hasAcc {
				acc.Sum += v
				acc.Count++
			}
		case KindBool:
			b, coerced := ToBool(m.Value)
			if !coerced {
				continue
			}
			st.LastKnown[name] = b
		case KindCounter:
			// 计数器字段只由报警窗口计数器推进，遥测不直接写入
		}
	}
}
