package bridge

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// SinkWriter 外部时序服务写入接口
// 返回 entry ID；entryID == 0 且 err == nil 表示软拒绝（限速标记）
type SinkWriter interface {
	Write(ctx context.Context, apiKey string, params map[string]string) (int64, error)
}

// CredentialResolver 主题写入凭证解析接口
type CredentialResolver interface {
	Resolve(ctx context.Context, user, room string) (writeKey, channelID string, ok bool)
}

// SnapshotPublisher 成功写入后的快照发布接口（可为 nil）
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, key SubjectKey, values map[string]interface{}, entryID int64) error
}

// maybeFlush 统一的发送判定入口，消息路径与定时器路径共用
// tickTriggered 为真时只处理延迟强制发送（限速窗口由消息路径驱动）
// 调用方需持有该主题的锁
func (e *Engine) maybeFlush(ctx context.Context, key SubjectKey, st *SubjectState, now time.Time, tickTriggered bool) {
	forced := !st.DeferredDeadline.IsZero() && !now.Before(st.DeferredDeadline)
	if !forced {
		if tickTriggered {
			return
		}
		if now.Sub(st.LastFlushAt) < e.minPeriod {
			return
		}
	}

	e.flush(ctx, key, st, now)
}

// flush 计算平均值、组装载荷、写入外部服务并复位累加器
func (e *Engine) flush(ctx context.Context, key SubjectKey, st *SubjectState, now time.Time) {
	values := e.buildPayload(st)

	if len(values) == 0 {
		// 没有可发送的字段：跳过写入，但推进计时避免空转
		e.logger.Debug("Nothing to send",
			zap.String("user_id", key.UserID),
			zap.String("room_id", key.RoomID),
		)
		e.resetAfterFlush(st, now)
		return
	}

	writeKey, _, ok := e.creds.Resolve(ctx, key.UserID, key.RoomID)
	if !ok {
		// 凭证不可用：推进计时、消费截止时间，但保留累加器等待下次发送
		e.logger.Warn("No API key for subject, skip flush",
			zap.String("user_id", key.UserID),
			zap.String("room_id", key.RoomID),
		)
		st.LastFlushAt = now
		st.DeferredDeadline = time.Time{}
		return
	}

	params := encodeParams(values, e.fieldMap)
	entryID, err := e.sink.Write(ctx, writeKey, params)
	if err != nil {
		e.logger.Error("ThingSpeak write failed",
			zap.String("user_id", key.UserID),
			zap.String("room_id", key.RoomID),
			zap.Error(err),
		)
	} else if entryID == 0 {
		e.logger.Warn("ThingSpeak rejected write, likely rate-limit",
			zap.String("user_id", key.UserID),
			zap.String("room_id", key.RoomID),
		)
	} else {
		e.logger.Info("Flushed subject to ThingSpeak",
			zap.String("user_id", key.UserID),
			zap.String("room_id", key.RoomID),
			zap.Int64("entry_id", entryID),
			zap.Int("field_count", len(values)),
		)
		if e.publisher != nil {
			if err := e.publisher.PublishSnapshot(ctx, key, values, entryID); err != nil {
				e.logger.Error("Failed to publish snapshot", zap.Error(err))
			}
		}
	}

	// 无论写入结果如何都复位：用可能丢失一个样本换取有界内存与持续前进
	e.resetAfterFlush(st, now)
}

// buildPayload 组装输出字段集
// 可平均字段有样本时取 round(均值, 2)，否则回退最后已知值；从未观测的字段省略
func (e *Engine) buildPayload(st *SubjectState) map[string]interface{} {
	values := make(map[string]interface{})
	for name := range e.fieldMap {
		kind, tracked := e.fields.Kind(name)
		if !tracked {
			continue
		}

		if kind == KindAverage {
			if acc := st.Acc[name]; acc != nil && acc.Count > 0 {
				values[name] = round2(acc.Sum / float64(acc.Count))
				continue
			}
		}
		if v := st.LastKnown[name]; v != nil {
			values[name] = v
		}
	}
	return values
}

// resetAfterFlush 发送后的无条件复位（I3/P5）
func (e *Engine) resetAfterFlush(st *SubjectState, now time.Time) {
	for _, acc := range st.Acc {
		acc.Sum = 0
		acc.Count = 0
	}
	st.LastFlushAt = now
	st.DeferredDeadline = time.Time{}
}

// encodeParams 字段值编码为 ThingSpeak 参数：布尔 1/0，数值十进制
func encodeParams(values map[string]interface{}, fieldMap map[string]string) map[string]string {
	params := make(map[string]string, len(values))
	for name, v := range values {
		field, ok := fieldMap[name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			if val {
				params[field] = "1"
			} else {
				params[field] = "0"
			}
		case float64:
			params[field] = strconv.FormatFloat(val, 'f', -1, 64)
		case int:
			params[field] = strconv.Itoa(val)
		}
	}
	return params
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
