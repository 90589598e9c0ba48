package bridge

import (
	"context"
	"encoding/json"
	"time"

	"wisefido-ts-bridge/internal/models"

	"go.uber.org/zap"
)

// HandleAlert 处理报警主题消息
// 任一事件 status 命中配置标记时递增该主题的窗口计数，
// 新计数写入 lastKnown，随下一次周期发送带出；不触发发送
func (e *Engine) HandleAlert(ctx context.Context, user, room string, payload []byte) {
	var msg models.AlertMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		e.logger.Debug("Alert payload not JSON-parsable",
			zap.String("user_id", user),
			zap.String("room_id", room),
			zap.Error(err),
		)
		return
	}

	hasAlert := false
	for _, evt := range msg.Events {
		if evt.Status == e.alertStatus {
			hasAlert = true
			break
		}
	}
	if !hasAlert {
		e.logger.Debug("Skip alert message: no out-of-range status",
			zap.String("user_id", user),
			zap.String("room_id", room),
		)
		return
	}

	key := SubjectKey{UserID: user, RoomID: room}
	e.store.WithState(key, func(st *SubjectState) {
		st.AlertCount++
		st.LastKnown[AlertsField] = st.AlertCount

		e.logger.Info("Alert count incremented",
			zap.String("user_id", user),
			zap.String("room_id", room),
			zap.Int("count", st.AlertCount),
		)
	})
}

// HandleWindowReset 处理 initTimeshift 控制事件：开启新的监测窗口
// 清零报警计数并取消未消费的延迟发送截止时间
func (e *Engine) HandleWindowReset(user, room string) {
	key := SubjectKey{UserID: user, RoomID: room}
	e.store.WithState(key, func(st *SubjectState) {
		st.AlertCount = 0
		st.LastKnown[AlertsField] = 0
		st.DeferredDeadline = time.Time{}
	})

	e.logger.Info("Alert window reset, next periodic send will include alerts=0",
		zap.String("user_id", user),
		zap.String("room_id", room),
	)
}
