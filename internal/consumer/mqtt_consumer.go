package consumer

import (
	"context"
	"fmt"
	"time"

	"wisefido-ts-bridge/internal/bridge"
	"wisefido-ts-bridge/internal/config"
	mqttcommon "wisefido-ts-bridge/internal/mqtt"
	"wisefido-ts-bridge/internal/senml"

	"go.uber.org/zap"
)

// 控制事件叶子段
const (
	leafWindowReset = "initTimeshift"
	leafWakeup      = "wakeup"
)

// MQTTConsumer MQTT消息消费者：分类主题并分发到聚合引擎
type MQTTConsumer struct {
	config        *config.Config
	mqttClient    *mqttcommon.Client
	engine        *bridge.Engine
	logger        *zap.Logger
	subscriptions []string
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqttcommon.Client,
	engine *bridge.Engine,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:        cfg,
		mqttClient:    mqttClient,
		engine:        engine,
		logger:        logger,
		subscriptions: NormalizeSubscriptions(cfg.Bridge.Topics),
	}
}

// Subscriptions 归一化后的订阅主题（目录注册使用）
func (c *MQTTConsumer) Subscriptions() []string {
	return c.subscriptions
}

// Start 启动消费者
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if len(c.subscriptions) == 0 {
		return fmt.Errorf("no MQTT subscriptions configured")
	}

	for _, topic := range c.subscriptions {
		if err := c.mqttClient.Subscribe(topic, c.config.MQTT.QoS, c.handleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
		}
	}

	c.logger.Info("MQTT consumer started",
		zap.Strings("topics", c.subscriptions),
	)

	// 等待上下文取消
	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if len(c.subscriptions) > 0 {
		if err := c.mqttClient.Unsubscribe(c.subscriptions...); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理MQTT消息
// 解码失败只记录日志，单条坏消息不能打断该主题的聚合
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	info, ok := ParseTopic(topic)
	if !ok {
		c.logger.Debug("Topic not matched, skip",
			zap.String("topic", topic),
		)
		return nil
	}

	ctx := context.Background()
	now := time.Now()

	// 控制事件：窗口重置
	if info.Leaf == leafWindowReset {
		c.engine.HandleWindowReset(info.UserID, info.RoomID)
		return nil
	}

	// 控制事件：强制发送请求（消息体若携带 SenML 仍继续解析）
	if info.Leaf == leafWakeup {
		c.engine.HandleWakeup(info.UserID, info.RoomID, now)
	}

	measures, err := senml.Parse(payload)
	if err != nil || len(measures) == 0 {
		if info.IsAlert {
			c.engine.HandleAlert(ctx, info.UserID, info.RoomID, payload)
			return nil
		}
		if err != nil && info.Leaf != leafWakeup {
			c.logger.Debug("Parse skipped (not SenML)",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
		return nil
	}

	c.engine.HandleMeasurements(ctx, info.UserID, info.RoomID, measures, now)
	return nil
}
