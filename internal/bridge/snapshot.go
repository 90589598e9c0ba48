package bridge

import (
	"context"
	"time"

	"wisefido-ts-bridge/internal/models"
	rediscommon "wisefido-ts-bridge/internal/redis"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StreamSnapshotPublisher 将成功发送的快照发布到 Redis Streams
// 与其他采集服务的标准化数据流保持一致，供下游服务消费
type StreamSnapshotPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamSnapshotPublisher 创建快照发布器
func NewStreamSnapshotPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamSnapshotPublisher {
	return &StreamSnapshotPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// PublishSnapshot 发布单次快照
func (p *StreamSnapshotPublisher) PublishSnapshot(ctx context.Context, key SubjectKey, values map[string]interface{}, entryID int64) error {
	snapshot := models.Snapshot{
		SnapshotID: uuid.NewString(),
		UserID:     key.UserID,
		RoomID:     key.RoomID,
		Values:     values,
		EntryID:    entryID,
		Timestamp:  time.Now().Unix(),
	}

	streamID, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, snapshot)
	if err != nil {
		return err
	}

	p.logger.Debug("Published snapshot to Redis Streams",
		zap.String("user_id", key.UserID),
		zap.String("room_id", key.RoomID),
		zap.String("stream_id", streamID),
	)
	return nil
}
