package models

// Snapshot 一次成功发送到 ThingSpeak 的聚合快照
// 发布到 Redis Streams 供下游服务（报表、卡片聚合等）消费
type Snapshot struct {
	SnapshotID string                 `json:"snapshot_id"`
	UserID     string                 `json:"user_id"`
	RoomID     string                 `json:"room_id"`
	Values     map[string]interface{} `json:"values"`
	EntryID    int64                  `json:"entry_id"`
	Timestamp  int64                  `json:"timestamp"`
}
