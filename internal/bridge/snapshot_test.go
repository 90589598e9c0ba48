package bridge_test

import (
	"context"
	"encoding/json"
	"testing"

	"wisefido-ts-bridge/internal/bridge"
	"wisefido-ts-bridge/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStreamSnapshotPublisher_PublishSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	publisher := bridge.NewStreamSnapshotPublisher(client, "bridge:snapshots", zap.NewNop())

	key := bridge.SubjectKey{UserID: "U1", RoomID: "R1"}
	values := map[string]interface{}{
		"temp":     21.5,
		"servoFan": true,
		"alerts":   2,
	}

	err := publisher.PublishSnapshot(context.Background(), key, values, 42)
	require.NoError(t, err)

	msgs, err := client.XRange(context.Background(), "bridge:snapshots", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["data"].(string)
	require.True(t, ok)

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	require.Equal(t, "U1", snapshot.UserID)
	require.Equal(t, "R1", snapshot.RoomID)
	require.Equal(t, int64(42), snapshot.EntryID)
	require.NotEmpty(t, snapshot.SnapshotID)
	require.Equal(t, 21.5, snapshot.Values["temp"])
}
