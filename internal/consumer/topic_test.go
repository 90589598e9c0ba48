package consumer_test

import (
	"testing"

	"wisefido-ts-bridge/internal/consumer"

	"github.com/stretchr/testify/require"
)

func TestParseTopic_Telemetry(t *testing.T) {
	info, ok := consumer.ParseTopic("SC/U1/R1/temp")
	require.True(t, ok)
	require.Equal(t, "U1", info.UserID)
	require.Equal(t, "R1", info.RoomID)
	require.Equal(t, "temp", info.Leaf)
	require.False(t, info.IsAlert)

	// leading slash and duplicated slashes are normalized
	info, ok = consumer.ParseTopic("/SC/U1//R1/wakeup")
	require.True(t, ok)
	require.Equal(t, "U1", info.UserID)
	require.Equal(t, "wakeup", info.Leaf)

	info, ok = consumer.ParseTopic("SC/U1/R1/dht/temp")
	require.True(t, ok)
	require.Equal(t, "temp", info.Leaf)
}

func TestParseTopic_Alerts(t *testing.T) {
	info, ok := consumer.ParseTopic("SC/alerts/U1/R1/bpm")
	require.True(t, ok)
	require.True(t, info.IsAlert)
	require.Equal(t, "U1", info.UserID)
	require.Equal(t, "R1", info.RoomID)
}

func TestParseTopic_Malformed(t *testing.T) {
	cases := []string{
		"SC/U1/R1",      // too few segments
		"XX/U1/R1/temp", // wrong root
		"SC/alerts/U1",  // alerts without room
		"",
	}
	for _, topic := range cases {
		_, ok := consumer.ParseTopic(topic)
		require.False(t, ok, "topic %q", topic)
	}
}

func TestNormalizeSubscriptions(t *testing.T) {
	out := consumer.NormalizeSubscriptions([]string{
		"SC/{User}/{Room}/#",
		" SC//alerts/{User}/{Room}/# ",
		"",
	})
	require.Equal(t, []string{"SC/+/+/#", "SC/alerts/+/+/#"}, out)
}
