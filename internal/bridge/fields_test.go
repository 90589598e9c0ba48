package bridge_test

import (
	"testing"

	"wisefido-ts-bridge/internal/bridge"

	"github.com/stretchr/testify/require"
)

func TestFieldSet_Resolve(t *testing.T) {
	fields := newTestFieldSet()

	name, kind, ok := fields.Resolve("U1/dht/temp")
	require.True(t, ok)
	require.Equal(t, "temp", name)
	require.Equal(t, bridge.KindAverage, kind)

	// alias: raw -> light
	name, kind, ok = fields.Resolve("U1/ldr/raw")
	require.True(t, ok)
	require.Equal(t, "light", name)
	require.Equal(t, bridge.KindAverage, kind)

	name, kind, ok = fields.Resolve("U1/servoFan")
	require.True(t, ok)
	require.Equal(t, "servoFan", name)
	require.Equal(t, bridge.KindBool, kind)

	_, _, ok = fields.Resolve("U1/unknown")
	require.False(t, ok)
}

func TestToBool(t *testing.T) {
	cases := []struct {
		in      interface{}
		want    bool
		coerced bool
	}{
		{true, true, true},
		{false, false, true},
		{1.0, true, true},
		{0.0, false, true},
		{-2.0, true, true},
		{"true", true, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"on", true, true},
		{" On ", true, true},
		{"off", false, true},
		{"false", false, true},
		{"yes", false, true},
		{nil, false, false},
	}

	for _, c := range cases {
		got, coerced := bridge.ToBool(c.in)
		require.Equal(t, c.coerced, coerced, "input %v", c.in)
		require.Equal(t, c.want, got, "input %v", c.in)
	}
}
