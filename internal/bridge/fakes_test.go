package bridge_test

import (
	"context"
	"sync"
	"time"

	"wisefido-ts-bridge/internal/bridge"
	"wisefido-ts-bridge/internal/senml"

	"go.uber.org/zap"
)

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func num(name string, v float64) senml.Measurement {
	return senml.Measurement{Name: name, Value: v}
}

// fakeSink records writes and returns a scripted entry ID
type fakeSink struct {
	mu      sync.Mutex
	writes  []sinkWrite
	nextID  int64
	rejects bool
	err     error
}

type sinkWrite struct {
	apiKey string
	params map[string]string
}

func (s *fakeSink) Write(ctx context.Context, apiKey string, params map[string]string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	s.writes = append(s.writes, sinkWrite{apiKey: apiKey, params: copied})
	if s.rejects {
		return 0, nil
	}
	s.nextID++
	return s.nextID, nil
}

func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeSink) lastWrite() sinkWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[len(s.writes)-1]
}

// fakeResolver returns a fixed key per user unless told to miss
type fakeResolver struct {
	miss bool
}

func (r *fakeResolver) Resolve(ctx context.Context, user, room string) (string, string, bool) {
	if r.miss {
		return "", "", false
	}
	return "KEY-" + user, "", true
}

func defaultFieldMap() map[string]string {
	return map[string]string{
		"temp":         "field1",
		"hum":          "field2",
		"bpm":          "field3",
		"light":        "field4",
		"servoFan":     "field5",
		"servoCurtain": "field6",
		"LedL":         "field7",
		"alerts":       "field8",
	}
}

func newTestFieldSet() *bridge.FieldSet {
	return bridge.NewFieldSet(
		[]string{"temp", "hum", "bpm", "light"},
		[]string{"servoFan", "servoCurtain", "LedL"},
		[]string{bridge.AlertsField},
		bridge.DefaultAliases,
	)
}

func newTestEngine(minPeriodSeconds int, sink bridge.SinkWriter, creds bridge.CredentialResolver) (*bridge.Engine, *bridge.Store) {
	fields := newTestFieldSet()
	store := bridge.NewStore(fields)
	engine := bridge.NewEngine(
		store,
		fields,
		defaultFieldMap(),
		secs(minPeriodSeconds),
		"ALERT",
		creds,
		sink,
		nil,
		zap.NewNop(),
	)
	return engine, store
}
