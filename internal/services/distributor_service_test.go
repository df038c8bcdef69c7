package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	name    string
	payload interface{}
	comment string
}

// captureSink records everything the distributor writes. failFrom makes
// every write starting at that index fail, simulating a gone client.
type captureSink struct {
	mu       sync.Mutex
	events   []recordedEvent
	failFrom int
}

func newCaptureSink() *captureSink {
	return &captureSink{failFrom: -1}
}

func (s *captureSink) Event(name string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom >= 0 && len(s.events) >= s.failFrom {
		return errors.New("client gone")
	}
	s.events = append(s.events, recordedEvent{name: name, payload: payload})
	return nil
}

func (s *captureSink) Comment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom >= 0 && len(s.events) >= s.failFrom {
		return errors.New("client gone")
	}
	s.events = append(s.events, recordedEvent{comment: text})
	return nil
}

func (s *captureSink) recorded() []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedEvent, len(s.events))
	copy(out, s.events)
	return out
}

func fastStreamConfig() config.StreamConfig {
	return config.StreamConfig{
		PollInterval:       2 * time.Millisecond,
		ErrorRetryInterval: 5 * time.Millisecond,
		HeartbeatInterval:  time.Hour,
	}
}

func TestDistributor_TerminalClosesStream(t *testing.T) {
	base := time.Now()
	reads := 0
	read := func(ctx context.Context) (Snapshot, error) {
		reads++
		if reads < 3 {
			return Snapshot{Payload: "tick", Watermark: base.Add(time.Duration(reads) * time.Second)}, nil
		}
		return Snapshot{
			Payload:        "done",
			Watermark:      base.Add(time.Duration(reads) * time.Second),
			TerminalStatus: "completed",
		}, nil
	}

	sink := newCaptureSink()
	d := NewDistributor(read, "plan_update", "completed", fastStreamConfig(), testLogger())

	err := d.Run(context.Background(), sink)
	require.NoError(t, err)

	events := sink.recorded()
	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, "connected", events[0].name)
	// Final two events: the last update, then the terminal event.
	assert.Equal(t, "plan_update", events[len(events)-2].name)
	assert.Equal(t, "completed", events[len(events)-1].name)
	assert.Equal(t, map[string]string{"status": "completed"}, events[len(events)-1].payload)
}

func TestDistributor_NoUpdateWithoutWatermarkAdvance(t *testing.T) {
	base := time.Now()
	reads := 0
	read := func(ctx context.Context) (Snapshot, error) {
		reads++
		snapshot := Snapshot{Payload: "tick", Watermark: base}
		if reads >= 5 {
			snapshot.TerminalStatus = "completed"
		}
		return snapshot, nil
	}

	sink := newCaptureSink()
	d := NewDistributor(read, "plan_update", "completed", fastStreamConfig(), testLogger())

	err := d.Run(context.Background(), sink)
	require.NoError(t, err)

	updates := 0
	for _, e := range sink.recorded() {
		if e.name == "plan_update" {
			updates++
		}
	}
	// The watermark advanced once (from zero) and never again.
	assert.Equal(t, 1, updates)
}

func TestDistributor_ReadFailureEmitsErrorAndRecovers(t *testing.T) {
	base := time.Now()
	reads := 0
	read := func(ctx context.Context) (Snapshot, error) {
		reads++
		if reads == 1 {
			return Snapshot{}, errors.New("db down")
		}
		return Snapshot{
			Payload:        "done",
			Watermark:      base.Add(time.Second),
			TerminalStatus: "completed",
		}, nil
	}

	sink := newCaptureSink()
	d := NewDistributor(read, "plan_update", "completed", fastStreamConfig(), testLogger())

	err := d.Run(context.Background(), sink)
	require.NoError(t, err)

	events := sink.recorded()
	require.GreaterOrEqual(t, len(events), 4)
	assert.Equal(t, "connected", events[0].name)
	assert.Equal(t, "error", events[1].name)
	assert.Equal(t, "plan_update", events[2].name)
	assert.Equal(t, "completed", events[3].name)
}

func TestDistributor_ClientGoneStopsSilently(t *testing.T) {
	base := time.Now()
	reads := 0
	read := func(ctx context.Context) (Snapshot, error) {
		reads++
		return Snapshot{Payload: "tick", Watermark: base.Add(time.Duration(reads) * time.Second)}, nil
	}

	sink := newCaptureSink()
	sink.failFrom = 2 // connected + one update get through

	d := NewDistributor(read, "plan_update", "completed", fastStreamConfig(), testLogger())

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background(), sink) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("distributor did not stop after sink failure")
	}
	assert.Len(t, sink.recorded(), 2)
}

func TestDistributor_ContextCancelStops(t *testing.T) {
	read := func(ctx context.Context) (Snapshot, error) {
		return Snapshot{Payload: "tick", Watermark: time.Now()}, nil
	}

	sink := newCaptureSink()
	d := NewDistributor(read, "plan_update", "completed", fastStreamConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, sink) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("distributor did not stop on context cancel")
	}
}

func TestDistributor_HeartbeatWhenIdle(t *testing.T) {
	cfg := fastStreamConfig()
	cfg.HeartbeatInterval = 5 * time.Millisecond

	base := time.Now()
	reads := 0
	read := func(ctx context.Context) (Snapshot, error) {
		reads++
		snapshot := Snapshot{Payload: "tick", Watermark: base}
		if reads >= 20 {
			snapshot.TerminalStatus = "completed"
		}
		return snapshot, nil
	}

	sink := newCaptureSink()
	d := NewDistributor(read, "plan_update", "completed", cfg, testLogger())

	err := d.Run(context.Background(), sink)
	require.NoError(t, err)

	heartbeats := 0
	for _, e := range sink.recorded() {
		if e.comment == "heartbeat" {
			heartbeats++
		}
	}
	assert.Greater(t, heartbeats, 0)
}
