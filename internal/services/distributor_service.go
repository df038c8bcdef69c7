package services

import (
	"context"
	"time"

	"github.com/cargolink/fulfillment-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// Snapshot is one read of a tracked entity's current state.
type Snapshot struct {
	// Payload is the serialized update emitted when the watermark advances.
	Payload interface{}
	// Watermark is the max updated_at across the entity and its children.
	Watermark time.Time
	// TerminalStatus, when non-empty, tells the distributor to emit a
	// terminal event and close the stream.
	TerminalStatus string
}

// ReadFunc reads the tracked entity's current state. It is called once
// per poll tick; each live-tracking feature supplies its own.
type ReadFunc func(ctx context.Context) (Snapshot, error)

// EventSink receives stream events. Write errors mean the client is gone;
// the distributor stops silently when it sees one.
type EventSink interface {
	Event(name string, payload interface{}) error
	Comment(text string) error
}

// Distributor is the generic incremental change distributor behind every
// live-tracking stream (plan status, driver location, notifications).
// Each stream runs its own loop; all per-stream state is local to Run.
type Distributor struct {
	read          ReadFunc
	updateEvent   string
	terminalEvent string
	cfg           config.StreamConfig
	logger        *logrus.Logger
}

// NewDistributor creates a distributor for one tracked entity.
// updateEvent and terminalEvent name the SSE events this feature emits.
func NewDistributor(read ReadFunc, updateEvent, terminalEvent string, cfg config.StreamConfig, logger *logrus.Logger) *Distributor {
	return &Distributor{
		read:          read,
		updateEvent:   updateEvent,
		terminalEvent: terminalEvent,
		cfg:           cfg,
		logger:        logger,
	}
}

// Run executes the polling loop until the entity reaches a terminal
// status, the context is cancelled, or the client disconnects. Polling is
// cooperative: the next tick is armed only after the current read
// completes, so a slow read never causes overlapping reads on one stream.
func (d *Distributor) Run(ctx context.Context, sink EventSink) error {
	if err := sink.Event("connected", map[string]string{"status": "connected"}); err != nil {
		return nil
	}

	var lastWatermark time.Time
	var lastHeartbeat = time.Now()
	interval := d.cfg.PollInterval

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}

		snapshot, err := d.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Transient read failure: surface it and back off, never close.
			d.logger.WithError(err).Warn("Stream poll read failed, backing off")
			if err := sink.Event("error", map[string]string{"message": "temporary read failure"}); err != nil {
				return nil
			}
			interval = d.cfg.ErrorRetryInterval
			continue
		}
		interval = d.cfg.PollInterval

		if snapshot.Watermark.After(lastWatermark) {
			if err := sink.Event(d.updateEvent, snapshot.Payload); err != nil {
				return nil
			}
			lastWatermark = snapshot.Watermark
			lastHeartbeat = time.Now()
		} else if time.Since(lastHeartbeat) >= d.cfg.HeartbeatInterval {
			// Keeps intermediary proxies from timing out idle connections.
			if err := sink.Comment("heartbeat"); err != nil {
				return nil
			}
			lastHeartbeat = time.Now()
		}

		if snapshot.TerminalStatus != "" {
			// The only normal closure path besides client disconnect.
			if err := sink.Event(d.terminalEvent, map[string]string{"status": snapshot.TerminalStatus}); err != nil {
				return nil
			}
			return nil
		}
	}
}
