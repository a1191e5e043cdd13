// Package health runs the supervisor-side liveness loop over an app
// channel: it forces heartbeats out, drains worker status messages, and
// exposes heartbeat freshness as an HTTP health check.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/heptiolabs/healthcheck"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/app-shm/pkg/model"
	"github.com/srediag/app-shm/pkg/shm"
)

// ErrSlotOccupied is returned by a single push attempt inside SendControl's
// retry loop while the worker has not consumed the previous message.
var ErrSlotOccupied = errors.New("health: control mailbox still occupied")

// StatusHandler consumes one worker status message. Handlers run on the
// monitor's worker pool and must not block indefinitely.
type StatusHandler func(model.StatusMessage)

// Config tunes a Monitor. Zero values pick the defaults noted per field.
type Config struct {
	// HeartbeatInterval is how often a heartbeat is force-written.
	// Default 1s. Force, not push: a stale unread heartbeat is worthless.
	HeartbeatInterval time.Duration
	// LivenessTimeout is how stale the last worker status may be before
	// the liveness check fails. Default 30s.
	LivenessTimeout time.Duration
	// Workers is the status dispatch pool size. Default 4.
	Workers int
	// WSS, when nonzero, is attached to every heartbeat.
	WSS uint64
	// OnDecodeError, when set, receives pull decode failures; otherwise
	// they are counted and skipped.
	OnDecodeError func(error)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = time.Second
	}
	if out.LivenessTimeout <= 0 {
		out.LivenessTimeout = 30 * time.Second
	}
	if out.Workers <= 0 {
		out.Workers = 4
	}
	return out
}

// Monitor drives heartbeats and status polling for one worker.
type Monitor struct {
	ch      *shm.AppChannel
	cfg     Config
	handler StatusHandler
	pool    *ants.Pool

	// Unix nanos of the most recent worker status; 0 until the first one.
	lastStatus atomic.Int64
}

// NewMonitor builds a monitor over ch. handler may be nil when only
// liveness tracking is wanted.
func NewMonitor(ch *shm.AppChannel, cfg Config, handler StatusHandler) (*Monitor, error) {
	c := cfg.withDefaults()
	pool, err := ants.NewPool(c.Workers)
	if err != nil {
		return nil, fmt.Errorf("health: worker pool: %w", err)
	}
	return &Monitor{
		ch:      ch,
		cfg:     c,
		handler: handler,
		pool:    pool,
	}, nil
}

// Run loops until ctx is cancelled: every HeartbeatInterval it forces a
// heartbeat and drains pending status messages, dispatching each to the
// handler on the pool. Returns ctx.Err() on cancellation.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.ch.Force(model.Heartbeat{WSS: m.cfg.WSS})
			m.Poll()
		}
	}
}

// Poll drains every pending status message once. Usable directly by
// callers that schedule their own loop instead of Run.
func (m *Monitor) Poll() {
	for {
		msg, err := m.ch.PullStatus()
		if err != nil {
			if m.cfg.OnDecodeError != nil {
				m.cfg.OnDecodeError(err)
			}
			continue
		}
		if msg == nil {
			return
		}
		m.lastStatus.Store(time.Now().UnixNano())
		if m.handler == nil {
			continue
		}
		if err := m.pool.Submit(func() { m.handler(msg) }); err != nil {
			// Pool released mid-shutdown; handle inline.
			m.handler(msg)
		}
	}
}

// Alive reports whether a worker status arrived within LivenessTimeout.
func (m *Monitor) Alive() bool {
	last := m.lastStatus.Load()
	if last == 0 {
		return false
	}
	return time.Since(time.Unix(0, last)) < m.cfg.LivenessTimeout
}

// Handler returns an HTTP health handler with a liveness check bound to
// worker status freshness.
func (m *Monitor) Handler() healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddLivenessCheck("worker-status", func() error {
		if !m.Alive() {
			return fmt.Errorf("no worker status within %s", m.cfg.LivenessTimeout)
		}
		return nil
	})
	return h
}

// SendControl pushes msg, retrying with exponential backoff while the
// mailbox is occupied, until delivery or ctx cancellation. This is the
// caller-side retry policy the channel itself deliberately lacks.
func (m *Monitor) SendControl(ctx context.Context, msg model.ControlMessage) error {
	op := func() error {
		if m.ch.Push(msg) {
			return nil
		}
		return ErrSlotOccupied
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = m.cfg.HeartbeatInterval
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// Close releases the dispatch pool. The app channel stays open; the
// monitor does not own it.
func (m *Monitor) Close() error {
	m.pool.Release()
	return nil
}
