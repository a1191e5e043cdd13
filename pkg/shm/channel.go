package shm

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/app-shm/pkg/model"
)

// ErrMalformedMessage means a mailbox was occupied but its bytes did not
// decode as the message shape its channel carries. The message is consumed;
// the error lets the caller decide between log-and-skip and abort. It is a
// protocol violation by the writing side, not an I/O condition.
var ErrMalformedMessage = errors.New("shm: malformed message in occupied mailbox")

// Transactor is the one primitive a backend must provide: run f with
// exclusive access to the whole shared region. No two transactions on the
// same instance ever overlap; f must not retain the *SharedMem past its
// return.
type Transactor interface {
	Transaction(f func(*SharedMem))
	Close() error
}

// AppChannel is the message-level view of the shared region. Every method
// opens exactly one transaction, so multi-mailbox scans can never interleave
// with a concurrent writer on the same instance.
//
// Locks do not cross the process boundary. Two AppChannels in different
// processes mapping the same file coordinate only through each mailbox's
// occupancy byte: check-before-overwrite on the writing side, pop on the
// reading side.
type AppChannel struct {
	tr Transactor

	tracer  trace.Tracer
	txCount metric.Int64Counter
}

// Option configures an AppChannel.
type Option func(*AppChannel)

// WithTracer records a span around mapped-channel setup and teardown.
func WithTracer(t trace.Tracer) Option {
	return func(a *AppChannel) { a.tracer = t }
}

// WithMeter counts transactions on the given meter as
// "appshm.transactions".
func WithMeter(m metric.Meter) Option {
	return func(a *AppChannel) {
		c, err := m.Int64Counter("appshm.transactions")
		if err != nil {
			internalLogger.warnf("meter rejected transaction counter: %v", err)
			return
		}
		a.txCount = c
	}
}

// NewAppChannel wraps a backend transactor. Most callers want
// NewMemoryChannel or OpenMmapChannel instead.
func NewAppChannel(tr Transactor, opts ...Option) *AppChannel {
	a := &AppChannel{tr: tr}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Transaction runs f under the instance lock with exclusive access to the
// shared region.
func (a *AppChannel) Transaction(f func(*SharedMem)) {
	transactionsTotal.Inc()
	if a.txCount != nil {
		a.txCount.Add(context.Background(), 1)
	}
	a.tr.Transaction(f)
}

// IsEmpty reports whether the channel's mailbox held no message at the
// instant of the transaction.
func (a *AppChannel) IsEmpty(c model.MsgChannel) bool {
	var empty bool
	a.Transaction(func(s *SharedMem) {
		empty = s.Channel(c).IsEmpty()
	})
	return empty
}

// Peek reads the channel's pending payload without consuming it.
func (a *AppChannel) Peek(c model.MsgChannel) ([]byte, bool) {
	var (
		v  []byte
		ok bool
	)
	a.Transaction(func(s *SharedMem) {
		v, ok = s.Channel(c).Peek()
	})
	return v, ok
}

// Receive consumes and returns the channel's pending payload. The mailbox
// is empty afterwards regardless of its prior state.
func (a *AppChannel) Receive(c model.MsgChannel) ([]byte, bool) {
	var (
		v  []byte
		ok bool
	)
	a.Transaction(func(s *SharedMem) {
		v, ok = s.Channel(c).Pop()
	})
	return v, ok
}

// Clear empties the channel's mailbox unconditionally.
func (a *AppChannel) Clear(c model.MsgChannel) {
	a.Transaction(func(s *SharedMem) {
		s.Channel(c).Clear()
	})
}

// Push routes m to its own channel and delivers it only if that mailbox is
// empty. A false return is backpressure, not failure: the peer has not
// consumed the previous message yet and the caller retries with the message
// it still holds.
func (a *AppChannel) Push(m model.Message) bool {
	return a.PushUnchecked(m.Channel(), m.Encode())
}

// Force routes m to its own channel and overwrites whatever is pending.
func (a *AppChannel) Force(m model.Message) {
	a.ForceUnchecked(m.Channel(), m.Encode())
}

// PushUnchecked is Push with the channel named by the caller instead of
// derived from the message type. Nothing validates that payload belongs on
// c; the caller owns protocol correctness.
func (a *AppChannel) PushUnchecked(c model.MsgChannel, payload []byte) bool {
	var accepted bool
	a.Transaction(func(s *SharedMem) {
		accepted = s.Channel(c).Push(payload)
	})
	if accepted {
		pushAccepted.WithLabelValues(c.String()).Inc()
	} else {
		pushRejected.WithLabelValues(c.String()).Inc()
	}
	return accepted
}

// ForceUnchecked is Force with a caller-named channel and raw payload.
func (a *AppChannel) ForceUnchecked(c model.MsgChannel, payload []byte) {
	a.Transaction(func(s *SharedMem) {
		s.Channel(c).ForcePush(payload)
	})
	pushAccepted.WithLabelValues(c.String()).Inc()
}

// PullControl scans the control channels in model.ControlChannels order
// inside one transaction and consumes the first occupied one. A nil message
// with a nil error means every control mailbox was empty.
func (a *AppChannel) PullControl() (model.ControlMessage, error) {
	var (
		msg model.ControlMessage
		err error
	)
	a.Transaction(func(s *SharedMem) {
		for _, c := range model.ControlChannels {
			v, ok := s.Channel(c).Pop()
			if !ok {
				continue
			}
			msg, err = decodeControl(c, v)
			return
		}
	})
	return msg, err
}

// PullStatus is PullControl for the status channel group.
func (a *AppChannel) PullStatus() (model.StatusMessage, error) {
	var (
		msg model.StatusMessage
		err error
	)
	a.Transaction(func(s *SharedMem) {
		for _, c := range model.StatusChannels {
			v, ok := s.Channel(c).Pop()
			if !ok {
				continue
			}
			msg, err = decodeStatus(c, v)
			return
		}
	})
	return msg, err
}

// Close releases the backend. For a mapped channel this unmaps the region;
// further operations on the instance are invalid.
func (a *AppChannel) Close() error {
	return a.tr.Close()
}

func decodeControl(c model.MsgChannel, v []byte) (model.ControlMessage, error) {
	m, err := model.DecodeControl(c, v)
	if err != nil {
		pullDecodeErrors.WithLabelValues(c.String()).Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, c, err)
	}
	return m, nil
}

func decodeStatus(c model.MsgChannel, v []byte) (model.StatusMessage, error) {
	m, err := model.DecodeStatus(c, v)
	if err != nil {
		pullDecodeErrors.WithLabelValues(c.String()).Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, c, err)
	}
	return m, nil
}
