package shm

import (
	queuepkg "github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/app-shm/pkg/model"
)

// Spool absorbs push backpressure on the sending side. A rejected message
// is parked in an in-process FIFO and retried on the next Flush, so callers
// that must not lose messages get ordered eventual delivery without
// spinning on an occupied mailbox. Strictly process-local; nothing here
// touches the shared region except through the channel's own Push.
type Spool struct {
	ch *AppChannel
	q  *queuepkg.Queue
}

// NewSpool returns a spool draining into ch. hint sizes the backing queue.
func NewSpool(ch *AppChannel, hint int64) *Spool {
	return &Spool{ch: ch, q: queuepkg.New(hint)}
}

// Enqueue delivers m immediately when its mailbox is free, otherwise parks
// it. Messages for an occupied mailbox queue up behind earlier parked ones
// so per-spool order is preserved.
func (s *Spool) Enqueue(m model.Message) error {
	if s.q.Empty() && s.ch.Push(m) {
		return nil
	}
	return s.q.Put(m)
}

// Flush pushes parked messages in order until one is rejected or the queue
// is drained. Returns how many were delivered.
func (s *Spool) Flush() int {
	delivered := 0
	for !s.q.Empty() {
		head, err := s.q.Peek()
		if err != nil {
			break
		}
		m, ok := head.(model.Message)
		if !ok {
			// Unreachable through Enqueue; drop the foreign item.
			_, _ = s.q.Get(1)
			continue
		}
		if !s.ch.Push(m) {
			break
		}
		_, _ = s.q.Get(1)
		delivered++
	}
	return delivered
}

// Pending is the number of parked messages.
func (s *Spool) Pending() int64 {
	return s.q.Len()
}

// Dispose drops parked messages and poisons the spool. The underlying
// channel stays open.
func (s *Spool) Dispose() {
	s.q.Dispose()
}
