package shm

import "bytes"

const (
	// MailboxSize is the raw byte size of one mailbox slot. Part of the
	// shared memory ABI.
	MailboxSize = 1024

	// MailboxCapacity is the largest payload a mailbox delivers intact.
	// Byte 0 is the occupancy flag and the tail bytes are reserved for the
	// NUL terminator and guard padding, so writes and reads both stop at
	// MailboxSize-4 bytes of payload. Longer payloads are truncated, not
	// rejected.
	MailboxCapacity = MailboxSize - 4
)

// Mailbox is a single-slot framed buffer inside the shared region.
//
// buf[0] is the occupancy flag (0 = empty). The payload starts at buf[1]
// and is NUL-terminated; buf[MailboxSize-1] is kept zero as a guard. When
// the occupancy flag is 0 the payload bytes are meaningless and readers
// never look at them.
type Mailbox struct {
	buf [MailboxSize]byte
}

// IsEmpty reports whether the slot holds no pending message.
func (m *Mailbox) IsEmpty() bool {
	return m.buf[0] == 0
}

// Clear marks the slot empty. Idempotent; payload bytes are left in place
// but become dead.
func (m *Mailbox) Clear() {
	m.buf[0] = 0
}

// Peek copies out the pending payload without consuming it. The second
// return value distinguishes an empty slot from a present zero-length
// payload. The copy is truncated at the first NUL and at MailboxCapacity,
// whichever comes first, regardless of what a writer managed to store.
func (m *Mailbox) Peek() ([]byte, bool) {
	if m.IsEmpty() {
		return nil, false
	}
	n := MailboxCapacity
	if i := bytes.IndexByte(m.buf[1:1+MailboxCapacity], 0); i >= 0 {
		n = i
	}
	out := make([]byte, n)
	copy(out, m.buf[1:1+n])
	return out, true
}

// Pop is Peek followed by Clear.
func (m *Mailbox) Pop() ([]byte, bool) {
	v, ok := m.Peek()
	m.Clear()
	return v, ok
}

// ForcePush overwrites the slot with payload and marks it occupied, no
// matter what it held before. Last writer wins; meant for liveness-style
// channels where a stale pending value is worthless. The payload is
// truncated at MailboxCapacity and at its first embedded NUL.
func (m *Mailbox) ForcePush(payload []byte) {
	n := len(payload)
	if n > MailboxCapacity {
		n = MailboxCapacity
		payloadTruncations.Inc()
	}
	if i := bytes.IndexByte(payload[:n], 0); i >= 0 {
		n = i
	}
	m.buf[0] = 1
	copy(m.buf[1:1+n], payload[:n])
	m.buf[1+n] = 0
	m.buf[MailboxSize-1] = 0
}

// Push writes payload only if the slot is empty. A false return means the
// previous occupant has not been consumed yet; the caller keeps the payload
// and retries later. This is the at-most-one-pending-message contract.
func (m *Mailbox) Push(payload []byte) bool {
	if !m.IsEmpty() {
		return false
	}
	m.ForcePush(payload)
	return true
}
