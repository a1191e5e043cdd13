// Package shm implements the fixed-layout shared memory channel between a
// supervisor process and the worker application it runs.
//
// The shared region is eight single-slot mailboxes of 1024 bytes each,
// concatenated in a fixed order with no padding, so both processes map the
// same file and interpret identical byte offsets. A mailbox's first byte is
// its occupancy flag; that byte is the only synchronization primitive that
// crosses the process boundary. Within one process every access goes
// through a single per-instance lock, exposed as the AppChannel transaction
// API.
//
// Two backends provide the same AppChannel surface: NewMemoryChannel for
// in-process use and tests, and OpenMmapChannel over a mapped file for real
// inter-process use.
package shm
