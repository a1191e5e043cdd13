package shm

import (
	"context"
	"sync"
	"unsafe"

	"go.opentelemetry.io/otel/trace"

	internalshm "github.com/srediag/app-shm/internal/shm"
)

// MmapTransactor exposes the shared region through a live file mapping.
// The mapping pointer is owned exclusively by this instance and released
// exactly once by Close; nothing else may unmap it. Concurrent use is
// sound because every access to the mapped bytes happens inside
// Transaction's lock, never through a leaked pointer.
type MmapTransactor struct {
	mu        sync.Mutex
	shared    *SharedMem
	region    *internalshm.MappedRegion
	closeOnce sync.Once
	closeErr  error
}

// OpenMmapChannel maps the file at path and returns an AppChannel over it.
//
// The file is created if absent and zero-filled up to SharedMemSize if
// smaller, so a fresh region starts with all mailboxes empty; an existing
// region of sufficient size is attached as-is with its pending messages
// intact. Mapping failures surface the underlying OS error.
func OpenMmapChannel(ctx context.Context, path string, opts ...Option) (*AppChannel, error) {
	a := NewAppChannel(nil, opts...)
	if a.tracer != nil {
		var span trace.Span
		ctx, span = a.tracer.Start(ctx, "appshm.OpenMmapChannel")
		defer span.End()
	}

	region, err := internalshm.MapFile(ctx, internalshm.MapOptions{
		Path: path,
		Size: SharedMemSize,
	})
	if err != nil {
		return nil, err
	}
	internalLogger.infof("mapped shared region %s (%d bytes)", path, SharedMemSize)

	a.tr = &MmapTransactor{
		shared: (*SharedMem)(unsafe.Pointer(&region.Data[0])),
		region: region,
	}
	return a, nil
}

// Transaction locks, hands f the mapped region, unlocks.
func (t *MmapTransactor) Transaction(f func(*SharedMem)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(t.shared)
}

// Close unmaps the region. Safe to call more than once; only the first
// call does work.
func (t *MmapTransactor) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		path := t.region.Path
		t.closeErr = internalshm.Unmap(t.region)
		t.shared = nil
		if t.closeErr != nil {
			internalLogger.warnf("unmap %s failed: %v", path, t.closeErr)
		} else {
			internalLogger.infof("unmapped shared region %s", path)
		}
	})
	return t.closeErr
}
