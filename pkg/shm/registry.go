package shm

import (
	"context"
	"path/filepath"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// One mapping per file per process. Two goroutines opening the same path
// must share one instance, or they would hold independent locks over the
// same bytes.
var openChannels = cmap.New[*AppChannel]()

// OpenShared returns the process-wide AppChannel for path, mapping it on
// first use. Later calls with the same file return the same instance and
// ignore opts.
func OpenShared(ctx context.Context, path string, opts ...Option) (*AppChannel, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if ch, ok := openChannels.Get(abs); ok {
		return ch, nil
	}
	ch, err := OpenMmapChannel(ctx, abs, opts...)
	if err != nil {
		return nil, err
	}
	if !openChannels.SetIfAbsent(abs, ch) {
		// Lost the race; keep the winner's mapping.
		_ = ch.Close()
		ch, _ = openChannels.Get(abs)
	}
	return ch, nil
}

// CloseShared drops the registry entry for path and unmaps it. No-op for a
// path that was never opened through OpenShared.
func CloseShared(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	ch, ok := openChannels.Pop(abs)
	if !ok {
		return nil
	}
	return ch.Close()
}
