//go:build linux || darwin

package shm

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapFile opens (creating if absent) the file at opts.Path and maps its
// first opts.Size bytes read-write with MAP_SHARED.
//
// A file smaller than opts.Size is zero-filled over the whole region, so a
// fresh file comes up as all-empty mailboxes; a file of sufficient size is
// left untouched and re-attaching preserves its contents. The file is
// created 0666 so a cooperating process under another uid can map it too.
func MapFile(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	_ = ctx

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_RDWR, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", opts.Path, err)
	}
	if st.Size() < int64(opts.Size) {
		if !canCreateOnDevShm(uint64(opts.Size), opts.Path) {
			return nil, fmt.Errorf("%s: %w (need %d bytes)", opts.Path, ErrNoShmSpace, opts.Size)
		}
		if _, err := f.WriteAt(make([]byte, opts.Size), 0); err != nil {
			return nil, fmt.Errorf("zero-fill %s: %w", opts.Path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", opts.Path, err)
	}
	return &MappedRegion{Data: data, Size: opts.Size, Path: opts.Path}, nil
}

// Unmap releases the mapping. Safe to call on a nil or already-unmapped
// region.
func Unmap(region *MappedRegion) error {
	if region == nil || region.Data == nil {
		return nil
	}
	if err := unix.Munmap(region.Data); err != nil {
		return fmt.Errorf("munmap %s: %w", region.Path, err)
	}
	region.Data = nil
	return nil
}
