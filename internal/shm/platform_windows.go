//go:build windows

package shm

import (
	"context"
	"errors"
)

// MapFile is not implemented on Windows; the cooperating worker runtime is
// unix-only.
func MapFile(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	return nil, errors.New("shm: file mapping is not supported on windows")
}

// Unmap is a no-op on Windows.
func Unmap(region *MappedRegion) error {
	return nil
}
