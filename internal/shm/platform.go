// Package shm contains platform-specific helpers for mapping the shared
// region file. Callers hold the returned region exclusively and must unmap
// it exactly once.
package shm

// MapOptions describes a region to map.
type MapOptions struct {
	// Path is the backing file. Created if absent.
	Path string
	// Size is the exact number of bytes to map at offset 0.
	Size int
}

// MappedRegion is a live shared mapping of a file.
type MappedRegion struct {
	Data []byte
	Size int
	Path string
}
