package shm

import (
	"errors"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// ErrNoShmSpace means /dev/shm has too little free space left to grow the
// backing file to the region size.
var ErrNoShmSpace = errors.New("shm: not enough space left on /dev/shm")

// canCreateOnDevShm reports whether a region of the given size fits the
// filesystem backing path. Only enforced for tmpfs paths under /dev/shm on
// Linux; a write that overcommits tmpfs fails with SIGBUS at page-fault
// time rather than at write time, so it has to be caught up front.
func canCreateOnDevShm(size uint64, path string) bool {
	if runtime.GOOS != "linux" || !strings.HasPrefix(path, "/dev/shm") {
		return true
	}
	stat, err := disk.Usage("/dev/shm")
	if err != nil {
		return true
	}
	return stat.Free >= size
}
