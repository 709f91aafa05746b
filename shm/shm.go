// Package shm provides helpers for dealing with shared memory.
package shm

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Create creates an anonymous shared memory file of the given size. It
// prefers memfd_create and falls back to an unlinked file in /dev/shm.
func Create(size int64) (*os.File, error) {
	file, err := create()
	if err != nil {
		return nil, err
	}

	err = file.Truncate(size)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("truncate: %w", err)
	}
	return file, nil
}

func create() (*os.File, error) {
	fd, err := unix.MemfdCreate("infolauncher-shm", unix.MFD_CLOEXEC)
	if err == nil {
		return os.NewFile(uintptr(fd), "infolauncher-shm"), nil
	}

	path := "/dev/shm/infolauncher-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return file, os.Remove(path)
}

// Mmap is a shared memory mapping.
type Mmap []byte

// Map maps the first size bytes of file into memory.
func Map(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, cerr
	}

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}
