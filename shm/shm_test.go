package shm

import (
	"io"
	"testing"

	"golang.org/x/sys/unix"
)

func TestMapShared(t *testing.T) {
	const size = 4096

	file, err := Create(size)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer file.Close()

	mmap, err := Map(file, size, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	defer mmap.Unmap()

	copy(mmap, "shared")

	buf := make([]byte, 6)
	_, err = file.ReadAt(buf, 0)
	if (err != nil) && (err != io.EOF) {
		t.Fatalf("read back: %v", err)
	}
	if string(buf) != "shared" {
		t.Fatalf("file contents = %q, want %q", buf, "shared")
	}

	info, err := file.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != size {
		t.Fatalf("size = %v, want %v", info.Size(), size)
	}
}
