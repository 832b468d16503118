//go:build unix

package source

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// mapChunker hands out consecutive slices of a read-only mapping.
type mapChunker struct {
	f    *os.File
	data []byte
	off  int
	size int
}

func mapFile(f *os.File, chunkSize int) (Chunker, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()
	if size == 0 || !stat.Mode().IsRegular() {
		return nil, errNoMmap
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	return &mapChunker{f: f, data: data, size: chunkSize}, nil
}

func (c *mapChunker) Next() ([]byte, error) {
	if c.off >= len(c.data) {
		return nil, io.EOF
	}
	end := c.off + c.size
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.off:end]
	c.off = end
	return chunk, nil
}

// Close unmaps the file. Chunks returned earlier must not be used after.
func (c *mapChunker) Close() error {
	var err error
	if c.data != nil {
		err = unix.Munmap(c.data)
		c.data = nil
	}
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}
