package tokenizer

import "testing"

func TestBufferPool(t *testing.T) {
	buf := getBuffer()
	if len(buf) != 0 {
		t.Errorf("getBuffer() len = %d, want 0", len(buf))
	}
	buf = append(buf, "a\"b"...)
	putBuffer(buf)

	buf = getBuffer()
	if len(buf) != 0 {
		t.Errorf("getBuffer() after reuse len = %d, want 0", len(buf))
	}
	putBuffer(buf)
}

func TestBufferPoolDropsLargeBuffers(t *testing.T) {
	// Must not panic, and the oversized buffer is simply not pooled.
	putBuffer(make([]byte, 0, 1<<20))
	if buf := getBuffer(); cap(buf) > 4096 {
		t.Errorf("getBuffer() cap = %d, want <= 4096", cap(buf))
	}
}
