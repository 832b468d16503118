package tokenizer

import "sync"

// bufferPool holds scratch buffers for quoted fields that contain escaped
// quotations and therefore cannot be sliced straight out of the input.
var bufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 64)
		return &b
	},
}

func getBuffer() []byte {
	p := bufferPool.Get().(*[]byte)
	return (*p)[:0]
}

func putBuffer(buf []byte) {
	// Don't keep huge buffers alive.
	const maxCapacity = 4096
	if cap(buf) > maxCapacity {
		return
	}
	buf = buf[:0]
	bufferPool.Put(&buf)
}
