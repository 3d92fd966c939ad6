package bytecode

import "encoding/binary"

// DefaultBlockSize is the allocation granularity for program section buffers.
const DefaultBlockSize = 8192

// Buffer is a byte buffer with a logical write cursor that grows in whole
// block increments. Program sections stay small, so the simple linear growth
// policy is a deliberate tradeoff: predictable allocation at the cost of more
// copies than amortized doubling would do.
type Buffer struct {
	blockSize int
	data      []byte
	cursor    int
}

// NewBuffer creates a buffer with one initial block. A non-positive block
// size falls back to DefaultBlockSize.
func NewBuffer(blockSize int) *Buffer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Buffer{
		blockSize: blockSize,
		data:      make([]byte, blockSize),
	}
}

// newLoadBuffer allocates a buffer sized for a section of stored length n:
// n/blockSize+1 whole blocks, zero-filled, with the cursor already at n.
func newLoadBuffer(blockSize int, n int64) *Buffer {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	blocks := int(n)/blockSize + 1
	return &Buffer{
		blockSize: blockSize,
		data:      make([]byte, blocks*blockSize),
		cursor:    int(n),
	}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.cursor
}

// Cap returns the number of bytes allocated.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// BlockSize returns the allocation granularity.
func (b *Buffer) BlockSize() int {
	return b.blockSize
}

// Grow ensures capacity for n more bytes past the cursor, expanding by whole
// block increments. Written bytes are preserved and new space is zero-filled.
func (b *Buffer) Grow(n int) {
	needed := b.cursor + n
	if needed <= len(b.data) {
		return
	}
	blocks := len(b.data) / b.blockSize
	for blocks*b.blockSize < needed {
		blocks++
	}
	grown := make([]byte, blocks*b.blockSize)
	copy(grown, b.data)
	b.data = grown
}

// Append writes p at the cursor, growing the buffer as needed.
func (b *Buffer) Append(p []byte) {
	b.Grow(len(p))
	copy(b.data[b.cursor:], p)
	b.cursor += len(p)
}

// AppendInt64 writes v at the cursor in little-endian byte order.
func (b *Buffer) AppendInt64(v int64) {
	b.Grow(8)
	binary.LittleEndian.PutUint64(b.data[b.cursor:], uint64(v))
	b.cursor += 8
}

// Bytes returns the written prefix of the buffer. The slice aliases the
// buffer's storage and is invalidated by the next growth.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.cursor]
}

// Int64At reads back a little-endian int64 at the given offset. The caller
// must ensure off+8 <= Len.
func (b *Buffer) Int64At(off int) int64 {
	return int64(binary.LittleEndian.Uint64(b.data[off:]))
}
