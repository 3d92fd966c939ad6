package bytecode

import (
	"bytes"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer(64)

	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.Cap() != 64 {
		t.Errorf("Cap() = %d, want 64", b.Cap())
	}
}

func TestNewBufferDefaultBlockSize(t *testing.T) {
	b := NewBuffer(0)

	if b.Cap() != DefaultBlockSize {
		t.Errorf("Cap() = %d, want %d", b.Cap(), DefaultBlockSize)
	}
	if b.BlockSize() != DefaultBlockSize {
		t.Errorf("BlockSize() = %d, want %d", b.BlockSize(), DefaultBlockSize)
	}
}

func TestBufferGrowsInWholeBlocks(t *testing.T) {
	b := NewBuffer(16)

	b.Append(make([]byte, 40))

	if b.Len() != 40 {
		t.Errorf("Len() = %d, want 40", b.Len())
	}
	if b.Cap() != 48 {
		t.Errorf("Cap() = %d, want 48 (three 16-byte blocks)", b.Cap())
	}
	if b.Cap()%b.BlockSize() != 0 {
		t.Errorf("Cap() = %d is not a multiple of the block size", b.Cap())
	}
}

func TestBufferGrowPreservesContent(t *testing.T) {
	b := NewBuffer(8)

	b.Append([]byte("hello"))
	b.Append([]byte(" world, this is longer than one block"))

	want := "hello world, this is longer than one block"
	if got := string(b.Bytes()); got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestBufferAppendInt64RoundTrip(t *testing.T) {
	b := NewBuffer(16)

	values := []int64{0, 1, -1, 42, -9000000000, 1 << 62}
	for _, v := range values {
		b.AppendInt64(v)
	}

	if b.Len() != len(values)*8 {
		t.Fatalf("Len() = %d, want %d", b.Len(), len(values)*8)
	}
	for i, v := range values {
		if got := b.Int64At(i * 8); got != v {
			t.Errorf("Int64At(%d) = %d, want %d", i*8, got, v)
		}
	}
}

func TestBufferAppendInt64LittleEndian(t *testing.T) {
	b := NewBuffer(16)
	b.AppendInt64(0x0102030405060708)

	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(b.Bytes(), want) {
		t.Errorf("Bytes() = % X, want % X", b.Bytes(), want)
	}
}

func TestNewLoadBufferSizing(t *testing.T) {
	tests := []struct {
		name      string
		blockSize int
		length    int64
		wantCap   int
	}{
		{"empty section", 16, 0, 16},
		{"partial block", 16, 10, 16},
		{"exact block gets a spare", 16, 16, 32},
		{"one past a block", 16, 17, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newLoadBuffer(tt.blockSize, tt.length)
			if b.Len() != int(tt.length) {
				t.Errorf("Len() = %d, want %d", b.Len(), tt.length)
			}
			if b.Cap() != tt.wantCap {
				t.Errorf("Cap() = %d, want %d", b.Cap(), tt.wantCap)
			}
		})
	}
}

func TestNewLoadBufferZeroFilled(t *testing.T) {
	b := newLoadBuffer(16, 12)
	for i, c := range b.Bytes() {
		if c != 0 {
			t.Fatalf("Bytes()[%d] = %d, want 0", i, c)
		}
	}
}
