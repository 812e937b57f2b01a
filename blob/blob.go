package blob

import "fmt"

// Blob pairs a byte buffer with the number of meaningful bytes in it. The
// buffer's full length is its capacity; Size is the declared length, which
// operations shrink to the number of bytes actually produced. It is used
// uniformly for digests, signatures, and random challenge material.
type Blob struct {
	Data []byte
	Size int
}

// New returns a Blob backed by a fresh buffer of the given capacity, with
// Size covering the whole buffer.
func New(capacity int) *Blob {
	return &Blob{
		Data: make([]byte, capacity),
		Size: capacity,
	}
}

// FromBytes wraps an existing buffer. The caller keeps ownership of b.
func FromBytes(b []byte) *Blob {
	return &Blob{
		Data: b,
		Size: len(b),
	}
}

// Bytes returns the declared-size view of the buffer.
func (b *Blob) Bytes() []byte {
	return b.Data[:b.Size]
}

// Capacity returns the most bytes the blob can hold.
func (b *Blob) Capacity() int {
	return len(b.Data)
}

// SetBytes copies p into the buffer and records its length as the new Size.
// It refuses to write past capacity; a too-large p leaves the blob untouched.
func (b *Blob) SetBytes(p []byte) error {
	if len(p) > len(b.Data) {
		return fmt.Errorf("blob: %d bytes exceed capacity %d", len(p), len(b.Data))
	}
	copy(b.Data, p)
	b.Size = len(p)
	return nil
}
