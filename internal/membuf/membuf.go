// Package membuf implements the growable byte buffer the reference
// backend's object writer (internal/backend/vm's Write) uses to assemble
// the serialized module. It is the idiomatic-Go stand-in for
// neatcc's mem.c: a realloc-on-demand buffer, minus the manual size doubling.
package membuf

// Buf is a growable byte buffer addressed like a flat section of memory.
// The zero value is ready to use.
type Buf struct {
	data []byte
}

// Len returns the number of bytes written so far.
func (b *Buf) Len() int { return len(b.data) }

// Bytes returns the buffer's current contents. The slice is only valid
// until the next mutating call.
func (b *Buf) Bytes() []byte { return b.data }

// Put appends p to the buffer and returns the offset it was written at.
func (b *Buf) Put(p []byte) int {
	off := len(b.data)
	b.data = append(b.data, p...)
	return off
}

// PutByte appends a single byte and returns the offset it was written at.
func (b *Buf) PutByte(c byte) int {
	off := len(b.data)
	b.data = append(b.data, c)
	return off
}

// Grow extends the buffer by n zero bytes and returns the offset of the
// first new byte, analogous to mem.c's mem_grow.
func (b *Buf) Grow(n int) int {
	off := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return off
}

// SetAt overwrites n bytes starting at off, growing the buffer first if
// necessary. Nothing in this repository calls it; the object writer only
// appends.
func (b *Buf) SetAt(off int, p []byte) {
	need := off + len(p)
	if need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	copy(b.data[off:], p)
}
