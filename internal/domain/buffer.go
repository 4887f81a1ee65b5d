package domain

import (
	"bytes"
	"sync/atomic"
)

// Buffer is a reusable byte region that is overwritten in place for every
// message. It must be checked out with Acquire before use and returned with
// Release; at most one holder may have it at any time.
type Buffer struct {
	buf  bytes.Buffer
	held atomic.Bool
}

// NewBuffer creates a Buffer with the given initial capacity.
func NewBuffer(capacity int) *Buffer {
	b := &Buffer{}
	b.buf.Grow(capacity)
	return b
}

// Acquire checks the buffer out. It returns ErrBufferBusy when another step
// still holds it.
func (b *Buffer) Acquire() error {
	if !b.held.CompareAndSwap(false, true) {
		return ErrBufferBusy
	}
	return nil
}

// Release returns the buffer to its owner.
func (b *Buffer) Release() {
	b.held.Store(false)
}

// Held reports whether the buffer is currently checked out.
func (b *Buffer) Held() bool {
	return b.held.Load()
}

// Reset empties the buffer but keeps its capacity.
func (b *Buffer) Reset() { b.buf.Reset() }

// Write appends p to the buffer.
func (b *Buffer) Write(p []byte) (int, error) { return b.buf.Write(p) }

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (int, error) { return b.buf.WriteString(s) }

// WriteByte appends c to the buffer.
func (b *Buffer) WriteByte(c byte) error { return b.buf.WriteByte(c) }

// Bytes returns the current contents. The slice is only valid until the next
// mutation of the buffer.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return b.buf.Len() }
