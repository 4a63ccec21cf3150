package signature

import (
	"fmt"
)

// Buffer is an append-only byte arena that spans refer into. It starts out
// holding a file's source (or a query pattern) and may grow when the extractor
// needs text that does not appear verbatim in the source. Bytes already in the
// buffer are never rewritten, so every Span handed out stays valid for as long
// as the buffer is reachable.
type Buffer struct {
	name string
	data []byte
}

// NewBuffer takes ownership of src. The caller must not modify src afterwards.
func NewBuffer(name string, src []byte) *Buffer {
	// Clip capacity so the first Append copies instead of writing into
	// memory the caller may still reference.
	return &Buffer{name: name, data: src[:len(src):len(src)]}
}

// Name is the label the buffer was created with, usually a file path.
func (b *Buffer) Name() string { return b.name }

// Len returns the current size of the buffer, including appended text.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the whole buffer. The result must be treated as read-only.
func (b *Buffer) Bytes() []byte { return b.data }

// Span returns the span [off, off+n) after checking it lies inside the buffer.
func (b *Buffer) Span(off, n int) (Span, error) {
	if off < 0 || n < 0 || off > len(b.data)-n {
		return Span{}, fmt.Errorf("span [%d,+%d) out of range for %s (len %d)", off, n, b.name, len(b.data))
	}
	return Span{buf: b, off: off, n: n}, nil
}

// Append copies text to the end of the buffer and returns a span over it.
func (b *Buffer) Append(text string) Span {
	off := len(b.data)
	b.data = append(b.data, text...)
	return Span{buf: b, off: off, n: len(text)}
}

// Span is a borrowed view into a Buffer. The zero Span is empty.
type Span struct {
	buf *Buffer
	off int
	n   int
}

// Literal returns a span over a private buffer holding s. Handy for tests and
// for signatures built by hand.
func Literal(s string) Span {
	return NewBuffer("", nil).Append(s)
}

// Bytes returns the referenced bytes. The result must be treated as read-only.
func (s Span) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.data[s.off : s.off+s.n : s.off+s.n]
}

// String copies the referenced bytes into a string.
func (s Span) String() string { return string(s.Bytes()) }

// Len is the length of the span in bytes.
func (s Span) Len() int { return s.n }

// Offset is the position of the span inside its buffer.
func (s Span) Offset() int { return s.off }

// Buffer returns the buffer the span refers into, or nil for the zero Span.
func (s Span) Buffer() *Buffer { return s.buf }

// IsWildcard reports whether the span is exactly the one-character marker.
func (s Span) IsWildcard() bool {
	return s.n == 1 && s.buf.data[s.off] == Wildcard
}
