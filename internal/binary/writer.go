package binary

import "fmt"

// Writer is the encode-mode counterpart of Cursor: it appends to a growable
// buffer and tracks the number of bytes written.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Offset returns the current position (number of bytes written).
func (w *Writer) Offset() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteString appends a string as bytes.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// WriteZeros appends n zero bytes.
func (w *Writer) WriteZeros(n int) {
	for range n {
		w.buf = append(w.buf, 0)
	}
}

// WriteTag appends a 4-byte chunk tag.
func (w *Writer) WriteTag(tag string) error {
	if len(tag) != 4 {
		return fmt.Errorf("chunk tag %q must be 4 bytes", tag)
	}
	w.WriteString(tag)
	return nil
}

// Write appends a value of type T in the given byte order.
func Write[T Unsigned](w *Writer, val T, endian Endianness) {
	size := SizeOf[T]()
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, size)...)
	encode(w.buf[start:start+size], val, endian)
}

// WriteLE appends a value of type T in little-endian byte order.
func WriteLE[T Unsigned](w *Writer, val T) {
	Write(w, val, LittleEndian)
}

// WriteBE appends a value of type T in big-endian byte order.
func WriteBE[T Unsigned](w *Writer, val T) {
	Write(w, val, BigEndian)
}

// PutAt overwrites an already-written value at an absolute offset.
func PutAt[T Unsigned](w *Writer, off int, val T, endian Endianness, what string) error {
	size := SizeOf[T]()
	if off < 0 || off+size > len(w.buf) {
		return &OutOfBoundsError{
			What:   what,
			Offset: int64(off),
			Length: size,
			Size:   int64(len(w.buf)),
		}
	}
	encode(w.buf[off:off+size], val, endian)
	return nil
}
