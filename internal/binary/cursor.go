package binary

// Cursor reads from a borrowed in-memory buffer with a mutable position.
//
// A Cursor never owns its buffer. Several cursors may observe the same
// buffer (see Fork), but a single cursor must not be used concurrently.
type Cursor struct {
	buf  []byte
	pos  int
	path string
}

// NewCursor creates a Cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// WithPath sets the path reported in bounds errors.
func (c *Cursor) WithPath(path string) *Cursor {
	c.path = path
	return c
}

// Fork returns a new cursor over the same buffer positioned at off.
func (c *Cursor) Fork(off int) *Cursor {
	return &Cursor{buf: c.buf, pos: off, path: c.path}
}

// Offset returns the current position.
func (c *Cursor) Offset() int {
	return c.pos
}

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of bytes between the position and the end.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// Seek moves to an absolute offset. Seeking to the end of the buffer is
// allowed; seeking past it is not.
func (c *Cursor) Seek(off int, what string) error {
	if off < 0 || off > len(c.buf) {
		return c.outOfBounds(off, 0, what)
	}
	c.pos = off
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int, what string) error {
	return c.Seek(c.pos+n, what)
}

// Check verifies that n bytes are available at off.
func (c *Cursor) Check(off, n int, what string) error {
	if off < 0 || n < 0 || off+n > len(c.buf) || off+n < off {
		return c.outOfBounds(off, n, what)
	}
	return nil
}

// Peek returns n bytes at the position without copying or advancing.
// The returned slice aliases the buffer and must not be retained.
func (c *Cursor) Peek(n int, what string) ([]byte, error) {
	if err := c.Check(c.pos, n, what); err != nil {
		return nil, err
	}
	return c.buf[c.pos : c.pos+n], nil
}

// Bytes reads n bytes and advances. The result is a copy.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	b, err := c.Peek(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	c.pos += n
	return out, nil
}

// String reads n bytes as a string and advances.
func (c *Cursor) String(n int, what string) (string, error) {
	b, err := c.Peek(n, what)
	if err != nil {
		return "", err
	}
	c.pos += n
	return string(b), nil
}

// PeekTag returns the 4-byte tag at the position without advancing.
func (c *Cursor) PeekTag() (string, error) {
	b, err := c.Peek(4, "chunk tag")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Cursor) outOfBounds(off, n int, what string) error {
	return &OutOfBoundsError{
		Path:   c.path,
		What:   what,
		Offset: int64(off),
		Length: n,
		Size:   int64(len(c.buf)),
	}
}
