package binary

// ChainReader allows chaining multiple reads with deferred error checking.
// This avoids repetitive "if err != nil" checks when decoding flat records.
type ChainReader struct {
	*Cursor
	endian Endianness
	err    error
}

// NewChainReader creates a ChainReader reading in the given byte order.
func NewChainReader(c *Cursor, endian Endianness) *ChainReader {
	return &ChainReader{Cursor: c, endian: endian}
}

// ReadChained reads a value with deferred error checking.
// If a previous read failed, returns zero value without attempting read.
func ReadChained[T Unsigned](cr *ChainReader, what string) T {
	if cr.err != nil {
		var zero T
		return zero
	}

	val, err := Read[T](cr.Cursor, what, cr.endian)
	if err != nil {
		cr.err = err
		var zero T
		return zero
	}

	return val
}

// Skip advances past n bytes, accumulating any error.
func (cr *ChainReader) Skip(n int, what string) {
	if cr.err != nil {
		return
	}
	cr.err = cr.Cursor.Skip(n, what)
}

// Error returns the accumulated error, if any.
func (cr *ChainReader) Error() error {
	return cr.err
}
