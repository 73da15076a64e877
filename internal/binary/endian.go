package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// LittleEndian is the byte order of nearly every device database field.
	LittleEndian Endianness = iota

	// BigEndian is used by isolated fields of some device generations
	// (shuffle song lists, for example).
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

func (e Endianness) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Unsigned is the set of fixed-width values the cursor can read and write.
type Unsigned interface {
	uint8 | uint16 | uint32 | uint64
}

// SizeOf returns the encoded width of T in bytes.
func SizeOf[T Unsigned]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// Read reads a value of type T at the cursor position and advances.
//
// Example:
//
//	total, err := binary.Read[uint32](c, "total length", binary.LittleEndian)
func Read[T Unsigned](c *Cursor, what string, endian Endianness) (T, error) {
	val, err := ReadAt[T](c, c.pos, what, endian)
	if err != nil {
		return val, err
	}
	c.pos += SizeOf[T]()
	return val, nil
}

// ReadLE reads a little-endian value of type T and advances.
func ReadLE[T Unsigned](c *Cursor, what string) (T, error) {
	return Read[T](c, what, LittleEndian)
}

// ReadBE reads a big-endian value of type T and advances.
func ReadBE[T Unsigned](c *Cursor, what string) (T, error) {
	return Read[T](c, what, BigEndian)
}

// ReadAt reads a value of type T at an absolute offset without moving the
// cursor. It is used to re-read length fields after the fact.
func ReadAt[T Unsigned](c *Cursor, off int, what string, endian Endianness) (T, error) {
	var zero T
	size := SizeOf[T]()
	if err := c.Check(off, size, what); err != nil {
		return zero, err
	}
	return decode[T](c.buf[off:off+size], endian), nil
}

func decode[T Unsigned](b []byte, endian Endianness) T {
	var zero T
	order := endian.order()
	switch any(zero).(type) {
	case uint8:
		return T(b[0])
	case uint16:
		return T(order.Uint16(b))
	case uint32:
		return T(order.Uint32(b))
	default:
		return T(order.Uint64(b))
	}
}

func encode[T Unsigned](dst []byte, val T, endian Endianness) {
	var zero T
	order := endian.order()
	switch any(zero).(type) {
	case uint8:
		dst[0] = byte(val)
	case uint16:
		order.PutUint16(dst, uint16(val))
	case uint32:
		order.PutUint32(dst, uint32(val))
	default:
		order.PutUint64(dst, uint64(val))
	}
}
