package binary

import "fmt"

// OutOfBoundsError is returned when a read or write would cross the limits
// of the underlying buffer or file.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	prefix := ""
	if e.Path != "" {
		prefix = e.Path + ": "
	}
	if e.Offset < 0 || e.Offset >= e.Size {
		return fmt.Sprintf("%soffset %d out of bounds (size: %d) while reading %s",
			prefix, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%sread of %d bytes at offset %d would exceed size %d while reading %s",
		prefix, e.Length, e.Offset, e.Size, e.What)
}
