package types

import (
	"fmt"

	"github.com/simonhull/itunesdb/internal/binary"
)

// OutOfBoundsError is an alias to binary.OutOfBoundsError so callers can
// match cursor failures without importing internal/binary.
type OutOfBoundsError = binary.OutOfBoundsError

// FormatErrorKind classifies structural problems found while decoding.
type FormatErrorKind int

const (
	// LengthInvariantViolated means a chunk's declared lengths are
	// inconsistent with its parent or its own table minimum.
	LengthInvariantViolated FormatErrorKind = iota + 1
	// TagMismatch means an expected structural tag was absent or wrong.
	TagMismatch
	// DepthExceeded means chunk nesting went past the configured maximum.
	DepthExceeded
)

func (k FormatErrorKind) String() string {
	switch k {
	case LengthInvariantViolated:
		return "length invariant violated"
	case TagMismatch:
		return "tag mismatch"
	case DepthExceeded:
		return "maximum depth exceeded"
	default:
		return "format error"
	}
}

// FormatError is returned when the chunk structure is invalid.
type FormatError struct {
	Kind   FormatErrorKind
	Tag    string
	Reason string
	Offset int64
}

func (e *FormatError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s at offset %d (%q): %s", e.Kind, e.Offset, e.Tag, e.Reason)
	}
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

// Is reports whether target is a FormatError of the same kind, so callers
// can write errors.Is(err, &types.FormatError{Kind: types.TagMismatch}).
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// EncodingError is returned when a string payload cannot be decoded or
// encoded with its declared encoding.
type EncodingError struct {
	Encoding string
	Reason   string
	Offset   int64
	Length   int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s string of %d bytes at offset %d: %s", e.Encoding, e.Length, e.Offset, e.Reason)
}

// WriteStage names a step of the atomic commit protocol.
type WriteStage int

const (
	StageCreate WriteStage = iota + 1
	StageWrite
	StageSync
	StageClose
	StageBackup
	StageRename
	StagePermissions
)

func (s WriteStage) String() string {
	switch s {
	case StageCreate:
		return "create"
	case StageWrite:
		return "write"
	case StageSync:
		return "sync"
	case StageClose:
		return "close"
	case StageBackup:
		return "backup"
	case StageRename:
		return "rename"
	case StagePermissions:
		return "permissions"
	default:
		return "unknown"
	}
}

// WriteError is returned when committing a database to disk fails. TempPath
// is left on disk for diagnosis; Path is never partially written.
type WriteError struct {
	Stage    WriteStage
	Path     string
	TempPath string
	Err      error
}

func (e *WriteError) Error() string {
	if e.TempPath != "" {
		return fmt.Sprintf("%s: %s failed (temp file %s kept): %v", e.Path, e.Stage, e.TempPath, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SideFileError is returned when the JSON authoring side-file is missing
// or malformed. Callers usually degrade to an empty song list.
type SideFileError struct {
	Path string
	Err  error
}

func (e *SideFileError) Error() string {
	return fmt.Sprintf("side-file %s: %v", e.Path, e.Err)
}

func (e *SideFileError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned when the file type is not recognised
// or has no registered adapter.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// Warning represents a non-fatal issue encountered during decoding.
//
// Warnings indicate problems that don't prevent extraction but may point to
// corrupted or newer-than-understood data. Examples include:
//   - Unknown chunk tags (kept as opaque nodes)
//   - Data objects with an unrecognised type
//   - A child subtree dropped after a length violation
type Warning struct {
	// Stage where the warning occurred
	Stage string // "decode", "songs", "playlists", "playcounts"

	// Warning message
	Message string

	// Buffer offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
