package itunesdb

import (
	"github.com/simonhull/itunesdb/internal/types"
)

// OutOfBoundsError is an alias to types.OutOfBoundsError.
// A read or length check went past the end of the buffer.
type OutOfBoundsError = types.OutOfBoundsError

// FormatError is an alias to types.FormatError.
type FormatError = types.FormatError

// FormatErrorKind is an alias to types.FormatErrorKind.
type FormatErrorKind = types.FormatErrorKind

// Re-export the format error kinds.
const (
	LengthInvariantViolated = types.LengthInvariantViolated
	TagMismatch             = types.TagMismatch
	DepthExceeded           = types.DepthExceeded
)

// EncodingError is an alias to types.EncodingError.
type EncodingError = types.EncodingError

// WriteError is an alias to types.WriteError.
type WriteError = types.WriteError

// WriteStage is an alias to types.WriteStage.
type WriteStage = types.WriteStage

// Re-export the commit stages.
const (
	StageCreate      = types.StageCreate
	StageWrite       = types.StageWrite
	StageSync        = types.StageSync
	StageClose       = types.StageClose
	StageBackup      = types.StageBackup
	StageRename      = types.StageRename
	StagePermissions = types.StagePermissions
)

// SideFileError is an alias to types.SideFileError.
type SideFileError = types.SideFileError

// UnsupportedFormatError is an alias to types.UnsupportedFormatError.
type UnsupportedFormatError = types.UnsupportedFormatError

// Warning is an alias to types.Warning.
type Warning = types.Warning
