package itunesdb

import (
	"bytes"

	"github.com/simonhull/itunesdb/internal/types"
)

// FileType is an alias to types.FileType.
type FileType = types.FileType

// Re-export all file type constants.
const (
	FileTypeUnknown     = types.FileTypeUnknown
	FileTypeITunesDB    = types.FileTypeITunesDB
	FileTypePlayCounts  = types.FileTypePlayCounts
	FileTypePhotoDB     = types.FileTypePhotoDB
	FileTypeEqualizer   = types.FileTypeEqualizer
	FileTypePreferences = types.FileTypePreferences
	FileTypeShuffle     = types.FileTypeShuffle
	FileTypeDeviceInfo  = types.FileTypeDeviceInfo
)

// ParseFileType maps a type name ("itunes", "playcounts", ...) to a FileType.
func ParseFileType(name string) FileType {
	return types.ParseFileType(name)
}

// DetectFileType determines the database type of buf from its leading tag.
// Detection does not validate the rest of the structure.
func DetectFileType(buf []byte, path string) (FileType, error) {
	return types.DetectFileType(bytes.NewReader(buf), int64(len(buf)), path)
}
