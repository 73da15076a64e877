package types

import (
	"io"
	"strings"

	"github.com/simonhull/itunesdb/internal/binary"
)

// FileType identifies which on-device database a buffer holds.
type FileType int

const (
	// FileTypeUnknown represents an unknown or unsupported database.
	FileTypeUnknown FileType = iota
	// FileTypeITunesDB is the primary media library (tracks, playlists).
	FileTypeITunesDB
	// FileTypePlayCounts is the per-track play count log written by the device.
	FileTypePlayCounts
	// FileTypePhotoDB is the photo index.
	FileTypePhotoDB
	// FileTypeEqualizer holds equalizer presets.
	FileTypeEqualizer
	// FileTypePreferences holds device preferences.
	FileTypePreferences
	// FileTypeShuffle is the shuffle-device song list.
	FileTypeShuffle
	// FileTypeDeviceInfo holds the device name.
	FileTypeDeviceInfo
)

var fileTypeNames = map[FileType]string{
	FileTypeUnknown:     "unknown",
	FileTypeITunesDB:    "itunes",
	FileTypePlayCounts:  "playcounts",
	FileTypePhotoDB:     "photo",
	FileTypeEqualizer:   "equalizer",
	FileTypePreferences: "preferences",
	FileTypeShuffle:     "shuffle",
	FileTypeDeviceInfo:  "deviceinfo",
}

func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseFileType maps a command-line type name to a FileType.
func ParseFileType(name string) FileType {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range fileTypeNames {
		if n == name {
			return t
		}
	}
	return FileTypeUnknown
}

// magicTags maps the leading chunk tag of a file to its type. Preferences,
// shuffle and device info files carry no tag and must be named explicitly.
var magicTags = map[string]FileType{
	"mhbd": FileTypeITunesDB,
	"mhdp": FileTypePlayCounts,
	"mhfd": FileTypePhotoDB,
	"mqed": FileTypeEqualizer,
}

// DetectFileType determines the database type by examining the leading tag.
//
// Detection does not validate the rest of the file structure. A buffer
// shorter than one tag is a truncated chunk and reports an
// OutOfBoundsError; an empty one is unsupported.
func DetectFileType(r io.ReaderAt, size int64, path string) (FileType, error) {
	if size == 0 {
		return FileTypeUnknown, &UnsupportedFormatError{
			Path:   path,
			Reason: "empty file",
		}
	}

	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "file magic tag"); err != nil {
		return FileTypeUnknown, err
	}

	if t, ok := magicTags[string(magic)]; ok {
		return t, nil
	}

	return FileTypeUnknown, &UnsupportedFormatError{
		Path:   path,
		Reason: "unrecognised leading tag " + quoteTag(magic),
	}
}

func quoteTag(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
