// Package itdb maps the primary media database chunk tree to songs and
// playlists and back.
//
// Layout of a database as built here:
//
//	mhbd
//	├─ mhsd type 1
//	│  └─ mhlt
//	│     └─ mhit (one per song)
//	│        └─ mhod (one per non-empty string attribute)
//	└─ mhsd type 2
//	   └─ mhlp
//	      └─ mhyp (one per playlist)
//	         ├─ mhod title
//	         └─ mhip (one per entry, referencing an mhit track_id)
package itdb

import (
	"strings"

	"github.com/simonhull/itunesdb/internal/chunk"
)

// Data object types.
const (
	DataTitle       = 1
	DataLocation    = 2
	DataAlbum       = 3
	DataArtist      = 4
	DataGenre       = 5
	DataKind        = 6
	DataEQ          = 7
	DataComment     = 8
	DataCategory    = 9
	DataComposer    = 12
	DataGrouping    = 13
	DataDescription = 14
	DataAlbumArtist = 22

	// Payloads that are not strings and are carried through untouched.
	DataPodcastURL    = 15
	DataPodcastRSS    = 16
	DataChapters      = 17
	DataSmartInfo     = 50
	DataSmartRules    = 51
	DataLibraryIndex  = 52
	DataLibraryJump   = 53
	DataPosition      = 100
	DataPlaylistPrefs = 102
)

// DefaultVersion is the database version written when the library does not
// carry one.
const DefaultVersion = 0x19

// sampleRateShift: sample rates are stored as 16.16 fixed point.
const sampleRateShift = 16

// maxSampleRate is the largest rate the integer part can hold.
const maxSampleRate = 0xFFFF

// knownOpaque reports whether a data object type is a non-string payload
// the format defines, which is skipped without a warning.
func knownOpaque(dataType uint32) bool {
	switch dataType {
	case DataPodcastURL, DataPodcastRSS, DataChapters,
		DataSmartInfo, DataSmartRules, DataLibraryIndex, DataLibraryJump,
		DataPosition, DataPlaylistPrefs:
		return true
	}
	return false
}

// fourCC renders a file_type value ("MP3 " stored as 0x4D503320).
func fourCC(v uint32) string {
	if v == 0 {
		return ""
	}
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return strings.TrimRight(string(b), " \x00")
}

// parseFourCC is the inverse of fourCC. Codes longer than four bytes are
// truncated; shorter ones are padded with spaces.
func parseFourCC(s string) uint32 {
	if s == "" {
		return 0
	}
	b := []byte((s + "    ")[:4])
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	encoding       chunk.Encoding
	masterPlaylist string
}

func defaultBuildOptions() *buildOptions {
	return &buildOptions{encoding: chunk.EncodingUTF16LE}
}

// WithEncoding selects the string encoding of data objects. UTF-16LE is
// the default and what devices write.
func WithEncoding(enc chunk.Encoding) Option {
	return func(o *buildOptions) {
		o.encoding = enc
	}
}

// WithMasterPlaylist adds a hidden master playlist listing every song, in
// song order, when the library has none. Devices expect one.
func WithMasterPlaylist(name string) Option {
	return func(o *buildOptions) {
		o.masterPlaylist = name
	}
}
