package chunk

import (
	"github.com/simonhull/itunesdb/internal/binary"
)

// Framing says what the third header word of a chunk holds.
type Framing int

const (
	// FramingTotal: the third word is the total length of the chunk
	// including all descendants.
	FramingTotal Framing = iota
	// FramingCount: the third word is the number of children. The total
	// length is implied by the children (list chunks are stored this way).
	FramingCount
)

// Body says what follows the fixed header when a chunk has no children.
type Body int

const (
	// BodyNone: everything after the header is child chunks.
	BodyNone Body = iota
	// BodyData: a data-object payload, decoded as a string for string
	// data types and kept opaque otherwise.
	BodyData
)

// frameHeader is tag + header length + total length (or count).
const frameHeader = 12

// FieldSpec describes one fixed-width field of a chunk header.
type FieldSpec struct {
	Name   string
	Offset int // relative to the chunk start
	Width  int // 1, 2, 4 or 8
	Endian binary.Endianness

	// Derive computes a field from the node's children. Fields with a
	// Derive function are never authored by callers.
	Derive func(n *Node) uint64
}

// Derived reports whether the encoder computes this field.
func (f FieldSpec) Derived() bool {
	return f.Derive != nil
}

func (f FieldSpec) end() int {
	return f.Offset + f.Width
}

// maxValue is the largest value that fits the field.
func (f FieldSpec) maxValue() uint64 {
	if f.Width >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*uint(f.Width)) - 1
}

// Layout is the table entry for one known tag.
type Layout struct {
	Kind Kind
	Tag  string

	// MinHeader is the smallest header length a conforming chunk may
	// declare: the end of its last known field.
	MinHeader uint32

	// DefaultHeader is the header length the encoder emits. Bytes between
	// MinHeader and DefaultHeader are written as zeros.
	DefaultHeader uint32

	Framing Framing
	Body    Body

	// FrameEndian is the byte order of the header and total length words.
	FrameEndian binary.Endianness

	Fields   []FieldSpec
	Children []Kind
}

// Field returns the spec of a named field.
func (l *Layout) Field(name string) (FieldSpec, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// AllowsChild reports whether kind may legally appear as a child.
func (l *Layout) AllowsChild(kind Kind) bool {
	for _, k := range l.Children {
		if k == kind {
			return true
		}
	}
	return false
}

// LayoutFor returns the table entry for a known kind.
func LayoutFor(kind Kind) (*Layout, bool) {
	l, ok := table[kind]
	return l, ok
}

func countKind(kind Kind) func(n *Node) uint64 {
	return func(n *Node) uint64 {
		var c uint64
		for _, ch := range n.Children {
			if ch.Kind == kind {
				c++
			}
		}
		return c
	}
}

func countStrings(n *Node) uint64 {
	var c uint64
	for _, ch := range n.Children {
		if ch.Kind == KindDataObject && ch.String != nil {
			c++
		}
	}
	return c
}

func le(name string, offset, width int) FieldSpec {
	return FieldSpec{Name: name, Offset: offset, Width: width, Endian: binary.LittleEndian}
}

func derived(name string, offset, width int, fn func(n *Node) uint64) FieldSpec {
	return FieldSpec{Name: name, Offset: offset, Width: width, Endian: binary.LittleEndian, Derive: fn}
}

// table is the field dictionary for the primary media database. Offsets are
// relative to the chunk start; all fields are little-endian.
var table = map[Kind]*Layout{
	KindDatabase: {
		DefaultHeader: 0x68,
		Fields: []FieldSpec{
			le("unknown1", 12, 4),
			le("version", 16, 4),
			derived("section_count", 20, 4, countKind(KindSection)),
			le("id", 24, 8),
			le("platform", 32, 2),
		},
		Children: []Kind{KindSection},
	},
	KindSection: {
		DefaultHeader: 0x60,
		Fields: []FieldSpec{
			le("section_type", 12, 4),
		},
		Children: []Kind{KindTrackList, KindPlaylistList, KindAlbumList},
	},
	KindTrackList: {
		DefaultHeader: 0x5C,
		Framing:       FramingCount,
		Children:      []Kind{KindTrack},
	},
	KindTrack: {
		DefaultHeader: 0x9C,
		Fields: []FieldSpec{
			derived("string_count", 12, 4, countKind(KindDataObject)),
			le("track_id", 16, 4),
			le("visible", 20, 4),
			le("file_type", 24, 4),
			le("type1", 28, 1),
			le("type2", 29, 1),
			le("compilation", 30, 1),
			le("rating", 31, 1),
			le("last_modified", 32, 4),
			le("size", 36, 4),
			le("duration_ms", 40, 4),
			le("track_number", 44, 4),
			le("track_count", 48, 4),
			le("year", 52, 4),
			le("bitrate", 56, 4),
			le("sample_rate", 60, 4),
			le("volume", 64, 4),
			le("start_time", 68, 4),
			le("stop_time", 72, 4),
			le("soundcheck", 76, 4),
			le("play_count", 80, 4),
			le("play_count2", 84, 4),
			le("last_played", 88, 4),
			le("disc_number", 92, 4),
			le("disc_count", 96, 4),
			le("user_id", 100, 4),
			le("date_added", 104, 4),
			le("bookmark_time", 108, 4),
			le("persistent_id", 112, 8),
			le("checked", 120, 1),
			le("app_rating", 121, 1),
			le("bpm", 122, 2),
		},
		Children: []Kind{KindDataObject},
	},
	KindDataObject: {
		DefaultHeader: 0x18,
		Body:          BodyData,
		Fields: []FieldSpec{
			le("data_type", 12, 4),
			le("unknown1", 16, 4),
			le("unknown2", 20, 4),
		},
	},
	KindPlaylistList: {
		DefaultHeader: 0x5C,
		Framing:       FramingCount,
		Children:      []Kind{KindPlaylist},
	},
	KindPlaylist: {
		DefaultHeader: 0x6C,
		Fields: []FieldSpec{
			derived("data_object_count", 12, 4, countKind(KindDataObject)),
			derived("item_count", 16, 4, countKind(KindPlaylistItem)),
			le("hidden", 20, 1),
			le("timestamp", 24, 4),
			le("persistent_id", 28, 8),
			derived("string_count", 40, 2, countStrings),
			le("podcast_flag", 42, 2),
			le("sort_order", 44, 4),
		},
		Children: []Kind{KindDataObject, KindPlaylistItem},
	},
	KindPlaylistItem: {
		DefaultHeader: 0x4C,
		Fields: []FieldSpec{
			derived("data_object_count", 12, 4, countKind(KindDataObject)),
			le("podcast_group_flag", 16, 4),
			le("group_id", 20, 4),
			le("track_id", 24, 4),
			le("timestamp", 28, 4),
			le("podcast_group_ref", 32, 4),
		},
		Children: []Kind{KindDataObject},
	},
	KindAlbumList: {
		DefaultHeader: 0x5C,
		Framing:       FramingCount,
		Children:      []Kind{KindAlbumItem},
	},
	KindAlbumItem: {
		DefaultHeader: 0x58,
		Fields: []FieldSpec{
			derived("data_object_count", 12, 4, countKind(KindDataObject)),
			le("album_id", 16, 4),
			le("sql_id", 20, 8),
		},
		Children: []Kind{KindDataObject},
	},
}

func init() {
	for kind, l := range table {
		l.Kind = kind
		l.Tag = kind.Tag()
		l.MinHeader = frameHeader
		for _, f := range l.Fields {
			if end := uint32(f.end()); end > l.MinHeader {
				l.MinHeader = end
			}
		}
		if l.DefaultHeader < l.MinHeader {
			l.DefaultHeader = l.MinHeader
		}
	}
}
