// Package chunk implements the tagged, length-prefixed chunk container used
// by device media databases: a static field table, a tolerant recursive
// decoder and a length-recomputing encoder.
package chunk

// Kind is the closed set of chunk tags the table knows about. Anything else
// decodes as KindUnknown and is carried as an opaque payload.
type Kind int

const (
	KindUnknown      Kind = iota
	KindDatabase          // mhbd
	KindSection           // mhsd
	KindTrackList         // mhlt
	KindTrack             // mhit
	KindDataObject        // mhod
	KindPlaylistList      // mhlp
	KindPlaylist          // mhyp
	KindPlaylistItem      // mhip
	KindAlbumList         // mhla
	KindAlbumItem         // mhia
)

var kindTags = [...]string{
	KindUnknown:      "",
	KindDatabase:     "mhbd",
	KindSection:      "mhsd",
	KindTrackList:    "mhlt",
	KindTrack:        "mhit",
	KindDataObject:   "mhod",
	KindPlaylistList: "mhlp",
	KindPlaylist:     "mhyp",
	KindPlaylistItem: "mhip",
	KindAlbumList:    "mhla",
	KindAlbumItem:    "mhia",
}

var kindByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for k, tag := range kindTags {
		if tag != "" {
			m[tag] = Kind(k)
		}
	}
	return m
}()

// KindOf resolves a 4-byte tag.
func KindOf(tag string) Kind {
	return kindByTag[tag]
}

// Tag returns the 4-byte tag of a known kind, or "" for KindUnknown.
func (k Kind) Tag() string {
	if k < 0 || int(k) >= len(kindTags) {
		return ""
	}
	return kindTags[k]
}

func (k Kind) String() string {
	if t := k.Tag(); t != "" {
		return t
	}
	return "unknown"
}

// Section types carried in an mhsd section_type field.
const (
	SectionTracks         = 1
	SectionPlaylists      = 2
	SectionPodcasts       = 3
	SectionAlbums         = 4
	SectionSmartPlaylists = 5
)
