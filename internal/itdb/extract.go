package itdb

import (
	"fmt"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/types"
)

// Extract reads songs and playlists out of a decoded database tree.
//
// The root must be mhbd and every known child of it mhsd; anything else is
// a TagMismatch. Unknown chunks beside the sections and data objects of
// unrecognised types are skipped with a warning. Playlists are read from
// the first playlist section only (type 2, falling back to the podcast
// section type 3) since both list the same playlists on real devices.
func Extract(root *chunk.Node) (*types.Library, []types.Warning, error) {
	if root == nil || root.Kind != chunk.KindDatabase {
		tag := ""
		var off int64
		if root != nil {
			tag, off = root.Tag, root.Offset
		}
		return nil, nil, &types.FormatError{
			Kind:   types.TagMismatch,
			Tag:    tag,
			Offset: off,
			Reason: "root chunk is not mhbd",
		}
	}

	lib := &types.Library{
		Version: root.Uint32("version"),
		ID:      value(root, "id"),
	}
	var warnings []types.Warning

	var playlistSection *chunk.Node
	for _, section := range root.Children {
		if section.Kind == chunk.KindUnknown {
			warnings = append(warnings, types.Warning{
				Stage:   "songs",
				Message: fmt.Sprintf("unknown chunk %q beside the sections skipped", section.Tag),
				Offset:  section.Offset,
			})
			continue
		}
		if section.Kind != chunk.KindSection {
			return nil, nil, &types.FormatError{
				Kind:   types.TagMismatch,
				Tag:    section.Tag,
				Offset: section.Offset,
				Reason: "child of mhbd is not mhsd",
			}
		}

		switch section.Uint32("section_type") {
		case chunk.SectionTracks:
			lists := section.ChildrenOf(chunk.KindTrackList)
			if len(lists) == 0 {
				warnings = append(warnings, types.Warning{
					Stage:   "songs",
					Message: "track section has no track list",
					Offset:  section.Offset,
				})
			}
			for _, list := range lists {
				for _, track := range list.ChildrenOf(chunk.KindTrack) {
					song, w := songFrom(track)
					lib.Songs = append(lib.Songs, song)
					warnings = append(warnings, w...)
				}
			}
		case chunk.SectionPlaylists:
			if playlistSection == nil || playlistSection.Uint32("section_type") != chunk.SectionPlaylists {
				playlistSection = section
			}
		case chunk.SectionPodcasts:
			if playlistSection == nil {
				playlistSection = section
			}
		}
	}

	if playlistSection != nil {
		known := make(map[uint32]bool, len(lib.Songs))
		for _, s := range lib.Songs {
			known[s.ID] = true
		}
		for _, list := range playlistSection.ChildrenOf(chunk.KindPlaylistList) {
			for _, pl := range list.ChildrenOf(chunk.KindPlaylist) {
				p, w := playlistFrom(pl, known)
				lib.Playlists = append(lib.Playlists, p)
				warnings = append(warnings, w...)
			}
		}
	}

	return lib, warnings, nil
}

func value(n *chunk.Node, name string) uint64 {
	v, _ := n.Value(name)
	return v
}

func songFrom(track *chunk.Node) (types.Song, []types.Warning) {
	s := types.Song{
		ID:           track.Uint32("track_id"),
		PersistentID: value(track, "persistent_id"),
		FileType:     fourCC(track.Uint32("file_type")),
		Compilation:  track.Uint32("compilation") != 0,
		Rating:       uint8(track.Uint32("rating")),
		LastModified: types.MacTime(track.Uint32("last_modified")),
		Size:         track.Uint32("size"),
		DurationMS:   track.Uint32("duration_ms"),
		TrackNumber:  track.Uint32("track_number"),
		TrackCount:   track.Uint32("track_count"),
		Year:         track.Uint32("year"),
		Bitrate:      track.Uint32("bitrate"),
		SampleRate:   track.Uint32("sample_rate") >> sampleRateShift,
		PlayCount:    track.Uint32("play_count"),
		LastPlayed:   types.MacTime(track.Uint32("last_played")),
		DiscNumber:   track.Uint32("disc_number"),
		DiscCount:    track.Uint32("disc_count"),
		DateAdded:    types.MacTime(track.Uint32("date_added")),
	}

	var warnings []types.Warning
	for _, obj := range track.ChildrenOf(chunk.KindDataObject) {
		dt := obj.Uint32("data_type")
		if obj.String == nil {
			if !knownOpaque(dt) {
				warnings = append(warnings, skipped("songs", obj, dt))
			}
			continue
		}
		v := obj.String.Value
		switch dt {
		case DataTitle:
			s.Title = v
		case DataLocation:
			s.Location = v
		case DataAlbum:
			s.Album = v
		case DataArtist:
			s.Artist = v
		case DataGenre:
			s.Genre = v
		case DataKind:
			s.Kind = v
		case DataComment:
			s.Comment = v
		case DataComposer:
			s.Composer = v
		case DataAlbumArtist:
			s.AlbumArtist = v
		default:
			warnings = append(warnings, skipped("songs", obj, dt))
		}
	}
	return s, warnings
}

func playlistFrom(pl *chunk.Node, known map[uint32]bool) (types.Playlist, []types.Warning) {
	p := types.Playlist{
		PersistentID: value(pl, "persistent_id"),
		Master:       pl.Uint32("hidden") != 0,
		Podcast:      pl.Uint32("podcast_flag") != 0,
		Entries:      []types.PlaylistEntry{},
	}

	var warnings []types.Warning
	for _, c := range pl.Children {
		switch c.Kind {
		case chunk.KindDataObject:
			dt := c.Uint32("data_type")
			switch {
			case dt == DataTitle && c.String != nil:
				p.Title = c.String.Value
			case c.String == nil && knownOpaque(dt):
			default:
				warnings = append(warnings, skipped("playlists", c, dt))
			}
		case chunk.KindPlaylistItem:
			id := c.Uint32("track_id")
			p.Entries = append(p.Entries, types.PlaylistEntry{
				TrackID:    id,
				Unresolved: !known[id],
			})
		}
	}
	return p, warnings
}

func skipped(stage string, obj *chunk.Node, dt uint32) types.Warning {
	return types.Warning{
		Stage:   stage,
		Message: fmt.Sprintf("data object type %d skipped", dt),
		Offset:  obj.Offset,
	}
}
