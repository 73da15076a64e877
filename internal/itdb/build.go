package itdb

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/types"
)

// Build turns a library into a database tree, bottom-up, so every length
// and count is computed from children that already exist. The library is
// not modified: songs without an ID get the next free one and songs or
// playlists without a persistent ID get a random one in the built tree
// only.
func Build(lib *types.Library, opts ...Option) (*chunk.Node, error) {
	options := defaultBuildOptions()
	for _, opt := range opts {
		opt(options)
	}
	if lib == nil {
		lib = &types.Library{}
	}

	songs, err := assignIDs(lib.Songs)
	if err != nil {
		return nil, err
	}

	tracks := make([]*chunk.Node, 0, len(songs))
	for i := range songs {
		n, err := buildTrack(&songs[i], options.encoding)
		if err != nil {
			return nil, fmt.Errorf("song %d (%q): %w", songs[i].ID, songs[i].Title, err)
		}
		tracks = append(tracks, n)
	}
	trackList, err := chunk.NewContainer(chunk.KindTrackList, nil, tracks...)
	if err != nil {
		return nil, err
	}
	trackSection, err := chunk.NewContainer(chunk.KindSection, chunk.Values{"section_type": chunk.SectionTracks}, trackList)
	if err != nil {
		return nil, err
	}

	playlists := lib.Playlists
	if options.masterPlaylist != "" && !slices.ContainsFunc(playlists, func(p types.Playlist) bool { return p.Master }) {
		playlists = append([]types.Playlist{masterPlaylist(options.masterPlaylist, songs)}, playlists...)
	}

	lists := make([]*chunk.Node, 0, len(playlists))
	for i := range playlists {
		n, err := buildPlaylist(&playlists[i], options.encoding)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", playlists[i].Title, err)
		}
		lists = append(lists, n)
	}
	playlistList, err := chunk.NewContainer(chunk.KindPlaylistList, nil, lists...)
	if err != nil {
		return nil, err
	}
	playlistSection, err := chunk.NewContainer(chunk.KindSection, chunk.Values{"section_type": chunk.SectionPlaylists}, playlistList)
	if err != nil {
		return nil, err
	}

	version := lib.Version
	if version == 0 {
		version = DefaultVersion
	}
	return chunk.NewContainer(chunk.KindDatabase, chunk.Values{
		"unknown1": 1,
		"version":  uint64(version),
		"id":       lib.ID,
	}, trackSection, playlistSection)
}

// assignIDs copies songs, filling in missing track and persistent IDs.
func assignIDs(in []types.Song) ([]types.Song, error) {
	songs := slices.Clone(in)

	seen := make(map[uint32]bool, len(songs))
	var next uint32
	for _, s := range songs {
		if s.ID == 0 {
			continue
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate song id %d", s.ID)
		}
		seen[s.ID] = true
		next = max(next, s.ID)
	}

	for i := range songs {
		if songs[i].ID == 0 {
			next++
			songs[i].ID = next
		}
		if songs[i].PersistentID == 0 {
			songs[i].PersistentID = newPersistentID()
		}
	}
	return songs, nil
}

func newPersistentID() uint64 {
	var pid [8]byte
	for {
		_, _ = rand.Read(pid[:])
		if v := binary.LittleEndian.Uint64(pid[:]); v != 0 {
			return v
		}
	}
}

func buildTrack(s *types.Song, enc chunk.Encoding) (*chunk.Node, error) {
	strs := []struct {
		dataType uint32
		value    string
	}{
		{DataTitle, s.Title},
		{DataLocation, s.Location},
		{DataAlbum, s.Album},
		{DataArtist, s.Artist},
		{DataGenre, s.Genre},
		{DataKind, s.Kind},
		{DataComment, s.Comment},
		{DataComposer, s.Composer},
		{DataAlbumArtist, s.AlbumArtist},
	}

	var objs []*chunk.Node
	for _, str := range strs {
		if str.value == "" {
			continue
		}
		obj, err := chunk.NewDataObject(str.dataType, chunk.StringField{Encoding: enc, Value: str.value})
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}

	var compilation uint64
	if s.Compilation {
		compilation = 1
	}

	return chunk.NewContainer(chunk.KindTrack, chunk.Values{
		"track_id":      uint64(s.ID),
		"visible":       1,
		"file_type":     uint64(parseFourCC(s.FileType)),
		"compilation":   compilation,
		"rating":        uint64(s.Rating),
		"last_modified": uint64(types.MacSeconds(s.LastModified)),
		"size":          uint64(s.Size),
		"duration_ms":   uint64(s.DurationMS),
		"track_number":  uint64(s.TrackNumber),
		"track_count":   uint64(s.TrackCount),
		"year":          uint64(s.Year),
		"bitrate":       uint64(s.Bitrate),
		"sample_rate":   uint64(min(s.SampleRate, maxSampleRate)) << sampleRateShift,
		"play_count":    uint64(s.PlayCount),
		"last_played":   uint64(types.MacSeconds(s.LastPlayed)),
		"disc_number":   uint64(s.DiscNumber),
		"disc_count":    uint64(s.DiscCount),
		"date_added":    uint64(types.MacSeconds(s.DateAdded)),
		"persistent_id": s.PersistentID,
	}, objs...)
}

func masterPlaylist(name string, songs []types.Song) types.Playlist {
	p := types.Playlist{Title: name, Master: true}
	for _, s := range songs {
		p.Entries = append(p.Entries, types.PlaylistEntry{TrackID: s.ID})
	}
	return p
}

func buildPlaylist(p *types.Playlist, enc chunk.Encoding) (*chunk.Node, error) {
	var children []*chunk.Node
	if p.Title != "" {
		title, err := chunk.NewDataObject(DataTitle, chunk.StringField{Encoding: enc, Value: p.Title})
		if err != nil {
			return nil, err
		}
		children = append(children, title)
	}

	for _, e := range p.Entries {
		item, err := chunk.NewContainer(chunk.KindPlaylistItem, chunk.Values{"track_id": uint64(e.TrackID)})
		if err != nil {
			return nil, err
		}
		children = append(children, item)
	}

	pid := p.PersistentID
	if pid == 0 {
		pid = newPersistentID()
	}
	var hidden, podcast uint64
	if p.Master {
		hidden = 1
	}
	if p.Podcast {
		podcast = 1
	}

	return chunk.NewContainer(chunk.KindPlaylist, chunk.Values{
		"hidden":        hidden,
		"persistent_id": pid,
		"podcast_flag":  podcast,
	}, children...)
}
