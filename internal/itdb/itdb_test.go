package itdb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/registry"
	"github.com/simonhull/itunesdb/internal/types"
)

func sampleLibrary() *types.Library {
	added := time.Date(2009, 3, 14, 15, 9, 26, 0, time.UTC)
	return &types.Library{
		Version: 0x19,
		ID:      0x0102030405060708,
		Songs: []types.Song{
			{
				ID:           1,
				PersistentID: 0xAAAA,
				Title:        "Hoppípolla",
				Artist:       "Sigur Rós",
				Album:        "Takk...",
				Genre:        "Post-Rock",
				Kind:         "MPEG audio file",
				FileType:     "MP3",
				Location:     ":iPod_Control:Music:F00:ABCD.mp3",
				Size:         4_512_000,
				DurationMS:   268_000,
				TrackNumber:  2,
				TrackCount:   11,
				Year:         2005,
				Bitrate:      192,
				SampleRate:   44100,
				PlayCount:    3,
				Rating:       80,
				DateAdded:    added,
				LastPlayed:   added.Add(48 * time.Hour),
			},
			{
				ID:           2,
				PersistentID: 0xBBBB,
				Title:        "東京",
				Artist:       "くるり",
				AlbumArtist:  "Various",
				Composer:     "岸田繁",
				Comment:      "Café edit",
				FileType:     "M4A",
				Compilation:  true,
				DiscNumber:   1,
				DiscCount:    2,
				LastModified: added,
			},
		},
		Playlists: []types.Playlist{
			{
				Title:        "Favourites ♥",
				PersistentID: 0xCCCC,
				Entries: []types.PlaylistEntry{
					{TrackID: 2},
					{TrackID: 1},
				},
			},
		},
	}
}

func roundTrip(t *testing.T, lib *types.Library, opts ...Option) (*types.Library, []types.Warning, *chunk.Node) {
	t.Helper()
	root, err := Build(lib, opts...)
	require.NoError(t, err)
	buf, err := chunk.Encode(root)
	require.NoError(t, err)

	tree, err := chunk.NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Empty(t, tree.Failures)

	got, warnings, err := Extract(tree.Root)
	require.NoError(t, err)
	return got, warnings, tree.Root
}

func TestRoundTrip(t *testing.T) {
	for _, enc := range []chunk.Encoding{chunk.EncodingUTF16LE, chunk.EncodingUTF8} {
		t.Run(enc.String(), func(t *testing.T) {
			lib := sampleLibrary()
			got, warnings, _ := roundTrip(t, lib, WithEncoding(enc))
			assert.Empty(t, warnings)
			assert.Equal(t, lib, got)
		})
	}
}

func TestBuild_EmptyLibrary(t *testing.T) {
	got, warnings, root := roundTrip(t, &types.Library{})
	assert.Empty(t, warnings)
	assert.Empty(t, got.Songs)
	assert.Empty(t, got.Playlists)
	assert.Equal(t, uint32(DefaultVersion), got.Version)

	require.Equal(t, chunk.KindDatabase, root.Kind)
	require.NotEmpty(t, root.Children)
	section := root.Children[0]
	assert.Equal(t, chunk.KindSection, section.Kind)
	assert.Equal(t, uint32(chunk.SectionTracks), section.Uint32("section_type"))
	require.Len(t, section.Children, 1)
	assert.Equal(t, chunk.KindTrackList, section.Children[0].Kind)
	assert.Empty(t, section.Children[0].Children)
	assert.NoError(t, root.Validate())
}

func TestExtract_UnresolvedPlaylistEntry(t *testing.T) {
	lib := sampleLibrary()
	lib.Playlists[0].Entries = append(lib.Playlists[0].Entries, types.PlaylistEntry{TrackID: 99})

	got, _, _ := roundTrip(t, lib)
	require.Len(t, got.Playlists, 1)
	entries := got.Playlists[0].Entries
	require.Len(t, entries, 3)
	assert.False(t, entries[0].Unresolved)
	assert.False(t, entries[1].Unresolved)
	assert.Equal(t, types.PlaylistEntry{TrackID: 99, Unresolved: true}, entries[2])
	assert.Equal(t, []types.PlaylistEntry{{TrackID: 99, Unresolved: true}}, got.Playlists[0].Unresolved())
}

func TestBuild_MasterPlaylist(t *testing.T) {
	lib := sampleLibrary()
	got, _, _ := roundTrip(t, lib, WithMasterPlaylist("iPod"))

	require.Len(t, got.Playlists, 2)
	master := got.Playlists[0]
	assert.True(t, master.Master)
	assert.Equal(t, "iPod", master.Title)
	assert.Equal(t, []uint32{1, 2}, master.TrackIDs())
	assert.NotZero(t, master.PersistentID)
	assert.Equal(t, lib.Playlists[0].Title, got.Playlists[1].Title)

	// An existing master is not duplicated.
	again, _, _ := roundTrip(t, got, WithMasterPlaylist("iPod"))
	assert.Len(t, again.Playlists, 2)
}

func TestBuild_AssignsIDsWithoutMutating(t *testing.T) {
	lib := &types.Library{Songs: []types.Song{
		{ID: 5, Title: "five"},
		{Title: "next"},
		{Title: "after"},
	}}

	got, _, _ := roundTrip(t, lib)
	require.Len(t, got.Songs, 3)
	assert.Equal(t, uint32(5), got.Songs[0].ID)
	assert.Equal(t, uint32(6), got.Songs[1].ID)
	assert.Equal(t, uint32(7), got.Songs[2].ID)
	for _, s := range got.Songs {
		assert.NotZero(t, s.PersistentID)
	}

	assert.Zero(t, lib.Songs[1].ID)
	assert.Zero(t, lib.Songs[1].PersistentID)
}

func TestBuild_DuplicateIDs(t *testing.T) {
	_, err := Build(&types.Library{Songs: []types.Song{{ID: 1}, {ID: 1}}})
	assert.ErrorContains(t, err, "duplicate song id 1")
}

func TestBuild_SampleRateClamped(t *testing.T) {
	lib := &types.Library{Songs: []types.Song{{ID: 1, PersistentID: 1, SampleRate: 96000}}}
	got, _, _ := roundTrip(t, lib)
	assert.Equal(t, uint32(maxSampleRate), got.Songs[0].SampleRate)
}

func TestBuild_InvalidString(t *testing.T) {
	lib := &types.Library{Songs: []types.Song{{ID: 1, Title: "bad \xff"}}}
	_, err := Build(lib, WithEncoding(chunk.EncodingUTF8))
	var encErr *types.EncodingError
	assert.True(t, errors.As(err, &encErr))
}

func TestExtract_TagMismatch(t *testing.T) {
	section, err := chunk.NewContainer(chunk.KindSection, chunk.Values{"section_type": 1})
	require.NoError(t, err)

	_, _, err = Extract(section)
	assert.True(t, errors.Is(err, &types.FormatError{Kind: types.TagMismatch}))

	_, _, err = Extract(nil)
	assert.True(t, errors.Is(err, &types.FormatError{Kind: types.TagMismatch}))

	list, err := chunk.NewContainer(chunk.KindTrackList, nil)
	require.NoError(t, err)
	root, err := chunk.NewContainer(chunk.KindDatabase, nil, list)
	require.NoError(t, err)

	_, _, err = Extract(root)
	assert.True(t, errors.Is(err, &types.FormatError{Kind: types.TagMismatch}))
}

func TestExtract_UnknownChunkBesideSections(t *testing.T) {
	lib := sampleLibrary()
	built, err := Build(lib)
	require.NoError(t, err)

	opaque, err := chunk.NewOpaque("mhzz", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	root, err := chunk.NewContainer(chunk.KindDatabase, nil, append([]*chunk.Node{opaque}, built.Children...)...)
	require.NoError(t, err)

	buf, err := chunk.Encode(root)
	require.NoError(t, err)
	tree, err := chunk.NewDecoder().Decode(buf)
	require.NoError(t, err)

	got, warnings, err := Extract(tree.Root)
	require.NoError(t, err)
	assert.Len(t, got.Songs, len(lib.Songs))
	assert.Len(t, got.Playlists, len(lib.Playlists))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, `"mhzz"`)
}

func TestExtract_UnknownDataObjectSkipped(t *testing.T) {
	title, err := chunk.NewDataObject(DataTitle, chunk.StringField{Encoding: chunk.EncodingUTF8, Value: "t"})
	require.NoError(t, err)
	grouping, err := chunk.NewDataObject(DataGrouping, chunk.StringField{Encoding: chunk.EncodingUTF8, Value: "g"})
	require.NoError(t, err)
	chapters, err := chunk.NewRawDataObject(DataChapters, []byte{1, 2, 3})
	require.NoError(t, err)
	odd, err := chunk.NewRawDataObject(300, []byte{9})
	require.NoError(t, err)

	track, err := chunk.NewContainer(chunk.KindTrack, chunk.Values{"track_id": 1}, title, grouping, chapters, odd)
	require.NoError(t, err)
	list, err := chunk.NewContainer(chunk.KindTrackList, nil, track)
	require.NoError(t, err)
	section, err := chunk.NewContainer(chunk.KindSection, chunk.Values{"section_type": chunk.SectionTracks}, list)
	require.NoError(t, err)
	root, err := chunk.NewContainer(chunk.KindDatabase, nil, section)
	require.NoError(t, err)

	lib, warnings, err := Extract(root)
	require.NoError(t, err)
	require.Len(t, lib.Songs, 1)
	assert.Equal(t, "t", lib.Songs[0].Title)

	// Grouping and type 300 warn; chapter data is a known payload.
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Message, "type 13")
	assert.Contains(t, warnings[1].Message, "type 300")
}

func TestExtract_PrefersPlaylistSection(t *testing.T) {
	mk := func(sectionType uint64, title string) *chunk.Node {
		obj, err := chunk.NewDataObject(DataTitle, chunk.StringField{Encoding: chunk.EncodingUTF8, Value: title})
		require.NoError(t, err)
		pl, err := chunk.NewContainer(chunk.KindPlaylist, nil, obj)
		require.NoError(t, err)
		list, err := chunk.NewContainer(chunk.KindPlaylistList, nil, pl)
		require.NoError(t, err)
		s, err := chunk.NewContainer(chunk.KindSection, chunk.Values{"section_type": sectionType}, list)
		require.NoError(t, err)
		return s
	}

	root, err := chunk.NewContainer(chunk.KindDatabase, nil,
		mk(chunk.SectionPodcasts, "podcasts"),
		mk(chunk.SectionPlaylists, "playlists"),
		mk(chunk.SectionPlaylists, "second"),
	)
	require.NoError(t, err)

	lib, _, err := Extract(root)
	require.NoError(t, err)
	require.Len(t, lib.Playlists, 1)
	assert.Equal(t, "playlists", lib.Playlists[0].Title)

	onlyPodcasts, err := chunk.NewContainer(chunk.KindDatabase, nil, mk(chunk.SectionPodcasts, "podcasts"))
	require.NoError(t, err)
	lib, _, err = Extract(onlyPodcasts)
	require.NoError(t, err)
	require.Len(t, lib.Playlists, 1)
	assert.Equal(t, "podcasts", lib.Playlists[0].Title)
}

func TestFourCC(t *testing.T) {
	assert.Equal(t, uint32(0x4D503320), parseFourCC("MP3"))
	assert.Equal(t, "MP3", fourCC(0x4D503320))
	assert.Equal(t, "", fourCC(0))
	assert.Equal(t, uint32(0), parseFourCC(""))
	assert.Equal(t, "AIFF", fourCC(parseFourCC("AIFFX")))
}

func TestParserRegistered(t *testing.T) {
	p := registry.Get(types.FileTypeITunesDB)
	require.NotNil(t, p)

	root, err := registry.GetBuilder(types.FileTypeITunesDB).Build(sampleLibrary(), registry.WriteOptions{})
	require.NoError(t, err)
	buf, err := chunk.Encode(root)
	require.NoError(t, err)

	res, err := p.Parse(buf, registry.ParseOptions{Path: "iTunesDB"})
	require.NoError(t, err)
	assert.Equal(t, sampleLibrary(), res.Library)
	assert.Empty(t, res.Warnings)
	assert.NotNil(t, res.Root)
}
