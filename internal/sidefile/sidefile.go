// Package sidefile reads the JSON file songs are authored in before they
// are written into a new database (music.json by default).
//
// The file holds either a bare array of songs or an object:
//
//	{
//	  "songs": [
//	    {"title": "Hoppípolla", "artist": "Sigur Rós", "location": ":iPod_Control:Music:F00:ABCD.mp3"}
//	  ],
//	  "playlists": [
//	    {"title": "Favourites", "track_ids": [1]}
//	  ]
//	}
//
// Unknown keys are ignored in both forms. Every song field is optional.
// Defaults:
//   - id: assigned sequentially when the database is built
//   - file_type and kind: derived from the location's extension
//   - date_added: the time the side-file was loaded
//   - persistent_id: random, assigned when the database is built
package sidefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simonhull/itunesdb/internal/types"
)

// DefaultPath is the side-file read when none is configured.
const DefaultPath = "music.json"

// Song is one authored song.
type Song struct {
	ID           uint32    `json:"id,omitempty"`
	PersistentID uint64    `json:"persistent_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	Artist       string    `json:"artist,omitempty"`
	Album        string    `json:"album,omitempty"`
	AlbumArtist  string    `json:"album_artist,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Composer     string    `json:"composer,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	FileType     string    `json:"file_type,omitempty"`
	Location     string    `json:"location,omitempty"`
	Size         uint32    `json:"size,omitempty"`
	DurationMS   uint32    `json:"duration_ms,omitempty"`
	TrackNumber  uint32    `json:"track_number,omitempty"`
	TrackCount   uint32    `json:"track_count,omitempty"`
	DiscNumber   uint32    `json:"disc_number,omitempty"`
	DiscCount    uint32    `json:"disc_count,omitempty"`
	Year         uint32    `json:"year,omitempty"`
	Bitrate      uint32    `json:"bitrate,omitempty"`
	SampleRate   uint32    `json:"sample_rate,omitempty"`
	PlayCount    uint32    `json:"play_count,omitempty"`
	Rating       uint8     `json:"rating,omitempty"`
	Compilation  bool      `json:"compilation,omitempty"`
	DateAdded    time.Time `json:"date_added,omitzero"`
	LastModified time.Time `json:"last_modified,omitzero"`
	LastPlayed   time.Time `json:"last_played,omitzero"`
}

// Playlist is one authored playlist.
type Playlist struct {
	Title        string   `json:"title"`
	PersistentID uint64   `json:"persistent_id,omitempty"`
	Master       bool     `json:"master,omitempty"`
	Podcast      bool     `json:"podcast,omitempty"`
	TrackIDs     []uint32 `json:"track_ids"`
}

// File is the object form of a side-file.
type File struct {
	Songs     []Song     `json:"songs"`
	Playlists []Playlist `json:"playlists,omitempty"`
}

type extInfo struct {
	fileType string
	kind     string
}

var extensions = map[string]extInfo{
	".mp3":  {"MP3", "MPEG audio file"},
	".m4a":  {"M4A", "AAC audio file"},
	".m4b":  {"M4B", "AAC audio book file"},
	".m4p":  {"M4P", "Protected AAC audio file"},
	".aac":  {"AAC", "AAC audio file"},
	".wav":  {"WAV", "WAV audio file"},
	".aif":  {"AIFF", "AIFF audio file"},
	".aiff": {"AIFF", "AIFF audio file"},
}

// Parse decodes side-file content. now fills songs without a date_added.
func Parse(data []byte, now time.Time) (*types.Library, error) {
	var f File
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("empty side-file")
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &f.Songs); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, err
		}
		if f.Songs == nil && f.Playlists == nil {
			return nil, fmt.Errorf("side-file object has neither songs nor playlists")
		}
	}

	lib := &types.Library{Songs: make([]types.Song, 0, len(f.Songs))}
	for _, s := range f.Songs {
		lib.Songs = append(lib.Songs, s.toSong(now))
	}
	for _, p := range f.Playlists {
		pl := types.Playlist{
			Title:        p.Title,
			PersistentID: p.PersistentID,
			Master:       p.Master,
			Podcast:      p.Podcast,
			Entries:      make([]types.PlaylistEntry, 0, len(p.TrackIDs)),
		}
		for _, id := range p.TrackIDs {
			pl.Entries = append(pl.Entries, types.PlaylistEntry{TrackID: id})
		}
		lib.Playlists = append(lib.Playlists, pl)
	}
	return lib, nil
}

func (s Song) toSong(now time.Time) types.Song {
	out := types.Song{
		ID:           s.ID,
		PersistentID: s.PersistentID,
		Title:        s.Title,
		Artist:       s.Artist,
		Album:        s.Album,
		AlbumArtist:  s.AlbumArtist,
		Genre:        s.Genre,
		Composer:     s.Composer,
		Comment:      s.Comment,
		Kind:         s.Kind,
		FileType:     s.FileType,
		Location:     s.Location,
		Size:         s.Size,
		DurationMS:   s.DurationMS,
		TrackNumber:  s.TrackNumber,
		TrackCount:   s.TrackCount,
		DiscNumber:   s.DiscNumber,
		DiscCount:    s.DiscCount,
		Year:         s.Year,
		Bitrate:      s.Bitrate,
		SampleRate:   s.SampleRate,
		PlayCount:    s.PlayCount,
		Rating:       s.Rating,
		Compilation:  s.Compilation,
		DateAdded:    s.DateAdded,
		LastModified: s.LastModified,
		LastPlayed:   s.LastPlayed,
	}

	// Device locations use ':' as the separator.
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(s.Location, ":", "/")))
	if info, ok := extensions[ext]; ok {
		if out.FileType == "" {
			out.FileType = info.fileType
		}
		if out.Kind == "" {
			out.Kind = info.kind
		}
	}
	if out.DateAdded.IsZero() {
		out.DateAdded = now.UTC().Truncate(time.Second)
	}
	return out
}

// Load reads and parses a side-file. Failures are returned as
// *types.SideFileError.
func Load(p string) (*types.Library, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &types.SideFileError{Path: p, Err: err}
	}
	lib, err := Parse(data, time.Now())
	if err != nil {
		return nil, &types.SideFileError{Path: p, Err: err}
	}
	return lib, nil
}

// LoadOrEmpty is Load, degrading a missing or malformed side-file to an
// empty library with a logged warning.
func LoadOrEmpty(p string, log logrus.FieldLogger) *types.Library {
	lib, err := Load(p)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("side-file unusable, writing an empty library")
		}
		return &types.Library{}
	}
	return lib
}
