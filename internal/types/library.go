// Package types provides the core data structures shared by the codec,
// the format adapters and the public API.
//
// Songs and playlists are fully materialized copies: nothing here refers
// back into the buffer a database was decoded from.
package types

import "time"

// Song is one track record of the media library with its string attributes.
type Song struct {
	ID           uint32    `json:"id"`
	PersistentID uint64    `json:"persistent_id"`
	Title        string    `json:"title,omitempty"`
	Artist       string    `json:"artist,omitempty"`
	Album        string    `json:"album,omitempty"`
	AlbumArtist  string    `json:"album_artist,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Composer     string    `json:"composer,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	Kind         string    `json:"kind,omitempty"` // e.g. "MPEG audio file"
	FileType     string    `json:"file_type,omitempty"`
	Location     string    `json:"location,omitempty"` // ":iPod_Control:Music:F00:ABCD.mp3"
	Size         uint32    `json:"size"`
	DurationMS   uint32    `json:"duration_ms"`
	TrackNumber  uint32    `json:"track_number,omitempty"`
	TrackCount   uint32    `json:"track_count,omitempty"`
	DiscNumber   uint32    `json:"disc_number,omitempty"`
	DiscCount    uint32    `json:"disc_count,omitempty"`
	Year         uint32    `json:"year,omitempty"`
	Bitrate      uint32    `json:"bitrate,omitempty"`
	SampleRate   uint32    `json:"sample_rate,omitempty"`
	PlayCount    uint32    `json:"play_count,omitempty"`
	Rating       uint8     `json:"rating,omitempty"` // stars * 20
	Compilation  bool      `json:"compilation,omitempty"`
	DateAdded    time.Time `json:"date_added,omitzero"`
	LastModified time.Time `json:"last_modified,omitzero"`
	LastPlayed   time.Time `json:"last_played,omitzero"`
}

// PlaylistEntry references a track by its ID. Unresolved is set when the
// referenced ID does not exist in the track list.
type PlaylistEntry struct {
	TrackID    uint32 `json:"track_id"`
	Unresolved bool   `json:"unresolved,omitempty"`
}

// Playlist is an ordered list of track references plus metadata.
type Playlist struct {
	Title        string          `json:"title"`
	PersistentID uint64          `json:"persistent_id"`
	Master       bool            `json:"master,omitempty"`
	Podcast      bool            `json:"podcast,omitempty"`
	Entries      []PlaylistEntry `json:"entries"`
}

// TrackIDs returns the referenced track IDs in playlist order.
func (p *Playlist) TrackIDs() []uint32 {
	ids := make([]uint32, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.TrackID
	}
	return ids
}

// Unresolved returns the entries whose track could not be found.
func (p *Playlist) Unresolved() []PlaylistEntry {
	var out []PlaylistEntry
	for _, e := range p.Entries {
		if e.Unresolved {
			out = append(out, e)
		}
	}
	return out
}

// Library is the decoded content of the primary media database.
type Library struct {
	Version   uint32     `json:"version"`
	ID        uint64     `json:"id"`
	Songs     []Song     `json:"songs"`
	Playlists []Playlist `json:"playlists"`
}

// SongByID returns the song with the given track ID.
func (l *Library) SongByID(id uint32) (*Song, bool) {
	for i := range l.Songs {
		if l.Songs[i].ID == id {
			return &l.Songs[i], true
		}
	}
	return nil, false
}

// PlayCount is one entry of the device's play count log. Entries map by
// index onto the track order of the media database.
type PlayCount struct {
	Index      int       `json:"index"`
	Plays      uint32    `json:"plays"`
	LastPlayed time.Time `json:"last_played,omitzero"`
	BookmarkMS uint32    `json:"bookmark_ms,omitempty"`
	Rating     uint32    `json:"rating,omitempty"`
	Skips      uint32    `json:"skips,omitempty"`
	LastSkip   time.Time `json:"last_skipped,omitzero"`
}
