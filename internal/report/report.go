// Package report renders decoded databases as CSV, JSON or an indented
// chunk tree.
package report

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/types"
)

var songHeader = []string{
	"id", "persistent_id", "title", "artist", "album", "album_artist",
	"genre", "composer", "comment", "kind", "file_type", "location",
	"size", "duration_ms", "track_number", "track_count", "disc_number",
	"disc_count", "year", "bitrate", "sample_rate", "play_count", "rating",
	"compilation", "date_added", "last_modified", "last_played",
}

// SongsCSV writes one row per song under a header row.
func SongsCSV(w io.Writer, songs []types.Song) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(songHeader); err != nil {
		return err
	}
	for _, s := range songs {
		row := []string{
			u32(s.ID), strconv.FormatUint(s.PersistentID, 10),
			s.Title, s.Artist, s.Album, s.AlbumArtist,
			s.Genre, s.Composer, s.Comment, s.Kind, s.FileType, s.Location,
			u32(s.Size), u32(s.DurationMS), u32(s.TrackNumber), u32(s.TrackCount),
			u32(s.DiscNumber), u32(s.DiscCount), u32(s.Year), u32(s.Bitrate),
			u32(s.SampleRate), u32(s.PlayCount), strconv.Itoa(int(s.Rating)),
			strconv.FormatBool(s.Compilation),
			timestamp(s.DateAdded), timestamp(s.LastModified), timestamp(s.LastPlayed),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlaylistsCSV writes one row per playlist. Track IDs are space separated;
// unresolved references are suffixed with '?'.
func PlaylistsCSV(w io.Writer, playlists []types.Playlist) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "persistent_id", "master", "podcast", "entries", "track_ids"}); err != nil {
		return err
	}
	for _, p := range playlists {
		ids := make([]string, len(p.Entries))
		for i, e := range p.Entries {
			ids[i] = u32(e.TrackID)
			if e.Unresolved {
				ids[i] += "?"
			}
		}
		row := []string{
			p.Title,
			strconv.FormatUint(p.PersistentID, 10),
			strconv.FormatBool(p.Master),
			strconv.FormatBool(p.Podcast),
			strconv.Itoa(len(p.Entries)),
			strings.Join(ids, " "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlayCountsCSV writes one row per play count entry.
func PlayCountsCSV(w io.Writer, counts []types.PlayCount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "plays", "last_played", "bookmark_ms", "rating", "skips", "last_skipped"}); err != nil {
		return err
	}
	for _, c := range counts {
		row := []string{
			strconv.Itoa(c.Index), u32(c.Plays), timestamp(c.LastPlayed),
			u32(c.BookmarkMS), u32(c.Rating), u32(c.Skips), timestamp(c.LastSkip),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Tree prints one line per chunk, children indented under their parent.
// Known fields follow the tag; string data objects show their value.
func Tree(w io.Writer, root *chunk.Node) error {
	return tree(w, root, nil)
}

// TreeHex is Tree with a hex dump of every chunk header, read from buf,
// the buffer root was decoded from. A header that does not fit buf is
// left out.
func TreeHex(w io.Writer, root *chunk.Node, buf []byte) error {
	return tree(w, root, buf)
}

func tree(w io.Writer, root *chunk.Node, buf []byte) error {
	var err error
	root.Walk(func(n *chunk.Node, depth int) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		if _, err = fmt.Fprintf(w, "%s%s\n", indent, describe(n)); err != nil {
			return false
		}
		if buf != nil {
			err = headerHex(w, indent, n, buf)
		}
		return true
	})
	return err
}

func headerHex(w io.Writer, indent string, n *chunk.Node, buf []byte) error {
	end := n.Offset + int64(n.HeaderLength)
	if n.Offset < 0 || end > int64(len(buf)) {
		return nil
	}
	dump := strings.TrimRight(hex.Dump(buf[n.Offset:end]), "\n")
	for _, line := range strings.Split(dump, "\n") {
		if _, err := fmt.Fprintf(w, "%s  | %s\n", indent, line); err != nil {
			return err
		}
	}
	return nil
}

func describe(n *chunk.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (header: %d, total: %d, offset: %d)", n.Tag, n.HeaderLength, n.TotalLength, n.Offset)
	if n.Kind == chunk.KindUnknown {
		fmt.Fprintf(&sb, " opaque %d bytes", len(n.Raw))
		return sb.String()
	}
	for _, f := range n.Fields {
		if f.Value != 0 {
			fmt.Fprintf(&sb, " %s=%d", f.Name, f.Value)
		}
	}
	if len(n.Children) > 0 {
		fmt.Fprintf(&sb, " children=%d", len(n.Children))
	}
	if n.Lost > 0 {
		fmt.Fprintf(&sb, " lost=%d", n.Lost)
	}
	switch {
	case n.String != nil:
		fmt.Fprintf(&sb, " %s %q", n.String.Encoding, n.String.Value)
	case n.Kind == chunk.KindDataObject && len(n.Raw) > 0:
		fmt.Fprintf(&sb, " payload %d bytes", len(n.Raw))
	}
	return sb.String()
}

func u32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
