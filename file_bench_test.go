package itunesdb_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/simonhull/itunesdb"
)

func benchmarkLibrary(n int) *itunesdb.Library {
	lib := &itunesdb.Library{}
	pl := itunesdb.Playlist{Title: "All"}
	for i := range n {
		lib.Songs = append(lib.Songs, itunesdb.Song{
			Title:    fmt.Sprintf("Track %d", i+1),
			Artist:   "Artist",
			Album:    "Album",
			Location: fmt.Sprintf(":iPod_Control:Music:F%02d:T%04d.mp3", i%50, i),
		})
		pl.Entries = append(pl.Entries, itunesdb.PlaylistEntry{TrackID: uint32(i + 1)})
	}
	lib.Playlists = []itunesdb.Playlist{pl}
	return lib
}

// BenchmarkDecode measures decoding a 1000-song database.
func BenchmarkDecode(b *testing.B) {
	buf, err := itunesdb.Encode(benchmarkLibrary(1000))
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))

	for b.Loop() {
		if _, err := itunesdb.Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkEncode measures building and encoding a 1000-song database.
func BenchmarkEncode(b *testing.B) {
	lib := benchmarkLibrary(1000)

	b.ReportAllocs()

	for b.Loop() {
		if _, err := itunesdb.Encode(lib); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkOpenMany measures concurrent database opening.
func BenchmarkOpenMany(b *testing.B) {
	buf, err := itunesdb.Encode(benchmarkLibrary(200))
	if err != nil {
		b.Fatal(err)
	}

	dir := b.TempDir()
	paths := make([]string, 10)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("iTunesDB.%d", i))
		if err := os.WriteFile(paths[i], buf, 0o644); err != nil {
			b.Fatal(err)
		}
	}

	ctx := context.Background()
	b.ReportAllocs()

	for b.Loop() {
		if _, err := itunesdb.OpenMany(ctx, paths...); err != nil {
			b.Fatal(err)
		}
	}
}
