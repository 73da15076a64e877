// Package itunesdb reads and writes the chunk-structured databases that
// legacy portable media players keep under iPod_Control/iTunes.
//
// Every database is a tree of chunks. A chunk starts with a 4-byte tag, a
// header length and either its total length or, for list chunks, a child
// count. Fixed fields live in the header at table-defined offsets; data
// objects carry UTF-16LE or UTF-8 strings after the header.
//
// # Quick Start
//
// Reading the song list of a device:
//
//	db, err := itunesdb.Open("/Volumes/IPOD/iPod_Control/iTunes/iTunesDB")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, s := range db.Library.Songs {
//		fmt.Printf("%s - %s\n", s.Artist, s.Title)
//	}
//
// Writing a new database:
//
//	lib := &itunesdb.Library{Songs: []itunesdb.Song{{Title: "Café", Location: ":iPod_Control:Music:F00:ABCD.mp3"}}}
//	err := itunesdb.Save(lib, path, itunesdb.WithMasterPlaylist("iPod"), itunesdb.WithBackup(".bak"))
//
// # Supported Files
//
//   - iTunesDB (mhbd): songs, playlists and albums, read and write
//   - Play Counts (mhdp): per-track play and skip log, read only
//
// Other device files are recognised by their leading tag and reported as
// unsupported.
//
// # Architecture
//
//	[Database]         - Entry point with Open() / Decode()
//	  ├─ [Node]        - The decoded chunk tree
//	  ├─ [Library]     - Songs and playlists extracted from the tree
//	  └─ [PlayCount]   - Play count log entries
//
// Decoding runs a table-driven chunk decoder and then a per-file-type
// adapter; encoding runs the adapter's builder and then the chunk encoder,
// which computes every length bottom-up. Save commits through a
// temp-file-and-rename protocol so a failed write never leaves a partial
// database behind.
//
// # Error Handling
//
// Decoding distinguishes between fatal errors and recovered damage:
//
//   - OutOfBoundsError: a length runs past the end of the buffer
//   - FormatError with DepthExceeded or TagMismatch: the tree is unusable
//   - FormatError with LengthInvariantViolated and EncodingError inside a
//     child: only that child is dropped, listed in Database.Failures
//
// Always check Database.Warnings for issues encountered during decoding:
//
//	for _, w := range db.Warnings {
//		log.Printf("Warning: %s", w)
//	}
//
// A decoded tree with no failures re-encodes to the exact bytes it was
// read from, including header bytes the field table does not describe.
package itunesdb
