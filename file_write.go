package itunesdb

import (
	"fmt"

	"github.com/simonhull/itunesdb/internal/atomicfile"
	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/registry"
)

// Encode builds a media database from lib and serializes it.
//
// Songs without an ID get one after the highest existing ID and songs
// without a persistent ID get a random one; lib itself is not modified.
// Every length and count in the output is computed from the content.
func Encode(lib *Library, opts ...SaveOption) ([]byte, error) {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}
	return encode(lib, options)
}

func encode(lib *Library, options *saveOptions) ([]byte, error) {
	builder := registry.GetBuilder(FileTypeITunesDB)
	if builder == nil {
		return nil, &UnsupportedFormatError{
			Reason: fmt.Sprintf("no builder registered for file type %s", FileTypeITunesDB),
		}
	}

	root, err := builder.Build(lib, registry.WriteOptions{
		Encoding:       options.encoding,
		MasterPlaylist: options.masterPlaylist,
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	return chunk.Encode(root)
}

// Commit writes buf to path atomically.
//
// The bytes go to a temporary file in the destination's directory, which
// is synced and then renamed over path; the parent directory is created
// if needed. If any step fails a *WriteError naming the stage is returned,
// path is left as it was and the temporary file is kept for diagnosis.
//
// Only WithBackup, WithPreserveModTime and WithCommitLogger apply.
func Commit(buf []byte, path string, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}
	return commit(buf, path, options)
}

func commit(buf []byte, path string, options *saveOptions) error {
	var aopts []atomicfile.Option
	if options.backupSuffix != "" {
		aopts = append(aopts, atomicfile.WithBackup(options.backupSuffix))
	}
	if options.preserveModTime {
		aopts = append(aopts, atomicfile.WithPreserveModTime())
	}
	if options.logger != nil {
		aopts = append(aopts, atomicfile.WithLogger(options.logger))
	}
	return atomicfile.Commit(path, buf, aopts...)
}

// Save encodes lib and commits it to path.
//
// Options can be provided to customize save behavior:
//
//	err := itunesdb.Save(lib, path,
//	    itunesdb.WithBackup(".bak"),
//	    itunesdb.WithValidation(),
//	)
func Save(lib *Library, path string, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}
	if lib == nil {
		lib = &Library{}
	}

	buf, err := encode(lib, options)
	if err != nil {
		return err
	}
	if err := commit(buf, path, options); err != nil {
		return err
	}

	if options.validate {
		if err := validateWrittenFile(path, lib, options); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// validateWrittenFile re-opens the database and compares song and playlist
// titles with the library that was written.
func validateWrittenFile(path string, lib *Library, options *saveOptions) error {
	written, err := Open(path, WithFileType(FileTypeITunesDB))
	if err != nil {
		return fmt.Errorf("re-open: %w", err)
	}
	if len(written.Failures) > 0 {
		return fmt.Errorf("re-open: %s", written.Failures[0])
	}

	got := written.Library
	if len(got.Songs) != len(lib.Songs) {
		return fmt.Errorf("song count mismatch: got %d, want %d", len(got.Songs), len(lib.Songs))
	}
	for i := range lib.Songs {
		if got.Songs[i].Title != lib.Songs[i].Title {
			return fmt.Errorf("song %d title mismatch: got %q, want %q", i, got.Songs[i].Title, lib.Songs[i].Title)
		}
	}

	// A generated master playlist comes first.
	playlists := got.Playlists
	if options.masterPlaylist != "" && !hasMaster(lib.Playlists) && len(playlists) > 0 {
		playlists = playlists[1:]
	}
	if len(playlists) != len(lib.Playlists) {
		return fmt.Errorf("playlist count mismatch: got %d, want %d", len(playlists), len(lib.Playlists))
	}
	for i := range lib.Playlists {
		if playlists[i].Title != lib.Playlists[i].Title {
			return fmt.Errorf("playlist %d title mismatch: got %q, want %q", i, playlists[i].Title, lib.Playlists[i].Title)
		}
		if len(playlists[i].Entries) != len(lib.Playlists[i].Entries) {
			return fmt.Errorf("playlist %q entry count mismatch: got %d, want %d",
				lib.Playlists[i].Title, len(playlists[i].Entries), len(lib.Playlists[i].Entries))
		}
		for j, e := range lib.Playlists[i].Entries {
			if e.TrackID == 0 {
				continue
			}
			if _, ok := lib.SongByID(e.TrackID); ok && playlists[i].Entries[j].Unresolved {
				return fmt.Errorf("playlist %q entry %d: track %d no longer resolves", lib.Playlists[i].Title, j, e.TrackID)
			}
		}
	}
	return nil
}

func hasMaster(playlists []Playlist) bool {
	for _, p := range playlists {
		if p.Master {
			return true
		}
	}
	return false
}
