package itunesdb

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/itunesdb/internal/chunk"
	_ "github.com/simonhull/itunesdb/internal/itdb"
	_ "github.com/simonhull/itunesdb/internal/playcounts"
	"github.com/simonhull/itunesdb/internal/registry"
)

// Database is a decoded device database.
//
// Which fields are set depends on the file type: a media database fills
// Root and Library, a play count log fills PlayCounts. Everything here is
// a copy; nothing refers back into the decoded buffer.
//
//	db, err := itunesdb.Open("/Volumes/IPOD/iPod_Control/iTunes/iTunesDB")
//	if err != nil {
//		return err
//	}
//	for _, s := range db.Library.Songs {
//		fmt.Printf("%d %s - %s\n", s.ID, s.Artist, s.Title)
//	}
type Database struct {
	// Path the database was read from ("" for Decode without WithPath)
	Path string

	// Detected or requested file type
	FileType FileType

	// Size of the decoded buffer in bytes
	Size int64

	// Root of the chunk tree (nil for files that are not chunk trees)
	Root *Node

	// Library content of a media database
	Library *Library

	// Play count entries, index-aligned with the media database's tracks
	PlayCounts []PlayCount

	// Child subtrees the decoder dropped
	Failures []SubtreeFailure

	// Warnings encountered during decoding (non-fatal issues)
	Warnings []Warning
}

// Decode decodes a fully loaded database buffer.
//
// The file type is detected from the leading tag unless WithFileType is
// given. Localized corruption drops the affected subtree and is reported
// in Failures and Warnings; truncation, runaway nesting and a wrong root
// tag are errors.
func Decode(buf []byte, opts ...Option) (*Database, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return decode(buf, options)
}

func decode(buf []byte, options *openOptions) (*Database, error) {
	ft := options.fileType
	if ft == FileTypeUnknown {
		detected, err := DetectFileType(buf, options.path)
		if err != nil {
			return nil, err
		}
		ft = detected
	}

	parser := registry.Get(ft)
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   options.path,
			Reason: fmt.Sprintf("no adapter available for file type %s", ft),
		}
	}

	res, err := parser.Parse(buf, registry.ParseOptions{
		Path:     options.path,
		MaxDepth: options.maxDepth,
		Logger:   options.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ft, err)
	}

	db := &Database{
		Path:       options.path,
		FileType:   ft,
		Size:       int64(len(buf)),
		Root:       res.Root,
		Library:    res.Library,
		PlayCounts: res.PlayCounts,
		Failures:   res.Failures,
		Warnings:   res.Warnings,
	}

	if options.logger != nil {
		for _, w := range db.Warnings {
			options.logger.WithField("path", options.path).Warn(w.String())
		}
	}

	if options.strictParsing && len(db.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", db.Warnings[0])
	}
	if options.ignoreWarnings {
		db.Warnings = nil
	}
	return db, nil
}

// Open reads and decodes the database at path.
//
//	db, err := itunesdb.Open(path,
//	    itunesdb.WithMaxDepth(8),
//	    itunesdb.WithStrictParsing(),
//	)
func Open(path string, opts ...Option) (*Database, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	options.path = path

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decode(buf, options)
}

// OpenContext opens a database with context support for cancellation.
//
// The context is checked before reading; decoding itself runs to
// completion on the loaded buffer.
func OpenContext(ctx context.Context, path string, opts ...Option) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple databases concurrently.
//
// Files are decoded in parallel using up to runtime.NumCPU() goroutines,
// each file on its own goroutine. Results are returned in the same order
// as the input paths. The first failure cancels the rest and is returned.
func OpenMany(ctx context.Context, paths ...string) ([]*Database, error) {
	return OpenManyWith(ctx, paths, nil)
}

// OpenManyWith is OpenMany with options applied to every file.
func OpenManyWith(ctx context.Context, paths []string, opts []Option) ([]*Database, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*Database, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			db, err := Open(path, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = db
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Encode re-encodes the decoded chunk tree. A tree decoded without
// failures encodes to the exact bytes it was read from; subtrees that were
// dropped are left out and every length is recomputed.
func (db *Database) Encode() ([]byte, error) {
	if db.Root == nil {
		return nil, &UnsupportedFormatError{
			Path:   db.Path,
			Reason: fmt.Sprintf("file type %s has no chunk tree", db.FileType),
		}
	}
	return chunk.Encode(db.Root)
}
