package itunesdb

import (
	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/types"
)

// Library is an alias to types.Library.
type Library = types.Library

// Song is an alias to types.Song.
type Song = types.Song

// Playlist is an alias to types.Playlist.
type Playlist = types.Playlist

// PlaylistEntry is an alias to types.PlaylistEntry.
type PlaylistEntry = types.PlaylistEntry

// PlayCount is an alias to types.PlayCount.
type PlayCount = types.PlayCount

// Node is an alias to chunk.Node, one chunk of a decoded tree.
type Node = chunk.Node

// SubtreeFailure is an alias to chunk.SubtreeFailure.
type SubtreeFailure = chunk.SubtreeFailure

// Encoding is an alias to chunk.Encoding, the text encoding of a string
// data object.
type Encoding = chunk.Encoding

// Re-export the string encodings.
const (
	EncodingUTF16LE = chunk.EncodingUTF16LE
	EncodingUTF8    = chunk.EncodingUTF8
)

// DefaultMaxDepth is the chunk nesting limit used unless WithMaxDepth is given.
const DefaultMaxDepth = chunk.DefaultMaxDepth
