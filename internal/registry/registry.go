// Package registry manages the per-file-type adapters for device databases.
package registry

import (
	"github.com/sirupsen/logrus"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/types"
)

// ParseOptions carries the caller's decode settings into an adapter.
type ParseOptions struct {
	Path     string
	MaxDepth int
	Logger   logrus.FieldLogger
}

// Result is what an adapter recovers from one buffer. Adapters fill the
// fields that apply to their file type.
type Result struct {
	// Root is the decoded chunk tree (nil for non-chunk files).
	Root *chunk.Node

	// Failures lists child subtrees dropped while decoding.
	Failures []chunk.SubtreeFailure

	Library    *types.Library
	PlayCounts []types.PlayCount

	Warnings []types.Warning
}

// Parser is the interface all file-type adapters implement.
type Parser interface {
	// Parse decodes a fully loaded database buffer.
	Parse(buf []byte, opts ParseOptions) (*Result, error)
}

// WriteOptions carries the caller's encode settings into a builder.
type WriteOptions struct {
	Encoding       chunk.Encoding
	MasterPlaylist string
}

// Builder is the interface file types with a write path implement.
type Builder interface {
	// Build turns a library into a chunk tree ready for chunk.Encode.
	Build(lib *types.Library, opts WriteOptions) (*chunk.Node, error)
}

// parsers maps file types to their adapters.
var parsers = make(map[types.FileType]Parser)

// builders maps file types to their builders.
var builders = make(map[types.FileType]Builder)

// Register registers a parser for a file type.
// This is called by adapter packages during initialization (init functions).
func Register(ft types.FileType, parser Parser) {
	parsers[ft] = parser
}

// Get returns the parser for a given file type.
// Returns nil if no parser is registered for the type.
func Get(ft types.FileType) Parser {
	return parsers[ft]
}

// RegisterBuilder registers a builder for a file type.
// This is called by adapter packages during initialization (init functions).
func RegisterBuilder(ft types.FileType, builder Builder) {
	builders[ft] = builder
}

// GetBuilder returns the builder for a given file type.
// Returns nil if no builder is registered for the type.
func GetBuilder(ft types.FileType) Builder {
	return builders[ft]
}
