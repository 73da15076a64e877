package itdb

import (
	"fmt"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/registry"
	"github.com/simonhull/itunesdb/internal/types"
)

// parser implements registry.Parser and registry.Builder for the primary
// media database.
type parser struct{}

// Parse decodes the chunk tree and extracts the library from it.
func (p *parser) Parse(buf []byte, opts registry.ParseOptions) (*registry.Result, error) {
	d := &chunk.Decoder{
		MaxDepth: opts.MaxDepth,
		Logger:   opts.Logger,
		Path:     opts.Path,
	}
	tree, err := d.Decode(buf)
	if err != nil {
		return nil, err
	}

	lib, warnings, err := Extract(tree.Root)
	if err != nil {
		return nil, err
	}

	res := &registry.Result{
		Root:     tree.Root,
		Failures: tree.Failures,
		Library:  lib,
		Warnings: tree.Warnings,
	}
	for _, f := range tree.Failures {
		res.Warnings = append(res.Warnings, types.Warning{
			Stage:   "decode",
			Message: fmt.Sprintf("child of %s dropped: %v", f.Parent, f.Err),
			Offset:  f.Offset,
		})
	}
	res.Warnings = append(res.Warnings, warnings...)
	return res, nil
}

// Build implements registry.Builder.
func (p *parser) Build(lib *types.Library, opts registry.WriteOptions) (*chunk.Node, error) {
	var o []Option
	if opts.Encoding != 0 {
		o = append(o, WithEncoding(opts.Encoding))
	}
	if opts.MasterPlaylist != "" {
		o = append(o, WithMasterPlaylist(opts.MasterPlaylist))
	}
	return Build(lib, o...)
}

func init() {
	p := &parser{}
	registry.Register(types.FileTypeITunesDB, p)
	registry.RegisterBuilder(types.FileTypeITunesDB, p)
}
