// Package playcounts reads the play count log a device writes next to its
// media database. Entry i belongs to the i-th track of the database.
package playcounts

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/simonhull/itunesdb/internal/binary"
	"github.com/simonhull/itunesdb/internal/registry"
	"github.com/simonhull/itunesdb/internal/types"
)

// Tag is the leading tag of a play count file.
const Tag = "mhdp"

// DefaultHeaderLength is the header length devices write.
const DefaultHeaderLength = 0x60

// Entry lengths seen on devices. Longer entries extend shorter ones.
const (
	EntryBasic    = 0x0C // plays, last played, bookmark
	EntryRated    = 0x10 // + rating
	EntryExtended = 0x14 // + unknown word
	EntrySkips    = 0x1C // + skip count, last skipped
)

// minHeader is tag + header length + entry length + entry count.
const minHeader = 16

// Parse decodes a play count file. Entries longer than the longest known
// layout are read up to what is known and the rest skipped.
func Parse(buf []byte, path string) ([]types.PlayCount, error) {
	c := binary.NewCursor(buf).WithPath(path)
	cr := binary.NewChainReader(c, binary.LittleEndian)

	tag, err := c.String(4, "play count tag")
	if err != nil {
		return nil, err
	}
	if tag != Tag {
		return nil, &types.FormatError{
			Kind:   types.TagMismatch,
			Tag:    tag,
			Reason: "play count file does not start with " + Tag,
		}
	}

	headerLen := binary.ReadChained[uint32](cr, "header length")
	entryLen := binary.ReadChained[uint32](cr, "entry length")
	count := binary.ReadChained[uint32](cr, "entry count")
	if err := cr.Error(); err != nil {
		return nil, err
	}

	if headerLen < minHeader {
		return nil, &types.FormatError{
			Kind:   types.LengthInvariantViolated,
			Tag:    tag,
			Reason: fmt.Sprintf("header length %d below minimum %d", headerLen, minHeader),
		}
	}
	if entryLen < EntryBasic {
		return nil, &types.FormatError{
			Kind:   types.LengthInvariantViolated,
			Tag:    tag,
			Reason: fmt.Sprintf("entry length %d below minimum %d", entryLen, EntryBasic),
		}
	}

	// Clamped so a huge count cannot overflow int.
	total := uint64(entryLen) * uint64(count)
	if err := c.Check(int(headerLen), int(min(total, uint64(len(buf))+1)), "play count entries"); err != nil {
		return nil, err
	}

	entries := make([]types.PlayCount, 0, count)
	for i := range int(count) {
		off := int(headerLen) + i*int(entryLen)
		e, err := readEntry(c.Fork(off), i, int(entryLen))
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readEntry(c *binary.Cursor, index, entryLen int) (types.PlayCount, error) {
	cr := binary.NewChainReader(c, binary.LittleEndian)
	e := types.PlayCount{
		Index:      index,
		Plays:      binary.ReadChained[uint32](cr, "play count"),
		LastPlayed: types.MacTime(binary.ReadChained[uint32](cr, "last played")),
		BookmarkMS: binary.ReadChained[uint32](cr, "bookmark"),
	}
	if entryLen >= EntryRated {
		e.Rating = binary.ReadChained[uint32](cr, "rating")
	}
	if entryLen >= EntryExtended {
		cr.Skip(4, "unknown")
	}
	if entryLen >= EntrySkips {
		e.Skips = binary.ReadChained[uint32](cr, "skip count")
		e.LastSkip = types.MacTime(binary.ReadChained[uint32](cr, "last skipped"))
	}
	return e, cr.Error()
}

// Marshal encodes entries with the given entry length, the inverse of Parse.
func Marshal(entries []types.PlayCount, entryLen uint32) ([]byte, error) {
	switch entryLen {
	case EntryBasic, EntryRated, EntryExtended, EntrySkips:
	default:
		return nil, fmt.Errorf("unsupported entry length %#x", entryLen)
	}

	w := binary.NewWriter(DefaultHeaderLength + len(entries)*int(entryLen))
	if err := w.WriteTag(Tag); err != nil {
		return nil, err
	}
	binary.WriteLE[uint32](w, DefaultHeaderLength)
	binary.WriteLE(w, entryLen)
	binary.WriteLE(w, uint32(len(entries)))
	w.WriteZeros(DefaultHeaderLength - minHeader)

	for _, e := range entries {
		binary.WriteLE(w, e.Plays)
		binary.WriteLE(w, types.MacSeconds(e.LastPlayed))
		binary.WriteLE(w, e.BookmarkMS)
		if entryLen >= EntryRated {
			binary.WriteLE(w, e.Rating)
		}
		if entryLen >= EntryExtended {
			binary.WriteLE[uint32](w, 0)
		}
		if entryLen >= EntrySkips {
			binary.WriteLE(w, e.Skips)
			binary.WriteLE(w, types.MacSeconds(e.LastSkip))
		}
	}
	return w.Bytes(), nil
}

// parser implements registry.Parser for play count files.
type parser struct{}

func (p *parser) Parse(buf []byte, opts registry.ParseOptions) (*registry.Result, error) {
	entries, err := Parse(buf, opts.Path)
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		opts.Logger.WithFields(logrus.Fields{
			"path":    opts.Path,
			"entries": len(entries),
		}).Debug("play counts decoded")
	}
	return &registry.Result{PlayCounts: entries}, nil
}

func init() {
	registry.Register(types.FileTypePlayCounts, &parser{})
}
