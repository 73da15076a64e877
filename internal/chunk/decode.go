package chunk

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/simonhull/itunesdb/internal/binary"
	"github.com/simonhull/itunesdb/internal/types"
)

// DefaultMaxDepth bounds chunk nesting. Real databases nest five deep
// (mhbd > mhsd > mhlp > mhyp > mhip > mhod).
const DefaultMaxDepth = 16

// SubtreeFailure records a child subtree the decoder dropped.
type SubtreeFailure struct {
	Parent string // tag of the parent that lost the child
	Offset int64  // offset of the dropped child
	Err    error
}

func (f SubtreeFailure) String() string {
	return fmt.Sprintf("child of %s at offset %d dropped: %v", f.Parent, f.Offset, f.Err)
}

// Tree is the result of a decode: the root node plus everything recovered
// from along the way.
type Tree struct {
	Root     *Node
	Failures []SubtreeFailure
	Warnings []types.Warning
}

// Decoder walks a buffer into a chunk tree.
type Decoder struct {
	// MaxDepth bounds recursion. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives debug output about unknown tags and dropped
	// subtrees. Nil discards.
	Logger logrus.FieldLogger

	// Path is reported in bounds errors.
	Path string
}

// NewDecoder returns a Decoder with default limits and a discarding logger.
func NewDecoder() *Decoder {
	return &Decoder{MaxDepth: DefaultMaxDepth}
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

type decodeState struct {
	buf      []byte
	cursor   *binary.Cursor
	maxDepth int
	log      logrus.FieldLogger
	tree     *Tree
}

// Decode walks buf into a tree. Structural failures (a root that does not
// fit the buffer, nesting past MaxDepth) are returned as errors; a child
// subtree with inconsistent lengths is dropped and recorded in
// Tree.Failures while its siblings still decode.
func (d *Decoder) Decode(buf []byte) (*Tree, error) {
	st := &decodeState{
		buf:      buf,
		cursor:   binary.NewCursor(buf).WithPath(d.Path),
		maxDepth: d.MaxDepth,
		log:      d.Logger,
		tree:     &Tree{},
	}
	if st.maxDepth <= 0 {
		st.maxDepth = DefaultMaxDepth
	}
	if st.log == nil {
		st.log = discardLogger
	}

	root, err := st.node(0, len(buf), 0)
	if err != nil {
		return nil, err
	}
	st.tree.Root = root

	if trailing := len(buf) - int(root.TotalLength); trailing > 0 {
		st.warn(int64(root.TotalLength), fmt.Sprintf("%d trailing bytes after root chunk", trailing))
	}
	return st.tree, nil
}

func (st *decodeState) warn(offset int64, msg string) {
	st.tree.Warnings = append(st.tree.Warnings, types.Warning{Stage: "decode", Message: msg, Offset: offset})
}

// bound checks that n bytes at start fit the window ending at limit. The
// root's window is the buffer itself, so running past it is a bounds
// error; any deeper window is a parent's declared length.
func (st *decodeState) bound(start, n, limit, depth int, tag, what string) error {
	if n >= 0 && start+n <= limit {
		return nil
	}
	if depth == 0 {
		return st.cursor.Check(start, n, what)
	}
	return &types.FormatError{
		Kind:   types.LengthInvariantViolated,
		Tag:    tag,
		Offset: int64(start),
		Reason: fmt.Sprintf("%s of %d bytes overruns parent ending at %d", what, n, limit),
	}
}

func (st *decodeState) node(start, limit, depth int) (*Node, error) {
	if depth > st.maxDepth {
		return nil, &types.FormatError{
			Kind:   types.DepthExceeded,
			Offset: int64(start),
			Reason: fmt.Sprintf("nesting deeper than %d", st.maxDepth),
		}
	}

	if err := st.bound(start, frameHeader, limit, depth, "", "chunk frame"); err != nil {
		return nil, err
	}

	c := st.cursor.Fork(start)
	tag, err := c.String(4, "chunk tag")
	if err != nil {
		return nil, err
	}

	kind := KindOf(tag)
	layout, known := LayoutFor(kind)
	endian := binary.LittleEndian
	minHeader := uint32(frameHeader)
	if known {
		endian = layout.FrameEndian
		minHeader = layout.MinHeader
	}

	headerLen, err := binary.Read[uint32](c, "header length", endian)
	if err != nil {
		return nil, err
	}
	third, err := binary.Read[uint32](c, "total length", endian)
	if err != nil {
		return nil, err
	}

	if headerLen < minHeader {
		return nil, &types.FormatError{
			Kind:   types.LengthInvariantViolated,
			Tag:    tag,
			Offset: int64(start),
			Reason: fmt.Sprintf("header length %d below minimum %d", headerLen, minHeader),
		}
	}
	if err := st.bound(start, int(headerLen), limit, depth, tag, "header"); err != nil {
		return nil, err
	}

	counted := known && layout.Framing == FramingCount
	if !counted {
		if third < headerLen {
			return nil, &types.FormatError{
				Kind:   types.LengthInvariantViolated,
				Tag:    tag,
				Offset: int64(start),
				Reason: fmt.Sprintf("total length %d smaller than header length %d", third, headerLen),
			}
		}
		if err := st.bound(start, int(third), limit, depth, tag, "chunk"); err != nil {
			return nil, err
		}
	}

	n := &Node{
		Tag:          tag,
		Kind:         kind,
		Offset:       int64(start),
		HeaderLength: headerLen,
		TotalLength:  third,
		header:       clone(st.buf[start : start+int(headerLen)]),
	}
	bodyStart := start + int(headerLen)

	if !known {
		n.Raw = clone(st.buf[bodyStart : start+int(third)])
		st.log.WithFields(logrus.Fields{
			"tag":    tag,
			"offset": start,
			"length": third,
		}).Debug("unknown chunk kept as opaque payload")
		st.warn(int64(start), fmt.Sprintf("unknown chunk %q (%d bytes) kept as opaque payload", tag, third))
		return n, nil
	}

	for _, f := range layout.Fields {
		v, err := readField(c, start, f)
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, Field{Name: f.Name, Value: v})
	}

	if layout.Body == BodyData {
		bodyLen := int(third - headerLen)
		n.Raw = clone(st.buf[bodyStart : bodyStart+bodyLen])
		if dt := n.Uint32("data_type"); IsStringType(dt) {
			s, err := decodeString(st.cursor.Fork(bodyStart), bodyLen)
			if err != nil {
				return nil, err
			}
			n.String = s
		}
		return n, nil
	}

	if counted {
		end, err := st.children(n, layout, bodyStart, limit, int(third), depth)
		if err != nil {
			return nil, err
		}
		n.TotalLength = uint32(end - start)
		return n, nil
	}

	if _, err := st.children(n, layout, bodyStart, start+int(third), -1, depth); err != nil {
		return nil, err
	}
	return n, nil
}

// children decodes child chunks from off. With count < 0 it fills the
// window up to end; otherwise it reads count children. It returns the
// offset just past the last consumed byte.
func (st *decodeState) children(n *Node, layout *Layout, off, end, count, depth int) (int, error) {
	seen := 0
	for {
		if count < 0 && off >= end {
			break
		}
		if count >= 0 && seen >= count {
			break
		}
		if count >= 0 && off >= end {
			st.fail(n, off, &types.FormatError{
				Kind:   types.LengthInvariantViolated,
				Tag:    n.Tag,
				Offset: n.Offset,
				Reason: fmt.Sprintf("declared %d children, found %d", count, seen),
			})
			break
		}

		child, err := st.node(off, end, depth+1)
		if err != nil {
			if isFatal(err) {
				return off, err
			}
			st.fail(n, off, err)
			seen++
			if skip := st.skippable(off, end); skip > 0 {
				n.Lost += uint32(skip)
				off += skip
				continue
			}
			n.Lost += uint32(end - off)
			off = end
			break
		}

		if child.Kind != KindUnknown && !layout.AllowsChild(child.Kind) {
			st.warn(child.Offset, fmt.Sprintf("%s is not a legal child of %s", child.Tag, n.Tag))
		}
		n.Children = append(n.Children, child)
		off += int(child.TotalLength)
		seen++
	}
	return off, nil
}

// skippable returns the declared length of the chunk at off when it can be
// trusted to step over a failed child, or 0.
func (st *decodeState) skippable(off, end int) int {
	if end-off < frameHeader {
		return 0
	}
	if l, ok := LayoutFor(KindOf(string(st.buf[off : off+4]))); ok && l.Framing == FramingCount {
		return 0
	}
	total, err := binary.ReadAt[uint32](st.cursor, off+8, "total length", binary.LittleEndian)
	if err != nil || total < frameHeader || off+int(total) > end {
		return 0
	}
	return int(total)
}

func (st *decodeState) fail(parent *Node, off int, err error) {
	st.log.WithFields(logrus.Fields{
		"parent": parent.Tag,
		"offset": off,
	}).WithError(err).Debug("dropping child subtree")
	st.tree.Failures = append(st.tree.Failures, SubtreeFailure{Parent: parent.Tag, Offset: int64(off), Err: err})
}

func isFatal(err error) bool {
	var oob *types.OutOfBoundsError
	if errors.As(err, &oob) {
		return true
	}
	var fe *types.FormatError
	if errors.As(err, &fe) {
		return fe.Kind == types.DepthExceeded || fe.Kind == types.TagMismatch
	}
	return false
}

func readField(c *binary.Cursor, start int, f FieldSpec) (uint64, error) {
	off := start + f.Offset
	switch f.Width {
	case 1:
		v, err := binary.ReadAt[uint8](c, off, f.Name, f.Endian)
		return uint64(v), err
	case 2:
		v, err := binary.ReadAt[uint16](c, off, f.Name, f.Endian)
		return uint64(v), err
	case 4:
		v, err := binary.ReadAt[uint32](c, off, f.Name, f.Endian)
		return uint64(v), err
	case 8:
		return binary.ReadAt[uint64](c, off, f.Name, f.Endian)
	default:
		return 0, fmt.Errorf("field %s: unsupported width %d", f.Name, f.Width)
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
