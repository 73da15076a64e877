package chunk

import (
	"fmt"

	"github.com/simonhull/itunesdb/internal/types"
)

// Field is one decoded or authored fixed field.
type Field struct {
	Name  string
	Value uint64
}

// Node is one chunk of a decoded or built tree.
//
// Nodes are immutable once constructed: builders compute every length and
// derived field up front and the decoder never revisits a node after its
// subtree is complete. Updating a database means building a new tree.
type Node struct {
	Tag  string
	Kind Kind

	// Offset is the chunk's position in the decoded buffer (0 for built nodes).
	Offset int64

	HeaderLength uint32
	TotalLength  uint32

	Fields   []Field
	Children []*Node

	// String is the decoded body of a string data object.
	String *StringField

	// Raw holds body bytes exactly as read: the whole payload of an unknown
	// tag, the payload of a non-string data object, or the original bytes
	// of a decoded string body (kept so a re-encode is byte-identical).
	Raw []byte

	// Lost counts bytes of child subtrees dropped while decoding.
	Lost uint32

	// header is the original header as read; bytes the table does not
	// describe are re-emitted from it.
	header []byte
}

// Value returns a named field.
func (n *Node) Value(name string) (uint64, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Uint32 returns a named field truncated to 32 bits, or 0 if absent.
func (n *Node) Uint32(name string) uint32 {
	v, _ := n.Value(name)
	return uint32(v)
}

// ChildrenOf returns the children of the given kind in order.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits the node and its descendants depth-first. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(n *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// bodyLength is the number of non-chunk payload bytes after the header.
func (n *Node) bodyLength() (uint32, error) {
	if n.Raw != nil {
		return uint32(len(n.Raw)), nil
	}
	if n.String != nil {
		size, err := n.String.Size()
		if err != nil {
			return 0, err
		}
		return uint32(size), nil
	}
	return 0, nil
}

// minHeader is the smallest legal header length for the node's tag.
func (n *Node) minHeader() uint32 {
	if l, ok := LayoutFor(n.Kind); ok {
		return l.MinHeader
	}
	return frameHeader
}

// Validate checks the length invariant for the node and every descendant:
// TotalLength >= HeaderLength >= the tag's minimum, and TotalLength equals
// HeaderLength plus the body plus every child's TotalLength (plus any bytes
// of dropped subtrees).
func (n *Node) Validate() error {
	if n.HeaderLength < n.minHeader() {
		return &types.FormatError{
			Kind:   types.LengthInvariantViolated,
			Tag:    n.Tag,
			Offset: n.Offset,
			Reason: fmt.Sprintf("header length %d below minimum %d", n.HeaderLength, n.minHeader()),
		}
	}

	body, err := n.bodyLength()
	if err != nil {
		return err
	}

	sum := uint64(n.HeaderLength) + uint64(body) + uint64(n.Lost)
	for _, c := range n.Children {
		if err := c.Validate(); err != nil {
			return err
		}
		sum += uint64(c.TotalLength)
	}

	if uint64(n.TotalLength) != sum {
		return &types.FormatError{
			Kind:   types.LengthInvariantViolated,
			Tag:    n.Tag,
			Offset: n.Offset,
			Reason: fmt.Sprintf("total length %d does not match header+body+children %d", n.TotalLength, sum),
		}
	}
	return nil
}
