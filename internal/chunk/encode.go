package chunk

import (
	"fmt"
	"math"
	"sort"

	"github.com/simonhull/itunesdb/internal/binary"
)

// Values are authored field values keyed by field name.
type Values map[string]uint64

// NewContainer builds a node of a known kind around already-built children.
// The header length is the table default, the total length is the header
// plus every child's total, and derived fields (counts) are computed from
// the children, so a tree built bottom-up is consistent at every level.
func NewContainer(kind Kind, values Values, children ...*Node) (*Node, error) {
	layout, ok := LayoutFor(kind)
	if !ok {
		return nil, fmt.Errorf("no layout for chunk kind %s", kind)
	}
	if layout.Body == BodyData {
		return nil, fmt.Errorf("%s carries a body, not children", layout.Tag)
	}

	total := uint64(layout.DefaultHeader)
	for _, c := range children {
		if c == nil {
			return nil, fmt.Errorf("%s: nil child", layout.Tag)
		}
		if c.Kind != KindUnknown && !layout.AllowsChild(c.Kind) {
			return nil, fmt.Errorf("%s is not a legal child of %s", c.Tag, layout.Tag)
		}
		total += uint64(c.TotalLength)
	}
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("%s: total length %d exceeds 32 bits", layout.Tag, total)
	}

	n := &Node{
		Tag:          layout.Tag,
		Kind:         kind,
		HeaderLength: layout.DefaultHeader,
		TotalLength:  uint32(total),
		Children:     children,
	}
	fields, err := buildFields(layout, n, values)
	if err != nil {
		return nil, err
	}
	n.Fields = fields
	return n, nil
}

// NewDataObject builds a string data object of the given type.
func NewDataObject(dataType uint32, s StringField) (*Node, error) {
	if !IsStringType(dataType) {
		return nil, fmt.Errorf("data type %d does not carry a string", dataType)
	}
	size, err := s.Size()
	if err != nil {
		return nil, err
	}
	n, err := newDataNode(dataType, uint32(size))
	if err != nil {
		return nil, err
	}
	n.String = &StringField{Encoding: s.Encoding, Value: s.Value}
	return n, nil
}

// NewRawDataObject builds a data object whose body is stored verbatim.
func NewRawDataObject(dataType uint32, payload []byte) (*Node, error) {
	n, err := newDataNode(dataType, uint32(len(payload)))
	if err != nil {
		return nil, err
	}
	n.Raw = clone(payload)
	return n, nil
}

func newDataNode(dataType, bodyLen uint32) (*Node, error) {
	layout, _ := LayoutFor(KindDataObject)
	n := &Node{
		Tag:          layout.Tag,
		Kind:         KindDataObject,
		HeaderLength: layout.DefaultHeader,
		TotalLength:  layout.DefaultHeader + bodyLen,
	}
	fields, err := buildFields(layout, n, Values{"data_type": uint64(dataType)})
	if err != nil {
		return nil, err
	}
	n.Fields = fields
	return n, nil
}

// NewOpaque builds a chunk the table does not know, carrying payload
// verbatim after a bare 12-byte header.
func NewOpaque(tag string, payload []byte) (*Node, error) {
	if len(tag) != 4 {
		return nil, fmt.Errorf("chunk tag %q must be 4 bytes", tag)
	}
	if KindOf(tag) != KindUnknown {
		return nil, fmt.Errorf("%s is a known tag; build it with NewContainer", tag)
	}
	return &Node{
		Tag:          tag,
		Kind:         KindUnknown,
		HeaderLength: frameHeader,
		TotalLength:  frameHeader + uint32(len(payload)),
		Raw:          clone(payload),
	}, nil
}

func buildFields(layout *Layout, n *Node, values Values) ([]Field, error) {
	for name := range values {
		spec, ok := layout.Field(name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", layout.Tag, name)
		}
		if spec.Derived() {
			return nil, fmt.Errorf("%s field %q is derived and cannot be set", layout.Tag, name)
		}
	}

	fields := make([]Field, 0, len(layout.Fields))
	for _, spec := range layout.Fields {
		var v uint64
		if spec.Derived() {
			v = spec.Derive(n)
		} else {
			v = values[spec.Name]
		}
		if v > spec.maxValue() {
			return nil, fmt.Errorf("%s field %q: value %d does not fit %d bytes", layout.Tag, spec.Name, v, spec.Width)
		}
		fields = append(fields, Field{Name: spec.Name, Value: v})
	}
	return fields, nil
}

// Compact returns the tree with the bytes of dropped subtrees removed and
// every affected length and derived count recomputed. Subtrees without
// losses are shared with the input; the input is not modified.
func Compact(n *Node) *Node {
	if !n.lossy() {
		return n
	}
	cp := *n
	cp.Lost = 0
	cp.Children = make([]*Node, len(n.Children))

	body, _ := n.bodyLength()
	total := uint64(n.HeaderLength) + uint64(body)
	for i, c := range n.Children {
		cp.Children[i] = Compact(c)
		total += uint64(cp.Children[i].TotalLength)
	}
	cp.TotalLength = uint32(total)

	if layout, ok := LayoutFor(n.Kind); ok {
		cp.Fields = make([]Field, len(n.Fields))
		copy(cp.Fields, n.Fields)
		for i, f := range cp.Fields {
			if spec, ok := layout.Field(f.Name); ok && spec.Derived() {
				cp.Fields[i].Value = spec.Derive(&cp)
			}
		}
	}
	return &cp
}

func (n *Node) lossy() bool {
	if n.Lost > 0 {
		return true
	}
	for _, c := range n.Children {
		if c.lossy() {
			return true
		}
	}
	return false
}

// Encode serializes a tree depth-first. A decoded tree that lost subtrees
// is compacted first. The tree must then satisfy the length invariant (see
// Node.Validate); nothing beyond the declared header and body bytes is
// written.
func Encode(root *Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("encode: nil root")
	}
	root = Compact(root)
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	w := binary.NewWriter(int(root.TotalLength))
	if err := writeNode(w, root); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return w.Bytes(), nil
}

func writeNode(w *binary.Writer, n *Node) error {
	start := w.Offset()
	if len(n.Tag) != 4 {
		return fmt.Errorf("chunk tag %q must be 4 bytes", n.Tag)
	}

	layout, known := LayoutFor(n.Kind)
	endian := binary.LittleEndian
	third := n.TotalLength
	if known {
		endian = layout.FrameEndian
		if layout.Framing == FramingCount {
			third = uint32(len(n.Children))
		}
	}

	hdr := make([]byte, n.HeaderLength)
	if len(n.header) == len(hdr) {
		copy(hdr, n.header)
	}
	w.WriteBytes(hdr)

	// Tag and framing words overwrite the template.
	for i := 0; i < 4; i++ {
		if err := binary.PutAt(w, start+i, n.Tag[i], endian, "chunk tag"); err != nil {
			return err
		}
	}
	if err := binary.PutAt(w, start+4, n.HeaderLength, endian, "header length"); err != nil {
		return err
	}
	if err := binary.PutAt(w, start+8, third, endian, "total length"); err != nil {
		return err
	}

	if known {
		if err := putFields(w, start, n, layout); err != nil {
			return err
		}
	}

	switch {
	case n.Raw != nil:
		w.WriteBytes(n.Raw)
	case n.String != nil:
		if err := n.String.write(w); err != nil {
			return err
		}
	}

	for _, c := range n.Children {
		if err := writeNode(w, c); err != nil {
			return err
		}
	}

	if written := w.Offset() - start; written != int(n.TotalLength) {
		return fmt.Errorf("%s at %d: wrote %d bytes, declared %d", n.Tag, start, written, n.TotalLength)
	}
	return nil
}

func putFields(w *binary.Writer, start int, n *Node, layout *Layout) error {
	// Fields are written in offset order so overlapping specs resolve the
	// same way every time.
	specs := make([]FieldSpec, len(layout.Fields))
	copy(specs, layout.Fields)
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Offset < specs[j].Offset })

	for _, spec := range specs {
		v, ok := n.Value(spec.Name)
		if !ok {
			continue
		}
		if spec.end() > int(n.HeaderLength) {
			return fmt.Errorf("%s field %q at %d does not fit header of %d bytes", n.Tag, spec.Name, spec.Offset, n.HeaderLength)
		}
		off := start + spec.Offset
		var err error
		switch spec.Width {
		case 1:
			err = binary.PutAt(w, off, uint8(v), spec.Endian, spec.Name)
		case 2:
			err = binary.PutAt(w, off, uint16(v), spec.Endian, spec.Name)
		case 4:
			err = binary.PutAt(w, off, uint32(v), spec.Endian, spec.Name)
		case 8:
			err = binary.PutAt(w, off, v, spec.Endian, spec.Name)
		default:
			err = fmt.Errorf("field %s: unsupported width %d", spec.Name, spec.Width)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
