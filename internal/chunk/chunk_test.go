package chunk

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/itunesdb/internal/types"
)

// Offsets of the chunks in sampleTree's encoding.
const (
	sampleTrackOffset = 0x68 + 0x60 + 0x5C
	sampleFirstString = sampleTrackOffset + 0x9C
)

func mustString(t *testing.T, dataType uint32, enc Encoding, value string) *Node {
	t.Helper()
	n, err := NewDataObject(dataType, StringField{Encoding: enc, Value: value})
	require.NoError(t, err)
	return n
}

func mustContainer(t *testing.T, kind Kind, values Values, children ...*Node) *Node {
	t.Helper()
	n, err := NewContainer(kind, values, children...)
	require.NoError(t, err)
	return n
}

// sampleTree builds mhbd > mhsd > mhlt > mhit > mhod x strings.
func sampleTree(t *testing.T, strings ...*Node) *Node {
	t.Helper()
	track := mustContainer(t, KindTrack, Values{"track_id": 7, "year": 1999}, strings...)
	list := mustContainer(t, KindTrackList, nil, track)
	section := mustContainer(t, KindSection, Values{"section_type": SectionTracks}, list)
	return mustContainer(t, KindDatabase, Values{"version": 0x19, "id": 0xDEADBEEF}, section)
}

func u32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func TestEncode_LengthsComputedBottomUp(t *testing.T) {
	title := mustString(t, 1, EncodingUTF16LE, "Café")
	root := sampleTree(t, title)

	// mhod: 0x18 header + 16 string header + 8 payload bytes
	assert.Equal(t, uint32(48), title.TotalLength)
	assert.Equal(t, uint32(0x9C+48), root.Children[0].Children[0].Children[0].TotalLength)
	assert.Equal(t, uint32(0x68+0x60+0x5C+0x9C+48), root.TotalLength)

	buf, err := Encode(root)
	require.NoError(t, err)
	require.Len(t, buf, int(root.TotalLength))

	assert.Equal(t, "mhbd", string(buf[0:4]))
	assert.Equal(t, uint32(0x68), u32(buf, 4))
	assert.Equal(t, root.TotalLength, u32(buf, 8))
	assert.Equal(t, uint32(1), u32(buf, 20), "section_count")

	// List chunks carry a child count in the third word.
	listOff := 0x68 + 0x60
	assert.Equal(t, "mhlt", string(buf[listOff:listOff+4]))
	assert.Equal(t, uint32(1), u32(buf, listOff+8))

	assert.Equal(t, uint32(1), u32(buf, sampleTrackOffset+12), "string_count")
	assert.Equal(t, uint32(7), u32(buf, sampleTrackOffset+16), "track_id")
}

func TestEncode_UTF16String(t *testing.T) {
	root := sampleTree(t, mustString(t, 1, EncodingUTF16LE, "Café"))
	buf, err := Encode(root)
	require.NoError(t, err)

	body := buf[sampleFirstString+0x18:]
	assert.Equal(t, uint32(1), u32(body, 0), "encoding")
	assert.Equal(t, uint32(8), u32(body, 4), "byte length")
	assert.Equal(t, []byte{0x43, 0x00, 0x61, 0x00, 0x66, 0x00, 0xE9, 0x00}, body[16:24])
}

func TestDecode_RoundTrip(t *testing.T) {
	root := sampleTree(t,
		mustString(t, 1, EncodingUTF16LE, "Café"),
		mustString(t, 4, EncodingUTF8, "Björk"),
	)
	buf, err := Encode(root)
	require.NoError(t, err)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, tree.Failures)
	assert.Empty(t, tree.Warnings)
	require.NoError(t, tree.Root.Validate())

	track := tree.Root.Children[0].Children[0].Children[0]
	assert.Equal(t, KindTrack, track.Kind)
	assert.Equal(t, uint32(7), track.Uint32("track_id"))
	assert.Equal(t, uint32(1999), track.Uint32("year"))

	strs := track.ChildrenOf(KindDataObject)
	require.Len(t, strs, 2)
	assert.Equal(t, "Café", strs[0].String.Value)
	assert.Equal(t, EncodingUTF16LE, strs[0].String.Encoding)
	assert.Equal(t, "Björk", strs[1].String.Value)
	assert.Equal(t, EncodingUTF8, strs[1].String.Encoding)

	again, err := Encode(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, buf, again)
}

func TestDecode_PreservesUndescribedHeaderBytes(t *testing.T) {
	root := sampleTree(t, mustString(t, 1, EncodingUTF8, "x"))
	buf, err := Encode(root)
	require.NoError(t, err)

	// Scribble in the mhit header padding the table does not describe.
	buf[sampleTrackOffset+0x90] = 0xAB

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	again, err := Encode(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, buf, again)
}

func TestDecode_UnknownTagKeptOpaque(t *testing.T) {
	opaque, err := NewOpaque("zzzz", []byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	list := mustContainer(t, KindTrackList, nil)
	section := mustContainer(t, KindSection, Values{"section_type": SectionTracks}, opaque, list)
	root := mustContainer(t, KindDatabase, nil, section)

	buf, err := Encode(root)
	require.NoError(t, err)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, tree.Failures)
	require.Len(t, tree.Warnings, 1)
	assert.Contains(t, tree.Warnings[0].Message, "zzzz")

	got := tree.Root.Children[0].Children[0]
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, "zzzz", got.Tag)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got.Raw)
	assert.Equal(t, KindTrackList, tree.Root.Children[0].Children[1].Kind)

	again, err := Encode(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, buf, again)
}

func TestDecode_TruncatedAtEveryOffset(t *testing.T) {
	buf, err := Encode(sampleTree(t, mustString(t, 1, EncodingUTF16LE, "Café")))
	require.NoError(t, err)

	for i := 0; i < len(buf); i++ {
		_, err := NewDecoder().Decode(buf[:i])
		var oob *types.OutOfBoundsError
		require.Truef(t, errors.As(err, &oob), "truncated to %d bytes: got %v", i, err)
	}
}

func TestDecode_DepthExceeded(t *testing.T) {
	buf, err := Encode(sampleTree(t, mustString(t, 1, EncodingUTF8, "deep")))
	require.NoError(t, err)

	d := NewDecoder()
	d.MaxDepth = 2
	_, err = d.Decode(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &types.FormatError{Kind: types.DepthExceeded}))

	d.MaxDepth = 4
	_, err = d.Decode(buf)
	assert.NoError(t, err)
}

func TestDecode_BadHeaderChildSkipped(t *testing.T) {
	buf, err := Encode(sampleTree(t,
		mustString(t, 1, EncodingUTF8, "A"),
		mustString(t, 4, EncodingUTF8, "B"),
	))
	require.NoError(t, err)

	// Header length below the data object minimum; total still trustworthy.
	binary.LittleEndian.PutUint32(buf[sampleFirstString+4:], 8)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Len(t, tree.Failures, 1)
	assert.Equal(t, "mhit", tree.Failures[0].Parent)
	assert.Equal(t, int64(sampleFirstString), tree.Failures[0].Offset)
	assert.True(t, errors.Is(tree.Failures[0].Err, &types.FormatError{Kind: types.LengthInvariantViolated}))

	track := tree.Root.Children[0].Children[0].Children[0]
	require.Len(t, track.Children, 1)
	assert.Equal(t, "B", track.Children[0].String.Value)
	require.NoError(t, tree.Root.Validate())

	// Re-encoding drops the lost bytes and recomputes every ancestor.
	out, err := Encode(tree.Root)
	require.NoError(t, err)
	assert.Less(t, len(out), len(buf))

	again, err := NewDecoder().Decode(out)
	require.NoError(t, err)
	assert.Empty(t, again.Failures)
	track = again.Root.Children[0].Children[0].Children[0]
	assert.Equal(t, uint32(1), track.Uint32("string_count"))
	require.Len(t, track.Children, 1)
	assert.Equal(t, "B", track.Children[0].String.Value)
}

func TestDecode_OverrunningChildDropped(t *testing.T) {
	buf, err := Encode(sampleTree(t, mustString(t, 1, EncodingUTF8, "A")))
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(buf[sampleFirstString+8:], 0xFFFF)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Len(t, tree.Failures, 1)

	track := tree.Root.Children[0].Children[0].Children[0]
	assert.Empty(t, track.Children)
	assert.Equal(t, uint32(7), track.Uint32("track_id"))
	require.NoError(t, tree.Root.Validate())
}

func TestDecode_BadStringEncodingDropsOnlyThatObject(t *testing.T) {
	buf, err := Encode(sampleTree(t,
		mustString(t, 1, EncodingUTF16LE, "ok"),
		mustString(t, 4, EncodingUTF8, "B"),
	))
	require.NoError(t, err)

	// Odd UTF-16 byte length.
	binary.LittleEndian.PutUint32(buf[sampleFirstString+0x18+4:], 3)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Len(t, tree.Failures, 1)
	var encErr *types.EncodingError
	assert.True(t, errors.As(tree.Failures[0].Err, &encErr))

	track := tree.Root.Children[0].Children[0].Children[0]
	require.Len(t, track.Children, 1)
	assert.Equal(t, "B", track.Children[0].String.Value)
}

func TestDecode_TrailingBytesWarn(t *testing.T) {
	buf, err := Encode(sampleTree(t))
	require.NoError(t, err)
	buf = append(buf, 0, 0, 0, 0)

	tree, err := NewDecoder().Decode(buf)
	require.NoError(t, err)
	require.Len(t, tree.Warnings, 1)
	assert.Contains(t, tree.Warnings[0].Message, "trailing")
}

func TestNewContainer_Rejects(t *testing.T) {
	str := mustString(t, 1, EncodingUTF8, "x")

	_, err := NewContainer(KindTrack, Values{"string_count": 3})
	assert.ErrorContains(t, err, "derived")

	_, err = NewContainer(KindTrack, Values{"no_such_field": 1})
	assert.ErrorContains(t, err, "no field")

	_, err = NewContainer(KindTrack, Values{"rating": 256})
	assert.ErrorContains(t, err, "does not fit")

	_, err = NewContainer(KindDatabase, nil, str)
	assert.ErrorContains(t, err, "not a legal child")

	_, err = NewContainer(KindDataObject, nil)
	assert.Error(t, err)

	_, err = NewOpaque("mhit", nil)
	assert.Error(t, err)
}

func TestNewDataObject_InvalidUTF8(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF16LE} {
		_, err := NewDataObject(1, StringField{Encoding: enc, Value: "a\xffb"})
		var encErr *types.EncodingError
		assert.Truef(t, errors.As(err, &encErr), "%s: got %v", enc, err)
	}

	_, err := NewDataObject(100, StringField{Encoding: EncodingUTF8, Value: "x"})
	assert.Error(t, err)
}

func TestValidate_DetectsMismatch(t *testing.T) {
	root := sampleTree(t, mustString(t, 1, EncodingUTF8, "x"))
	bad := *root
	bad.TotalLength++

	err := bad.Validate()
	assert.True(t, errors.Is(err, &types.FormatError{Kind: types.LengthInvariantViolated}))

	_, err = Encode(&bad)
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	root := sampleTree(t, mustString(t, 1, EncodingUTF8, "x"))

	var tags []string
	maxDepth := 0
	root.Walk(func(n *Node, depth int) bool {
		tags = append(tags, n.Tag)
		maxDepth = max(maxDepth, depth)
		return true
	})
	assert.Equal(t, []string{"mhbd", "mhsd", "mhlt", "mhit", "mhod"}, tags)
	assert.Equal(t, 4, maxDepth)

	var pruned []string
	root.Walk(func(n *Node, depth int) bool {
		pruned = append(pruned, n.Tag)
		return n.Kind != KindTrackList
	})
	assert.Equal(t, []string{"mhbd", "mhsd", "mhlt"}, pruned)
}
