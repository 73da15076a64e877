package chunk

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/simonhull/itunesdb/internal/binary"
	"github.com/simonhull/itunesdb/internal/types"
)

// Encoding is the string encoding indicator of a data-object body.
type Encoding uint32

const (
	EncodingUTF16LE Encoding = 1
	EncodingUTF8    Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF16LE:
		return "UTF-16LE"
	case EncodingUTF8:
		return "UTF-8"
	default:
		return fmt.Sprintf("encoding(%d)", uint32(e))
	}
}

// stringHeader is encoding + byte length + two reserved words.
const stringHeader = 16

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// StringField is the decoded string body of a data object.
type StringField struct {
	Encoding Encoding
	Value    string
}

// IsStringType reports whether a data-object type carries a string body.
// Podcast URLs (15, 16), chapter data (17), smart playlist rules (50-53)
// and playlist positions (100, 102) have other payloads.
func IsStringType(dataType uint32) bool {
	switch {
	case dataType >= 1 && dataType <= 14:
		return true
	case dataType >= 18 && dataType <= 31:
		return true
	case dataType >= 200 && dataType <= 204:
		return true
	default:
		return false
	}
}

// payload encodes the string value without the 16-byte string header.
func (s *StringField) payload() ([]byte, error) {
	if !utf8.ValidString(s.Value) {
		return nil, &types.EncodingError{Encoding: s.Encoding.String(), Reason: "invalid UTF-8", Length: len(s.Value)}
	}
	switch s.Encoding {
	case EncodingUTF16LE:
		b, err := utf16le.NewEncoder().Bytes([]byte(s.Value))
		if err != nil {
			return nil, &types.EncodingError{Encoding: s.Encoding.String(), Reason: err.Error(), Length: len(s.Value)}
		}
		return b, nil
	case EncodingUTF8:
		return []byte(s.Value), nil
	default:
		return nil, &types.EncodingError{Encoding: s.Encoding.String(), Reason: "unsupported encoding", Length: len(s.Value)}
	}
}

// Size is the encoded body length: string header plus payload.
func (s *StringField) Size() (int, error) {
	p, err := s.payload()
	if err != nil {
		return 0, err
	}
	return stringHeader + len(p), nil
}

func (s *StringField) write(w *binary.Writer) error {
	p, err := s.payload()
	if err != nil {
		return err
	}
	binary.WriteLE(w, uint32(s.Encoding))
	binary.WriteLE(w, uint32(len(p)))
	binary.WriteLE[uint32](w, 0)
	binary.WriteLE[uint32](w, 0)
	w.WriteBytes(p)
	return nil
}

// decodeString reads a string body of bodyLen bytes at the cursor.
func decodeString(c *binary.Cursor, bodyLen int) (*StringField, error) {
	start := int64(c.Offset())
	if bodyLen < stringHeader {
		return nil, &types.EncodingError{Encoding: "string", Reason: "body shorter than string header", Offset: start, Length: bodyLen}
	}

	cr := binary.NewChainReader(c, binary.LittleEndian)
	enc := Encoding(binary.ReadChained[uint32](cr, "string encoding"))
	n := binary.ReadChained[uint32](cr, "string byte length")
	cr.Skip(8, "string reserved words")
	if err := cr.Error(); err != nil {
		return nil, err
	}

	if int64(n) > int64(bodyLen-stringHeader) {
		return nil, &types.EncodingError{
			Encoding: enc.String(),
			Reason:   fmt.Sprintf("declared length %d exceeds %d available bytes", n, bodyLen-stringHeader),
			Offset:   start,
			Length:   int(n),
		}
	}

	raw, err := c.Peek(int(n), "string payload")
	if err != nil {
		return nil, err
	}

	var value string
	switch enc {
	case EncodingUTF16LE:
		if n%2 != 0 {
			return nil, &types.EncodingError{Encoding: enc.String(), Reason: "odd byte length", Offset: start, Length: int(n)}
		}
		b, err := utf16le.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, &types.EncodingError{Encoding: enc.String(), Reason: err.Error(), Offset: start, Length: int(n)}
		}
		value = string(b)
	case EncodingUTF8:
		if utf8.Valid(raw) {
			value = string(raw)
		} else {
			// Older producers wrote single-byte Windows-1252 text here.
			b, err := charmap.Windows1252.NewDecoder().Bytes(raw)
			if err != nil {
				return nil, &types.EncodingError{Encoding: enc.String(), Reason: err.Error(), Offset: start, Length: int(n)}
			}
			value = string(b)
		}
	default:
		return nil, &types.EncodingError{Encoding: enc.String(), Reason: "unsupported encoding", Offset: start, Length: int(n)}
	}

	if err := c.Skip(bodyLen-stringHeader, "string body"); err != nil {
		return nil, err
	}
	return &StringField{Encoding: enc, Value: value}, nil
}
