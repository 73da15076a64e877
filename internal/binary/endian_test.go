package binary

import "testing"

func TestSizeOf(t *testing.T) {
	if SizeOf[uint8]() != 1 || SizeOf[uint16]() != 2 || SizeOf[uint32]() != 4 || SizeOf[uint64]() != 8 {
		t.Error("unexpected widths")
	}
}

func TestReadEndian(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		endian Endianness
		want   uint32
	}{
		{"little-endian", []byte{0x01, 0x02, 0x03, 0x04}, LittleEndian, 0x04030201},
		{"big-endian", []byte{0x01, 0x02, 0x03, 0x04}, BigEndian, 0x01020304},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read[uint32](NewCursor(tt.data), "field", tt.endian)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

func TestReadEndian_Uint16And64(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	le16, _ := ReadAt[uint16](NewCursor(data), 0, "le16", LittleEndian)
	be16, _ := ReadAt[uint16](NewCursor(data), 0, "be16", BigEndian)
	if le16 != 0x0201 || be16 != 0x0102 {
		t.Errorf("uint16: le=0x%04x be=0x%04x", le16, be16)
	}

	le64, _ := ReadAt[uint64](NewCursor(data), 0, "le64", LittleEndian)
	be64, _ := ReadAt[uint64](NewCursor(data), 0, "be64", BigEndian)
	if le64 != 0x0807060504030201 || be64 != 0x0102030405060708 {
		t.Errorf("uint64: le=0x%016x be=0x%016x", le64, be64)
	}
}

func TestEndianness_String(t *testing.T) {
	if LittleEndian.String() != "little-endian" || BigEndian.String() != "big-endian" {
		t.Error("unexpected names")
	}
}
