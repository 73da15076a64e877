package binary

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriter_WriteUint32LE(t *testing.T) {
	w := NewWriter(0)
	WriteLE[uint32](w, 0x12345678)

	expected := []byte{0x78, 0x56, 0x34, 0x12}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, w.Bytes())
	}
}

func TestWriter_WriteUint32BE(t *testing.T) {
	w := NewWriter(0)
	WriteBE[uint32](w, 0x12345678)

	expected := []byte{0x12, 0x34, 0x56, 0x78}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Errorf("expected %v, got %v", expected, w.Bytes())
	}
}

func TestWriter_Offset(t *testing.T) {
	w := NewWriter(16)

	if w.Offset() != 0 {
		t.Errorf("expected initial offset 0, got %d", w.Offset())
	}

	WriteLE[uint8](w, 0x01)
	if w.Offset() != 1 {
		t.Errorf("expected offset 1 after writing uint8, got %d", w.Offset())
	}

	WriteLE[uint16](w, 0x0203)
	if w.Offset() != 3 {
		t.Errorf("expected offset 3 after writing uint16, got %d", w.Offset())
	}

	WriteLE[uint32](w, 0x04050607)
	if w.Offset() != 7 {
		t.Errorf("expected offset 7 after writing uint32, got %d", w.Offset())
	}

	WriteLE[uint64](w, 0x08090A0B0C0D0E0F)
	if w.Offset() != 15 {
		t.Errorf("expected offset 15 after writing uint64, got %d", w.Offset())
	}

	w.WriteZeros(5)
	if w.Offset() != 20 {
		t.Errorf("expected offset 20 after padding, got %d", w.Offset())
	}
}

func TestWriter_WriteTag(t *testing.T) {
	w := NewWriter(0)

	if err := w.WriteTag("mhit"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(w.Bytes()) != "mhit" {
		t.Errorf("expected mhit, got %q", w.Bytes())
	}

	if err := w.WriteTag("toolong"); err == nil {
		t.Error("expected error for tag that is not 4 bytes")
	}
}

func TestPutAt(t *testing.T) {
	w := NewWriter(0)
	w.WriteString("mhsd")
	WriteLE[uint32](w, 0)

	if err := PutAt[uint32](w, 4, 0x60, LittleEndian, "header length"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(w.Bytes()[4:], []byte{0x60, 0, 0, 0}) {
		t.Errorf("backpatch not applied: %v", w.Bytes())
	}

	err := PutAt[uint32](w, 6, 1, LittleEndian, "overrun")
	var oob *OutOfBoundsError
	if !errors.As(err, &oob) {
		t.Fatalf("expected *OutOfBoundsError, got %T", err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	w := NewWriter(0)
	WriteLE[uint16](w, 0xBEEF)
	WriteBE[uint32](w, 0xCAFEBABE)
	WriteLE[uint64](w, 0x0102030405060708)

	c := NewCursor(w.Bytes())
	a, _ := ReadLE[uint16](c, "a")
	b, _ := ReadBE[uint32](c, "b")
	d, err := ReadLE[uint64](c, "d")
	if err != nil {
		t.Fatal(err)
	}
	if a != 0xBEEF || b != 0xCAFEBABE || d != 0x0102030405060708 {
		t.Errorf("round trip mismatch: %x %x %x", a, b, d)
	}
}
