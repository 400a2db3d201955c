package bitio

import "testing"

func TestNewLosslessReader_InitialState(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	br := NewLosslessReader(data)

	if br.atEnd {
		t.Error("unexpected atEnd after init")
	}
	if br.bitPos != 0 {
		t.Errorf("bitPos = %d, want 0", br.bitPos)
	}
	if br.cursor != 8 {
		t.Errorf("cursor = %d, want 8 (all bytes loaded)", br.cursor)
	}
}

func TestLosslessReader_ReadBits_SingleByte(t *testing.T) {
	// 0xA5 = 1010_0101, read LSB-first: lower nibble then upper nibble.
	data := []byte{0xA5, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	if v := br.ReadBits(4); v != 0x5 {
		t.Errorf("ReadBits(4) = 0x%x, want 0x5", v)
	}
	if v := br.ReadBits(4); v != 0xA {
		t.Errorf("ReadBits(4) = 0x%x, want 0xA", v)
	}
}

func TestLosslessReader_ReadBits_MultipleBytes(t *testing.T) {
	data := []byte{0xFF, 0x00, 0xAB, 0xCD, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	if v := br.ReadBits(8); v != 0xFF {
		t.Errorf("ReadBits(8) = 0x%x, want 0xFF", v)
	}
	if v := br.ReadBits(8); v != 0x00 {
		t.Errorf("ReadBits(8) = 0x%x, want 0x00", v)
	}
	if v := br.ReadBits(16); v != 0xCDAB {
		t.Errorf("ReadBits(16) = 0x%x, want 0xCDAB (little-endian from bytes AB CD)", v)
	}
}

func TestLosslessReader_ReadBits_MaxBits(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	if v := br.ReadBits(24); v != 0xFFFFFF {
		t.Errorf("ReadBits(24) = 0x%x, want 0xFFFFFF", v)
	}
}

func TestLosslessReader_ReadBits_ExceedsMax(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	// Requesting more than maxBitsPerRead should mark end-of-stream and
	// return 0 rather than reading out of bounds.
	if v := br.ReadBits(25); v != 0 {
		t.Errorf("ReadBits(25) = %d, want 0", v)
	}
	if !br.atEnd {
		t.Error("expected atEnd after reading > 24 bits")
	}
}

func TestLosslessReader_PrefetchBits_SetBitPos(t *testing.T) {
	data := []byte{0x3C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	if low := br.PrefetchBits() & 0xFF; low != 0x3C {
		t.Errorf("PrefetchBits low byte = 0x%x, want 0x3C", low)
	}

	// 0x3C = 0011_1100: skipping 4 bits exposes the upper nibble, 0x3.
	br.SetBitPos(4)
	if low := br.PrefetchBits() & 0xF; low != 0x3 {
		t.Errorf("PrefetchBits after SetBitPos(4) low nibble = 0x%x, want 0x3", low)
	}
}

func TestLosslessReader_FillBitWindow_Boundary(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	br := NewLosslessReader(data)

	for i := 0; i < 8; i++ {
		br.FillBitWindow()
		if v := br.ReadBits(8); v != uint32(i) {
			t.Errorf("byte %d: got 0x%x, want 0x%x", i, v, i)
		}
	}
}

func TestLosslessReader_EOS_EmptyData(t *testing.T) {
	br := NewLosslessReader(nil)
	if v := br.ReadBits(1); v != 0 {
		t.Errorf("ReadBits(1) on empty = %d, want 0", v)
	}
}

func TestLosslessReader_EOS_ShortData(t *testing.T) {
	br := NewLosslessReader([]byte{0x42})

	if v := br.ReadBits(8); v != 0x42 {
		t.Errorf("ReadBits(8) = 0x%x, want 0x42", v)
	}

	// The single byte is fully consumed on init; once all prefetched zero
	// padding is also read off, IsEndOfStream must report true.
	for i := 0; i < 10; i++ {
		br.ReadBits(8)
	}
	if !br.IsEndOfStream() {
		t.Error("expected end-of-stream after exhausting single byte and reading past it")
	}
}

func TestLosslessReader_ReadBits_ZeroBits(t *testing.T) {
	data := []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewLosslessReader(data)

	if v := br.ReadBits(0); v != 0 {
		t.Errorf("ReadBits(0) = %d, want 0", v)
	}
	if br.bitPos != 0 {
		t.Errorf("bitPos after ReadBits(0) = %d, want 0", br.bitPos)
	}
}

func TestLosslessReader_BitMaskTable(t *testing.T) {
	for n := 0; n <= maxBitsPerRead; n++ {
		want := uint32((1 << uint(n)) - 1)
		if bitMask[n] != want {
			t.Errorf("bitMask[%d] = 0x%x, want 0x%x", n, bitMask[n], want)
		}
	}
}
