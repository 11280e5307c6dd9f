package caps

import (
	"slices"
	"testing"
)

func TestDefaultVocabulary(t *testing.T) {
	s := Default()

	if !s.ContainsKey(KeyEsc) {
		t.Fatal("expected KEY_ESC in the default set")
	}
	if !s.ContainsKey(KeyboardMax) {
		t.Fatal("expected the last keyboard code in the default set")
	}
	if s.ContainsKey(KeyReserved) {
		t.Fatal("KEY_RESERVED must never be claimed")
	}

	for _, code := range []uint16{BtnLeft, BtnRight, BtnMiddle, BtnSide, BtnExtra} {
		if !s.ContainsButton(code) {
			t.Fatalf("expected button 0x%03x in the default set", code)
		}
	}
	if s.ContainsButton(KeyEsc) {
		t.Fatal("key codes are not buttons")
	}

	for _, code := range []uint16{RelX, RelY, RelWheel} {
		if !s.ContainsAxis(code) {
			t.Fatalf("expected axis 0x%02x in the default set", code)
		}
	}
	if s.ContainsAxis(0x05) {
		t.Fatal("unclaimed axis reported as present")
	}
}

func TestNewRejectsEmptyAndForeignCodes(t *testing.T) {
	if _, err := New(nil, nil, []uint16{RelX}); err == nil {
		t.Fatal("expected an error for a set with no keys and no buttons")
	}

	if _, err := New([]uint16{0x2ff}, nil, nil); err == nil {
		t.Fatal("expected an error for a key code outside the vocabulary")
	}

	if _, err := New([]uint16{KeyEsc}, []uint16{0x100}, nil); err == nil {
		t.Fatal("expected an error for a foreign button code")
	}

	if _, err := New([]uint16{KeyEsc}, nil, []uint16{0x07}); err == nil {
		t.Fatal("expected an error for a foreign axis code")
	}
}

func TestBitsAreSorted(t *testing.T) {
	s, err := New(
		[]uint16{0x20, 0x02, 0x10},
		[]uint16{BtnMiddle, BtnLeft},
		[]uint16{RelWheel, RelX},
	)
	if err != nil {
		t.Fatal(err)
	}

	keyBits := s.KeyBits()
	if !slices.Equal(keyBits, []uint16{0x02, 0x10, 0x20, BtnLeft, BtnMiddle}) {
		t.Fatalf("unexpected key bits: %v", keyBits)
	}

	axisBits := s.AxisBits()
	if !slices.Equal(axisBits, []uint16{RelX, RelWheel}) {
		t.Fatalf("unexpected axis bits: %v", axisBits)
	}
}
