package caps

import (
	"errors"
	"slices"
)

// Codes from input-event-codes.h, the subset this device can advertise.
const (
	KeyReserved = 0x00
	KeyEsc      = 0x01

	// KeyboardMax is the last code of the claimed keyboard vocabulary,
	// KEY_MICMUTE. Codes above it belong to buttons and consumer pages.
	KeyboardMax = 0xf8

	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
	BtnSide   = 0x113
	BtnExtra  = 0x114

	RelX     = 0x00
	RelY     = 0x01
	RelWheel = 0x08
)

// Set is the fixed capability vocabulary a virtual device registers with the
// kernel. It is built once and never mutated afterwards.
type Set struct {
	keys    map[uint16]struct{}
	buttons map[uint16]struct{}
	axes    map[uint16]struct{}
}

func New(keys, buttons, axes []uint16) (*Set, error) {
	if len(keys) == 0 && len(buttons) == 0 {
		return nil, errors.New("capability set claims no keys and no buttons")
	}

	s := &Set{
		keys:    make(map[uint16]struct{}, len(keys)),
		buttons: make(map[uint16]struct{}, len(buttons)),
		axes:    make(map[uint16]struct{}, len(axes)),
	}

	for _, code := range keys {
		if code == KeyReserved || code > KeyboardMax {
			return nil, errors.New("key code outside the recognized keyboard vocabulary")
		}
		s.keys[code] = struct{}{}
	}
	for _, code := range buttons {
		if code < BtnLeft || code > BtnExtra {
			return nil, errors.New("button code outside the recognized button vocabulary")
		}
		s.buttons[code] = struct{}{}
	}
	for _, code := range axes {
		if code != RelX && code != RelY && code != RelWheel {
			return nil, errors.New("axis code outside the recognized relative axis vocabulary")
		}
		s.axes[code] = struct{}{}
	}

	return s, nil
}

// Default claims the full keyboard vocabulary, the standard mouse buttons and
// the relative X/Y/wheel axes.
func Default() *Set {
	keys := make([]uint16, 0, KeyboardMax)
	for code := uint16(KeyEsc); code <= KeyboardMax; code++ {
		keys = append(keys, code)
	}

	s, err := New(
		keys,
		[]uint16{BtnLeft, BtnRight, BtnMiddle, BtnSide, BtnExtra},
		[]uint16{RelX, RelY, RelWheel},
	)
	if err != nil {
		// the fixed vocabulary above is always valid
		panic(err)
	}

	return s
}

func (s *Set) ContainsKey(code uint16) bool {
	_, ok := s.keys[code]
	return ok
}

func (s *Set) ContainsButton(code uint16) bool {
	_, ok := s.buttons[code]
	return ok
}

func (s *Set) ContainsAxis(code uint16) bool {
	_, ok := s.axes[code]
	return ok
}

// KeyBits returns every EV_KEY code to register, keys and buttons combined,
// sorted so registration order is stable.
func (s *Set) KeyBits() []uint16 {
	bits := make([]uint16, 0, len(s.keys)+len(s.buttons))
	for code := range s.keys {
		bits = append(bits, code)
	}
	for code := range s.buttons {
		bits = append(bits, code)
	}
	slices.Sort(bits)
	return bits
}

// AxisBits returns every REL_* code to register, sorted.
func (s *Set) AxisBits() []uint16 {
	bits := make([]uint16, 0, len(s.axes))
	for code := range s.axes {
		bits = append(bits, code)
	}
	slices.Sort(bits)
	return bits
}
