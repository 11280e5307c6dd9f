package intent

import "fmt"

type Kind uint8

const (
	KindKeyPress Kind = iota + 1
	KindKeyRelease
	KindButtonPress
	KindButtonRelease
	KindPointerDelta
	KindScrollDelta
)

func (k Kind) String() string {
	switch k {
	case KindKeyPress:
		return "key_press"
	case KindKeyRelease:
		return "key_release"
	case KindButtonPress:
		return "button_press"
	case KindButtonRelease:
		return "button_release"
	case KindPointerDelta:
		return "pointer_delta"
	case KindScrollDelta:
		return "scroll_delta"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Intent is one abstract input request from a client.
// It is consumed exactly once by the translator.
type Intent struct {
	Kind   Kind
	Code   uint16 // key or button code for the Kind*Press/Release kinds
	DX     int32  // pointer delta
	DY     int32
	Amount int32 // scroll delta, positive scrolls up
}

func KeyPress(code uint16) Intent {
	return Intent{Kind: KindKeyPress, Code: code}
}

func KeyRelease(code uint16) Intent {
	return Intent{Kind: KindKeyRelease, Code: code}
}

func ButtonPress(code uint16) Intent {
	return Intent{Kind: KindButtonPress, Code: code}
}

func ButtonRelease(code uint16) Intent {
	return Intent{Kind: KindButtonRelease, Code: code}
}

func PointerDelta(dx, dy int32) Intent {
	return Intent{Kind: KindPointerDelta, DX: dx, DY: dy}
}

func ScrollDelta(amount int32) Intent {
	return Intent{Kind: KindScrollDelta, Amount: amount}
}
