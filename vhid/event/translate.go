package event

import (
	"errors"
	"fmt"

	"github.com/allape/openvhid/vhid/caps"
	"github.com/allape/openvhid/vhid/intent"
)

// ErrUnsupportedCapability rejects an intent whose code is not part of the
// capability set the device registered. Nothing reaches the kernel for such
// an intent.
var ErrUnsupportedCapability = errors.New("code is not advertised by the device")

// Translator turns abstract intents into ordered input_event batches.
// Every non-empty batch ends in exactly one Sync record; the kernel treats
// everything between two Syncs as one atomic report.
type Translator struct {
	set *caps.Set
}

func NewTranslator(set *caps.Set) *Translator {
	return &Translator{set: set}
}

// Translate is a pure function of the intent. An intent whose every component
// is zero translates to an empty batch, not to a bare Sync, so no empty
// report is ever written.
func (t *Translator) Translate(it intent.Intent) ([]Record, error) {
	switch it.Kind {
	case intent.KindKeyPress, intent.KindKeyRelease:
		if !t.set.ContainsKey(it.Code) {
			return nil, fmt.Errorf("key 0x%03x: %w", it.Code, ErrUnsupportedCapability)
		}
		return []Record{
			{Type: TypeKey, Code: it.Code, Value: pressValue(it.Kind == intent.KindKeyPress)},
			Sync(),
		}, nil

	case intent.KindButtonPress, intent.KindButtonRelease:
		if !t.set.ContainsButton(it.Code) {
			return nil, fmt.Errorf("button 0x%03x: %w", it.Code, ErrUnsupportedCapability)
		}
		return []Record{
			{Type: TypeKey, Code: it.Code, Value: pressValue(it.Kind == intent.KindButtonPress)},
			Sync(),
		}, nil

	case intent.KindPointerDelta:
		if !t.set.ContainsAxis(caps.RelX) || !t.set.ContainsAxis(caps.RelY) {
			return nil, fmt.Errorf("pointer axes: %w", ErrUnsupportedCapability)
		}
		if it.DX == 0 && it.DY == 0 {
			return nil, nil
		}
		// X before Y, matching the standard mouse report convention
		records := make([]Record, 0, 3)
		if it.DX != 0 {
			records = append(records, Record{Type: TypeRelative, Code: caps.RelX, Value: it.DX})
		}
		if it.DY != 0 {
			records = append(records, Record{Type: TypeRelative, Code: caps.RelY, Value: it.DY})
		}
		return append(records, Sync()), nil

	case intent.KindScrollDelta:
		if !t.set.ContainsAxis(caps.RelWheel) {
			return nil, fmt.Errorf("wheel axis: %w", ErrUnsupportedCapability)
		}
		if it.Amount == 0 {
			return nil, nil
		}
		return []Record{
			{Type: TypeRelative, Code: caps.RelWheel, Value: it.Amount},
			Sync(),
		}, nil
	}

	return nil, fmt.Errorf("unknown intent kind %s", it.Kind)
}

func pressValue(pressed bool) int32 {
	if pressed {
		return 1
	}
	return 0
}
