package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/allape/openvhid/vhid/caps"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/event"
	"github.com/allape/openvhid/vhid/intent"
)

type fakeDriver struct {
	device.Driver

	locker sync.Mutex

	batches   [][]event.Record
	failAfter int // fail the write once this many batches landed, -1 never
	closes    int
	state     device.State
}

func newFakeDriver(failAfter int) *fakeDriver {
	return &fakeDriver{failAfter: failAfter, state: device.Active}
}

func (f *fakeDriver) State() device.State {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.state
}

func (f *fakeDriver) Open() error {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.state = device.Active
	return nil
}

func (f *fakeDriver) WriteBatch(batch []event.Record) error {
	f.locker.Lock()
	defer f.locker.Unlock()

	if f.state != device.Active {
		return device.ErrNotActive
	}

	if f.failAfter >= 0 && len(f.batches) >= f.failAfter {
		f.teardown()
		return fmt.Errorf("boom: %w", device.ErrIo)
	}

	f.batches = append(f.batches, slices.Clone(batch))
	return nil
}

func (f *fakeDriver) Close() error {
	f.locker.Lock()
	defer f.locker.Unlock()
	if f.state != device.Closed {
		f.teardown()
	}
	return nil
}

func (f *fakeDriver) teardown() {
	f.state = device.Closed
	f.closes++
}

func (f *fakeDriver) Batches() [][]event.Record {
	f.locker.Lock()
	defer f.locker.Unlock()
	return slices.Clone(f.batches)
}

func newDispatcher(driver device.Driver, options Options) *Dispatcher {
	return New(driver, event.NewTranslator(caps.Default()), options)
}

func TestOrderingPreserved(t *testing.T) {
	driver := newFakeDriver(-1)
	d := newDispatcher(driver, Options{})
	defer func() {
		_ = d.Close()
	}()

	intents := []intent.Intent{
		intent.ButtonPress(caps.BtnLeft),
		intent.PointerDelta(5, -3),
		intent.ButtonRelease(caps.BtnLeft),
		intent.ScrollDelta(1),
		intent.KeyPress(caps.KeyEsc),
		intent.KeyRelease(caps.KeyEsc),
	}

	for _, it := range intents {
		if err := d.Submit(it); err != nil {
			t.Fatal(err)
		}
	}

	batches := driver.Batches()
	if len(batches) != len(intents) {
		t.Fatalf("expected %d batches, got %d", len(intents), len(batches))
	}

	tr := event.NewTranslator(caps.Default())
	for i, it := range intents {
		expected, err := tr.Translate(it)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(batches[i], expected) {
			t.Fatalf("batch %d: expected %v, got %v", i, expected, batches[i])
		}
	}
}

func TestBatchesAreSyncTerminated(t *testing.T) {
	driver := newFakeDriver(-1)
	d := newDispatcher(driver, Options{})
	defer func() {
		_ = d.Close()
	}()

	for i := 0; i < 100; i++ {
		var it intent.Intent
		switch i % 4 {
		case 0:
			it = intent.PointerDelta(int32(i), int32(-i))
		case 1:
			it = intent.KeyPress(uint16(1 + i%32))
		case 2:
			it = intent.KeyRelease(uint16(1 + i%32))
		default:
			it = intent.ScrollDelta(int32(i % 3))
		}
		if err := d.Submit(it); err != nil {
			t.Fatal(err)
		}
	}

	for i, batch := range driver.Batches() {
		if len(batch) == 0 {
			t.Fatalf("batch %d is empty", i)
		}
		if !batch[len(batch)-1].IsSync() {
			t.Fatalf("batch %d does not end in a sync record: %v", i, batch)
		}
		for _, r := range batch[:len(batch)-1] {
			if r.IsSync() {
				t.Fatalf("batch %d has an interior sync record: %v", i, batch)
			}
		}
	}
}

func TestIdempotentKeyState(t *testing.T) {
	driver := newFakeDriver(-1)
	d := newDispatcher(driver, Options{})
	defer func() {
		_ = d.Close()
	}()

	// double press: tracked both times, written once
	if err := d.Submit(intent.KeyPress(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	if err := d.Submit(intent.KeyPress(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	if got := len(driver.Batches()); got != 1 {
		t.Fatalf("expected 1 batch after a duplicate press, got %d", got)
	}

	// double release: second one is dropped entirely
	if err := d.Submit(intent.KeyRelease(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	if err := d.Submit(intent.KeyRelease(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	batches := driver.Batches()
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches after a duplicate release, got %d", len(batches))
	}
	expected := []event.Record{
		{Type: event.TypeKey, Code: caps.KeyEsc, Value: 0},
		event.Sync(),
	}
	if !slices.Equal(batches[1], expected) {
		t.Fatalf("expected %v, got %v", expected, batches[1])
	}

	// a release with no prior press never reaches the device
	if err := d.Submit(intent.ButtonRelease(caps.BtnMiddle)); err != nil {
		t.Fatal(err)
	}
	if got := len(driver.Batches()); got != 2 {
		t.Fatalf("expected spurious release to be dropped, got %d batches", got)
	}
}

func TestUnsupportedIntentLeavesStateUntouched(t *testing.T) {
	driver := newFakeDriver(-1)
	d := newDispatcher(driver, Options{})
	defer func() {
		_ = d.Close()
	}()

	err := d.Submit(intent.KeyPress(0x2ff))
	if !errors.Is(err, event.ErrUnsupportedCapability) {
		t.Fatalf("expected ErrUnsupportedCapability, got %v", err)
	}
	if got := len(driver.Batches()); got != 0 {
		t.Fatalf("expected no bytes written, got %d batches", got)
	}

	// the dispatcher keeps running after a validation failure
	if err := d.Submit(intent.KeyPress(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	if got := len(driver.Batches()); got != 1 {
		t.Fatalf("expected 1 batch, got %d", got)
	}
}

func TestFailureIsolation(t *testing.T) {
	driver := newFakeDriver(1)
	d := newDispatcher(driver, Options{})
	defer func() {
		_ = d.Close()
	}()

	if err := d.Submit(intent.ButtonPress(caps.BtnLeft)); err != nil {
		t.Fatal(err)
	}

	err := d.Submit(intent.ButtonRelease(caps.BtnLeft))
	if !errors.Is(err, device.ErrIo) {
		t.Fatalf("expected ErrIo for the failing write, got %v", err)
	}

	// everything after the failure resolves with ErrClosed
	for i := 0; i < 10; i++ {
		err := d.Submit(intent.PointerDelta(1, 1))
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	}

	// the root cause stays visible
	if err := d.Submit(intent.KeyPress(caps.KeyEsc)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	// the handle closed exactly once, Close afterwards is a no-op
	_ = driver.Close()
	driver.locker.Lock()
	closes := driver.closes
	driver.locker.Unlock()
	if closes != 1 {
		t.Fatalf("expected exactly one close, got %d", closes)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	driver := newFakeDriver(-1)
	d := newDispatcher(driver, Options{})

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	err := d.Submit(intent.KeyPress(caps.KeyEsc))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPointerActivityHook(t *testing.T) {
	driver := newFakeDriver(-1)

	var locker sync.Mutex
	touches := 0

	d := newDispatcher(driver, Options{
		OnPointerActivity: func() {
			locker.Lock()
			defer locker.Unlock()
			touches++
		},
	})
	defer func() {
		_ = d.Close()
	}()

	if err := d.Submit(intent.PointerDelta(2, 2)); err != nil {
		t.Fatal(err)
	}
	if err := d.Submit(intent.KeyPress(caps.KeyEsc)); err != nil {
		t.Fatal(err)
	}
	// no motion, no touch
	if err := d.Submit(intent.PointerDelta(0, 0)); err != nil {
		t.Fatal(err)
	}

	locker.Lock()
	defer locker.Unlock()
	if touches != 1 {
		t.Fatalf("expected 1 pointer activity callback, got %d", touches)
	}
}
