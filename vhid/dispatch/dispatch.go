package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/event"
	"github.com/allape/openvhid/vhid/intent"
)

var l = gogger.New("vhid.dispatch")

// ErrClosed rejects intents after the dispatcher reached its terminal state,
// either by shutdown or by a fatal device error. A failed dispatcher is never
// resumed, a stale handle would need its permissions and capabilities
// re-validated first.
var ErrClosed = errors.New("dispatcher closed")

const DefaultQueueSize = 64

type PointerActivityFunc func()

type Options struct {
	QueueSize int
	// OnPointerActivity fires after a pointer-motion batch was written,
	// from the dispatch worker.
	OnPointerActivity PointerActivityFunc
}

type job struct {
	it   intent.Intent
	done chan error
}

// Dispatcher serializes every producer through one ordered queue and one
// worker goroutine. Nothing else ever writes to the device; interleaved
// partial reports from two writers are the failure mode this exists to
// prevent.
type Dispatcher struct {
	driver     device.Driver
	translator *event.Translator
	onPointer  PointerActivityFunc

	jobs     chan job
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	locker sync.Locker
	cause  error

	// keys is touched only by the worker, no lock needed
	keys map[uint16]bool
}

func New(driver device.Driver, translator *event.Translator, options Options) *Dispatcher {
	if options.QueueSize <= 0 {
		options.QueueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		driver:     driver,
		translator: translator,
		onPointer:  options.OnPointerActivity,

		jobs: make(chan job, options.QueueSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),

		locker: &sync.Mutex{},

		keys: map[uint16]bool{},
	}

	go d.run()

	return d
}

// Submit enqueues one intent and blocks until it was dispatched, dropped by
// the idempotence rules, or rejected. Intents submitted in order are written
// in order.
func (d *Dispatcher) Submit(it intent.Intent) error {
	if cause := d.terminalCause(); cause != nil {
		return closedError(cause)
	}

	j := job{it: it, done: make(chan error, 1)}

	select {
	case d.jobs <- j:
	case <-d.done:
		return closedError(d.terminalCause())
	}

	select {
	case err := <-j.done:
		return err
	case <-d.done:
		// the worker drained the queue before exiting, so a job that
		// raced into the channel was still answered
		select {
		case err := <-j.done:
			return err
		default:
			return closedError(d.terminalCause())
		}
	}
}

// Close stops the worker. Queued-but-not-yet-translated intents are dropped
// and their producers get ErrClosed. Safe to call more than once.
func (d *Dispatcher) Close() error {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
	return nil
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		select {
		case <-d.stop:
			d.fail(ErrClosed)
			for {
				select {
				case j := <-d.jobs:
					j.done <- closedError(d.terminalCause())
				default:
					return
				}
			}
		case j := <-d.jobs:
			j.done <- d.handle(j.it)
		}
	}
}

func (d *Dispatcher) handle(it intent.Intent) error {
	if cause := d.terminalCause(); cause != nil {
		return closedError(cause)
	}

	batch, err := d.translator.Translate(it)
	if err != nil {
		// local validation failure, device and key state untouched
		return err
	}

	batch = d.applyKeyState(it, batch)
	if len(batch) == 0 {
		return nil
	}

	if err := d.driver.WriteBatch(batch); err != nil {
		d.fail(err)
		l.Error().Println("dispatch failed, rejecting further intents:", err)
		return err
	}

	if it.Kind == intent.KindPointerDelta && d.onPointer != nil {
		d.onPointer()
	}

	return nil
}

// applyKeyState enforces the idempotence rules: a press of an already-down
// code is tracked but produces no bytes, a release of an already-up code is
// dropped entirely. Some consumers read a spurious key-up as a fresh
// key-repeat boundary.
func (d *Dispatcher) applyKeyState(it intent.Intent, batch []event.Record) []event.Record {
	switch it.Kind {
	case intent.KindKeyPress, intent.KindButtonPress:
		if d.keys[it.Code] {
			return nil
		}
		d.keys[it.Code] = true
	case intent.KindKeyRelease, intent.KindButtonRelease:
		if !d.keys[it.Code] {
			return nil
		}
		d.keys[it.Code] = false
	}
	return batch
}

func (d *Dispatcher) fail(cause error) {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.cause == nil {
		d.cause = cause
	}
}

func (d *Dispatcher) terminalCause() error {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.cause
}

func closedError(cause error) error {
	if cause == nil || errors.Is(cause, ErrClosed) {
		return ErrClosed
	}
	return fmt.Errorf("%v: %w", cause, ErrClosed)
}
