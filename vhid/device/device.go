package device

import (
	"errors"
	"io"

	"github.com/allape/openvhid/vhid/event"
)

var (
	// ErrUnavailable means the underlying resource is held by another
	// handle or process. Fatal for this process instance.
	ErrUnavailable = errors.New("device resource is unavailable")

	// ErrKernelRejected means capability registration was refused.
	// A configuration bug, retrying cannot help.
	ErrKernelRejected = errors.New("kernel rejected device registration")

	// ErrIo marks a failed or partial write. The protocol has no
	// mid-record resynchronization, so the handle closes itself.
	ErrIo = errors.New("device write failure")

	// ErrNotActive rejects writes before Open succeeded or after close.
	ErrNotActive = errors.New("device is not active")
)

// State is the lifecycle of a device handle. A handle is never observable in
// a partially registered state: any failure between Opening and Active tears
// it down to Closed.
type State int

const (
	Closed State = iota
	Opening
	Active
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Active:
		return "active"
	}
	return "unknown"
}

// Driver owns one open virtual device resource.
type Driver interface {
	io.Closer
	Open() error
	// WriteBatch submits one ordered, Sync-terminated batch. Records are
	// never reordered. Any error is fatal to the handle.
	WriteBatch(batch []event.Record) error
	State() State
}
