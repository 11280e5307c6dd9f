package perm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type Reason string

const (
	ReasonNodeMissing   Reason = "node missing"
	ReasonNotCharDevice Reason = "not a character device"
	ReasonNoAccess      Reason = "insufficient permissions"
)

// Error names the unmet precondition so the fix is actionable.
// Permission problems are never retried, retrying cannot grant access.
type Error struct {
	Path   string
	Reason Reason
	Hint   string
	Err    error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Path, e.Reason, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Check verifies the device node exists and is readable and writable by the
// current process identity. It never modifies permissions.
func Check(path string) error {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &Error{
			Path:   path,
			Reason: ReasonNodeMissing,
			Hint:   "is the uinput kernel module loaded?",
			Err:    err,
		}
	} else if err != nil {
		return &Error{Path: path, Reason: ReasonNoAccess, Err: err}
	}

	if stat.Mode()&os.ModeCharDevice == 0 {
		return &Error{Path: path, Reason: ReasonNotCharDevice}
	}

	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return &Error{
			Path:   path,
			Reason: ReasonNoAccess,
			Hint:   "add the current user to the input group or install a udev rule",
			Err:    err,
		}
	}

	return nil
}
