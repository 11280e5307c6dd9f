package uinput

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/vhid/caps"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/device/perm"
	"github.com/allape/openvhid/vhid/event"
	"golang.org/x/sys/unix"
)

var l = gogger.New("vhid.device.uinput")

const maxNameSize = 80

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// userDev mirrors struct uinput_user_dev from uinput.h.
type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [64]int32
	Absmin     [64]int32
	Absfuzz    [64]int32
	Absflat    [64]int32
}

// Driver holds one registered uinput device. Exactly one may exist per
// control node per process; the kernel refuses concurrent identical setups.
type Driver struct {
	device.Driver

	locker sync.Locker

	path    string
	name    string
	vendor  uint16
	product uint16
	set     *caps.Set

	state      device.State
	deviceFile *os.File
}

func New(path, name string, vendor, product uint16, set *caps.Set) *Driver {
	return &Driver{
		locker:  &sync.Mutex{},
		path:    path,
		name:    name,
		vendor:  vendor,
		product: product,
		set:     set,
	}
}

func (d *Driver) State() device.State {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.state
}

// Open runs the permission preflight, acquires the control node and walks the
// registration sequence: enable capabilities, describe the device, create it.
// Any failure tears the handle back down to Closed.
func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.state != device.Closed {
		return fmt.Errorf("device is %s: %w", d.state, device.ErrUnavailable)
	}

	if err := perm.Check(d.path); err != nil {
		return err
	}

	d.state = device.Opening

	deviceFile, err := os.OpenFile(d.path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0660)
	if err != nil {
		d.state = device.Closed
		if errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("open %s: %w", d.path, device.ErrUnavailable)
		}
		return fmt.Errorf("open %s: %w", d.path, err)
	}
	d.deviceFile = deviceFile

	if err := d.registerCapabilities(); err != nil {
		d.teardown()
		return err
	}

	if err := d.createDevice(); err != nil {
		d.teardown()
		return err
	}

	d.state = device.Active
	l.Info().Printf("registered %q on %s", d.name, d.path)

	return nil
}

func (d *Driver) registerCapabilities() error {
	fd := int(d.deviceFile.Fd())

	if err := unix.IoctlSetInt(fd, UI_SET_EVBIT, int(event.TypeKey)); err != nil {
		return fmt.Errorf("enable EV_KEY: %w", device.ErrKernelRejected)
	}
	for _, code := range d.set.KeyBits() {
		if err := unix.IoctlSetInt(fd, UI_SET_KEYBIT, int(code)); err != nil {
			return fmt.Errorf("enable key 0x%03x: %w", code, device.ErrKernelRejected)
		}
	}

	axes := d.set.AxisBits()
	if len(axes) == 0 {
		return nil
	}

	if err := unix.IoctlSetInt(fd, UI_SET_EVBIT, int(event.TypeRelative)); err != nil {
		return fmt.Errorf("enable EV_REL: %w", device.ErrKernelRejected)
	}
	for _, code := range axes {
		if err := unix.IoctlSetInt(fd, UI_SET_RELBIT, int(code)); err != nil {
			return fmt.Errorf("enable axis 0x%02x: %w", code, device.ErrKernelRejected)
		}
	}

	return nil
}

func (d *Driver) createDevice() error {
	dev := userDev{
		ID: inputID{
			Bustype: unix.BUS_USB,
			Vendor:  d.vendor,
			Product: d.product,
			Version: 1,
		},
	}
	copy(dev.Name[:], d.name)

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, dev); err != nil {
		return fmt.Errorf("encode uinput_user_dev: %w", err)
	}
	if _, err := d.deviceFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("describe device: %w", device.ErrKernelRejected)
	}

	if err := unix.IoctlSetInt(int(d.deviceFile.Fd()), UI_DEV_CREATE, 0); err != nil {
		return fmt.Errorf("create device: %w", device.ErrKernelRejected)
	}

	return nil
}

// WriteBatch writes the whole batch with a single write call. A short write
// leaves the kernel mid-record with no way to resynchronize, so any write
// failure closes the handle.
func (d *Driver) WriteBatch(batch []event.Record) error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.state != device.Active {
		return device.ErrNotActive
	}
	if len(batch) == 0 {
		return nil
	}

	buf := event.EncodeBatch(batch)
	n, err := d.deviceFile.Write(buf)
	if err != nil {
		d.teardown()
		return fmt.Errorf("write batch: %v: %w", err, device.ErrIo)
	}
	if n != len(buf) {
		d.teardown()
		return fmt.Errorf("partial write of %d/%d bytes: %w", n, len(buf), device.ErrIo)
	}

	return nil
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.state == device.Closed {
		return nil
	}

	err := d.teardown()
	l.Info().Printf("released %q", d.name)

	return err
}

// teardown destroys the kernel device and releases the node. Callers hold the
// lock. Safe to call from any lifecycle state; it always lands on Closed.
func (d *Driver) teardown() error {
	d.state = device.Closed

	if d.deviceFile == nil {
		return nil
	}

	if err := unix.IoctlSetInt(int(d.deviceFile.Fd()), UI_DEV_DESTROY, 0); err != nil {
		l.Warn().Println("destroy device:", err)
	}

	err := d.deviceFile.Close()
	d.deviceFile = nil

	return err
}
