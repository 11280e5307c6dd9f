package serialport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/event"
	"go.bug.st/serial"
)

var l = gogger.New("vhid.device.serialport")

// MagicWord arms the bridge firmware before the first report.
const MagicWord = "open-vhid"

// Driver forwards encoded input reports to a CH9329-style HID bridge chip
// over a serial port instead of the local kernel. The bridge replays them on
// its USB side, so batches keep the exact input_event wire shape.
type Driver struct {
	device.Driver

	locker sync.Locker

	port serial.Port

	state device.State

	Name string
	Baud int
}

func New(name string, baud int) *Driver {
	return &Driver{
		locker: &sync.Mutex{},
		Name:   name,
		Baud:   baud,
	}
}

func (d *Driver) State() device.State {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.state
}

func (d *Driver) Open() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.state != device.Closed {
		return fmt.Errorf("port is %s: %w", d.state, device.ErrUnavailable)
	}

	d.state = device.Opening

	mode := &serial.Mode{
		BaudRate: d.Baud,
	}
	port, err := serial.Open(d.Name, mode)
	if err != nil {
		d.state = device.Closed
		return fmt.Errorf("open %s: %w", d.Name, device.ErrUnavailable)
	}
	d.port = port

	go func(port serial.Port) {
		buf := make([]byte, 1024)
		unfinishedLine := ""
		for {
			n, err := port.Read(buf)
			if err != nil {
				l.Verbose().Println("read error:", err)
				return
			}
			if n == 0 {
				l.Warn().Println("EOF")
				return
			}
			lines := strings.Split(unfinishedLine+string(buf[:n]), "\n")
			for i := 0; i < len(lines)-1; i++ {
				l.Verbose().Println(">", lines[i])
			}
			unfinishedLine = lines[len(lines)-1]
		}
	}(port)

	if _, err = port.Write([]byte(MagicWord)); err != nil {
		d.teardown()
		return fmt.Errorf("arm bridge: %w", device.ErrKernelRejected)
	}

	d.state = device.Active
	l.Info().Println("bridge armed on", d.Name)

	return nil
}

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
	n, err := d.port.Write(buf)
	if err != nil {
		d.teardown()
		return fmt.Errorf("write batch: %v: %w", err, device.ErrIo)
	}
	if n != len(buf) {
		d.teardown()
		return fmt.Errorf("partial write of %d/%d bytes: %w", n, len(buf), device.ErrIo)
	}

	// flush so the bridge sees the report boundary immediately
	if err := d.port.Drain(); err != nil {
		d.teardown()
		return fmt.Errorf("drain: %v: %w", err, device.ErrIo)
	}

	return nil
}

func (d *Driver) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()

	if d.state == device.Closed {
		return nil
	}

	return d.teardown()
}

func (d *Driver) teardown() error {
	d.state = device.Closed

	if d.port == nil {
		return nil
	}

	err := d.port.Close()
	d.port = nil

	return err
}
