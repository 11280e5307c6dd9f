package vhid

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/dispatch"
	"github.com/allape/openvhid/vhid/event"
	"github.com/allape/openvhid/vhid/intent"
	"github.com/allape/openvhid/vhid/suppress"
)

var l = gogger.New("vhid")

// Client message types. Multi-byte fields are big-endian.
const (
	MsgKey     byte = 0x01 // {code uint16, state uint8}
	MsgButton  byte = 0x02 // {code uint16, state uint8}
	MsgPointer byte = 0x03 // {dx int16, dy int16}
	MsgScroll  byte = 0x04 // {amount int16}
)

var ErrMalformedMessage = errors.New("malformed client message")

type Client interface {
	io.ReadWriteCloser
}

// Server is the client-facing surface: explicit activation, ordered intent
// submission, shutdown. The device also activates lazily on first client
// activity.
type Server struct {
	Driver      device.Driver
	Dispatcher  *dispatch.Dispatcher
	Coordinator *suppress.Coordinator

	locker       sync.Locker
	active       bool
	shutdown     bool
	shutdownOnce sync.Once
}

func New(driver device.Driver, dispatcher *dispatch.Dispatcher, coordinator *suppress.Coordinator) (*Server, error) {
	if driver == nil {
		return nil, errors.New("device driver is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	return &Server{
		Driver:      driver,
		Dispatcher:  dispatcher,
		Coordinator: coordinator,

		locker: &sync.Mutex{},
	}, nil
}

// Activate opens and registers the virtual device. Failures carry the exact
// unmet precondition: node missing, permission, resource busy, or kernel
// refusal.
func (s *Server) Activate() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.active {
		return nil
	}
	if s.shutdown {
		// reopening would hand out a device the dead dispatcher never writes
		return dispatch.ErrClosed
	}

	if err := s.Driver.Open(); err != nil {
		return err
	}

	s.active = true

	return nil
}

// Submit forwards one intent to the dispatch queue, activating the device
// first if nothing did so yet.
func (s *Server) Submit(it intent.Intent) error {
	if err := s.Activate(); err != nil {
		return err
	}
	return s.Dispatcher.Submit(it)
}

// Shutdown stops the dispatcher, returns the cursor, and releases the
// device. Idempotent; the device resource is never leaked.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		_ = s.Dispatcher.Close()

		if s.Coordinator != nil {
			s.Coordinator.Shutdown()
		}

		if err := s.Driver.Close(); err != nil {
			l.Warn().Println("close device:", err)
		}

		s.locker.Lock()
		s.active = false
		s.shutdown = true
		s.locker.Unlock()
	})
}

func (s *Server) Active() bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.active
}

func (s *Server) CloseClient(client Client, message string) error {
	if message != "" {
		// ignore error, close client anyway
		_, _ = client.Write([]byte(message))
	}
	return client.Close()
}

// HandleClient pumps intents from one remote-control session. Per-intent
// validation failures are logged and skipped; a closed dispatcher ends the
// session.
func (s *Server) HandleClient(client Client) error {
	buf := make([]byte, 64)

	for {
		n, err := client.Read(buf)
		if err != nil {
			return err
		}

		msg := buf[:n]

		it, err := ParseMessage(msg)
		if err != nil {
			l.Warn().Println("skipping message:", hex.EncodeToString(msg), err)
			continue
		}

		err = s.Submit(it)
		if errors.Is(err, dispatch.ErrClosed) {
			return s.CloseClient(client, "device dispatcher is closed")
		} else if errors.Is(err, event.ErrUnsupportedCapability) {
			l.Warn().Println("rejected intent:", err)
		} else if err != nil {
			return s.CloseClient(client, err.Error())
		}
	}
}

// ParseMessage decodes one binary client message into an intent.
func ParseMessage(msg []byte) (intent.Intent, error) {
	if len(msg) == 0 {
		return intent.Intent{}, ErrMalformedMessage
	}

	switch msg[0] {
	case MsgKey, MsgButton:
		if len(msg) < 4 {
			return intent.Intent{}, fmt.Errorf("%w: key message wants 4 bytes, got %d", ErrMalformedMessage, len(msg))
		}
		code := binary.BigEndian.Uint16(msg[1:3])
		pressed := msg[3] != 0
		if msg[0] == MsgKey {
			if pressed {
				return intent.KeyPress(code), nil
			}
			return intent.KeyRelease(code), nil
		}
		if pressed {
			return intent.ButtonPress(code), nil
		}
		return intent.ButtonRelease(code), nil

	case MsgPointer:
		if len(msg) < 5 {
			return intent.Intent{}, fmt.Errorf("%w: pointer message wants 5 bytes, got %d", ErrMalformedMessage, len(msg))
		}
		dx := int16(binary.BigEndian.Uint16(msg[1:3]))
		dy := int16(binary.BigEndian.Uint16(msg[3:5]))
		return intent.PointerDelta(int32(dx), int32(dy)), nil

	case MsgScroll:
		if len(msg) < 3 {
			return intent.Intent{}, fmt.Errorf("%w: scroll message wants 3 bytes, got %d", ErrMalformedMessage, len(msg))
		}
		amount := int16(binary.BigEndian.Uint16(msg[1:3]))
		return intent.ScrollDelta(int32(amount)), nil
	}

	return intent.Intent{}, fmt.Errorf("%w: unknown type 0x%02x", ErrMalformedMessage, msg[0])
}
