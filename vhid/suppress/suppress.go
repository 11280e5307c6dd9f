package suppress

import (
	"sync"
	"time"

	"github.com/allape/gogger"
)

var l = gogger.New("vhid.suppress")

const DefaultIdleTimeout = 1500 * time.Millisecond

// Signaler is the narrow surface of the external cursor-hiding collaborator.
// It is never a hard dependency, cursor visibility is cosmetic.
type Signaler interface {
	Start() error
	Stop() error
}

// Coordinator toggles the external signaler between Idle and Suppressing
// based on observed pointer activity. Signaler failures are logged, not
// propagated.
type Coordinator struct {
	signaler    Signaler
	idleTimeout time.Duration

	locker      sync.Locker
	suppressing bool
	idleTimer   *time.Timer
	shutdown    bool
}

func NewCoordinator(signaler Signaler, idleTimeout time.Duration) *Coordinator {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Coordinator{
		signaler:    signaler,
		idleTimeout: idleTimeout,
		locker:      &sync.Mutex{},
	}
}

// Touch records pointer activity. The first touch after idle starts
// suppression; every touch pushes the idle deadline out.
func (c *Coordinator) Touch() {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.shutdown {
		return
	}

	if !c.suppressing {
		c.suppressing = true
		c.signalStart()
	}

	if c.idleTimer == nil {
		c.idleTimer = time.AfterFunc(c.idleTimeout, c.expire)
	} else {
		c.idleTimer.Reset(c.idleTimeout)
	}
}

// Suppressing reports the current state.
func (c *Coordinator) Suppressing() bool {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.suppressing
}

func (c *Coordinator) expire() {
	c.locker.Lock()
	defer c.locker.Unlock()

	if !c.suppressing {
		return
	}
	c.suppressing = false
	c.signalStop()
}

// Shutdown returns the coordinator to Idle and stops the signaler if it was
// running. Further touches are ignored.
func (c *Coordinator) Shutdown() {
	c.locker.Lock()
	defer c.locker.Unlock()

	c.shutdown = true

	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}

	if c.suppressing {
		c.suppressing = false
		c.signalStop()
	}
}

func (c *Coordinator) signalStart() {
	if c.signaler == nil {
		return
	}
	l.Verbose().Println("suppressing cursor")
	if err := c.signaler.Start(); err != nil {
		l.Warn().Println("start cursor suppression:", err)
	}
}

func (c *Coordinator) signalStop() {
	if c.signaler == nil {
		return
	}
	l.Verbose().Println("restoring cursor")
	if err := c.signaler.Stop(); err != nil {
		l.Warn().Println("stop cursor suppression:", err)
	}
}
