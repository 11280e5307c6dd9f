package shell

import (
	"errors"
	"os/exec"
	"sync"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/config"
	"github.com/allape/openvhid/vhid/suppress"
)

var l = gogger.New("vhid.suppress.shell")

// Signaler drives an external cursor hider, xbanish and friends. The start
// command is expected to keep running; Stop kills and reaps it. An optional
// stop command covers hiders that toggle via a one-shot invocation instead.
type Signaler struct {
	suppress.Signaler

	StartCommand config.CommandLine
	StopCommand  config.CommandLine

	locker sync.Locker
	cmd    *exec.Cmd
}

func New(start, stop config.CommandLine) *Signaler {
	return &Signaler{
		StartCommand: start,
		StopCommand:  stop,
		locker:       &sync.Mutex{},
	}
}

func (s *Signaler) Start() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.cmd != nil {
		return nil
	}

	cmd, err := s.StartCommand.ToCommand()
	if err != nil {
		return err
	} else if cmd == nil {
		return errors.New("start command is empty")
	}

	l.Verbose().Println("spawning:", cmd.String())

	if err := cmd.Start(); err != nil {
		return err
	}
	s.cmd = cmd

	return nil
}

func (s *Signaler) Stop() error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if stop, err := s.StopCommand.ToCommand(); err != nil {
		return err
	} else if stop != nil {
		output, err := stop.CombinedOutput()
		l.Verbose().Println("stop command output:", string(output))
		if err != nil {
			return errors.New(string(output))
		}
	}

	if s.cmd == nil {
		return nil
	}

	err := s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	s.cmd = nil

	return err
}
