package config

import (
	"os/exec"
	"strconv"
)

type CommandLine []string

func (c CommandLine) Empty() bool {
	return len(c) == 0
}

func (c CommandLine) ToCommand() (*exec.Cmd, error) {
	if len(c) == 0 {
		return nil, nil
	}

	return exec.Command(c[0], c[1:]...), nil
}

type ExtMap map[string]any

type SerialPortExt ExtMap

func (e SerialPortExt) GetBaud(defaultValue int) (int, error) {
	v, ok := e["baud"]
	if !ok {
		return defaultValue, nil
	}

	baud, ok := v.(string)
	if !ok {
		return defaultValue, nil
	}

	return strconv.Atoi(baud)
}
