package config

import (
	"github.com/allape/openvhid/logger"
	"github.com/pelletier/go-toml/v2"
	"os"
)

var log = logger.New("[config]")

const DefaultConfigPath = "vhid.toml"

type DeviceDriverType string

const (
	DeviceUinput     DeviceDriverType = "uinput"
	DeviceSerialPort DeviceDriverType = "serialport"
)

type SuppressorDriverType string

const (
	SuppressorNone  SuppressorDriverType = "none"
	SuppressorShell SuppressorDriverType = "shell"
)

type HTTP struct {
	Addr   string `toml:"addr"`
	WsPath string `toml:"ws_path"`
	Cors   bool   `toml:"cors"`
}

type Device struct {
	Type DeviceDriverType `toml:"type"`
	// Src is the control node for uinput, or the port name for serialport
	Src     string `toml:"src"`
	Name    string `toml:"name"`
	Vendor  uint16 `toml:"vendor"`
	Product uint16 `toml:"product"`
	// NodeWaitMS bounds how long activation waits for the control node to
	// appear; 0 fails immediately when it is absent
	NodeWaitMS int    `toml:"node_wait_ms"`
	Ext        ExtMap `toml:"ext"`
}

type Dispatcher struct {
	QueueSize int `toml:"queue_size"`
}

type Suppressor struct {
	Type   SuppressorDriverType `toml:"type"`
	IdleMS int                  `toml:"idle_ms"`
	Start  CommandLine          `toml:"start"`
	Stop   CommandLine          `toml:"stop"`
}

type Config struct {
	HTTP       HTTP       `toml:"http"`
	Device     Device     `toml:"device"`
	Dispatcher Dispatcher `toml:"dispatcher"`
	Suppressor Suppressor `toml:"suppressor"`
}

func GetConfig() (Config, error) {
	configFile := DefaultConfigPath
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	log.Println("reading config file:", configFile)

	config := Config{
		HTTP: HTTP{
			Addr:   ":8080",
			WsPath: "/ws",
		},
		Device: Device{
			Type:       DeviceUinput,
			Src:        "/dev/uinput",
			Name:       "openvhid",
			Vendor:     0x4711,
			Product:    0x0817,
			NodeWaitMS: 0,
		},
		Dispatcher: Dispatcher{
			QueueSize: 64,
		},
		Suppressor: Suppressor{
			Type:   SuppressorNone,
			IdleMS: 1500,
			Start:  CommandLine{"xbanish", "-a"},
		},
	}

	_, err := os.Stat(configFile)
	if err != nil {
		return config, err
	}

	configData, err := os.ReadFile(configFile)
	if err != nil {
		return config, err
	}

	err = toml.Unmarshal(configData, &config)
	if err != nil {
		return config, err
	}

	log.Println("use config:", config)

	return config, nil
}
