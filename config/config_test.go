package config

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestUnmarshal(t *testing.T) {
	data := `
[http]
addr = ":9090"
ws_path = "/intents"
cors = true

[device]
type = "serialport"
src = "/dev/ttyUSB0"
[device.ext]
baud = "115200"

[dispatcher]
queue_size = 128

[suppressor]
type = "shell"
idle_ms = 500
start = ["xbanish", "-a"]
stop = ["pkill", "xbanish"]
`

	var config Config
	if err := toml.Unmarshal([]byte(data), &config); err != nil {
		t.Fatal(err)
	}

	if config.HTTP.Addr != ":9090" || config.HTTP.WsPath != "/intents" || !config.HTTP.Cors {
		t.Fatalf("unexpected http config: %+v", config.HTTP)
	}

	if config.Device.Type != DeviceSerialPort {
		t.Fatalf("unexpected device type: %s", config.Device.Type)
	}
	baud, err := SerialPortExt(config.Device.Ext).GetBaud(9600)
	if err != nil {
		t.Fatal(err)
	}
	if baud != 115200 {
		t.Fatalf("expected baud 115200, got %d", baud)
	}

	if config.Dispatcher.QueueSize != 128 {
		t.Fatalf("unexpected queue size: %d", config.Dispatcher.QueueSize)
	}

	if config.Suppressor.Type != SuppressorShell {
		t.Fatalf("unexpected suppressor type: %s", config.Suppressor.Type)
	}
	if config.Suppressor.Start.Empty() || config.Suppressor.Stop.Empty() {
		t.Fatalf("unexpected suppressor commands: %+v", config.Suppressor)
	}
}

func TestSerialPortExtDefaults(t *testing.T) {
	baud, err := SerialPortExt(nil).GetBaud(9600)
	if err != nil {
		t.Fatal(err)
	}
	if baud != 9600 {
		t.Fatalf("expected the default baud, got %d", baud)
	}

	baud, err = SerialPortExt(ExtMap{"baud": 12345}).GetBaud(9600)
	if err != nil {
		t.Fatal(err)
	}
	if baud != 9600 {
		t.Fatalf("expected a non-string baud to fall back, got %d", baud)
	}
}
