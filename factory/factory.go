package factory

import (
	"fmt"
	"time"

	"github.com/allape/gogger"
	"github.com/allape/openvhid/config"
	"github.com/allape/openvhid/vhid/caps"
	"github.com/allape/openvhid/vhid/device"
	"github.com/allape/openvhid/vhid/device/perm"
	"github.com/allape/openvhid/vhid/device/serialport"
	"github.com/allape/openvhid/vhid/device/uinput"
	"github.com/allape/openvhid/vhid/suppress"
	"github.com/allape/openvhid/vhid/suppress/shell"
)

var l = gogger.New("factory")

const DefaultBaud = 9600

func DeviceFromConfig(conf config.Config, set *caps.Set) (device.Driver, error) {
	switch conf.Device.Type {
	case config.DeviceUinput:
		l.Info().Println("device driver is uinput:", conf.Device.Src)

		if conf.Device.NodeWaitMS > 0 {
			timeout := time.Duration(conf.Device.NodeWaitMS) * time.Millisecond
			if err := perm.WaitForNode(conf.Device.Src, timeout); err != nil {
				return nil, err
			}
		}

		return uinput.New(
			conf.Device.Src,
			conf.Device.Name,
			conf.Device.Vendor,
			conf.Device.Product,
			set,
		), nil
	case config.DeviceSerialPort:
		l.Info().Println("device driver is serial port:", conf.Device.Src)

		baud, err := config.SerialPortExt(conf.Device.Ext).GetBaud(DefaultBaud)
		if err != nil {
			return nil, err
		}

		return serialport.New(conf.Device.Src, baud), nil
	}

	return nil, fmt.Errorf("unknown device driver: %s", conf.Device.Type)
}

func SuppressorFromConfig(conf config.Config) (suppress.Signaler, error) {
	switch conf.Suppressor.Type {
	case config.SuppressorNone:
		l.Warn().Println("suppressor driver is none, the host cursor stays visible")
		return nil, nil
	case config.SuppressorShell:
		if conf.Suppressor.Start.Empty() {
			return nil, fmt.Errorf("suppressor start command is empty")
		}
		l.Info().Println("suppressor driver is shell:", conf.Suppressor.Start)
		return shell.New(conf.Suppressor.Start, conf.Suppressor.Stop), nil
	}

	return nil, fmt.Errorf("unknown suppressor driver: %s", conf.Suppressor.Type)
}

func CoordinatorFromConfig(conf config.Config) (*suppress.Coordinator, error) {
	signaler, err := SuppressorFromConfig(conf)
	if err != nil {
		return nil, err
	}

	idle := time.Duration(conf.Suppressor.IdleMS) * time.Millisecond

	return suppress.NewCoordinator(signaler, idle), nil
}
