package daq

import (
	"fmt"

	"github.com/itohio/godaq/pkg/config"
)

// Reader defines the interface for DAQ devices (real or mocked).
// Read returns the instantaneous voltage of every requested channel,
// in request order.
type Reader interface {
	Read(channels []string) ([]float64, error)
	Close() error
}

// Ensure Serial implements Reader.
var _ Reader = (*Serial)(nil)

// Ensure ADS1115 implements Reader.
var _ Reader = (*ADS1115)(nil)

// Ensure Mock implements Reader.
var _ Reader = (*Mock)(nil)

// Open creates and connects a Reader for the configured device type.
func Open(cfg *config.Config) (Reader, error) {
	switch cfg.Device.Type {
	case "mock":
		return NewMock(&cfg.Mock), nil
	case "serial":
		return NewSerial(cfg.Device.Port, cfg.Device.BaudRate)
	case "ads1115":
		return NewADS1115(cfg.Device.I2CBus, cfg.Device.I2CAddress)
	default:
		return nil, fmt.Errorf("unknown device type %q", cfg.Device.Type)
	}
}
