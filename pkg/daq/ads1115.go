package daq

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// Full-scale range for the ±4.096V PGA setting.
	pgaFullScale = 4.096
	// conversionDelay covers one conversion at 128 SPS plus margin.
	conversionDelay = 10 * time.Millisecond
)

// ADS1115 reads single-ended channels from a TI ADS1115 ADC over I²C.
// Conversions run in single-shot mode at 128 SPS with the ±4.096V PGA.
type ADS1115 struct {
	dev *i2c.Dev
	bus i2c.BusCloser
	mu  sync.Mutex
}

// NewADS1115 opens the given I²C bus and prepares the ADC at addr.
func NewADS1115(busName string, addr int) (*ADS1115, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %s: %w", busName, err)
	}

	return &ADS1115{
		dev: &i2c.Dev{Addr: uint16(addr), Bus: bus},
		bus: bus,
	}, nil
}

// Read performs one single-shot conversion per channel.
func (a *ADS1115) Read(channels []string) ([]float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bus == nil {
		return nil, fmt.Errorf("not connected")
	}

	values := make([]float64, len(channels))
	for i, name := range channels {
		mux, err := channelMux(name)
		if err != nil {
			return nil, err
		}

		msb, lsb := conversionConfig(mux)
		if err := a.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
			return nil, fmt.Errorf("failed to start conversion on %s: %w", name, err)
		}

		time.Sleep(conversionDelay)

		buf := make([]byte, 2)
		if err := a.dev.Tx([]byte{pointerConv}, buf); err != nil {
			return nil, fmt.Errorf("failed to read conversion on %s: %w", name, err)
		}

		raw := int16(buf[0])<<8 | int16(buf[1])
		values[i] = volts(raw)
	}

	return values, nil
}

// Close releases the I²C bus.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.bus == nil {
		return nil
	}

	err := a.bus.Close()
	a.bus = nil
	a.dev = nil
	if err != nil {
		return fmt.Errorf("failed to close i2c bus: %w", err)
	}

	return nil
}

// channelMux maps a channel name to the single-ended input mux bits.
func channelMux(name string) (byte, error) {
	switch strings.ToUpper(name) {
	case "AIN0", "A0":
		return 0x4, nil
	case "AIN1", "A1":
		return 0x5, nil
	case "AIN2", "A2":
		return 0x6, nil
	case "AIN3", "A3":
		return 0x7, nil
	default:
		return 0, fmt.Errorf("channel %q does not map to an ADS1115 input", name)
	}
}

// conversionConfig builds the config register bytes for one single-shot
// conversion with the given input mux.
func conversionConfig(mux byte) (byte, byte) {
	// OS = 1 (start single conversion)
	var cfg uint16 = 0x8000
	cfg |= uint16(mux) << 12
	// PGA ±4.096V -> bits 001
	cfg |= 0x1 << 9
	// single-shot mode
	cfg |= 1 << 8
	// 128 SPS
	cfg |= 0x4 << 5
	// comparator disabled (bits 1:0 = 11)
	cfg |= 0x3
	return byte(cfg >> 8), byte(cfg & 0xFF)
}

// volts converts a raw conversion result to volts at the ±4.096V PGA.
func volts(raw int16) float64 {
	return float64(raw) * pgaFullScale / 32768.0
}
