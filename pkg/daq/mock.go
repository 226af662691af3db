package daq

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/godaq/pkg/config"
)

// Mock simulates a DAQ device for testing and development. Each channel
// produces a slow sine around a baseline level, phase-shifted per
// channel, with a little deterministic noise on top.
type Mock struct {
	cfg *config.MockConfig

	mu        sync.Mutex
	startTime time.Time
	closed    bool
}

// NewMock creates a new mocked reader instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Level:     1.5,
			Amplitude: 0.25,
			Noise:     0.005,
			Period:    20 * time.Second,
		}
	}

	return &Mock{
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Read generates one simulated voltage per channel.
func (m *Mock) Read(channels []string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	elapsed := time.Since(m.startTime)
	values := make([]float64, len(channels))
	for i := range channels {
		values[i] = m.generateValue(i, elapsed)
	}

	return values, nil
}

// Close stops the mocked reader.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// generateValue produces the simulated voltage for one channel index.
func (m *Mock) generateValue(channel int, elapsed time.Duration) float64 {
	period := m.cfg.Period.Seconds()
	if period <= 0 {
		period = 20.0
	}

	// Shift each channel by a quarter turn so they are distinguishable.
	phase := 2*math.Pi*elapsed.Seconds()/period + float64(channel)*math.Pi/2
	value := m.cfg.Level + m.cfg.Amplitude*math.Sin(phase)

	// Add noise
	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		m.cfg.Noise * 0.5
	return value + noise
}
