package sample

import (
	"context"
	"fmt"
	"time"

	"github.com/itohio/godaq/pkg/daq"
)

// Accumulator collects per-channel running sums over one averaging window.
type Accumulator struct {
	Sums   []float64
	Counts []int64
}

// NewAccumulator creates an accumulator for n channels.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		Sums:   make([]float64, n),
		Counts: make([]int64, n),
	}
}

// Add folds one reading per channel into the running sums.
func (a *Accumulator) Add(values []float64) error {
	if len(values) != len(a.Sums) {
		return fmt.Errorf("expected %d values, got %d", len(a.Sums), len(values))
	}

	for i, v := range values {
		a.Sums[i] += v
		a.Counts[i]++
	}

	return nil
}

// Collect samples every channel at the given rate until the deadline
// passes, accumulating raw sums and counts. A deadline at or before
// the current time returns an empty accumulator without touching the
// reader.
//
// A reader error aborts the window and is returned alongside the
// partial accumulator. Cancellation is honored between reads; the
// read itself is never interrupted.
func Collect(ctx context.Context, r daq.Reader, channels []string, rate float64, until time.Time) (*Accumulator, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", rate)
	}

	acc := NewAccumulator(len(channels))
	interval := time.Duration(float64(time.Second) / rate)

	for time.Now().Before(until) {
		if err := ctx.Err(); err != nil {
			return acc, err
		}

		values, err := r.Read(channels)
		if err != nil {
			return acc, fmt.Errorf("failed to read channels: %w", err)
		}
		if err := acc.Add(values); err != nil {
			return acc, err
		}

		select {
		case <-ctx.Done():
			return acc, ctx.Err()
		case <-time.After(interval):
		}
	}

	return acc, nil
}
