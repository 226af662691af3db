package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/itohio/godaq/pkg/config"
	"github.com/itohio/godaq/pkg/daq"
	"github.com/itohio/godaq/pkg/logfile"
	"github.com/itohio/godaq/pkg/publish"
	"github.com/itohio/godaq/pkg/sample"
)

// Monitor drives the acquisition loop: align to the wall clock once,
// then for every period collect samples, calibrate the averages, append
// one row to the daily log and hand the row to the secondary outputs.
//
// The schedule is held by a target-time cursor that advances by exactly
// one period per cycle and is never recomputed from the current time.
// Rows are stamped with the cursor, not with the observed start time,
// so the logged timestamps stay exactly periodic even when a cycle runs
// late. A late cycle is neither skipped nor caught up; it simply starts
// as soon as the previous one finished.
type Monitor struct {
	cfg     *config.Config
	reader  daq.Reader
	writer  *logfile.Writer
	outputs []publish.Output

	channels []config.Channel
	names    []string

	rate   float64
	period time.Duration
	window time.Duration
}

// New assembles a Monitor from an opened reader, a log writer and any
// number of secondary outputs.
func New(cfg *config.Config, reader daq.Reader, writer *logfile.Writer, outputs ...publish.Output) *Monitor {
	channels := cfg.ChannelList()
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}

	period := time.Duration(cfg.Acquisition.AveragingPeriod) * time.Second

	return &Monitor{
		cfg:      cfg,
		reader:   reader,
		writer:   writer,
		outputs:  outputs,
		channels: channels,
		names:    names,
		rate:     cfg.Acquisition.SamplingRate,
		period:   period,
		// One second of every period is reserved for processing and
		// the log write, so the next period does not start late.
		window: period - time.Second,
	}
}

// Run executes the acquisition loop until ctx is canceled or an error
// occurs. Cancellation is not an error. The log file is closed on
// every exit path.
func (m *Monitor) Run(ctx context.Context) error {
	defer func() {
		if err := m.writer.Close(); err != nil {
			log.Printf("Error closing log file: %v", err)
		}
	}()

	log.Printf("Starting logging with initial file: %s", m.writer.Filename(time.Now()))
	log.Printf("Sampling Rate: %g Hz", m.rate)
	log.Printf("Averaging Period: %d seconds (Actual Averaging Time: %d seconds)",
		m.cfg.Acquisition.AveragingPeriod, int(m.window.Seconds()))
	log.Printf("Timestamps are in ISO8601 format.")

	wait := AlignDelay(time.Now(), m.period)
	log.Printf("Waiting %.2f seconds to align with the next %d-second interval.",
		wait.Seconds(), m.cfg.Acquisition.AveragingPeriod)

	err := m.run(ctx, time.Now().Add(wait))
	if errors.Is(err, context.Canceled) {
		log.Printf("Data acquisition stopped by user.")
		return nil
	}
	return err
}

// run sleeps until the aligned start, then cycles until interrupted.
func (m *Monitor) run(ctx context.Context, alignedStart time.Time) error {
	if err := sleepUntil(ctx, alignedStart); err != nil {
		return err
	}

	// The cursor points at the start of the upcoming period.
	next := time.Now().Truncate(time.Second).Add(m.period)

	for {
		acc, err := sample.Collect(ctx, m.reader, m.names, m.rate, next.Add(m.window))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("acquisition failed for period %s: %w",
				next.Format(time.RFC3339), err)
		}

		values := sample.Calibrate(acc, m.channels)
		if err := m.writer.WriteRow(next, values); err != nil {
			return err
		}
		m.publishRow(next, values)

		next = next.Add(m.period)
		if err := sleepUntil(ctx, next); err != nil {
			return err
		}
	}
}

// publishRow hands one finished row to every secondary output. The CSV
// log already holds the row at this point, so output failures are
// logged and acquisition continues.
func (m *Monitor) publishRow(stamp time.Time, values []float64) {
	row := publish.Row{
		Stamp:    stamp,
		Channels: m.channels,
		Values:   values,
	}

	for _, out := range m.outputs {
		if err := out.Publish(row); err != nil {
			log.Printf("Failed to publish row: %v", err)
		}
	}
}

// sleepUntil blocks until t or until ctx is canceled. A target already
// in the past returns immediately, though cancellation is still polled.
func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
