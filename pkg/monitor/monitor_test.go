package monitor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/itohio/godaq/pkg/config"
	"github.com/itohio/godaq/pkg/logfile"
	"github.com/itohio/godaq/pkg/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader returns a fixed value for every channel and can be told to
// fail from a given call onward.
type fakeReader struct {
	mu    sync.Mutex
	calls int
	value float64
	errAt int // fail on this call number (1-based), 0 = never
}

func (f *fakeReader) Read(channels []string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.errAt > 0 && f.calls >= f.errAt {
		return nil, fmt.Errorf("simulated read failure")
	}

	values := make([]float64, len(channels))
	for i := range values {
		values[i] = f.value
	}
	return values, nil
}

func (f *fakeReader) Close() error { return nil }

// recordingOutput captures published rows and signals every arrival.
type recordingOutput struct {
	mu     sync.Mutex
	rows   []publish.Row
	signal chan struct{}
}

func newRecordingOutput() *recordingOutput {
	return &recordingOutput{signal: make(chan struct{}, 16)}
}

func (o *recordingOutput) Publish(row publish.Row) error {
	o.mu.Lock()
	o.rows = append(o.rows, row)
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
	return nil
}

func (o *recordingOutput) Close() error { return nil }

func (o *recordingOutput) Rows() []publish.Row {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows := make([]publish.Row, len(o.rows))
	copy(rows, o.rows)
	return rows
}

// failingOutput always rejects rows. Acquisition must not care.
type failingOutput struct{}

func (failingOutput) Publish(publish.Row) error { return fmt.Errorf("output unavailable") }
func (failingOutput) Close() error              { return nil }

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Device.Type = "mock"
	cfg.Channels = []string{"AIN0", "AIN1"}
	cfg.Slopes = map[string]float64{"AIN0": 2.0, "AIN1": 1.0}
	cfg.Offsets = map[string]float64{"AIN0": 0.5, "AIN1": 5.0}
	cfg.Labels = map[string]string{"AIN0": "Temp"}
	cfg.Acquisition.SamplingRate = 10.0
	cfg.Acquisition.AveragingPeriod = 2
	cfg.Acquisition.ProjectName = "Monitor_Test"
	cfg.Acquisition.OutputDir = dir
	return cfg
}

func newTestWriter(cfg *config.Config) *logfile.Writer {
	channels := cfg.ChannelList()
	labels := make([]string, len(channels))
	for i, ch := range channels {
		labels[i] = ch.Label
	}
	return logfile.New(cfg.Acquisition.OutputDir, cfg.Acquisition.ProjectName, labels)
}

// TestMonitorRun_WritesAlignedRows runs two full periods against a fake
// reader and checks the produced rows: exact periodicity, aligned
// stamps, calibrated values, a single header, and no rows after the
// interrupt.
func TestMonitorRun_WritesAlignedRows(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	reader := &fakeReader{value: 1.0}
	out := newRecordingOutput()
	w := newTestWriter(cfg)
	m := New(cfg, reader, w, out, failingOutput{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Two rows: alignment takes up to one period, the first window
	// spans two, so allow plenty of real time.
	for i := 0; i < 2; i++ {
		select {
		case <-out.signal:
		case <-time.After(15 * time.Second):
			t.Fatalf("timed out waiting for row %d", i+1)
		}
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "interrupt is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}

	rows := out.Rows()
	require.GreaterOrEqual(t, len(rows), 2)

	// The cursor advances by exactly one period per row.
	delta := rows[1].Stamp.Sub(rows[0].Stamp)
	assert.Equal(t, 2*time.Second, delta)

	for _, row := range rows[:2] {
		assert.Zero(t, row.Stamp.Nanosecond(), "stamps are whole seconds")
		assert.Zero(t, row.Stamp.Second()%2, "stamps sit on period boundaries")

		require.Len(t, row.Values, 2)
		assert.InDelta(t, 2.5, row.Values[0], 1e-9) // 1.0*2.0 + 0.5
		assert.InDelta(t, 6.0, row.Values[1], 1e-9) // 1.0*1.0 + 5.0
	}

	// The log file holds the header and exactly the published rows.
	data, err := os.ReadFile(w.Filename(time.Now()))
	require.NoError(t, err)

	want := "time,Temp,AIN1\n"
	for _, row := range rows {
		want += row.Stamp.Format(time.RFC3339) + ",2.500000,6.000000\n"
	}
	assert.Equal(t, want, string(data))

	assert.Equal(t, "", w.CurrentFile(), "log file is closed after Run returns")
}

// TestMonitorRun_ReaderErrorIsFatal checks that a failing reader ends
// the run with an error before anything is written.
func TestMonitorRun_ReaderErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	reader := &fakeReader{value: 1.0, errAt: 1}
	w := newTestWriter(cfg)
	m := New(cfg, reader, w)

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquisition failed")
	assert.Contains(t, err.Error(), "simulated read failure")

	// Nothing was logged.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.Equal(t, "", w.CurrentFile())
}
