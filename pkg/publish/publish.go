package publish

import (
	"time"

	"github.com/itohio/godaq/pkg/config"
)

// Row is one averaged record headed for the secondary outputs.
type Row struct {
	Stamp    time.Time
	Channels []config.Channel
	Values   []float64
}

// Output defines the interface for secondary row sinks. The CSV log is
// the canonical record; a failing Output must not stop acquisition.
type Output interface {
	Publish(Row) error
	Close() error
}

// Ensure Console implements Output.
var _ Output = (*Console)(nil)

// Ensure MQTT implements Output.
var _ Output = (*MQTT)(nil)
