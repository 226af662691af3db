package publish

import (
	"bytes"
	"testing"
	"time"

	"github.com/itohio/godaq/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePublish(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{w: &buf}
	defer c.Close()

	row := Row{
		Stamp: time.Date(2026, 8, 23, 14, 30, 45, 0, time.UTC),
		Channels: []config.Channel{
			{Name: "AIN0", Label: "Cooling Water Temp"},
			{Name: "AIN1", Label: "Pressure"},
		},
		Values: []float64{1.234567, -0.5},
	}

	require.NoError(t, c.Publish(row))
	assert.Equal(t, "Logged averages at 2026-08-23T14:30:45Z: 1.234567,-0.500000\n", buf.String())
}

func TestConsolePublish_NoChannels(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{w: &buf}

	row := Row{Stamp: time.Date(2026, 8, 23, 14, 30, 45, 0, time.UTC)}
	require.NoError(t, c.Publish(row))
	assert.Equal(t, "Logged averages at 2026-08-23T14:30:45Z: \n", buf.String())
}

func TestNewConsole(t *testing.T) {
	c := NewConsole()
	require.NotNil(t, c)
	assert.NotNil(t, c.w)
	assert.NoError(t, c.Close())
}
