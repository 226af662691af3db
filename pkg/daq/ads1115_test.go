package daq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelMux(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    byte
		wantErr bool
	}{
		{name: "AIN0", channel: "AIN0", want: 0x4},
		{name: "AIN1", channel: "AIN1", want: 0x5},
		{name: "AIN2", channel: "AIN2", want: 0x6},
		{name: "AIN3", channel: "AIN3", want: 0x7},
		{name: "short alias", channel: "A0", want: 0x4},
		{name: "lowercase", channel: "ain2", want: 0x6},
		{name: "out of range", channel: "AIN4", wantErr: true},
		{name: "unrelated name", channel: "FIO4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := channelMux(tt.channel)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConversionConfig(t *testing.T) {
	// AIN0 at 128 SPS, ±4.096V, single-shot: 0xC383.
	msb, lsb := conversionConfig(0x4)
	assert.Equal(t, byte(0xC3), msb)
	assert.Equal(t, byte(0x83), lsb)

	// AIN1 only changes the mux bits.
	msb, lsb = conversionConfig(0x5)
	assert.Equal(t, byte(0xD3), msb)
	assert.Equal(t, byte(0x83), lsb)

	msb, lsb = conversionConfig(0x7)
	assert.Equal(t, byte(0xF3), msb)
	assert.Equal(t, byte(0x83), lsb)
}

func TestVolts(t *testing.T) {
	tests := []struct {
		name string
		raw  int16
		want float64
	}{
		{name: "zero", raw: 0, want: 0.0},
		{name: "positive full scale", raw: 32767, want: 4.09587},
		{name: "negative full scale", raw: -32768, want: -4.096},
		{name: "half scale", raw: 16384, want: 2.048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, volts(tt.raw), 0.0001)
		})
	}
}

func TestADS1115Close_NotConnected(t *testing.T) {
	a := &ADS1115{}
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestADS1115Read_NotConnected(t *testing.T) {
	a := &ADS1115{}
	_, err := a.Read([]string{"AIN0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
