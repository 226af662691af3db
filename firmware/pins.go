//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Oversampling per READ request
	NUM_SAMPLES = 4 // Readings averaged per channel per response

	// Maximum channels a single READ command may request
	MAX_CHANNELS = 4

	// Serial configuration
	// Baud rate calculation: worst-case response "3.300000,3.300000,3.300000,3.300000\n"
	// = ~36 bytes per line. The host polls a few times per second at most,
	// so 115200 baud (11,520 bytes/sec) gives orders of magnitude of headroom.
	UART_BAUD_RATE = 115200
)

// ADC pins for channels AIN0..AIN3
var CHANNEL_PINS = [MAX_CHANNELS]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
}
