//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	uart = machine.UART0

	// One ADC per exposed channel, configured at startup
	adcs [MAX_CHANNELS]machine.ADC

	// Serial buffer for reading command lines
	serialBuffer [64]byte
	serialPos    int
	overflowed   bool
)

func main() {
	// Configure ADC pins and set up ADCs with highest resolution
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}

	for i, pin := range CHANNEL_PINS {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}

	// Configure UART for the READ command protocol
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Main loop: wait for commands, answer them
	for {
		processSerial()

		// Small delay to prevent tight loop
		time.Sleep(100 * time.Microsecond)
	}
}

func processSerial() {
	// Read available bytes from serial
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		// Check for newline (end of line)
		if data == '\n' || data == '\r' {
			if serialPos > 0 && !overflowed {
				handleCommand(serialBuffer[:serialPos])
			}
			// Reset buffer regardless of length
			serialPos = 0
			overflowed = false
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			// Too long to be a valid command - drop until newline
			overflowed = true
		}
	}
}

// handleCommand answers one complete line from the host.
// The only command is "READ <ch>[,<ch>...]", answered with one
// comma-separated voltage per channel, 6 decimals, or "ERR <message>".
func handleCommand(line []byte) {
	if len(line) < 5 || string(line[:5]) != "READ " {
		print("ERR unknown command\n")
		return
	}

	// Resolve every channel before answering so a bad name never
	// produces a partial response line.
	args := line[5:]
	var indices [MAX_CHANNELS]int
	count := 0

	for start := 0; start <= len(args); count++ {
		end := start
		for end < len(args) && args[end] != ',' {
			end++
		}

		if count >= MAX_CHANNELS {
			print("ERR too many channels\n")
			return
		}

		idx := channelIndex(args[start:end])
		if idx < 0 {
			print("ERR unknown channel ")
			print(string(args[start:end]))
			print("\n")
			return
		}

		indices[count] = idx
		start = end + 1
	}

	for i := 0; i < count; i++ {
		if i > 0 {
			print(",")
		}
		printVolts(readChannel(indices[i]))
	}
	print("\n")
}

// channelIndex maps "AIN0".."AIN3" (or "A0".."A3") to a pin index,
// or -1 for anything else.
func channelIndex(name []byte) int {
	if len(name) == 4 && name[0] == 'A' && name[1] == 'I' && name[2] == 'N' {
		name = name[3:]
	} else if len(name) == 2 && name[0] == 'A' {
		name = name[1:]
	}

	if len(name) != 1 || name[0] < '0' || name[0] > byte('0'+MAX_CHANNELS-1) {
		return -1
	}

	return int(name[0] - '0')
}

// readChannel oversamples one ADC and returns the averaged raw reading.
func readChannel(idx int) uint16 {
	var sum uint32
	for range NUM_SAMPLES {
		sum += uint32(adcs[idx].Get())
	}
	return uint16(sum / NUM_SAMPLES)
}

// printVolts writes a raw 16-bit ADC reading as volts with exactly
// 6 decimal digits. Integer math only: the reading is scaled to
// microvolts against the full 16-bit range Get() reports.
func printVolts(raw uint16) {
	microvolts := uint64(raw) * ADC_REFERENCE_MV * 1000 / 65535

	print(microvolts / 1000000)
	print(".")

	frac := microvolts % 1000000
	for div := uint64(100000); div >= 1; div /= 10 {
		print(frac / div % 10)
	}
}
