package daq

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for XIAO SAMD21.
	DefaultBaudRate = 115200
	// responseTimeout bounds the wait for a reply to a READ command.
	responseTimeout = 2 * time.Second
	// maxResponseLen bounds a single response line.
	maxResponseLen = 1024
)

// Serial reads channels from an MCU bridge over a serial port.
// The protocol is line-oriented: the host sends "READ AIN0,AIN1\n" and
// the MCU answers with one comma-separated value per channel, or with
// "ERR <message>" on failure.
type Serial struct {
	port     string
	baudRate int

	conn serial.Port
	mu   sync.Mutex
}

// NewSerial opens a connection to the MCU on the given port. An empty
// port name scans the available serial ports and uses the first one
// that opens; a named port that fails to open falls back to the same
// scan.
func NewSerial(port string, baudRate int) (*Serial, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{BaudRate: baudRate}

	if port != "" {
		conn, err := serial.Open(port, mode)
		if err == nil {
			return newSerial(port, baudRate, conn)
		}
		log.Printf("Failed to open serial port %s: %v", port, err)
		log.Printf("Retrying with any available port...")
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	for _, name := range ports {
		conn, err := serial.Open(name, mode)
		if err != nil {
			continue
		}
		log.Printf("Using serial port %s", name)
		return newSerial(name, baudRate, conn)
	}

	return nil, fmt.Errorf("no usable serial port found")
}

func newSerial(port string, baudRate int, conn serial.Port) (*Serial, error) {
	// Short port timeout so readLine can poll its own deadline.
	if err := conn.SetReadTimeout(100 * time.Millisecond); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", port, err)
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		conn:     conn,
	}, nil
}

// Read requests the given channels from the MCU and parses the reply.
func (s *Serial) Read(channels []string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	cmd := buildReadCommand(channels)
	if _, err := s.conn.Write([]byte(cmd)); err != nil {
		return nil, fmt.Errorf("failed to send read command: %w", err)
	}

	line, err := s.readLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", s.port, err)
	}

	return parseResponse(line, len(channels))
}

// Close closes the serial port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", s.port, err)
	}

	return nil
}

// readLine accumulates bytes from the port until a newline arrives or
// the response timeout expires. The port itself is opened with a short
// read timeout, so each Read call returns promptly with zero bytes when
// the MCU stays silent.
func (s *Serial) readLine() (string, error) {
	var buf []byte
	tmp := make([]byte, 64)
	deadline := time.Now().Add(responseTimeout)

	for {
		n, err := s.conn.Read(tmp)
		if err != nil {
			return "", err
		}
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if i := bytes.IndexByte(buf, '\n'); i >= 0 {
				return string(buf[:i]), nil
			}
			if len(buf) > maxResponseLen {
				return "", fmt.Errorf("response exceeds %d bytes", maxResponseLen)
			}
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("timed out waiting for response")
		}
	}
}

// buildReadCommand formats the READ command for a set of channels.
// Example: "READ AIN0,AIN1\n"
func buildReadCommand(channels []string) string {
	return "READ " + strings.Join(channels, ",") + "\n"
}

// parseResponse parses an MCU reply into one voltage per channel.
// Format: comma-separated decimal values, e.g. "1.234567,2.345678".
// A reply starting with "ERR" carries a device-side error message.
func parseResponse(line string, want int) ([]float64, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(line, "ERR") {
		msg := strings.TrimSpace(strings.TrimPrefix(line, "ERR"))
		return nil, fmt.Errorf("device error: %s", msg)
	}

	parts := strings.Split(line, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("invalid response: expected %d values, got %d", want, len(parts))
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		values[i] = v
	}

	return values, nil
}
