package publish

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Console echoes every averaged row to standard output.
type Console struct {
	w io.Writer
}

// NewConsole creates a console output writing to stdout.
func NewConsole() *Console {
	return &Console{w: os.Stdout}
}

// Publish prints one line per row: the window start stamp followed by
// the calibrated averages.
func (c *Console) Publish(row Row) error {
	values := make([]string, len(row.Values))
	for i, v := range row.Values {
		values[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}

	_, err := fmt.Fprintf(c.w, "Logged averages at %s: %s\n",
		row.Stamp.Format(time.RFC3339), strings.Join(values, ","))
	return err
}

// Close implements Output. There is nothing to release.
func (c *Console) Close() error { return nil }
