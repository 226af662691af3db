package logfile

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer appends averaged rows to daily CSV files. Files are named
// "{project}_{YYYY-MM-DD}.csv" and rotate when the date in the name
// changes: the old file is closed before the new one is opened. A
// header row is written only when the file did not already exist, so
// a restart on the same day appends below the existing data.
//
// Every row is flushed and synced to disk as soon as it is written.
type Writer struct {
	dir     string
	project string
	labels  []string

	// now is the clock used to pick the active file.
	now func() time.Time

	name string
	f    *os.File
	cw   *csv.Writer
}

// New creates a Writer that logs under dir. The first file is opened
// lazily on the first WriteRow call.
func New(dir, project string, labels []string) *Writer {
	return &Writer{
		dir:     dir,
		project: project,
		labels:  labels,
		now:     time.Now,
	}
}

// Filename returns the log file path for the given date.
func (w *Writer) Filename(t time.Time) string {
	name := fmt.Sprintf("%s_%s.csv", w.project, t.Format("2006-01-02"))
	return filepath.Join(w.dir, name)
}

// CurrentFile returns the path of the open log file, or "" before the
// first write.
func (w *Writer) CurrentFile() string {
	return w.name
}

// WriteRow appends one averaged row, rotating to a new file first if
// the current date calls for a different filename. The stamp records
// the scheduled start of the averaging window, not the write time.
func (w *Writer) WriteRow(stamp time.Time, values []float64) error {
	target := w.Filename(w.now())
	if w.f == nil || w.name != target {
		if err := w.rotate(target); err != nil {
			return err
		}
	}

	record := make([]string, 0, len(values)+1)
	record = append(record, stamp.Format(time.RFC3339))
	for _, v := range values {
		record = append(record, strconv.FormatFloat(v, 'f', 6, 64))
	}

	if err := w.cw.Write(record); err != nil {
		return fmt.Errorf("failed to write row to %s: %w", w.name, err)
	}

	return w.flush()
}

// Close flushes and closes the current log file. It is safe to call
// multiple times.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}

	flushErr := w.flush()

	err := w.f.Close()
	w.f = nil
	w.cw = nil
	w.name = ""

	if flushErr != nil {
		return flushErr
	}
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	return nil
}

// rotate closes the current file, then opens target for append,
// writing the header row when the file is new.
func (w *Writer) rotate(target string) error {
	if w.f != nil {
		if err := w.Close(); err != nil {
			return err
		}
	}

	if w.dir != "" && w.dir != "." {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", w.dir, err)
		}
	}

	_, err := os.Stat(target)
	existed := err == nil

	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", target, err)
	}

	w.f = f
	w.cw = csv.NewWriter(f)
	w.name = target

	log.Printf("Logging to %s", target)

	if !existed {
		header := append([]string{"time"}, w.labels...)
		if err := w.cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", target, err)
		}
		if err := w.flush(); err != nil {
			return err
		}
	}

	return nil
}

// flush pushes buffered rows through to the OS and on to disk.
func (w *Writer) flush() error {
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", w.name, err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", w.name, err)
	}
	return nil
}
