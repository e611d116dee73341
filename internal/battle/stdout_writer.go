// Writer implementation printing battle events to STDOUT as JSON lines.
package battle

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutWriter prints event and score rows as JSON to STDOUT.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

// WriteEvent outputs a single event row.
func (w *StdoutWriter) WriteEvent(row EventRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteEvents outputs multiple event rows.
func (w *StdoutWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteScore outputs a score row.
func (w *StdoutWriter) WriteScore(row ScoreRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}
