// Package sink writes a merged dataset as CSV.
package sink

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/GSA9429/Satellite-vectors/internal/propagation"
)

// ErrSink marks a failure to persist results that were computed successfully.
var ErrSink = errors.New("sink write failed")

// TimeLayout is the timestamp format of the time column, always in UTC.
const TimeLayout = "2006-01-02 15:04:05.000000"

// Header is the first record of every output file.
var Header = []string{"time", "P(x)", "P(y)", "P(z)", "V(x)", "V(y)", "V(z)", "Longitude", "Latitude", "Altitude"}

// Error reports a sink failure after a successful computation, so callers can
// tell the two apart.
type Error struct {
	Path string
	Rows int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("computation succeeded (%d rows) but writing %s failed: %v", e.Rows, e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrSink, e.Err}
}

// WriteCSV writes the header and one record per row, in order.
func WriteCSV(w io.Writer, rows []propagation.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	rec := make([]string, len(Header))
	for _, r := range rows {
		rec[0] = r.Time.UTC().Format(TimeLayout)
		rec[1] = formatFloat(r.State.Position[0])
		rec[2] = formatFloat(r.State.Position[1])
		rec[3] = formatFloat(r.State.Position[2])
		rec[4] = formatFloat(r.State.Velocity[0])
		rec[5] = formatFloat(r.State.Velocity[1])
		rec[6] = formatFloat(r.State.Velocity[2])
		rec[7] = formatFloat(r.Point.LonDeg)
		rec[8] = formatFloat(r.Point.LatDeg)
		rec[9] = formatFloat(r.Point.AltM)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path, replacing any existing file. The data goes
// to a temporary file in the same directory first, so a failed write never
// leaves a truncated CSV at path. Failures are returned as *Error.
func WriteFile(path string, rows []propagation.ResultRow) error {
	fail := func(err error) error {
		return &Error{Path: path, Rows: len(rows), Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err := WriteCSV(bw, rows); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fail(err)
	}
	return nil
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
