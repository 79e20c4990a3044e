// Package export writes tracking history to CSV or JSON files.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roman-kulish/skytrack/internal/tracking"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// fileMode is applied to exports; temporary files start as 0600
const fileMode os.FileMode = 0o644

var ErrUnknownFormat = errors.New("unknown format")

// Source provides the samples to export, oldest first
type Source interface {
	Samples(options ...tracking.QueryOption) []tracking.PositionSample
}

// WithLogger sets the logger for the exporter
func WithLogger(logger *slog.Logger) func(e *Exporter) {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithClock replaces time.Now as the source of the export time
func WithClock(now func() time.Time) func(e *Exporter) {
	return func(e *Exporter) {
		e.now = now
	}
}

// Exporter snapshots a history source into a file
type Exporter struct {
	src    Source
	now    func() time.Time
	logger *slog.Logger
}

func New(src Source, options ...func(e *Exporter)) *Exporter {
	e := Exporter{
		src:    src,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&e)
	}

	return &e
}

// Export writes the current history to path in the given format and reports
// the outcome as a status flag and a message for the user. It never returns
// an error: an empty history, an unknown format or an IO failure all yield
// false and leave no file behind.
func (e *Exporter) Export(path, format string) (bool, string) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatCSV && format != FormatJSON {
		return false, fmt.Sprintf("Unknown format: %s", format)
	}

	samples := e.src.Samples()
	if len(samples) == 0 {
		return false, "No history to export"
	}

	exportTime := e.now()
	err := writeFile(path, func(w io.Writer) error {
		if format == FormatCSV {
			return WriteCSV(w, samples)
		}
		return WriteJSON(w, samples, exportTime)
	})
	if err != nil {
		e.logger.Error(fmt.Sprintf("error exporting history: %s", err.Error()), slog.String("path", path))
		return false, fmt.Sprintf("Export failed: %s", err.Error())
	}

	e.logger.Info("history exported",
		slog.String("path", path),
		slog.String("format", format),
		slog.Int("count", len(samples)),
	)
	return true, fmt.Sprintf("Exported %d positions to %s", len(samples), path)
}

// writeFile writes to a temporary file next to path and renames it into place
func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Chmod(fileMode); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("syncing file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}
	return nil
}
