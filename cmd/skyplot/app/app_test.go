package app

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/skytrack/internal/export"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeHistory(t *testing.T, n int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, driftingSamples(n, 12)); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "session.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	config := NewConfig()
	config.InputFile = writeHistory(t, 120)
	config.OutputFile = filepath.Join(t.TempDir(), "drift.png")
	config.Width, config.Height = 320, 160
	config.TimeZone = time.UTC

	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := os.Open(config.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 320+defaultLeftBorder+defaultRightBorder || cfg.Height != 160+defaultTopBorder+defaultBottomBorder {
		t.Errorf("image is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestRunJPEG(t *testing.T) {
	config := NewConfig()
	config.InputFile = writeHistory(t, 30)
	config.OutputFile = filepath.Join(t.TempDir(), "drift.jpeg")
	config.Format = ImageJPEG

	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st, err := os.Stat(config.OutputFile); err != nil || st.Size() == 0 {
		t.Errorf("no JPEG written: %v", err)
	}
}

func TestRunErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	headerOnly := writeHistory(t, 0)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing", filepath.Join(t.TempDir(), "nope.csv"), "does not exist"},
		{"empty file", empty, "reading"},
		{"no samples", headerOnly, "no samples to plot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig()
			config.InputFile = tt.input
			config.OutputFile = filepath.Join(t.TempDir(), "out.png")

			err := Run(context.Background(), config, testLogger())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Run() error = %v, want %q", err, tt.want)
			}
		})
	}
}
