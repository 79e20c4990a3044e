package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/skytrack/internal/export"
	"github.com/roman-kulish/skytrack/internal/tracking"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	samples, err := readHistory(config.InputFile)
	if err != nil {
		return err
	}

	series, err := NewDriftSeries(samples)
	if err != nil {
		return fmt.Errorf("reading '%s': %w", config.InputFile, err)
	}

	last := series.Last()
	logger.Info("finished reading samples",
		slog.Group("stats",
			slog.String("count", humanize.Comma(int64(len(series.Points)))),
			slog.String("start", series.Start.In(config.TimeZone).Format(time.DateTime)),
			slog.String("end", series.End.In(config.TimeZone).Format(time.DateTime)),
			slog.String("raDrift", formatArcsec(last.RAArcsec)),
			slog.String("decDrift", formatArcsec(last.DecArcsec)),
		))

	if err = ctx.Err(); err != nil {
		return err
	}

	renderer, err := NewDriftRenderer(RenderConfig{
		Width:         config.Width,
		Height:        config.Height,
		Location:      config.TimeZone,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating drift renderer: %w", err)
	}

	logger.Info("rendering drift chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	img, err := renderer.Render(series)
	if err != nil {
		return fmt.Errorf("rendering drift chart: %w", err)
	}

	return writeImage(config.OutputFile, config.Format, img)
}

func readHistory(path string) ([]tracking.PositionSample, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("history file '%s' does not exist: %w", path, err)
		}
		return nil, err
	}
	defer f.Close()

	samples, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading '%s': %w", path, err)
	}
	return samples, nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	switch format {
	case ImagePNG:
		return png.Encode(out, img)
	case ImageJPEG:
		return jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	default:
		return fmt.Errorf("invalid image format: %s", format)
	}
}
