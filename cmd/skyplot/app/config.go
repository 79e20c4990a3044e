package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultWidth  = 1200
	defaultHeight = 600
)

type ImageFormat string

type Config struct {
	InputFile     string
	OutputFile    string
	Format        ImageFormat
	Width         int
	Height        int
	TimeZone      *time.Location
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		Width:    defaultWidth,
		Height:   defaultHeight,
		TimeZone: time.Local,
	}
}

func NewConfigFromCLI() (*Config, error) {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	c, err := parseConfig(fs, os.Args[1:])
	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, tz string
	fs.StringVar(&c.InputFile, "i", "", "Path to a CSV history export")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.IntVar(&c.Width, "width", defaultWidth, "Width of the plot area in pixels")
	fs.IntVar(&c.Height, "height", defaultHeight, "Height of the plot area in pixels")
	fs.StringVar(&tz, "tz", "", "Time zone for the time scale, e.g. Europe/London (default: local)")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as scales and the legend")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	var err error
	switch {
	case c.InputFile == "":
		err = errors.New("input file is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.Width < 100 || c.Height < 100:
		err = fmt.Errorf("plot area is too small: %dx%d", c.Width, c.Height)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		return nil, fmt.Errorf("invalid image format: %s", imageFormat)
	}

	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone: %w", err)
		}
		c.TimeZone = loc
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
