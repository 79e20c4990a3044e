package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/skytrack/internal/mount/indi"
	"github.com/roman-kulish/skytrack/internal/sky"
)

const (
	MountTypeSim  MountType = "sim"
	MountTypeINDI MountType = "indi"
)

type MountType string

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Mount     MountConfig     `yaml:"mount"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Observer  ObserverConfig  `yaml:"observer"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Alignment AlignmentConfig `yaml:"alignment"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Export    ExportConfig    `yaml:"export"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" default:"info" validate:"oneof=debug info warn error"`
	ID       string `yaml:"id" default:"main" validate:"required"`
}

// Level returns the configured log level
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// MountConfig selects and configures the telescope connection
type MountConfig struct {
	Type MountType   `yaml:"type" default:"sim" validate:"oneof=sim indi"`
	Sim  SimConfig   `yaml:"sim"`
	INDI indi.Config `yaml:"indi"`
}

// SimConfig configures the simulated mount
type SimConfig struct {
	RAHours    float64 `yaml:"ra" validate:"gte=0,lt=24"`
	DecDegrees float64 `yaml:"dec" validate:"gte=-90,lte=90"`
	DriftRA    float64 `yaml:"driftRA"`  // arcsec per second
	DriftDec   float64 `yaml:"driftDec"` // arcsec per second
}

// TrackingConfig represents the sampling loop settings
type TrackingConfig struct {
	Interval        float64       `yaml:"interval" default:"1" validate:"gte=0.5,lte=30"`
	AlertThreshold  float64       `yaml:"alertThreshold" default:"0.5" validate:"gte=0.1,lte=20"`
	HistoryCapacity int           `yaml:"historyCapacity" default:"3600" validate:"gte=1"`
	LinkTimeout     time.Duration `yaml:"linkTimeout" default:"5s" validate:"gt=0"`
}

// ObserverConfig is the observing site
type ObserverConfig struct {
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
	Elevation float64 `yaml:"elevation"`
}

func (c ObserverConfig) Observer() sky.Observer {
	return sky.Observer{LatDeg: c.Latitude, LonDeg: c.Longitude, ElevationM: c.Elevation}
}

// CatalogConfig represents the reference object catalog
type CatalogConfig struct {
	Path     string `yaml:"path" default:"skytrack.sqlite" validate:"required"`
	Seed     bool   `yaml:"seed" default:"true"`
	SeedFile string `yaml:"seedFile"` // extra objects in YAML, loaded after the built-in set
}

// AlignmentConfig represents SkyAlign suggestion settings
type AlignmentConfig struct {
	Enabled          bool               `yaml:"enabled" default:"true"`
	MagnitudeCeiling float64            `yaml:"magnitudeCeiling" default:"2.5" validate:"lte=6"`
	MaxCandidates    int                `yaml:"maxCandidates" default:"20" validate:"gte=3"`
	MaxGroups        int                `yaml:"maxGroups" default:"5" validate:"gte=1"`
	Visibility       sky.AssessorConfig `yaml:"visibility"`
}

// MetricsConfig represents the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen" default:":9108" validate:"required_if=Enabled true"`
}

// ExportConfig controls the history export written on shutdown
type ExportConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format" default:"csv" validate:"oneof=csv json"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadConfig reads a YAML configuration file, applies defaults and validates it
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML configuration. Defaults are set first so explicit
// zero values in the document are kept.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return translate(err)
	}
	if c.Mount.Type == MountTypeINDI {
		if err := c.Mount.INDI.Validate(); err != nil {
			return err
		}
	}
	if c.Alignment.Enabled {
		if err := c.Alignment.Visibility.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func translate(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := make([]error, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, errors.New(message(e)))
	}
	return errors.Join(errs...)
}

func message(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
