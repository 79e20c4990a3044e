// Package indi reads a telescope's position from an INDI server using the
// indi_getprop command line client.
package indi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/roman-kulish/skytrack/internal/mount"
)

const Runtime = "indi_getprop"

const (
	propRA      = "EQUATORIAL_EOD_COORD.RA"
	propDec     = "EQUATORIAL_EOD_COORD.DEC"
	propAlt     = "HORIZONTAL_COORD.ALT"
	propAz      = "HORIZONTAL_COORD.AZ"
	propEqState = "EQUATORIAL_EOD_COORD._STATE"
)

var ErrUnknownState = errors.New("unknown property state")

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// WithLogger sets the logger for the link
func WithLogger(logger *slog.Logger) func(l *Link) {
	return func(l *Link) {
		l.logger = logger.With(slog.String("device", l.config.Device))
	}
}

// Link is a mount.Link backed by an INDI server. Every call runs one
// indi_getprop process; it keeps no connection open.
type Link struct {
	binPath string
	config  Config
	command commandFunc
	logger  *slog.Logger
}

// New creates a link for config, locating the indi_getprop binary
func New(config *Config, options ...func(l *Link)) (*Link, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	binPath, err := FindRuntime(Runtime)
	if err != nil {
		return nil, fmt.Errorf("error finding runtime: %w", err)
	}

	return newLink(binPath, *config, exec.CommandContext, options...), nil
}

func newLink(binPath string, config Config, command commandFunc, options ...func(l *Link)) *Link {
	l := Link{
		binPath: binPath,
		config:  config,
		command: command,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

func (l *Link) PositionRADec(ctx context.Context) (mount.RADec, error) {
	const op = "position ra/dec"

	values, err := l.getNumbers(ctx, op, propRA, propDec)
	if err != nil {
		return mount.RADec{}, err
	}
	return mount.RADec{RAHours: values[0], DecDegrees: values[1]}, nil
}

func (l *Link) PositionAltAz(ctx context.Context) (mount.AltAz, error) {
	const op = "position alt/az"

	values, err := l.getNumbers(ctx, op, propAlt, propAz)
	if err != nil {
		return mount.AltAz{}, err
	}
	return mount.AltAz{AltDegrees: values[0], AzDegrees: values[1]}, nil
}

// IsSlewing reports whether the equatorial coordinate property is Busy,
// which INDI drivers use while a GOTO is in progress
func (l *Link) IsSlewing(ctx context.Context) (bool, error) {
	const op = "slewing state"

	props, err := l.get(ctx, op, propEqState)
	if err != nil {
		return false, err
	}

	switch state := props[propEqState]; state {
	case "Busy":
		return true, nil
	case "Idle", "Ok":
		return false, nil
	case "Alert":
		return false, mount.NewTransportError(op, errors.New("driver reports alert state"))
	default:
		return false, mount.NewTransportError(op, fmt.Errorf("%w: '%s'", ErrUnknownState, state))
	}
}

func (l *Link) getNumbers(ctx context.Context, op string, names ...string) ([]float64, error) {
	props, err := l.get(ctx, op, names...)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(names))
	for i, name := range names {
		values[i], err = strconv.ParseFloat(props[name], 64)
		if err != nil {
			return nil, mount.NewTransportError(op, fmt.Errorf("invalid %s: %w", name, err))
		}
	}
	return values, nil
}

// get runs indi_getprop and returns the requested properties keyed by
// name without the device prefix
func (l *Link) get(ctx context.Context, op string, names ...string) (map[string]string, error) {
	args, err := l.config.Args(names...)
	if err != nil {
		return nil, mount.NewTransportError(op, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := l.command(ctx, l.binPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			l.logger.Warn(fmt.Sprintf("%s >> %s", Runtime, msg))
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, mount.NewTransportError(op, err)
	}

	props, err := parseProperties(&stdout, l.config.Device)
	if err != nil {
		return nil, mount.NewTransportError(op, err)
	}
	for _, name := range names {
		if _, ok := props[name]; !ok {
			return nil, mount.NewTransportError(op, fmt.Errorf("property %s.%s missing from reply", l.config.Device, name))
		}
	}
	return props, nil
}

// parseProperties parses "Device.PROPERTY.ELEMENT=value" lines. Lines of
// other devices are ignored.
func parseProperties(r io.Reader, device string) (map[string]string, error) {
	props := make(map[string]string)
	prefix := device + "."

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid %s output: %q", Runtime, line)
		}
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		props[strings.TrimPrefix(key, prefix)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s output: %w", Runtime, err)
	}

	return props, nil
}
