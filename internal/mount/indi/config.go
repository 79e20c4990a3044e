package indi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 7624
	DefaultTimeout = 2 * time.Second
)

// Duration is a time.Duration that reads and writes as "2s", "500ms"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("indi.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("indi.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config locates the INDI server and the telescope driver on it
type Config struct {
	Host    string   `yaml:"host" json:"host" default:"localhost"` // -h INDI server host (default: localhost)
	Port    int      `yaml:"port" json:"port" default:"7624"`      // -p INDI server port (default: 7624)
	Device  string   `yaml:"device" json:"device"`                 // Telescope device name, e.g. "Telescope Simulator"
	Timeout Duration `yaml:"timeout" json:"timeout"`               // -t seconds to wait for the server (default: 2s)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("indi.Config: host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("indi.Config: invalid port: %d", c.Port)
	}
	if strings.TrimSpace(c.Device) == "" {
		return fmt.Errorf("indi.Config: device must not be empty")
	}
	if strings.ContainsAny(c.Device, ".=") {
		return fmt.Errorf("indi.Config: device name must not contain '.' or '=': %s", c.Device)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("indi.Config: timeout must not be negative: %s", time.Duration(c.Timeout))
	}
	return nil
}

// Args returns the `indi_getprop` arguments that read the given properties
func (c *Config) Args(properties ...string) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Timeout)
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	seconds := int((timeout + time.Second - 1) / time.Second) // indi_getprop takes whole seconds

	args := []string{
		"-h", c.Host,
		"-p", strconv.Itoa(c.Port),
		"-t", strconv.Itoa(seconds),
	}
	for _, p := range properties {
		args = append(args, c.Device+"."+p)
	}
	return args, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("%s@%s:%d", c.Device, c.Host, c.Port)
}
