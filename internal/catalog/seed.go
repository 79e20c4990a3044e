package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/skytrack/internal/sky"
)

//go:embed objects.yaml
var defaultObjectsYAML []byte

type seedFile struct {
	Objects []sky.Object `yaml:"objects"`
}

// LoadYAML reads a seed file of the form "objects: [...]"
func LoadYAML(r io.Reader) ([]sky.Object, error) {
	var f seedFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding objects: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Objects))
	for i, o := range f.Objects {
		id := strings.TrimSpace(o.ID)
		if id == "" {
			return nil, fmt.Errorf("object %d: missing id", i+1)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("object %d: duplicate id '%s'", i+1, id)
		}
		if o.DecDegrees < -90 || o.DecDegrees > 90 {
			return nil, fmt.Errorf("object '%s': declination out of range", id)
		}
		if o.RAHours < 0 || o.RAHours >= 24 {
			return nil, fmt.Errorf("object '%s': right ascension out of range", id)
		}
		seen[id] = struct{}{}
		f.Objects[i].ID = id
	}

	return f.Objects, nil
}

// DefaultObjects returns the built-in seed: the bright navigational stars,
// a few showpiece deep sky objects, the planets and the Moon
func DefaultObjects() []sky.Object {
	objects, err := LoadYAML(bytes.NewReader(defaultObjectsYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded objects.yaml: %s", err.Error()))
	}
	return objects
}
