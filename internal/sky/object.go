// Package sky models the sky as seen from an observing site: catalog objects,
// sidereal time, equatorial to horizontal conversion, a low precision
// ephemeris for the Sun, Moon and planets, and visibility assessment.
package sky

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Star Kind = iota
	DoubleStar
	Planet
	Moon
	Cluster
	Nebula
	Galaxy
)

var kindNames = map[Kind]string{
	Star:       "star",
	DoubleStar: "double-star",
	Planet:     "planet",
	Moon:       "moon",
	Cluster:    "cluster",
	Nebula:     "nebula",
	Galaxy:     "galaxy",
}

// Kind is the type of a catalog object
type Kind int

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Dynamic reports whether the object moves against the fixed stars and
// needs its position computed for the observation time.
func (k Kind) Dynamic() bool {
	return k == Planet || k == Moon
}

// ParseKind parses a kind name as produced by Kind.String
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sky.Kind: unknown kind '%s'", s)
}

func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseKind(value.Value)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Object is a catalog entry. Dynamic objects carry placeholder coordinates
// until located for a given time.
type Object struct {
	ID         string  `yaml:"id" json:"id"`                 // Stable identifier, e.g. "sirius"
	Name       string  `yaml:"name" json:"name"`             // Display name
	Kind       Kind    `yaml:"kind" json:"kind"`             // Object type
	RAHours    float64 `yaml:"raHours" json:"raHours"`       // J2000 right ascension in hours
	DecDegrees float64 `yaml:"decDegrees" json:"decDegrees"` // J2000 declination in degrees
	Magnitude  float64 `yaml:"magnitude" json:"magnitude"`   // Apparent visual magnitude
}

// DisplayName returns Name, falling back to ID
func (o Object) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

// Observer is a ground observing site
type Observer struct {
	LatDeg     float64 `yaml:"latitude" json:"latitude"`   // Geodetic latitude, north positive
	LonDeg     float64 `yaml:"longitude" json:"longitude"` // Longitude, east positive
	ElevationM float64 `yaml:"elevation" json:"elevation"` // Height above sea level in meters
}
