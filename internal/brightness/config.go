package brightness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects the patch traversal strategy.
type Mode string

const (
	ModeRandom Mode = "RANDOM"
	ModeRaster Mode = "RASTER"
	ModeBoth   Mode = "BOTH"
)

// ParseMode maps a case-insensitive mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeRandom, ModeRaster, ModeBoth:
		return m, nil
	}
	return "", &ConfigError{
		Field:  "mode",
		Value:  s,
		Reason: "unsupported scan mode, allowed modes: RANDOM, RASTER, BOTH",
	}
}

// UnmarshalYAML accepts mode names in any case.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ConfigError reports an invalid configuration value. It is returned before
// any image data is touched.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("brightness: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// DampingConfig shapes the damping schedule.
type DampingConfig struct {
	// Floor is the damping applied to the first corrected patch of a pass.
	Floor float64 `yaml:"floor"`

	// Ceiling is the value the damping saturates toward.
	Ceiling float64 `yaml:"ceiling"`

	// RampFraction m puts the floor/ceiling midpoint at RandomSamples/m
	// corrections.
	RampFraction float64 `yaml:"ramp_fraction"`
}

// SearchConfig controls the adaptive patch-size search.
type SearchConfig struct {
	StartFactor float64 `yaml:"start_factor"`
	Growth      float64 `yaml:"growth"`
	MaxFactor   float64 `yaml:"max_factor"`
	Samples     int     `yaml:"samples"`

	// PatchWidth and PatchHeight skip the search when both are positive.
	PatchWidth  int `yaml:"patch_width"`
	PatchHeight int `yaml:"patch_height"`
}

// Config holds every tunable of the equalizer.
type Config struct {
	Mode                Mode          `yaml:"mode"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	DifferenceThreshold float64       `yaml:"difference_threshold"`
	RandomSamples       int           `yaml:"random_samples"`
	BrightenOnly        bool          `yaml:"brighten_only"`
	Damping             DampingConfig `yaml:"damping"`
	Search              SearchConfig  `yaml:"search"`
	Seed                uint64        `yaml:"seed"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeRandom,
		SimilarityThreshold: 7.5,
		DifferenceThreshold: 0.0,
		RandomSamples:       10000,
		BrightenOnly:        false,
		Damping: DampingConfig{
			Floor:        0.1,
			Ceiling:      0.8,
			RampFraction: 5,
		},
		Search: SearchConfig{
			StartFactor: 1.1,
			Growth:      1.02,
			MaxFactor:   16,
			Samples:     1000,
		},
		Seed: 1,
	}
}

// Validate checks every field and returns the first problem as a
// *ConfigError.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}

	bad := func(field string, v any, reason string) error {
		return &ConfigError{Field: field, Value: fmt.Sprint(v), Reason: reason}
	}

	switch {
	case !finite(c.SimilarityThreshold) || c.SimilarityThreshold < 0:
		return bad("similarity_threshold", c.SimilarityThreshold, "must be a finite value >= 0")
	case c.SimilarityThreshold >= MaxSimilarity:
		return bad("similarity_threshold", c.SimilarityThreshold,
			fmt.Sprintf("must be below the similarity ceiling %.4f", MaxSimilarity))
	case !finite(c.DifferenceThreshold) || c.DifferenceThreshold < 0:
		return bad("difference_threshold", c.DifferenceThreshold, "must be a finite value >= 0")
	case c.RandomSamples <= 0:
		return bad("random_samples", c.RandomSamples, "must be positive")
	case !finite(c.Damping.Floor) || c.Damping.Floor < 0:
		return bad("damping.floor", c.Damping.Floor, "must be >= 0")
	case !finite(c.Damping.Ceiling) || c.Damping.Ceiling < c.Damping.Floor || c.Damping.Ceiling > 1:
		return bad("damping.ceiling", c.Damping.Ceiling, "must lie between the floor and 1")
	case !finite(c.Damping.RampFraction) || c.Damping.RampFraction <= 0:
		return bad("damping.ramp_fraction", c.Damping.RampFraction, "must be positive")
	case !finite(c.Search.StartFactor) || c.Search.StartFactor < 1:
		return bad("search.start_factor", c.Search.StartFactor, "must be >= 1")
	case !finite(c.Search.Growth) || c.Search.Growth <= 1:
		return bad("search.growth", c.Search.Growth, "must be > 1")
	case !finite(c.Search.MaxFactor) || c.Search.MaxFactor < c.Search.StartFactor:
		return bad("search.max_factor", c.Search.MaxFactor, "must be >= start_factor")
	case c.Search.Samples <= 0:
		return bad("search.samples", c.Search.Samples, "must be positive")
	case c.Search.PatchWidth < 0 || c.Search.PatchHeight < 0:
		return bad("search.patch_width", fmt.Sprintf("%dx%d", c.Search.PatchWidth, c.Search.PatchHeight),
			"fixed patch size must not be negative")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the
// result. Fields missing from the file keep their defaults; unknown keys are
// an error.
//
// Example:
//
//	mode: both
//	similarity_threshold: 5.5
//	random_samples: 100000
//	damping:
//	  floor: 0.01
//	  ceiling: 1.0
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	contents, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse config %q: %w", path, err)
	}
	return c, c.Validate()
}
