// Package experiment orchestrates memory-experiment sweeps: manifest
// loading, parallel circuit synthesis, decoding through a pluggable
// boundary, CSV persistence and an artifact cache.
package experiment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"machq/internal/code"
	"machq/internal/noise"
)

// ManifestName is the file the sweep command looks for.
const ManifestName = "machq.toml"

// ErrBadBasis reports a logical memory basis other than X or Z.
var ErrBadBasis = errors.New("memory basis must be \"x\" or \"z\"")

// Manifest is a located and validated machq.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the TOML layout of machq.toml.
type Config struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Sweep      SweepConfig      `toml:"sweep"`
}

// ExperimentConfig fixes everything a sweep holds constant.
type ExperimentConfig struct {
	Name    string `toml:"name"`
	Code    string `toml:"code"`
	Memory  string `toml:"memory"`
	Profile string `toml:"profile"`
	Shots   int    `toml:"shots"`
	Batches int    `toml:"batches"`
}

// SweepConfig spans the swept axes. Distances apply to both logical
// distances; Rounds zero means one round per unit of distance.
type SweepConfig struct {
	Distances []int     `toml:"distances"`
	Rates     []float64 `toml:"rates"`
	Rounds    int       `toml:"rounds"`
	Output    string    `toml:"output"`
}

// FindManifest walks up from startDir to locate machq.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest locates machq.toml starting at startDir and parses it.
// ok is false when no manifest exists anywhere up the tree.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig parses and validates a manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("experiment") {
		return Config{}, fmt.Errorf("%s: missing [experiment]", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Experiment.Name) == "" {
		c.Experiment.Name = "memory"
	}
	if c.Experiment.Code == "" {
		c.Experiment.Code = "rotated_planar"
	}
	if !slices.Contains(code.Names(), c.Experiment.Code) {
		return fmt.Errorf("%w: %q", code.ErrUnknownCode, c.Experiment.Code)
	}
	basis, err := NormalizeBasis(c.Experiment.Memory)
	if err != nil {
		return err
	}
	c.Experiment.Memory = basis
	if c.Experiment.Profile == "" {
		c.Experiment.Profile = "depolarizing"
	}
	if _, err := noise.ByName(c.Experiment.Profile, 0); err != nil {
		return err
	}
	if c.Experiment.Shots <= 0 {
		c.Experiment.Shots = 10000
	}
	if c.Experiment.Batches <= 0 {
		c.Experiment.Batches = 1
	}
	if len(c.Sweep.Distances) == 0 {
		return errors.New("missing [sweep].distances")
	}
	if len(c.Sweep.Rates) == 0 {
		return errors.New("missing [sweep].rates")
	}
	if c.Sweep.Rounds < 0 {
		return errors.New("[sweep].rounds must not be negative")
	}
	if c.Sweep.Output == "" {
		c.Sweep.Output = "results.csv"
	}
	return nil
}

// NormalizeBasis folds a user-supplied memory basis to "z" or "x". An
// empty basis defaults to "z".
func NormalizeBasis(basis string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(basis)) {
	case "", "z":
		return "z", nil
	case "x":
		return "x", nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrBadBasis, basis)
	}
}
