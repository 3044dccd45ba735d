// Package config provides configuration loading and management for morpho3d.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"morpho3d/internal/models"
	"morpho3d/pkg/morphology"
	"morpho3d/pkg/strel"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`

		// Mode selects how input pixels are interpreted: gray, binary or rgb
		Mode string `yaml:"mode"`

		// BinaryThreshold is the gray level at or above which a pixel is set in binary mode
		BinaryThreshold uint16 `yaml:"binaryThreshold"`
	} `yaml:"processing"`

	// Morphology parameters
	Morphology struct {
		// Operation is the filter to run, e.g. dilation or white-tophat
		Operation string `yaml:"operation"`

		// Shape names the structuring element
		Shape string `yaml:"shape"`

		// Radius sizes the structuring element when the per-axis radii are zero
		Radius int `yaml:"radius"`

		// RadiusX, RadiusY and RadiusZ size rectangles and cuboids per axis;
		// other shapes use RadiusX only
		RadiusX int `yaml:"radiusX"`
		RadiusY int `yaml:"radiusY"`
		RadiusZ int `yaml:"radiusZ"`

		// LaplacianShift is added to the morphological Laplacian
		LaplacianShift float64 `yaml:"laplacianShift"`
	} `yaml:"morphology"`

	// Output parameters
	Output struct {
		// Format is the image format of written slices: png, jpeg or tiff
		Format string `yaml:"format"`

		// Axis is the axis slices are cut along when writing a volume
		Axis string `yaml:"axis"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Debug switches to human-readable debug logs
		Debug bool `yaml:"debug"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Mode = models.Gray.String()
	cfg.Processing.BinaryThreshold = 32768

	cfg.Morphology.Operation = morphology.OpDilation.String()
	cfg.Morphology.Shape = string(strel.ShapeSquare)
	cfg.Morphology.Radius = 1
	cfg.Morphology.LaplacianShift = 0

	cfg.Output.Format = "png"
	cfg.Output.Axis = "z"
	cfg.Output.Verbose = true
	cfg.Output.Debug = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks that every named setting is known and every size is usable.
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if _, err := models.ParseMode(c.Processing.Mode); err != nil {
		return err
	}
	if _, err := c.ParsedOperation(); err != nil {
		return err
	}
	if _, err := c.Element(); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpeg", "jpg", "tiff", "tif":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	switch c.Output.Axis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("unknown axis %q", c.Output.Axis)
	}
	return nil
}

// ParsedOperation resolves the configured operation name.
func (c *Config) ParsedOperation() (morphology.Operation, error) {
	return morphology.ParseOperation(c.Morphology.Operation)
}

// Element builds the configured structuring element. Per-axis radii take
// precedence over Radius when any of them is set.
func (c *Config) Element() (strel.Element, error) {
	shape, err := strel.ParseShape(c.Morphology.Shape)
	if err != nil {
		return strel.Element{}, err
	}
	m := c.Morphology
	if m.RadiusX != 0 || m.RadiusY != 0 || m.RadiusZ != 0 {
		return shape.FromRadii(m.RadiusX, m.RadiusY, m.RadiusZ)
	}
	return shape.FromRadius(m.Radius)
}
