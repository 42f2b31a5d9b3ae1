// Package scene renders the built-in programs as animated scenes: it owns
// the device resources of one scene and records a frame's passes.
package scene

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/softgpu/programs"
)

// ErrInvalidConfig is returned for a configuration that cannot be rendered.
var ErrInvalidConfig = errors.New("scene: invalid config")

// Output formats understood by the CLI.
var Formats = []string{"png", "bmp", "tiff"}

// Config describes what to render and how to write it out.
type Config struct {
	Scene  string `yaml:"scene"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Frames int    `yaml:"frames"`

	// Format is the image encoding of written frames.
	Format string `yaml:"format"`
	// Scale is the nearest-neighbor upscale factor applied on output.
	Scale int `yaml:"scale"`

	// Background is the clear color, RGBA in [0,1].
	Background [4]float64 `yaml:"background"`

	Fractal FractalConfig `yaml:"fractal"`
	Spin    SpinConfig    `yaml:"spin"`
	Quad    QuadConfig    `yaml:"quad"`
	Cube    CubeConfig    `yaml:"cube"`
}

// FractalConfig frames the Mandelbrot set.
type FractalConfig struct {
	Offset [2]float32 `yaml:"offset"`
	Zoom   float32    `yaml:"zoom"`
}

// SpinConfig animates the spin and quad scenes. The rotation angle of frame
// n is n*Speed radians about Z.
type SpinConfig struct {
	Speed  float32    `yaml:"speed"`
	Scale  float32    `yaml:"scale"`
	Offset [2]float32 `yaml:"offset"`
}

// QuadConfig selects how the quad scene reads the fractal texture. An empty
// Filter loads the texel under each fragment directly; "nearest" or
// "linear" samples it through a sampler whose edges follow Address.
type QuadConfig struct {
	Filter  string `yaml:"filter"`
	Address string `yaml:"address"`
}

// Quad filter and address mode names.
var (
	QuadFilters   = []string{"", "nearest", "linear"}
	QuadAddresses = []string{"", "clamp", "repeat", "mirror"}
)

// CubeConfig animates the cube. The extra rotation of frame n is n*Speed
// radians about each axis.
type CubeConfig struct {
	Speed float32 `yaml:"speed"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Scene:      "triangle",
		Width:      256,
		Height:     256,
		Frames:     1,
		Format:     "png",
		Scale:      1,
		Background: [4]float64{0, 0, 0, 1},
		Fractal: FractalConfig{
			Offset: [2]float32{-0.5, 0},
			Zoom:   1.5,
		},
		Spin: SpinConfig{
			Speed: math.Pi / 8 / 24,
			Scale: 0.75,
		},
		Cube: CubeConfig{
			Speed: math.Pi / 96,
		},
	}
}

// Load reads a YAML configuration. Fields missing from the file keep their
// Defaults values.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a YAML configuration from r over Defaults and validates it.
func Decode(r io.Reader) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Validate checks that the configuration names a registered program and
// has a drawable size.
func (c Config) Validate() error {
	var errs []error
	if _, err := programs.Lookup(c.Scene); err != nil {
		errs = append(errs, err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("size %dx%d", c.Width, c.Height))
	}
	if c.Frames <= 0 {
		errs = append(errs, fmt.Errorf("frames %d", c.Frames))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format %q, want one of %v", c.Format, Formats))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale %d", c.Scale))
	}
	if c.Fractal.Zoom == 0 {
		errs = append(errs, errors.New("fractal zoom is zero"))
	}
	if !slices.Contains(QuadFilters, c.Quad.Filter) {
		errs = append(errs, fmt.Errorf("quad filter %q, want one of %q", c.Quad.Filter, QuadFilters))
	}
	if !slices.Contains(QuadAddresses, c.Quad.Address) {
		errs = append(errs, fmt.Errorf("quad address %q, want one of %q", c.Quad.Address, QuadAddresses))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Aspect returns width / height.
func (c Config) Aspect() float32 {
	return float32(c.Width) / float32(c.Height)
}
