package scene

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/programs"
	"github.com/gogpu/softgpu/vecmath"
)

// =============================================================================
// Config
// =============================================================================

func TestDefaults_Valid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestDecode(t *testing.T) {
	src := `
scene: mandelbrot
width: 64
fractal:
  zoom: 0.5
`
	cfg, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if cfg.Scene != "mandelbrot" || cfg.Width != 64 || cfg.Fractal.Zoom != 0.5 {
		t.Errorf("Decode() = %+v", cfg)
	}
	// Unset fields keep their defaults.
	def := Defaults()
	if cfg.Height != def.Height || cfg.Fractal.Offset != def.Fractal.Offset || cfg.Format != def.Format {
		t.Errorf("Decode() lost defaults: %+v", cfg)
	}
}

func TestDecode_Empty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode(empty) error = %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("Decode(empty) = %+v, want defaults", cfg)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		invalid bool
	}{
		{"unknown field", "colour: red\n", false},
		{"unknown scene", "scene: teapot\n", true},
		{"zero width", "width: 0\n", true},
		{"bad format", "format: gif\n", true},
		{"zero frames", "frames: 0\n", true},
		{"zero scale", "scale: 0\n", true},
		{"zero zoom", "fractal:\n  zoom: 0\n", true},
		{"bad quad filter", "quad:\n  filter: cubic\n", true},
		{"bad quad address", "quad:\n  address: border\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("Decode() error = nil, want error")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(%v, ErrInvalidConfig) = %v, want %v", err, got, tt.invalid)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte("scene: cube\nframes: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scene != "cube" || cfg.Frames != 4 {
		t.Errorf("Load() = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestEncode_Decodes(t *testing.T) {
	cfg := Defaults()
	cfg.Scene = "spin"
	cfg.Spin.Offset = [2]float32{0.25, -0.25}

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if got != cfg {
		t.Errorf("Decode(Encode()) = %+v, want %+v", got, cfg)
	}
}

// =============================================================================
// Renderer
// =============================================================================

func newTestRenderer(t *testing.T, scene string, size int) *Renderer {
	t.Helper()
	d := softgpu.NewDevice(softgpu.WithWorkers(2))
	t.Cleanup(d.Close)

	cfg := Defaults()
	cfg.Scene = scene
	cfg.Width, cfg.Height = size, size
	r, err := NewRenderer(d, cfg)
	if err != nil {
		t.Fatalf("NewRenderer(%s) error = %v", scene, err)
	}
	return r
}

func render(t *testing.T, r *Renderer, frame int) *softgpu.Texture {
	t.Helper()
	tex, err := r.Render(frame)
	if err != nil {
		t.Fatalf("Render(%d) error = %v", frame, err)
	}
	return tex
}

var background = vecmath.V4(0, 0, 0, 1)

func TestRenderer_Triangle(t *testing.T) {
	r := newTestRenderer(t, "triangle", 32)
	tex := render(t, r, 0)

	if got := tex.Load(0, 0); got != background {
		t.Errorf("corner = %v, want background %v", got, background)
	}
	center := tex.Load(16, 16)
	if center.W != 1 || center.X+center.Y+center.Z == 0 {
		t.Errorf("center = %v, want a shaded pixel", center)
	}
}

func TestRenderer_Rainbow(t *testing.T) {
	r := newTestRenderer(t, "rainbow", 32)
	tex := render(t, r, 0)

	// Vertex 0 is the red corner at the bottom right.
	c := tex.Load(30, 30)
	if c.X <= c.Y || c.X <= c.Z {
		t.Errorf("bottom-right = %v, want red to dominate", c)
	}
	// The top corners lie outside the triangle.
	if got := tex.Load(0, 0); got != background {
		t.Errorf("top-left = %v, want background", got)
	}
}

func TestRenderer_SpinAnimates(t *testing.T) {
	r := newTestRenderer(t, "spin", 32)
	first := render(t, r, 0).ReadData()
	later := render(t, r, 24).ReadData()
	if bytes.Equal(first, later) {
		t.Error("frames 0 and 24 are identical, want the triangle to rotate")
	}
	again := render(t, r, 0).ReadData()
	if !bytes.Equal(first, again) {
		t.Error("frame 0 rendered twice differs")
	}
}

func TestRenderer_Mandelbrot(t *testing.T) {
	const size = 16
	r := newTestRenderer(t, "mandelbrot", size)
	tex := render(t, r, 0)

	state := programs.FractalState{
		Offset: vecmath.V2(r.cfg.Fractal.Offset[0], r.cfg.Fractal.Offset[1]),
		Zoom:   r.cfg.Fractal.Zoom,
	}
	for y := range size {
		for x := range size {
			want := state.Shade(uint32(x), uint32(y), size, size)
			if got := tex.Load(x, y).X; got != want {
				t.Fatalf("texel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderer_Quad(t *testing.T) {
	r := newTestRenderer(t, "quad", 16)
	tex := render(t, r, 0)

	if got := tex.Load(8, 8); got.W != 1 || got == background {
		t.Errorf("center = %v, want a hue from the fractal", got)
	}
	if got := tex.Load(0, 0); got != background {
		t.Errorf("corner = %v, want background outside the scaled quad", got)
	}
	// A second frame reuses the computed fractal.
	render(t, r, 1)
}

func TestQuadConfig_SamplerDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		quad    QuadConfig
		filter  gputypes.FilterMode
		address gputypes.AddressMode
	}{
		{"nearest default edges", QuadConfig{Filter: "nearest"}, gputypes.FilterModeNearest, gputypes.AddressModeClampToEdge},
		{"linear clamp", QuadConfig{Filter: "linear", Address: "clamp"}, gputypes.FilterModeLinear, gputypes.AddressModeClampToEdge},
		{"nearest repeat", QuadConfig{Filter: "nearest", Address: "repeat"}, gputypes.FilterModeNearest, gputypes.AddressModeRepeat},
		{"linear mirror", QuadConfig{Filter: "linear", Address: "mirror"}, gputypes.FilterModeLinear, gputypes.AddressModeMirrorRepeat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := tt.quad.samplerDescriptor()
			if desc.MagFilter != tt.filter || desc.MinFilter != tt.filter {
				t.Errorf("filters = %v/%v, want %v", desc.MagFilter, desc.MinFilter, tt.filter)
			}
			if desc.AddressModeU != tt.address || desc.AddressModeV != tt.address {
				t.Errorf("address = %v/%v, want %v", desc.AddressModeU, desc.AddressModeV, tt.address)
			}
		})
	}
}

func newQuadRenderer(t *testing.T, quad QuadConfig) *Renderer {
	t.Helper()
	d := softgpu.NewDevice(softgpu.WithWorkers(2))
	t.Cleanup(d.Close)

	cfg := Defaults()
	cfg.Scene = "quad"
	cfg.Width, cfg.Height = 16, 16
	cfg.Quad = quad
	r, err := NewRenderer(d, cfg)
	if err != nil {
		t.Fatalf("NewRenderer(quad %+v) error = %v", quad, err)
	}
	return r
}

func TestRenderer_QuadNearestSamplerMatchesLoad(t *testing.T) {
	loaded := render(t, newQuadRenderer(t, QuadConfig{}), 0).ReadData()
	sampled := render(t, newQuadRenderer(t, QuadConfig{Filter: "nearest", Address: "repeat"}), 0).ReadData()
	if !bytes.Equal(loaded, sampled) {
		t.Error("nearest-sampled quad differs from the directly loaded quad")
	}
}

func TestRenderer_QuadLinearSampler(t *testing.T) {
	r := newQuadRenderer(t, QuadConfig{Filter: "linear", Address: "mirror"})
	tex := render(t, r, 0)
	if got := tex.Load(8, 8); got.W != 1 || got == background {
		t.Errorf("center = %v, want a hue from the fractal", got)
	}
	if got := tex.Load(0, 0); got != background {
		t.Errorf("corner = %v, want background outside the scaled quad", got)
	}
}

func TestRenderer_FractalComputedOnlyAfterSubmit(t *testing.T) {
	const size = 16
	r := newTestRenderer(t, "quad", size)
	passes := r.passes
	errFail := errors.New("encode failed")
	r.passes = append(slices.Clone(passes), func(*softgpu.CommandEncoder) error { return errFail })

	if _, err := r.Render(0); !errors.Is(err, errFail) {
		t.Fatalf("Render(0) error = %v, want %v", err, errFail)
	}
	if r.fractal.done {
		t.Fatal("fractal marked done after a failed frame")
	}
	if got := r.fractal.texture.Load(size/2, size/2); got != (vecmath.Vec4{}) {
		t.Errorf("fractal texel = %v after a failed frame, want zero", got)
	}

	r.passes = passes
	render(t, r, 1)
	if !r.fractal.done {
		t.Fatal("fractal not done after a submitted frame")
	}
	state := r.fractalState()
	want := state.Shade(size/2, size/2, size, size)
	if got := r.fractal.texture.Load(size/2, size/2).X; got != want {
		t.Errorf("fractal texel = %v, want %v", got, want)
	}

	// Later frames leave the computed texture alone.
	r.fractal.texture.Store(size/2, size/2, vecmath.V4(-1, 0, 0, 1))
	render(t, r, 2)
	if got := r.fractal.texture.Load(size/2, size/2).X; got != -1 {
		t.Errorf("fractal texel = %v after frame 2, want the dispatch skipped", got)
	}
}

func TestRenderer_CubeWritesDepth(t *testing.T) {
	r := newTestRenderer(t, "cube", 32)
	render(t, r, 0)

	if z := r.depth.Load(16, 16).X; z >= 1 || z < 0 {
		t.Errorf("center depth = %v, want in [0, 1)", z)
	}
	if got := r.color.Load(16, 16); got.W != 1 {
		t.Errorf("center alpha = %v, want 1", got.W)
	}
}

func TestNewRenderer_Errors(t *testing.T) {
	programs.Register("empty", func() *programs.Program {
		return &programs.Program{Name: "empty", Source: "@compute @workgroup_size(1) fn cs_main() {}"}
	})
	d := softgpu.NewDevice(softgpu.WithWorkers(1))
	defer d.Close()

	cfg := Defaults()
	cfg.Scene = "empty"
	if _, err := NewRenderer(d, cfg); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("NewRenderer(empty) error = %v, want ErrUnknownScene", err)
	}

	cfg = Defaults()
	cfg.Width = -1
	if _, err := NewRenderer(d, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewRenderer(width -1) error = %v, want ErrInvalidConfig", err)
	}
}
