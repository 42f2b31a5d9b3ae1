package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/softgpu/internal/scene"
)

func TestFramePath(t *testing.T) {
	tests := []struct {
		base   string
		frame  int
		frames int
		want   string
	}{
		{"out.png", 0, 1, "out.png"},
		{"out.png", 3, 10, "out-0003.png"},
		{"dir/spin.bmp", 12, 48, "dir/spin-0012.bmp"},
		{"noext", 1, 2, "noext-0001"},
	}
	for _, tt := range tests {
		if got := framePath(tt.base, tt.frame, tt.frames); got != tt.want {
			t.Errorf("framePath(%q, %d, %d) = %q, want %q", tt.base, tt.frame, tt.frames, got, tt.want)
		}
	}
}

func TestEncodeImage_Formats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	decoders := map[string]func(*bytes.Reader) (image.Image, error){
		"png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		"bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		"tiff": func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := encodeImage(&buf, img, format); err != nil {
				t.Fatalf("encodeImage() error = %v", err)
			}
			got, err := decode(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if got.Bounds() != img.Bounds() {
				t.Errorf("bounds = %v, want %v", got.Bounds(), img.Bounds())
			}
			r, g, b, _ := got.At(1, 1).RGBA()
			if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
				t.Errorf("At(1, 1) = %v, want (200, 100, 50)", got.At(1, 1))
			}
		})
	}

	if err := encodeImage(&bytes.Buffer{}, img, "gif"); err == nil {
		t.Error("encodeImage(gif) error = nil, want error")
	}
}

func TestUpscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(1, 0, color.RGBA{R: 255, A: 255})

	dst := upscale(src, 3)
	if got := dst.Bounds().Size(); got != image.Pt(6, 6) {
		t.Fatalf("size = %v, want (6, 6)", got)
	}
	for y := range 3 {
		for x := 3; x < 6; x++ {
			if got := dst.RGBAAt(x, y); got.R != 255 {
				t.Errorf("RGBAAt(%d, %d) = %v, want red", x, y, got)
			}
		}
	}
	if got := dst.RGBAAt(0, 0); got.R != 0 {
		t.Errorf("RGBAAt(0, 0) = %v, want black", got)
	}
}

func TestStamp(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 24))
	stamp(img, "spin #1")
	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("stamp() drew nothing")
	}
}

func TestRun_List(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"-list"}, &out, &errOut); err != nil {
		t.Fatalf("run(-list) error = %v", err)
	}
	for _, name := range []string{"triangle", "rainbow", "spin", "quad", "mandelbrot", "cube"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("run(-list) output missing %q:\n%s", name, out.String())
		}
	}
}

func TestRun_WritesFrames(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "spin.png")
	args := []string{"-scene", "spin", "-width", "16", "-height", "16", "-frames", "2", "-scale", "2", "-workers", "2", "-o", base}

	var out, errOut bytes.Buffer
	if err := run(args, &out, &errOut); err != nil {
		t.Fatalf("run() error = %v\n%s", err, errOut.String())
	}
	for frame := range 2 {
		path := framePath(base, frame, 2)
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		if got := img.Bounds().Size(); got != image.Pt(32, 32) {
			t.Errorf("frame %d size = %v, want (32, 32)", frame, got)
		}
	}
}

func TestRun_ConfigAndDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte("scene: cube\nwidth: 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	if err := run([]string{"-config", path, "-height", "30", "-dump-config"}, &out, &errOut); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	for _, want := range []string{"scene: cube", "width: 40", "height: 30"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun_QuadFilter(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"-scene", "quad", "-filter", "linear", "-dump-config"}, &out, &errOut); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "filter: linear") {
		t.Errorf("dump missing the quad filter:\n%s", out.String())
	}

	if err := run([]string{"-scene", "quad", "-filter", "cubic", "-dump-config"}, &out, &errOut); !errors.Is(err, scene.ErrInvalidConfig) {
		t.Errorf("run(-filter cubic) error = %v, want ErrInvalidConfig", err)
	}

	path := filepath.Join(t.TempDir(), "quad.png")
	if err := run([]string{"-scene", "quad", "-filter", "nearest", "-width", "16", "-height", "16", "-workers", "2", "-o", path}, &out, &errOut); err != nil {
		t.Fatalf("run(-filter nearest) error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestRun_InvalidScene(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"-scene", "teapot", "-o", filepath.Join(t.TempDir(), "x.png")}, &out, &errOut); err == nil {
		t.Error("run(-scene teapot) error = nil, want error")
	}
}
