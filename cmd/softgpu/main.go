// Command softgpu renders the built-in shader programs on the software GPU
// and writes each frame as an image.
//
// Usage:
//
//	softgpu -scene mandelbrot -width 512 -height 512 -o fractal.png
//	softgpu -config scene.yaml -frames 48 -format bmp
//	softgpu -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/internal/scene"
	"github.com/gogpu/softgpu/programs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "softgpu: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("softgpu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		sceneName  = fs.String("scene", "", "program to render (see -list)")
		configPath = fs.String("config", "", "YAML scene configuration")
		width      = fs.Int("width", 0, "image width in pixels")
		height     = fs.Int("height", 0, "image height in pixels")
		frames     = fs.Int("frames", 0, "number of frames to render")
		format     = fs.String("format", "", "output format: png, bmp or tiff")
		scale      = fs.Int("scale", 0, "nearest-neighbor upscale factor")
		filter     = fs.String("filter", "", "quad texture filter: nearest or linear (default loads texels directly)")
		output     = fs.String("o", "", "output file (default <scene>.<format>); frames are numbered before the extension")
		workers    = fs.Int("workers", 0, "worker goroutines (default GOMAXPROCS)")
		verbose    = fs.Bool("v", false, "enable debug logging")
		list       = fs.Bool("list", false, "list the registered programs and exit")
		label      = fs.Bool("label", false, "stamp the scene name and frame number on each image")
		dump       = fs.Bool("dump-config", false, "print the effective configuration as YAML and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	softgpu.SetLogger(logger)
	defer softgpu.SetLogger(nil)

	if *list {
		for _, name := range programs.Names() {
			p, err := programs.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%-12s %s\n", name, p.Description)
		}
		return nil
	}

	cfg := scene.Defaults()
	if *configPath != "" {
		var err error
		if cfg, err = scene.Load(*configPath); err != nil {
			return err
		}
	}
	// Flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneName
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "frames":
			cfg.Frames = *frames
		case "format":
			cfg.Format = *format
		case "scale":
			cfg.Scale = *scale
		case "filter":
			cfg.Quad.Filter = *filter
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *dump {
		return cfg.Encode(stdout)
	}

	var opts []softgpu.DeviceOption
	if *workers > 0 {
		opts = append(opts, softgpu.WithWorkers(*workers))
	}
	device := softgpu.NewDevice(opts...)
	defer device.Close()

	r, err := scene.NewRenderer(device, cfg)
	if err != nil {
		return err
	}

	base := *output
	if base == "" {
		base = cfg.Scene + "." + cfg.Format
	}

	var bar *progressbar.ProgressBar
	if f, ok := stderr.(*os.File); ok && cfg.Frames > 1 && term.IsTerminal(int(f.Fd())) {
		bar = progressbar.NewOptions(cfg.Frames,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription(cfg.Scene),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Close()
	}

	start := time.Now()
	for frame := range cfg.Frames {
		tex, err := r.Render(frame)
		if err != nil {
			return err
		}
		img := tex.ToImage()
		if cfg.Scale > 1 {
			img = upscale(img, cfg.Scale)
		}
		if *label {
			stamp(img, fmt.Sprintf("%s #%d", cfg.Scene, frame))
		}
		path := framePath(base, frame, cfg.Frames)
		if err := writeImage(path, img, cfg.Format); err != nil {
			return err
		}
		logger.Debug("frame written", "frame", frame, "path", path)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	logger.Info("render complete",
		"scene", cfg.Scene,
		"frames", cfg.Frames,
		"size", image.Pt(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale),
		"workers", device.Workers(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
