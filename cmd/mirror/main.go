package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"mirror-renderer/internal/app"
	"mirror-renderer/internal/capture"
	"mirror-renderer/internal/config"
	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/glgpu"
	"mirror-renderer/internal/raster"
	"mirror-renderer/internal/render"
	"mirror-renderer/internal/texture"
	"mirror-renderer/internal/window"
)

func init() {
	// GLFW and GL calls must come from the main OS thread.
	runtime.LockOSThread()
}

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	backend := flag.String("backend", "", "Graphics backend: gl or soft (default: gl)")
	frames := flag.Int("frames", 0, "Capture N frames to WebP instead of opening an interactive window")
	outputDir := flag.String("output", "", "Capture output directory (default: frames)")
	workers := flag.Int("workers", 0, "Number of encoder goroutines (default: NumCPU)")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Backend:   *backend,
		Frames:    *frames,
		OutputDir: *outputDir,
		Workers:   *workers,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		var ce *gfx.ContextError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "Error: no graphics context: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	images := texture.NewCache(texture.BuildIndex(cfg.Texture.AssetDirs...))

	// The software backend has no window, so it always captures.
	if cfg.Backend == config.BackendSoft && cfg.Capture.Frames == 0 {
		cfg.Capture.Frames = 1
	}
	capturing := cfg.Capture.Frames > 0
	scale := 1
	if capturing {
		scale = cfg.Capture.Supersample
	}
	opts := app.Options(cfg, scale)

	var (
		dev gfx.Device
		win *window.Window
	)
	switch cfg.Backend {
	case config.BackendGL:
		var err error
		win, err = window.Open(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
		if err != nil {
			return err
		}
		defer win.Close()
		fbw, fbh := win.FramebufferSize()
		if dev, err = glgpu.New(fbw, fbh); err != nil {
			return err
		}
		opts = framebufferOptions(opts, fbw, fbh, scale)
	case config.BackendSoft:
		dev = raster.NewDevice(opts.Width, opts.Height)
	}

	rc, err := render.Setup(dev, opts, images)
	if err != nil {
		return err
	}
	defer rc.Release()
	if win != nil {
		rc.Presenter = win
	}

	scene := app.NewScene(render.NewController(opts), rc, opts, *cfg.ObjectSpin)
	if !capturing {
		// An interrupt ends the interactive loop like closing the window.
		if err := app.Run(ctx, win, scene); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return runCapture(ctx, cfg, scene)
}

// framebufferOptions sizes the frame from the window framebuffer, which is
// larger than the window on HiDPI displays.
func framebufferOptions(opts render.Options, fbw, fbh, scale int) render.Options {
	if scale < 1 {
		scale = 1
	}
	opts.Width, opts.Height = fbw*scale, fbh*scale
	return opts
}

func runCapture(ctx context.Context, cfg config.Config, scene *app.Scene) error {
	slog.Info("capturing", "frames", cfg.Capture.Frames, "fps", cfg.Capture.FPS,
		"supersample", cfg.Capture.Supersample, "workers", cfg.Capture.Workers, "output", cfg.Capture.OutputDir)
	start := time.Now()

	results, err := capture.Run(ctx, capture.Config{
		Frames:    cfg.Capture.Frames,
		FPS:       cfg.Capture.FPS,
		OutputDir: cfg.Capture.OutputDir,
		Workers:   cfg.Capture.Workers,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Progress:  os.Stderr,
	}, scene)

	// Write manifest, even for a partial run
	if len(results) > 0 {
		manifestPath := filepath.Join(cfg.Capture.OutputDir, "manifest.json")
		if merr := capture.WriteManifest(manifestPath, results); merr != nil {
			slog.Warn("manifest write failed", "path", manifestPath, "err", merr)
		} else {
			slog.Info("manifest written", "path", manifestPath)
		}
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			slog.Error("frame failed", "frame", r.Frame, "err", r.Error)
		}
	}
	slog.Info("capture done", "frames", len(results)-failed, "failed", failed,
		"seconds", fmt.Sprintf("%.1f", time.Since(start).Seconds()))
	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed to encode", failed, len(results))
	}
	return nil
}
