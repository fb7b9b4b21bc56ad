// Command stencilview renders one frame on the software backend and writes
// its color, depth and stencil planes as WebP images for inspection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"

	"mirror-renderer/internal/app"
	"mirror-renderer/internal/config"
	"mirror-renderer/internal/postprocess"
	"mirror-renderer/internal/raster"
	"mirror-renderer/internal/render"
	"mirror-renderer/internal/texture"
)

func main() {
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	elapsed := flag.Float64("t", 0.5, "Scene time in seconds")
	outputDir := flag.String("output", "stencilview", "Output directory")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{Backend: config.BackendSoft})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *elapsed, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, elapsed float64, outDir string) error {
	opts := app.Options(cfg, 1)
	dev := raster.NewDevice(opts.Width, opts.Height)
	images := texture.NewCache(texture.BuildIndex(cfg.Texture.AssetDirs...))

	rc, err := render.Setup(dev, opts, images)
	if err != nil {
		return err
	}
	defer rc.Release()

	scene := app.NewScene(render.NewController(opts), rc, opts, *cfg.ObjectSpin)
	colorImg, err := scene.RenderAt(elapsed)
	if err != nil {
		return err
	}
	w, h := opts.Width, opts.Height
	stencil := dev.Stencil(rc.Frame)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	planes := []struct {
		name string
		img  image.Image
	}{
		{"color.webp", colorImg},
		{"depth.webp", postprocess.DepthImage(dev.Depth(rc.Frame), w, h)},
		{"stencil.webp", postprocess.StencilImage(stencil, w, h)},
		{"overlay.webp", postprocess.StencilOverlay(colorImg, stencil, 1, color.NRGBA{255, 0, 255, 96})},
	}
	for _, p := range planes {
		path := filepath.Join(outDir, p.name)
		if err := writeWebP(path, p.img); err != nil {
			return err
		}
		slog.Info("plane written", "path", path)
	}

	stamped := 0
	for _, s := range stencil {
		if s != 0 {
			stamped++
		}
	}
	fmt.Printf("Frame at t=%.2fs: %dx%d, %d stencil-marked pixels (%.1f%%)\n",
		elapsed, w, h, stamped, 100*float64(stamped)/float64(w*h))
	return nil
}

func writeWebP(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("WebP encode %s: %w", path, err)
	}
	return f.Close()
}
