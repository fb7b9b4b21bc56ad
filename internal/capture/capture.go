package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/schollz/progressbar/v3"

	"mirror-renderer/internal/postprocess"
)

// Renderer produces the finished frame for a point in scene time.
// Calls happen on the goroutine that called Run.
type Renderer interface {
	RenderAt(elapsed float64) (*image.NRGBA, error)
}

// Config holds all settings for a capture run.
type Config struct {
	Frames    int
	FPS       int
	OutputDir string
	Workers   int
	// Width and Height are the encoded frame size. Larger frames, e.g. from
	// a supersampling renderer, are downsampled first. Zero keeps the size.
	Width  int
	Height int
	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

// Result holds the outcome of encoding one frame.
type Result struct {
	Frame   int
	Elapsed float64
	Image   string
	Success bool
	Error   string
}

type job struct {
	idx     int
	elapsed float64
	img     *image.NRGBA
}

// Run renders cfg.Frames frames at a fixed timestep and encodes them with a
// worker pool. Rendering stays on the calling goroutine because graphics
// contexts are bound to one thread. A render error stops the run and the
// results of the frames rendered so far are returned with it; encode
// failures are reported per frame.
func Run(ctx context.Context, cfg Config, r Renderer) ([]Result, error) {
	if cfg.Frames <= 0 {
		return nil, fmt.Errorf("capture: frame count %d must be positive", cfg.Frames)
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	out := cfg.Progress
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(cfg.Frames,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("encoding frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	defer bar.Close()

	results := make([]Result, cfg.Frames)
	var encoded atomic.Int64
	start := time.Now()

	// Worker pool
	jobs := make(chan job, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = encodeFrame(cfg, j)
				encoded.Add(1)
				bar.Add(1)
			}
		}()
	}

	step := 1 / float64(cfg.FPS)
	rendered := 0
	var renderErr error
	for ; rendered < cfg.Frames; rendered++ {
		if err := ctx.Err(); err != nil {
			renderErr = fmt.Errorf("capture: frame %d: %w", rendered, err)
			break
		}
		elapsed := float64(rendered) * step
		img, err := r.RenderAt(elapsed)
		if err != nil {
			renderErr = fmt.Errorf("capture: render frame %d: %w", rendered, err)
			break
		}
		jobs <- job{idx: rendered, elapsed: elapsed, img: img}
	}
	close(jobs)
	wg.Wait()

	n := encoded.Load()
	slog.Info("capture finished", "frames", n, "dir", cfg.OutputDir,
		"rate", fmt.Sprintf("%.1f frames/sec", float64(n)/time.Since(start).Seconds()))

	return results[:rendered], renderErr
}

// FrameName returns the file name of frame idx.
func FrameName(idx int) string {
	return fmt.Sprintf("frame_%04d.webp", idx)
}

func encodeFrame(cfg Config, j job) Result {
	res := Result{Frame: j.idx, Elapsed: j.elapsed, Image: FrameName(j.idx)}

	img := j.img
	if cfg.Width > 0 && cfg.Height > 0 {
		img = postprocess.Downsample(img, cfg.Width, cfg.Height)
	}

	f, err := os.Create(filepath.Join(cfg.OutputDir, res.Image))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		res.Error = fmt.Sprintf("WebP encode: %v", err)
		return res
	}

	res.Success = true
	return res
}
