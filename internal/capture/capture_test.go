package capture

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

type stubRenderer struct {
	w, h    int
	calls   []float64
	failAt  int
	failErr error
}

func (s *stubRenderer) RenderAt(elapsed float64) (*image.NRGBA, error) {
	if s.failErr != nil && len(s.calls) == s.failAt {
		return nil, s.failErr
	}
	s.calls = append(s.calls, elapsed)
	img := image.NewNRGBA(image.Rect(0, 0, s.w, s.h))
	shade := uint8(len(s.calls) * 40)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = shade, 0, 0, 255
	}
	return img, nil
}

func TestRunEncodesFrames(t *testing.T) {
	dir := t.TempDir()
	r := &stubRenderer{w: 8, h: 6}
	results, err := Run(context.Background(), Config{Frames: 4, FPS: 4, OutputDir: dir, Workers: 3}, r)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, r.calls)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.True(t, res.Success, res.Error)
		assert.Equal(t, i, res.Frame)
		assert.Equal(t, FrameName(i), res.Image)

		f, err := os.Open(filepath.Join(dir, res.Image))
		require.NoError(t, err)
		img, err := webp.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
		red, _, _, _ := img.At(0, 0).RGBA()
		assert.Equal(t, uint32((i+1)*40), red>>8)
	}
	assert.Equal(t, "frame_0003.webp", FrameName(3))
}

func TestRunDownsamples(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), Config{Frames: 1, OutputDir: dir, Width: 4, Height: 3}, &stubRenderer{w: 8, h: 6})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, FrameName(0)))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := webp.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 3, cfg.Height)
}

func TestRunStopsOnRenderError(t *testing.T) {
	boom := errors.New("device lost")
	r := &stubRenderer{w: 2, h: 2, failAt: 2, failErr: boom}
	results, err := Run(context.Background(), Config{Frames: 5, OutputDir: t.TempDir()}, r)
	require.ErrorIs(t, err, boom)
	assert.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Success)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, Config{Frames: 3, OutputDir: t.TempDir()}, &stubRenderer{w: 1, h: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)

	_, err = Run(context.Background(), Config{Frames: 0, OutputDir: t.TempDir()}, &stubRenderer{})
	assert.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteManifest(path, []Result{
		{Frame: 0, Elapsed: 0, Image: FrameName(0), Success: true},
		{Frame: 1, Elapsed: 0.5, Image: FrameName(1), Error: "disk full"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Equal(t, []ManifestEntry{
		{Frame: 0, Elapsed: 0, Image: "frame_0000.webp"},
		{Frame: 1, Elapsed: 0.5, Image: "frame_0001.webp", Error: "disk full"},
	}, entries)
}
