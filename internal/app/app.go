// Package app ties configuration, the render controller and the host window
// together into the interactive frame loop and the headless frame source.
package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/config"
	"mirror-renderer/internal/mathutil"
	"mirror-renderer/internal/render"
)

// Window is what the frame loop needs from the host window.
type Window interface {
	ShouldClose() bool
	PollEvents()
}

// Scene animates the object and renders frames through a controller.
type Scene struct {
	Controller *render.Controller
	Context    *render.Context
	// Static keeps the object transform at identity.
	Static        bool
	ObjectSpinDeg float64
}

// NewScene builds a scene whose object spins at objectSpinDeg degrees per
// second unless opts selects the static quad.
func NewScene(ctrl *render.Controller, rc *render.Context, opts render.Options, objectSpinDeg float64) *Scene {
	return &Scene{
		Controller:    ctrl,
		Context:       rc,
		Static:        opts.Caps.StaticQuad,
		ObjectSpinDeg: objectSpinDeg,
	}
}

// Model returns the object transform at elapsed seconds.
func (s *Scene) Model(elapsed float64) mgl32.Mat4 {
	if s.Static {
		return mgl32.Ident4()
	}
	return mathutil.SpinZ(elapsed, s.ObjectSpinDeg)
}

// Frame renders one frame at elapsed seconds.
func (s *Scene) Frame(elapsed float64) error {
	return s.Controller.RenderFrame(s.Context, elapsed, s.Model(elapsed))
}

// RenderAt renders one frame and reads it back from the render target.
func (s *Scene) RenderAt(elapsed float64) (*image.NRGBA, error) {
	if err := s.Frame(elapsed); err != nil {
		return nil, err
	}
	return s.Context.Device.ReadPixels(s.Context.Frame)
}

// Run draws frames until the window asks to close or ctx is done. The first
// frame error ends the loop and is returned. Resources are released by the
// caller.
func Run(ctx context.Context, win Window, scene *Scene) error {
	start := time.Now()
	frames := 0
	defer func() {
		slog.Info("frame loop stopped", "frames", frames, "seconds", time.Since(start).Seconds())
	}()

	for !win.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		win.PollEvents()
		if err := scene.Frame(time.Since(start).Seconds()); err != nil {
			return fmt.Errorf("app: frame %d: %w", frames, err)
		}
		frames++
	}
	return nil
}

// Options converts a resolved config into render options. scale multiplies
// the frame size, for supersampled capture.
func Options(cfg config.Config, scale int) render.Options {
	if scale < 1 {
		scale = 1
	}
	tint := *cfg.Reflection.Tint
	return render.Options{
		Width:     cfg.Window.Width * scale,
		Height:    cfg.Window.Height * scale,
		Offscreen: *cfg.Offscreen,
		Caps: render.Capabilities{
			Texture:           *cfg.Caps.Texture,
			StencilReflection: *cfg.Caps.StencilReflection,
			StaticQuad:        cfg.Caps.StaticQuad,
		},
		Camera: mathutil.Camera{
			Eye:    mgl32.Vec3(cfg.Camera.Eye),
			Center: mgl32.Vec3(cfg.Camera.Center),
			Up:     mgl32.Vec3(cfg.Camera.Up),
			FovDeg: cfg.Camera.FovDeg,
			Near:   cfg.Camera.Near,
			Far:    cfg.Camera.Far,
		},
		ClearColor:      mgl32.Vec4(cfg.ClearColor),
		TextureName:     cfg.Texture.Path,
		FloorHalfExtent: cfg.Floor.HalfExtent,
		FloorHeight:     *cfg.Floor.Height,
		FloorColor:      [3]float32(cfg.Floor.Color),
		FloorSpinDeg:    *cfg.Floor.SpinDeg,
		MirrorOffset:    *cfg.Reflection.MirrorOffset,
		Tint:            mgl32.Vec3{tint, tint, tint},
	}
}
