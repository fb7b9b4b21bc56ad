package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/mathutil"
)

// ErrFloorNotStamped is returned when the mirror pass runs without a floor
// stencil mask from the same frame.
var ErrFloorNotStamped = errors.New("render: mirror pass requires the floor-stamp pass of the current frame")

// Controller sequences the passes of a frame: clear, object, floor stamp,
// masked mirror, present. It keeps no state between calls; per-frame state
// lives in the Context.
type Controller struct {
	opts Options
}

func NewController(opts Options) *Controller {
	return &Controller{opts: opts}
}

// RenderFrame draws one complete frame. Any device failure aborts the frame.
func (c *Controller) RenderFrame(rc *Context, elapsed float64, model mgl32.Mat4) error {
	c.Clear(rc)
	if err := c.DrawObject(rc, model); err != nil {
		return err
	}
	if c.opts.Caps.StencilReflection {
		if err := c.StampFloor(rc, elapsed); err != nil {
			return err
		}
		if err := c.DrawMirror(rc, model); err != nil {
			return err
		}
	}
	return c.Present(rc)
}

// Clear resets color, depth and stencil of the context frame. Clears honor
// the write masks, so both are opened first: the previous frame ends with a
// read-only stencil mask.
func (c *Controller) Clear(rc *Context) {
	dev := rc.Device
	dev.BindFrame(rc.Frame)
	dev.SetDepthMask(true)
	dev.SetStencilMask(0xFF)
	dev.Clear(gfx.ClearAll)
	rc.floorStamped = false
}

// DrawObject draws the primary object with stencil disabled.
func (c *Controller) DrawObject(rc *Context, model mgl32.Mat4) error {
	return c.draw(rc, ObjectPolicy, rc.object, model, white)
}

// StampFloor draws the floor, marking its visible pixels with stencil 1
// without writing depth.
func (c *Controller) StampFloor(rc *Context, elapsed float64) error {
	if rc.floor.count == 0 {
		return errors.New("render: floor-stamp pass: no floor geometry uploaded")
	}
	floorModel := mathutil.SpinZ(elapsed, c.opts.FloorSpinDeg)
	if err := c.draw(rc, FloorStampPolicy, rc.floor, floorModel, white); err != nil {
		return err
	}
	rc.floorStamped = true
	return nil
}

// DrawMirror draws the object reflected across the floor plane, tinted and
// clipped to the stamped floor, then disables the stencil test.
func (c *Controller) DrawMirror(rc *Context, model mgl32.Mat4) error {
	if !rc.floorStamped {
		return ErrFloorNotStamped
	}
	mirror := mathutil.MirrorTransform(model, c.opts.MirrorOffset)
	err := c.draw(rc, MirrorPolicy, rc.object, mirror, c.opts.Tint)

	rc.Device.SetUniformVec3("overrideColor", white)
	ObjectPolicy.Apply(rc.Device)
	return err
}

// Present resolves an offscreen frame to the screen and hands it to the
// presenter.
func (c *Controller) Present(rc *Context) error {
	if rc.Frame != gfx.DefaultFrame {
		if err := rc.Device.ResolveFrame(rc.Frame); err != nil {
			return fmt.Errorf("render: present: %w", err)
		}
	}
	if rc.Presenter == nil {
		return nil
	}
	if err := rc.Presenter.Present(); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	return nil
}

func (c *Controller) draw(rc *Context, policy StencilPolicy, d drawable, model mgl32.Mat4, tint mgl32.Vec3) error {
	dev := rc.Device
	policy.Apply(dev)
	dev.SetUniformMat4("model", model)
	dev.SetUniformVec3("overrideColor", tint)
	if err := dev.Draw(d.buf, 0, d.count); err != nil {
		return fmt.Errorf("render: %s pass: %w", policy.Name, err)
	}
	return nil
}
