// Package window opens the GLFW window that hosts the OpenGL context.
// Every function must be called from the main OS thread.
package window

import (
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"

	"mirror-renderer/internal/gfx"
)

// Window is a non-resizable GLFW window with a current GL 4.1 core context.
type Window struct {
	win *glfw.Window
}

// Open initializes GLFW, creates the window and makes its context current.
// Failures are reported as *gfx.ContextError.
func Open(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, &gfx.ContextError{Op: "initialize GLFW", Err: err}
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, &gfx.ContextError{Op: "create window", Err: err}
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)
	win.SetKeyCallback(handleKey)

	fbw, fbh := win.GetFramebufferSize()
	slog.Info("window opened", "title", title, "width", width, "height", height,
		"framebuffer_width", fbw, "framebuffer_height", fbh)
	return &Window{win: win}, nil
}

func handleKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if closeRequested(key, action) {
		w.SetShouldClose(true)
	}
}

func closeRequested(key glfw.Key, action glfw.Action) bool {
	return key == glfw.KeyEscape && action == glfw.Press
}

// FramebufferSize returns the size of the default framebuffer in pixels,
// which differs from the window size on high-DPI displays.
func (w *Window) FramebufferSize() (int, int) { return w.win.GetFramebufferSize() }

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

func (w *Window) PollEvents() { glfw.PollEvents() }

// Present swaps the front and back buffers.
func (w *Window) Present() error {
	w.win.SwapBuffers()
	return nil
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}
