package gfx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidHandle is returned when a handle does not name a live resource.
	ErrInvalidHandle = errors.New("gfx: invalid handle")
	// ErrDrawRange is returned when a draw addresses elements outside a buffer.
	ErrDrawRange = errors.New("gfx: draw range out of bounds")
	// ErrFrameSize is returned when an on-screen frame does not match the
	// window framebuffer.
	ErrFrameSize = errors.New("gfx: frame size does not match the framebuffer")
)

// ContextError reports that a window or graphics context could not be created.
type ContextError struct {
	Op  string
	Err error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("gfx: context creation failed: %s: %v", e.Op, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// ShaderError carries the compiler diagnostic for a shader stage.
type ShaderError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("gfx: %s shader compile failed: %s", e.Stage, strings.TrimSpace(e.Log))
}

// LinkError carries the linker diagnostic for a program.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gfx: program link failed: %s", strings.TrimSpace(e.Log))
}
