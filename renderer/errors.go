package renderer

import (
	"errors"
	"fmt"
)

// ErrNoProgram is the cause of a RenderFailure when no program ever linked.
var ErrNoProgram = errors.New("no linked program")

// InitError reports that the accelerated renderer could not be brought up.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("accelerated renderer unavailable: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// RenderFailure reports a device error while drawing a frame. The renderer
// is not usable afterwards.
type RenderFailure struct {
	Frame int32
	Err   error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render failed at frame %d: %v", e.Frame, e.Err)
}

func (e *RenderFailure) Unwrap() error { return e.Err }
