//go:build !linux

package headless

import (
	"errors"

	"github.com/richinsley/goshadersaver/graphics"
)

// Context is unavailable off Linux.
type Context struct{ graphics.Context }

// New always fails on this platform.
func New(width, height int) (*Context, error) {
	return nil, errors.New("egl headless rendering is not supported on this platform")
}
