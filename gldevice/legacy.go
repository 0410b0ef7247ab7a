package gldevice

import (
	"fmt"
	"image"
	"sync"

	gl21 "github.com/go-gl/gl/v2.1/gl"
	"github.com/richinsley/goshadersaver/graphics"
)

var legacyInitOnce sync.Once
var legacyInitErr error

// LegacyBlitter presents CPU-rendered frames through fixed-function GL 2.1,
// for contexts too old for the accelerated renderer.
type LegacyBlitter struct {
	texture uint32
	texW    int
	texH    int
}

// NewLegacyBlitter loads GL 2.1 entry points and creates the frame texture.
// The context must be current.
func NewLegacyBlitter() (*LegacyBlitter, error) {
	legacyInitOnce.Do(func() {
		legacyInitErr = gl21.Init()
	})
	if legacyInitErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL 2.1: %w", legacyInitErr)
	}

	b := &LegacyBlitter{}
	gl21.GenTextures(1, &b.texture)
	gl21.BindTexture(gl21.TEXTURE_2D, b.texture)
	gl21.TexParameteri(gl21.TEXTURE_2D, gl21.TEXTURE_MIN_FILTER, gl21.LINEAR)
	gl21.TexParameteri(gl21.TEXTURE_2D, gl21.TEXTURE_MAG_FILTER, gl21.LINEAR)
	gl21.TexParameteri(gl21.TEXTURE_2D, gl21.TEXTURE_WRAP_S, gl21.CLAMP_TO_EDGE)
	gl21.TexParameteri(gl21.TEXTURE_2D, gl21.TEXTURE_WRAP_T, gl21.CLAMP_TO_EDGE)
	gl21.BindTexture(gl21.TEXTURE_2D, 0)
	if err := legacyErr(); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("failed to create legacy blit texture: %w", err)
	}
	return b, nil
}

// Draw uploads frame and stretches it over a viewport of width x height.
func (b *LegacyBlitter) Draw(frame *image.RGBA, width, height int) error {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	gl21.BindTexture(gl21.TEXTURE_2D, b.texture)
	gl21.PixelStorei(gl21.UNPACK_ALIGNMENT, 1)
	gl21.PixelStorei(gl21.UNPACK_ROW_LENGTH, int32(frame.Stride/4))
	if w != b.texW || h != b.texH {
		gl21.TexImage2D(gl21.TEXTURE_2D, 0, gl21.RGBA8, int32(w), int32(h), 0, gl21.RGBA, gl21.UNSIGNED_BYTE, gl21.Ptr(frame.Pix))
		b.texW, b.texH = w, h
	} else {
		gl21.TexSubImage2D(gl21.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl21.RGBA, gl21.UNSIGNED_BYTE, gl21.Ptr(frame.Pix))
	}
	gl21.PixelStorei(gl21.UNPACK_ROW_LENGTH, 0)

	gl21.Viewport(0, 0, int32(width), int32(height))
	gl21.ClearColor(0, 0, 0, 1)
	gl21.Clear(gl21.COLOR_BUFFER_BIT)
	gl21.MatrixMode(gl21.PROJECTION)
	gl21.LoadIdentity()
	gl21.MatrixMode(gl21.MODELVIEW)
	gl21.LoadIdentity()

	// frame row 0 is the top of the screen
	gl21.Enable(gl21.TEXTURE_2D)
	gl21.Begin(gl21.QUADS)
	gl21.TexCoord2f(0, 1)
	gl21.Vertex2f(-1, -1)
	gl21.TexCoord2f(1, 1)
	gl21.Vertex2f(1, -1)
	gl21.TexCoord2f(1, 0)
	gl21.Vertex2f(1, 1)
	gl21.TexCoord2f(0, 0)
	gl21.Vertex2f(-1, 1)
	gl21.End()
	gl21.Disable(gl21.TEXTURE_2D)
	gl21.BindTexture(gl21.TEXTURE_2D, 0)
	return legacyErr()
}

// Destroy releases the frame texture.
func (b *LegacyBlitter) Destroy() {
	if b == nil || b.texture == 0 {
		return
	}
	gl21.DeleteTextures(1, &b.texture)
	b.texture = 0
}

func legacyErr() error {
	if code := gl21.GetError(); code != gl21.NO_ERROR {
		for gl21.GetError() != gl21.NO_ERROR {
		}
		return &graphics.DeviceError{Code: code}
	}
	return nil
}
