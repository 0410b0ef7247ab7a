package gldevice

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goshadersaver/graphics"
)

const blitVertexShaderSource = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
out vec2 frag_uv;
void main() {
    frag_uv = aTexCoord;
    gl_Position = vec4(aPos, 1.0);
}
`

// Software frames are top-down, so the texture is sampled with v flipped.
const blitFragmentShaderSourceFlip = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y)); }
`

// Blitter presents CPU-rendered frames on the default framebuffer.
type Blitter struct {
	dev        *Device
	program    uint32
	textureLoc int32
	texture    uint32
	texW       int
	texH       int
	quad       graphics.Mesh
}

// NewBlitter builds the blit program and quad. The GL context must be current.
func NewBlitter(dev *Device) (*Blitter, error) {
	if err := dev.Init(); err != nil {
		return nil, err
	}
	program, err := newProgram(blitVertexShaderSource, blitFragmentShaderSourceFlip)
	if err != nil {
		return nil, fmt.Errorf("failed to create blit program: %w", err)
	}
	quad, err := graphics.CreateQuad(dev)
	if err != nil {
		gl.DeleteProgram(program)
		return nil, fmt.Errorf("failed to create blit quad: %w", err)
	}
	b := &Blitter{
		dev:        dev,
		program:    program,
		textureLoc: gl.GetUniformLocation(program, gl.Str("u_texture\x00")),
		quad:       quad,
	}
	gl.GenTextures(1, &b.texture)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return b, nil
}

// Draw uploads frame and stretches it over a viewport of width x height.
func (b *Blitter) Draw(frame *image.RGBA, width, height int) error {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(frame.Stride/4))
	if w != b.texW || h != b.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
		b.texW, b.texH = w, h
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
	}
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	b.dev.Viewport(width, height)
	b.dev.Clear(0, 0, 0, 1)
	gl.UseProgram(b.program)
	if b.textureLoc != -1 {
		gl.Uniform1i(b.textureLoc, 0)
	}
	b.dev.DrawMesh(b.quad)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return b.dev.Err()
}

// Destroy releases the blit program, texture and quad.
func (b *Blitter) Destroy() {
	if b == nil {
		return
	}
	gl.DeleteTextures(1, &b.texture)
	gl.DeleteProgram(b.program)
	b.dev.DeleteMesh(b.quad)
}
