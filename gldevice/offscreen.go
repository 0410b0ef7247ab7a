package gldevice

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Offscreen is a framebuffer object with an RGBA8 texture attachment. While
// it is attached the Device draws into it and reads back from it instead of
// the window's default framebuffer.
type Offscreen struct {
	dev       *Device
	fbo       uint32
	textureID uint32
	width     int
	height    int
}

// NewOffscreen creates a width x height target and attaches it to d. Init
// must have succeeded.
func (d *Device) NewOffscreen(width, height int) (*Offscreen, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	o := &Offscreen{dev: d, width: width, height: height}

	gl.GenFramebuffers(1, &o.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.GenTextures(1, &o.textureID)
	gl.BindTexture(gl.TEXTURE_2D, o.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, o.textureID, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := framebufferStatusError(gl.CheckFramebufferStatus(gl.FRAMEBUFFER)); err != nil {
		o.release()
		return nil, err
	}
	if err := d.Err(); err != nil {
		o.release()
		return nil, fmt.Errorf("failed to create offscreen target: %w", err)
	}

	d.target = o
	return o, nil
}

// Size returns the target dimensions.
func (o *Offscreen) Size() (int, int) { return o.width, o.height }

// Destroy detaches the target and frees it.
func (o *Offscreen) Destroy() {
	if o == nil {
		return
	}
	if o.dev.target == o {
		o.dev.target = nil
	}
	o.release()
}

func (o *Offscreen) release() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if o.textureID != 0 {
		gl.DeleteTextures(1, &o.textureID)
		o.textureID = 0
	}
	if o.fbo != 0 {
		gl.DeleteFramebuffers(1, &o.fbo)
		o.fbo = 0
	}
}

func framebufferStatusError(status uint32) error {
	var reason string
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		reason = "incomplete attachment"
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		reason = "missing attachment"
	case gl.FRAMEBUFFER_UNSUPPORTED:
		reason = "unsupported format"
	default:
		reason = fmt.Sprintf("status 0x%04x", status)
	}
	return fmt.Errorf("offscreen fbo is not complete: %s", reason)
}

// checkReadback rejects reads that fall outside the attached target.
func checkReadback(width, height int, target *Offscreen) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid readback size %dx%d", width, height)
	}
	if target != nil && (width > target.width || height > target.height) {
		return fmt.Errorf("readback %dx%d exceeds the %dx%d offscreen target", width, height, target.width, target.height)
	}
	return nil
}
