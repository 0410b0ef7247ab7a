package renderer

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goshadersaver/graphics"
)

// SampleRate is the constant value bound to iSampleRate.
const SampleRate = 44100

// fallbackFrameRate is reported when the time step is not positive.
const fallbackFrameRate = 60

// Uniforms holds the values bound to a program for one frame.
type Uniforms struct {
	Resolution mgl32.Vec3
	Time       float32
	TimeDelta  float32
	Frame      int32
	FrameRate  float32
	Mouse      mgl32.Vec4
	Date       mgl32.Vec4
	SampleRate float32
}

// NewFrameUniforms computes the uniform values of frame drawn at t, given the
// time of the previous frame.
func NewFrameUniforms(t, last float64, frame int32, size Size, now time.Time) Uniforms {
	dt := float32(t - last)
	rate := float32(fallbackFrameRate)
	if dt > 0 {
		rate = 1 / dt
	}
	return Uniforms{
		Resolution: mgl32.Vec3{float32(size.Width), float32(size.Height), 1},
		Time:       float32(t),
		TimeDelta:  dt,
		Frame:      frame,
		FrameRate:  rate,
		Date:       DateVec(now),
		SampleRate: SampleRate,
	}
}

// DateVec packs year, month (1-12), day and seconds since midnight.
func DateVec(now time.Time) mgl32.Vec4 {
	secs := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return mgl32.Vec4{float32(now.Year()), float32(now.Month()), float32(now.Day()), float32(secs)}
}

// uniformLocations are resolved once per linked program; -1 marks a uniform
// the program does not expose.
type uniformLocations struct {
	resolution int32
	time       int32
	timeDelta  int32
	frame      int32
	frameRate  int32
	mouse      int32
	date       int32
	sampleRate int32
}

// resolveLocations looks up every bound uniform. With a non-nil names map the
// lookup goes through the mapped name, and unmapped uniforms resolve to -1.
func resolveLocations(dev graphics.Device, program uint32, names map[string]string) uniformLocations {
	lookup := func(name string) int32 {
		if names != nil {
			mapped, ok := names[name]
			if !ok {
				return -1
			}
			name = mapped
		}
		return dev.UniformLocation(program, name)
	}
	return uniformLocations{
		resolution: lookup("iResolution"),
		time:       lookup("iTime"),
		timeDelta:  lookup("iTimeDelta"),
		frame:      lookup("iFrame"),
		frameRate:  lookup("iFrameRate"),
		mouse:      lookup("iMouse"),
		date:       lookup("iDate"),
		sampleRate: lookup("iSampleRate"),
	}
}

func (l uniformLocations) apply(dev graphics.Device, u Uniforms) {
	if l.resolution != -1 {
		dev.Uniform3f(l.resolution, u.Resolution.X(), u.Resolution.Y(), u.Resolution.Z())
	}
	if l.time != -1 {
		dev.Uniform1f(l.time, u.Time)
	}
	if l.timeDelta != -1 {
		dev.Uniform1f(l.timeDelta, u.TimeDelta)
	}
	if l.frame != -1 {
		dev.Uniform1i(l.frame, u.Frame)
	}
	if l.frameRate != -1 {
		dev.Uniform1f(l.frameRate, u.FrameRate)
	}
	if l.mouse != -1 {
		dev.Uniform4f(l.mouse, u.Mouse.X(), u.Mouse.Y(), u.Mouse.Z(), u.Mouse.W())
	}
	if l.date != -1 {
		dev.Uniform4f(l.date, u.Date.X(), u.Date.Y(), u.Date.Z(), u.Date.W())
	}
	if l.sampleRate != -1 {
		dev.Uniform1f(l.sampleRate, u.SampleRate)
	}
}
