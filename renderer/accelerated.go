package renderer

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/shader"
)

// State is the lifecycle state of an Accelerated renderer.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRendering
	StateFailed
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	case StateDisposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Accelerated draws effects as fragment programs over a full-screen quad.
type Accelerated struct {
	dev        graphics.Device
	loader     catalog.Loader
	translator shader.Translator
	transpiler Transpiler

	// Now supplies the wall clock for iDate.
	Now func() time.Time

	state    State
	quad     graphics.Mesh
	slot     programSlot
	lastTime float64
	frame    int32
	size     Size
}

// NewAccelerated returns an uninitialized renderer. With a nil transpiler the
// fragment stage is compiled as desktop GLSL 3.30; otherwise effects are
// translated for ESSL and passed through the transpiler first.
func NewAccelerated(dev graphics.Device, loader catalog.Loader, xl Transpiler) *Accelerated {
	profile := shader.ProfileCore
	if xl != nil {
		profile = shader.ProfileANGLE
	}
	return &Accelerated{
		dev:        dev,
		loader:     loader,
		translator: shader.Translator{Profile: profile},
		transpiler: xl,
		Now:        time.Now,
		slot:       programSlot{dev: dev},
	}
}

// State reports the lifecycle state.
func (a *Accelerated) State() State { return a.state }

// Frame reports how many frames have been drawn.
func (a *Accelerated) Frame() int32 { return a.frame }

// Initialize loads the device and uploads the quad. Any failure is an
// *InitError and leaves the renderer uninitialized.
func (a *Accelerated) Initialize() error {
	switch a.state {
	case StateUninitialized:
	case StateDisposed:
		return &InitError{Err: errors.New("renderer disposed")}
	default:
		return nil
	}

	if err := a.dev.Init(); err != nil {
		return &InitError{Err: err}
	}
	quad, err := graphics.CreateQuad(a.dev)
	if err != nil {
		return &InitError{Err: fmt.Errorf("failed to create quad: %w", err)}
	}
	if err := a.dev.Err(); err != nil {
		a.dev.DeleteMesh(quad)
		return &InitError{Err: err}
	}

	a.quad = quad
	a.state = StateReady
	log.Printf("Accelerated renderer ready (%s profile)", a.translator.Profile)
	return nil
}

// LoadEffect builds the program for the effect at index. A missing source is
// replaced by the default effect. When the build fails the previous program
// stays live; with no previous program the default effect is built instead.
// The returned error carries the compiler or linker diagnostic either way.
func (a *Accelerated) LoadEffect(index int) error {
	switch a.state {
	case StateReady, StateRendering:
	default:
		return fmt.Errorf("load effect %d: renderer is %s", index, a.state)
	}

	raw, err := a.loader.Source(index)
	if err != nil {
		log.Printf("Effect %d unavailable, using default: %v", index, err)
		raw = shader.DefaultEffect
	}

	p, err := a.build(raw, index)
	if err == nil {
		a.slot.replace(p)
		log.Printf("Loaded effect %d (%s)", index, catalog.Title(index))
		return nil
	}
	log.Printf("Effect %d (%s) failed to build: %v", index, catalog.Title(index), err)

	if a.slot.current != nil {
		log.Printf("Keeping effect %d", a.slot.current.index)
		return fmt.Errorf("effect %d: %w", index, err)
	}
	if raw == shader.DefaultEffect {
		return fmt.Errorf("effect %d: %w", index, err)
	}

	p, derr := a.build(shader.DefaultEffect, index)
	if derr != nil {
		log.Printf("Default effect failed to build: %v", derr)
		return fmt.Errorf("effect %d: %w", index, errors.Join(err, derr))
	}
	a.slot.replace(p)
	log.Printf("Using default effect in place of %d", index)
	return fmt.Errorf("effect %d: %w", index, err)
}

func (a *Accelerated) build(raw string, index int) (*program, error) {
	fs := a.translator.Translate(raw)

	var names map[string]string
	if a.transpiler != nil {
		code, mapped, err := a.transpiler.Transpile(fs)
		if err != nil {
			return nil, &graphics.ShaderCompileError{Stage: graphics.StageTranslate, Log: err.Error()}
		}
		fs, names = code, mapped
	}

	id, err := a.dev.CompileProgram(shader.GenerateVertexShader(a.translator.Profile), fs)
	if err != nil {
		return nil, err
	}
	return &program{id: id, index: index, locs: resolveLocations(a.dev, id, names)}, nil
}

// Render draws one frame at time t. A device error moves the renderer to
// StateFailed and is returned as *RenderFailure; so is rendering with no
// program or from a state other than ready/rendering.
func (a *Accelerated) Render(t float64, size Size) error {
	switch a.state {
	case StateReady, StateRendering:
	default:
		return &RenderFailure{Frame: a.frame, Err: fmt.Errorf("renderer is %s", a.state)}
	}
	p := a.slot.current
	if p == nil {
		a.state = StateFailed
		return &RenderFailure{Frame: a.frame, Err: ErrNoProgram}
	}

	size = size.Clamp()
	a.state = StateRendering
	u := NewFrameUniforms(t, a.lastTime, a.frame, size, a.Now())

	a.dev.Viewport(size.Width, size.Height)
	a.dev.Clear(0, 0, 0, 1)
	a.dev.UseProgram(p.id)
	p.locs.apply(a.dev, u)
	a.dev.DrawMesh(a.quad)

	if err := a.dev.Err(); err != nil {
		a.state = StateFailed
		return &RenderFailure{Frame: a.frame, Err: err}
	}

	a.lastTime = t
	a.frame++
	a.size = size
	return nil
}

// Snapshot reads back the last rendered frame.
func (a *Accelerated) Snapshot() (*image.RGBA, error) {
	if a.state != StateRendering {
		return nil, fmt.Errorf("snapshot: renderer is %s", a.state)
	}
	return a.dev.ReadPixels(a.size.Width, a.size.Height)
}

// Dispose releases the program and the quad. It is safe to call in any
// state and more than once.
func (a *Accelerated) Dispose() {
	if a.state == StateDisposed {
		return
	}
	a.slot.release()
	if a.state != StateUninitialized {
		a.dev.DeleteMesh(a.quad)
	}
	a.state = StateDisposed
}
