// Package session drives one accelerated and one software renderer over a
// shared effect cycle, downgrading to software when the GPU path fails.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/cycle"
	"github.com/richinsley/goshadersaver/renderer"
	"github.com/richinsley/goshadersaver/telemetry"
)

// Path identifies the renderer that draws frames.
type Path int

const (
	PathSoftware Path = iota
	PathAccelerated
)

func (p Path) String() string {
	if p == PathAccelerated {
		return "accelerated"
	}
	return "software"
}

// Clock supplies the wall time frames are measured against.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// snapshotter is implemented by renderers that can read back their last frame.
type snapshotter interface {
	Snapshot() (*image.RGBA, error)
}

// Options configures a Session.
type Options struct {
	// Accelerated is tried first; nil runs software only.
	Accelerated renderer.Renderer
	Software    *renderer.Software
	Cycle       *cycle.Cycle
	// Clock defaults to SystemClock.
	Clock Clock
	// Telemetry may be nil.
	Telemetry *telemetry.Collector
}

// Session is not safe for concurrent use; all calls belong on the thread that
// owns the graphics context.
type Session struct {
	accel     renderer.Renderer
	soft      *renderer.Software
	cycle     *cycle.Cycle
	clock     Clock
	telemetry *telemetry.Collector

	path  Path
	start time.Time
}

// New returns a session that has not started yet.
func New(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Session{
		accel:     opts.Accelerated,
		soft:      opts.Software,
		cycle:     opts.Cycle,
		clock:     clock,
		telemetry: opts.Telemetry,
		path:      PathSoftware,
	}
}

// Start captures the start instant, brings up the accelerated renderer if
// possible and loads the current effect into every live renderer.
func (s *Session) Start() Path {
	s.start = s.clock.Now()
	index := s.cycle.Current()

	if s.accel != nil {
		if err := s.accel.Initialize(); err != nil {
			log.Printf("Falling back to software rendering: %v", err)
			s.accel.Dispose()
			s.accel = nil
		} else {
			s.path = PathAccelerated
			s.load(s.accel, index)
		}
	}

	_ = s.soft.Initialize()
	s.load(s.soft, index)

	log.Printf("Session started on effect %d (%s), %s path", index, catalog.Title(index), s.path)
	s.telemetry.Begin(index, catalog.Title(index), s.path.String())
	return s.path
}

func (s *Session) load(r renderer.Renderer, index int) {
	if err := r.LoadEffect(index); err != nil {
		log.Printf("Effect %d: %v", index, err)
	}
}

// Active reports which path draws the next frame.
func (s *Session) Active() Path { return s.path }

// Current returns the catalog index of the current effect.
func (s *Session) Current() int { return s.cycle.Current() }

// Elapsed returns the time since Start.
func (s *Session) Elapsed() time.Duration { return s.clock.Now().Sub(s.start) }

// Tick renders a frame at the elapsed session time.
func (s *Session) Tick(size renderer.Size) Path {
	return s.Render(s.Elapsed().Seconds(), size)
}

// Render draws one frame at t and reports the path that drew it. A failure
// of the accelerated renderer disposes it and the same frame is drawn by the
// software renderer; the session never goes back.
func (s *Session) Render(t float64, size renderer.Size) Path {
	began := s.clock.Now()
	if s.path == PathAccelerated {
		err := s.accel.Render(t, size)
		if err == nil {
			s.telemetry.Frame(s.clock.Now().Sub(began), PathAccelerated.String())
			return PathAccelerated
		}
		s.demote(err)
	}
	_ = s.soft.Render(t, size)
	s.telemetry.Frame(s.clock.Now().Sub(began), PathSoftware.String())
	return PathSoftware
}

func (s *Session) demote(err error) {
	var failure *renderer.RenderFailure
	if errors.As(err, &failure) {
		log.Printf("Accelerated rendering failed at frame %d, switching to software: %v", failure.Frame, failure.Err)
	} else {
		log.Printf("Accelerated rendering failed, switching to software: %v", err)
	}
	s.accel.Dispose()
	s.accel = nil
	s.path = PathSoftware
	s.telemetry.Demoted()
}

// OnEffectAdvance moves to the next effect and reloads every live renderer.
func (s *Session) OnEffectAdvance() int {
	index := s.cycle.Advance()
	log.Printf("Switching to effect %d (%s)", index, catalog.Title(index))
	if s.accel != nil {
		s.load(s.accel, index)
	}
	s.load(s.soft, index)
	s.telemetry.Begin(index, catalog.Title(index), s.path.String())
	return index
}

// Frame returns the pixels of the last rendered frame.
func (s *Session) Frame() (*image.RGBA, error) {
	if s.path == PathAccelerated {
		snap, ok := s.accel.(snapshotter)
		if !ok {
			return nil, fmt.Errorf("accelerated renderer cannot read back frames")
		}
		return snap.Snapshot()
	}
	if f := s.soft.Frame(); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("no frame rendered yet")
}

// SoftwareFrame returns the last software frame, or nil.
func (s *Session) SoftwareFrame() *image.RGBA { return s.soft.Frame() }

// Dispose closes telemetry and releases both renderers.
func (s *Session) Dispose() {
	s.telemetry.Close()
	if s.accel != nil {
		s.accel.Dispose()
		s.accel = nil
	}
	s.soft.Dispose()
}
