package session

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/richinsley/goshadersaver/renderer"
)

// FrameSink consumes rendered frames in order.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// RecordOptions controls an offline render.
type RecordOptions struct {
	Duration time.Duration
	FPS      int
	// Interval between effect switches in simulated time; 0 never switches.
	Interval time.Duration
	Size     renderer.Size
	// Decorate, if set, may draw onto each frame before it is written.
	Decorate func(img *image.RGBA, index int, path Path)
}

// Record renders Duration*FPS frames on a fixed time step and writes each to
// sink, advancing the effect whenever simulated time crosses Interval. The
// context is checked between frames. It returns the number of frames written.
func (s *Session) Record(ctx context.Context, sink FrameSink, opts RecordOptions) (int, error) {
	if opts.FPS < 1 {
		return 0, fmt.Errorf("record: fps must be at least 1, got %d", opts.FPS)
	}
	size := opts.Size.Clamp()
	total := int(opts.Duration.Seconds() * float64(opts.FPS))
	step := 1.0 / float64(opts.FPS)
	interval := opts.Interval.Seconds()
	nextSwitch := interval

	log.Printf("Recording %d frames at %dx%d, %d fps", total, size.Width, size.Height, opts.FPS)
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}

		t := float64(i) * step
		for interval > 0 && t >= nextSwitch {
			s.OnEffectAdvance()
			nextSwitch += interval
		}

		path := s.Render(t, size)
		img, err := s.Frame()
		if err != nil {
			return i, fmt.Errorf("reading frame %d: %w", i, err)
		}
		if opts.Decorate != nil {
			opts.Decorate(img, s.Current(), path)
		}
		if err := sink.WriteFrame(img); err != nil {
			return i, fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	log.Printf("Recorded %d frames", total)
	return total, nil
}
