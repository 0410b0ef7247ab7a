package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/richinsley/goshadersaver/config"
	"github.com/richinsley/goshadersaver/encoder"
	"github.com/richinsley/goshadersaver/gldevice"
	"github.com/richinsley/goshadersaver/glfwcontext"
	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/headless"
	"github.com/richinsley/goshadersaver/renderer"
	"github.com/richinsley/goshadersaver/session"
)

// offscreenContext opens a GL context and returns its release func.
type offscreenContext struct {
	name string
	open func() (func(), error)
}

func offscreenContexts(cfg *config.Config, width, height int) []offscreenContext {
	return []offscreenContext{
		{"hidden window", func() (func(), error) {
			if err := glfwcontext.InitGraphics(); err != nil {
				return nil, err
			}
			win, err := glfwcontext.New(glfwcontext.WindowOptions{
				Width:    width,
				Height:   height,
				Title:    cfg.Window.Title,
				CoreOnly: true,
			})
			if err != nil {
				glfwcontext.TerminateGraphics()
				return nil, err
			}
			win.MakeCurrent()
			return func() {
				win.Shutdown()
				glfwcontext.TerminateGraphics()
			}, nil
		}},
		{"headless EGL context", func() (func(), error) {
			pbuffer, err := headless.New(width, height)
			if err != nil {
				return nil, err
			}
			return pbuffer.Shutdown, nil
		}},
	}
}

// offscreenDevice finds a GL context for offline rendering and attaches a
// width x height framebuffer object, so frames never depend on a window
// surface. With no usable context it logs and returns a nil device so the
// caller runs software only; release must be called either way.
func offscreenDevice(cfg *config.Config, width, height int) (dev graphics.Device, release func()) {
	release = func() {}
	if cfg.Render.Software {
		return nil, release
	}

	for _, c := range offscreenContexts(cfg, width, height) {
		closeContext, err := c.open()
		if err != nil {
			log.Printf("No %s: %v", c.name, err)
			continue
		}
		gd := gldevice.New()
		target, err := attachTarget(gd, width, height)
		if err != nil {
			log.Printf("No offscreen target on the %s: %v", c.name, err)
			closeContext()
			continue
		}
		log.Printf("Rendering offscreen through a %s", c.name)
		return gd, func() {
			target.Destroy()
			closeContext()
		}
	}
	log.Println("No GL context, rendering in software")
	return nil, release
}

func attachTarget(dev *gldevice.Device, width, height int) (*gldevice.Offscreen, error) {
	if err := dev.Init(); err != nil {
		return nil, err
	}
	return dev.NewOffscreen(width, height)
}

// runRecord renders the effect cycle offline into a video file.
func runRecord(cfg *config.Config) error {
	rc := cfg.Record
	dev, release := offscreenDevice(cfg, rc.Width, rc.Height)
	defer release()

	p, err := newPipeline(cfg, dev)
	if err != nil {
		return err
	}
	defer p.Close()
	p.sess.Start()

	enc, err := encoder.New(encoder.Options{
		Output:     rc.Output,
		Width:      rc.Width,
		Height:     rc.Height,
		FPS:        rc.FPS,
		Codec:      rc.Codec,
		FFmpegPath: rc.FFmpegPath,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	recOpts := session.RecordOptions{
		Duration: time.Duration(rc.DurationSeconds * float64(time.Second)),
		FPS:      rc.FPS,
		Interval: cfg.Interval(),
		Size:     renderer.Size{Width: rc.Width, Height: rc.Height},
	}
	if cfg.Render.DebugOverlay {
		recOpts.Decorate = func(img *image.RGBA, index int, path session.Path) {
			renderer.DrawOverlay(img, caption(index, path)...)
		}
	}

	n, recErr := p.sess.Record(ctx, enc, recOpts)
	if err := enc.Close(); err != nil && recErr == nil {
		recErr = fmt.Errorf("finishing %s: %w", rc.Output, err)
	}
	if recErr != nil {
		return recErr
	}
	log.Printf("Successfully rendered %d frames to %s", n, rc.Output)
	return nil
}

// runSnapshot renders the current effect once at time t and saves a PNG.
func runSnapshot(cfg *config.Config, t float64, output string) error {
	rc := cfg.Record
	dev, release := offscreenDevice(cfg, rc.Width, rc.Height)
	defer release()

	p, err := newPipeline(cfg, dev)
	if err != nil {
		return err
	}
	defer p.Close()
	p.sess.Start()

	path := p.sess.Render(t, renderer.Size{Width: rc.Width, Height: rc.Height})
	img, err := p.sess.Frame()
	if err != nil {
		return err
	}
	if cfg.Render.DebugOverlay {
		renderer.DrawOverlay(img, caption(p.sess.Current(), path)...)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", output, err)
	}
	log.Printf("Saved %s frame at t=%.2fs to %s", path, t, output)
	return nil
}
