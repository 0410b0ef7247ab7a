package main

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goshadersaver/config"
	"github.com/richinsley/goshadersaver/gldevice"
	"github.com/richinsley/goshadersaver/glfwcontext"
	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/renderer"
	"github.com/richinsley/goshadersaver/session"
)

// runLive shows the effect cycle in a window until it is closed. The
// screensaver variant is fullscreen and closes on any input.
func runLive(cfg *config.Config, screensaver bool) error {
	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("initializing graphics: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	win, err := glfwcontext.New(glfwcontext.WindowOptions{
		Width:          cfg.Window.Width,
		Height:         cfg.Window.Height,
		Title:          cfg.Window.Title,
		Visible:        true,
		Fullscreen:     screensaver,
		DismissOnInput: screensaver,
	})
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Shutdown()
	win.MakeCurrent()

	dev := liveDevice(win.Profile())
	if dev == nil {
		log.Printf("No %s context, rendering in software", glfwcontext.ProfileCore)
	}
	p, err := newPipeline(cfg, dev)
	if err != nil {
		return err
	}
	defer p.Close()

	p.sess.Start()

	var out presenter
	defer func() {
		if out != nil {
			out.Destroy()
		}
	}()

	frameTicker := time.NewTicker(time.Second / time.Duration(cfg.Render.FPS))
	defer frameTicker.Stop()
	advanceTicker := time.NewTicker(cfg.Interval())
	defer advanceTicker.Stop()

	// N skips ahead in the preview window and restarts the interval
	win.RegisterKeyCallback(glfw.KeyN, func() {
		p.sess.OnEffectAdvance()
		advanceTicker.Reset(cfg.Interval())
	})

	log.Println("Starting interactive render loop...")
	for !win.ShouldClose() {
		select {
		case <-advanceTicker.C:
			p.sess.OnEffectAdvance()
		case <-frameTicker.C:
			width, height := win.GetFramebufferSize()
			size := renderer.Size{Width: width, Height: height}.Clamp()

			if p.sess.Tick(size) == session.PathSoftware {
				if out == nil {
					if out, err = newPresenter(dev); err != nil {
						return err
					}
				}
				frame := p.sess.SoftwareFrame()
				if cfg.Render.DebugOverlay {
					renderer.DrawOverlay(frame, caption(p.sess.Current(), session.PathSoftware)...)
				}
				if err := out.Draw(frame, size.Width, size.Height); err != nil {
					log.Printf("Error presenting software frame: %v", err)
				}
			}
			win.EndFrame()
		}
	}
	return nil
}

// liveDevice returns the accelerated device for a core context and nil, so
// the session runs software only, for anything older.
func liveDevice(profile glfwcontext.Profile) graphics.Device {
	if profile != glfwcontext.ProfileCore {
		return nil
	}
	return gldevice.New()
}

// presenter puts software frames on the window.
type presenter interface {
	Draw(frame *image.RGBA, width, height int) error
	Destroy()
}

// newPresenter prefers the core blitter on dev and falls back to fixed
// function GL when dev is nil or cannot start.
func newPresenter(dev graphics.Device) (presenter, error) {
	var errs []error
	if core, ok := dev.(*gldevice.Device); ok {
		b, err := gldevice.NewBlitter(core)
		if err == nil {
			return b, nil
		}
		log.Printf("Core blitter unavailable, trying GL 2.1: %v", err)
		errs = append(errs, err)
	}
	lb, err := gldevice.NewLegacyBlitter()
	if err != nil {
		errs = append(errs, err)
		return nil, fmt.Errorf("no way to present software frames: %w", errors.Join(errs...))
	}
	return lb, nil
}
