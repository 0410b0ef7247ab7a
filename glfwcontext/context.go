package glfwcontext

import (
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goshadersaver/graphics"
)

var _ graphics.Context = (*Context)(nil)

// dismissSlack is how far, in screen pixels, the cursor may drift before a
// screensaver window closes itself.
const dismissSlack = 3

// Profile is the kind of GL context a window carries.
type Profile int

const (
	// ProfileCore is a forward-compatible 4.1 core context.
	ProfileCore Profile = iota
	// ProfileLegacy is whatever context the driver offers by default.
	ProfileLegacy
)

func (p Profile) String() string {
	if p == ProfileLegacy {
		return "legacy"
	}
	return "4.1 core"
}

// WindowOptions describes the host window.
type WindowOptions struct {
	Width      int
	Height     int
	Title      string
	Visible    bool
	Fullscreen bool
	// DismissOnInput closes the window on any key, click or cursor motion.
	DismissOnInput bool
	// CoreOnly fails instead of falling back to a legacy context.
	CoreOnly bool
}

func (o WindowOptions) profiles() []Profile {
	if o.CoreOnly {
		return []Profile{ProfileCore}
	}
	return []Profile{ProfileCore, ProfileLegacy}
}

// createWindow asks create for each profile in turn and keeps the first
// window that opens.
func createWindow(profiles []Profile, create func(Profile) (*glfw.Window, error)) (*glfw.Window, Profile, error) {
	var errs []error
	for _, p := range profiles {
		win, err := create(p)
		if err == nil {
			return win, p, nil
		}
		log.Printf("No %s GL context: %v", p, err)
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
	}
	return nil, ProfileCore, errors.Join(errs...)
}

func applyHints(p Profile, visible bool) {
	glfw.DefaultWindowHints()
	if p == ProfileCore {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}
	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
}

// Context is a glfw window and its GL context.
type Context struct {
	window  *glfw.Window
	profile Profile
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()

	dismiss      bool
	cursorPinned bool
	cursorX      float64
	cursorY      float64
}

// New creates a window, preferring a 4.1 core context and falling back to
// the driver default unless CoreOnly is set.
func New(opts WindowOptions) (*Context, error) {
	width, height := opts.Width, opts.Height
	var monitor *glfw.Monitor
	if opts.Fullscreen && opts.Visible {
		monitor = glfw.GetPrimaryMonitor()
		if monitor != nil {
			mode := monitor.GetVideoMode()
			width, height = mode.Width, mode.Height
		}
	}

	win, profile, err := createWindow(opts.profiles(), func(p Profile) (*glfw.Window, error) {
		applyHints(p, opts.Visible)
		return glfw.CreateWindow(width, height, opts.Title, monitor, nil)
	})
	if err != nil {
		return nil, err
	}
	if profile != ProfileCore {
		log.Printf("Window opened with a %s GL context", profile)
	}

	c := &Context{
		window:       win,
		profile:      profile,
		keyCallbacks: make(map[glfw.Key]func()),
		dismiss:      opts.DismissOnInput,
	}

	win.SetKeyCallback(c.glfwKeyCallback)
	if c.dismiss {
		win.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
		win.SetMouseButtonCallback(c.glfwMouseButtonCallback)
		win.SetCursorPosCallback(c.glfwCursorPosCallback)
	}

	return c, nil
}

// RegisterKeyCallback allows the main application to register a function to be
// called when a specific key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if c.dismiss || key == glfw.KeyEscape {
		w.SetShouldClose(true)
		return
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	}
}

func (c *Context) glfwMouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Press {
		w.SetShouldClose(true)
	}
}

// The first cursor event only records where the pointer rests.
func (c *Context) glfwCursorPosCallback(w *glfw.Window, x, y float64) {
	if !c.cursorPinned {
		c.cursorX, c.cursorY = x, y
		c.cursorPinned = true
		return
	}
	if movedPast(c.cursorX, c.cursorY, x, y, dismissSlack) {
		w.SetShouldClose(true)
	}
}

func movedPast(x0, y0, x1, y1, slack float64) bool {
	return math.Abs(x1-x0) > slack || math.Abs(y1-y0) > slack
}

// Profile reports the context the window was created with.
func (c *Context) Profile() Profile { return c.profile }

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown only destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
