package renderer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/graphics/graphicstest"
)

// memLoader serves effect text from memory; an empty entry is missing.
type memLoader []string

func (m memLoader) Len() int { return len(m) }

func (m memLoader) Source(index int) (string, error) {
	if index < 0 || index >= len(m) || m[index] == "" {
		return "", fmt.Errorf("effect %d: %w", index, catalog.ErrResourceNotFound)
	}
	return m[index], nil
}

const (
	effectRed  = "void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0, 0.0, 0.0, 1.0); }"
	effectBlue = "void main() { fragColor = vec4(0.0, 0.0, 1.0, 1.0); }"
	swirlTag   = "Simple colorful swirl"
)

var fixedNow = time.Date(2024, time.March, 5, 13, 4, 5, 0, time.Local)

func newTestAccelerated(t *testing.T, dev *graphicstest.Device, loader catalog.Loader) *Accelerated {
	t.Helper()
	a := NewAccelerated(dev, loader, nil)
	a.Now = func() time.Time { return fixedNow }
	if err := a.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return a
}

func liveSource(t *testing.T, dev *graphicstest.Device) string {
	t.Helper()
	if len(dev.Programs) != 1 {
		t.Fatalf("live programs = %d, want 1", len(dev.Programs))
	}
	for _, src := range dev.Programs {
		return src
	}
	return ""
}

func TestAcceleratedInitialize(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})

	if a.State() != StateReady {
		t.Errorf("state = %v, want ready", a.State())
	}
	if len(dev.Meshes) != 1 {
		t.Fatalf("meshes = %d, want 1", len(dev.Meshes))
	}
	for _, m := range dev.Meshes {
		if m.IndexCount != 6 {
			t.Errorf("quad index count = %d, want 6", m.IndexCount)
		}
	}
}

func TestAcceleratedInitializeFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*graphicstest.Device)
	}{
		{"device init", func(d *graphicstest.Device) { d.InitErr = errors.New("no GL 3.3 context") }},
		{"device error after upload", func(d *graphicstest.Device) { d.MeshErr = &graphics.DeviceError{Code: 0x0502} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := graphicstest.New()
			tt.setup(dev)
			a := NewAccelerated(dev, memLoader{effectRed}, nil)

			err := a.Initialize()
			var initErr *InitError
			if !errors.As(err, &initErr) {
				t.Fatalf("Initialize() error = %v, want *InitError", err)
			}
			if a.State() != StateUninitialized {
				t.Errorf("state = %v, want uninitialized", a.State())
			}
			if len(dev.Meshes) != 0 {
				t.Error("quad leaked after a failed initialize")
			}
		})
	}
}

func TestLoadEffectReplacesProgram(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed, effectBlue})

	if err := a.LoadEffect(0); err != nil {
		t.Fatalf("LoadEffect(0): %v", err)
	}
	first := a.slot.current.id
	if err := a.LoadEffect(1); err != nil {
		t.Fatalf("LoadEffect(1): %v", err)
	}

	if src := liveSource(t, dev); !strings.Contains(src, effectBlue) {
		t.Error("live program is not effect 1")
	}
	if len(dev.Deleted) != 1 || dev.Deleted[0] != first {
		t.Errorf("deleted programs = %v, want [%d]", dev.Deleted, first)
	}
}

func TestLoadEffectKeepsLastGood(t *testing.T) {
	dev := graphicstest.New()
	dev.FailCompile = "BROKEN"
	a := newTestAccelerated(t, dev, memLoader{effectRed, "void mainImage(out vec4 c, in vec2 p) { BROKEN }"})

	if err := a.LoadEffect(0); err != nil {
		t.Fatalf("LoadEffect(0): %v", err)
	}
	err := a.LoadEffect(1)
	var compileErr *graphics.ShaderCompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("LoadEffect(1) error = %v, want *ShaderCompileError", err)
	}
	if !strings.Contains(compileErr.Log, "BROKEN") {
		t.Errorf("diagnostic %q does not carry the compiler log", compileErr.Log)
	}
	if src := liveSource(t, dev); !strings.Contains(src, effectRed) {
		t.Error("last good program was not kept")
	}
	if a.State() != StateReady {
		t.Errorf("state = %v, want ready", a.State())
	}
	if err := a.Render(1, Size{64, 64}); err != nil {
		t.Errorf("Render after a failed load: %v", err)
	}
}

func TestLoadEffectFallsBackToDefault(t *testing.T) {
	dev := graphicstest.New()
	dev.FailLink = "BROKEN"
	a := newTestAccelerated(t, dev, memLoader{"void main() { BROKEN }"})

	err := a.LoadEffect(0)
	var linkErr *graphics.ShaderLinkError
	if !errors.As(err, &linkErr) {
		t.Fatalf("LoadEffect(0) error = %v, want *ShaderLinkError", err)
	}
	if src := liveSource(t, dev); !strings.Contains(src, swirlTag) {
		t.Error("default effect was not substituted")
	}
	if err := a.Render(0.5, Size{32, 32}); err != nil {
		t.Errorf("Render with the default effect: %v", err)
	}
}

func TestLoadEffectMissingSourceUsesDefault(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed, ""})

	if err := a.LoadEffect(1); err != nil {
		t.Fatalf("LoadEffect(1): %v", err)
	}
	if src := liveSource(t, dev); !strings.Contains(src, swirlTag) {
		t.Error("missing effect did not load the default")
	}
}

func TestDefaultEffectFailureLeavesNoProgram(t *testing.T) {
	dev := graphicstest.New()
	dev.FailCompile = "mainImage"
	a := newTestAccelerated(t, dev, memLoader{effectRed})

	if err := a.LoadEffect(0); err == nil {
		t.Fatal("LoadEffect(0) succeeded although every program fails")
	}
	if len(dev.Programs) != 0 {
		t.Errorf("live programs = %d, want 0", len(dev.Programs))
	}

	err := a.Render(1, Size{16, 16})
	var failure *RenderFailure
	if !errors.As(err, &failure) || !errors.Is(err, ErrNoProgram) {
		t.Fatalf("Render() error = %v, want RenderFailure(ErrNoProgram)", err)
	}
	if a.State() != StateFailed {
		t.Errorf("state = %v, want failed", a.State())
	}
}

func TestRenderBindsUniforms(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}

	if err := a.Render(1.0, Size{640, 480}); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(1.5, Size{640, 480}); err != nil {
		t.Fatal(err)
	}

	want := map[string][]float32{
		"iResolution": {640, 480, 1},
		"iTime":       {1.5},
		"iTimeDelta":  {0.5},
		"iFrame":      {1},
		"iFrameRate":  {2},
		"iMouse":      {0, 0, 0, 0},
		"iDate":       {2024, 3, 5, 47045},
		"iSampleRate": {44100},
	}
	for name, w := range want {
		got := dev.Uniform(name)
		if fmt.Sprint(got) != fmt.Sprint(w) {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}
	if dev.Draws != 2 {
		t.Errorf("draws = %d, want 2", dev.Draws)
	}
	if a.Frame() != 2 {
		t.Errorf("frame = %d, want 2", a.Frame())
	}
	if a.State() != StateRendering {
		t.Errorf("state = %v, want rendering", a.State())
	}
}

func TestRenderClampsSizeAndFrameRate(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := a.Render(2, Size{0, -5}); err != nil {
			t.Fatal(err)
		}
	}
	if got := dev.ViewportSize; got != [2]int{1, 1} {
		t.Errorf("viewport = %v, want [1 1]", got)
	}
	if got := dev.Uniform("iFrameRate"); len(got) != 1 || got[0] != 60 {
		t.Errorf("iFrameRate with zero delta = %v, want 60", got)
	}
}

func TestRenderSkipsMissingUniforms(t *testing.T) {
	dev := graphicstest.New()
	dev.Missing["iDate"] = true
	dev.Missing["iMouse"] = true
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(1, Size{8, 8}); err != nil {
		t.Fatal(err)
	}

	if dev.Uniform("iDate") != nil || dev.Uniform("iMouse") != nil {
		t.Error("unresolved uniforms were uploaded")
	}
	if _, ok := dev.Uniforms[-1]; ok {
		t.Error("upload issued to location -1")
	}
	if dev.Uniform("iTime") == nil {
		t.Error("iTime was not uploaded")
	}
}

func TestRenderFailure(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}
	dev.FailDraw = true

	err := a.Render(1, Size{8, 8})
	var failure *RenderFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Render() error = %v, want *RenderFailure", err)
	}
	if !errors.Is(err, graphicstest.ErrDraw) {
		t.Errorf("failure cause = %v, want the device error", failure.Err)
	}
	if a.State() != StateFailed || a.Frame() != 0 {
		t.Errorf("state = %v frame = %d, want failed at 0", a.State(), a.Frame())
	}
	if err := a.Render(2, Size{8, 8}); err == nil {
		t.Error("Render from the failed state succeeded")
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}

	a.Dispose()
	a.Dispose()

	if len(dev.Programs) != 0 || len(dev.Meshes) != 0 {
		t.Errorf("leaked %d programs and %d meshes", len(dev.Programs), len(dev.Meshes))
	}
	if a.State() != StateDisposed {
		t.Errorf("state = %v, want disposed", a.State())
	}
	if err := a.Render(1, Size{8, 8}); err == nil {
		t.Error("Render after Dispose succeeded")
	}
	if err := a.Initialize(); err == nil {
		t.Error("Initialize after Dispose succeeded")
	}

	// never initialized
	NewAccelerated(graphicstest.New(), memLoader{}, nil).Dispose()
}

func TestSnapshot(t *testing.T) {
	dev := graphicstest.New()
	a := newTestAccelerated(t, dev, memLoader{effectRed})
	if _, err := a.Snapshot(); err == nil {
		t.Error("Snapshot before the first frame succeeded")
	}
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(1, Size{20, 10}); err != nil {
		t.Fatal(err)
	}
	img, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 20 || img.Rect.Dy() != 10 {
		t.Errorf("snapshot size = %v, want 20x10", img.Rect.Size())
	}
}

type fakeTranspiler struct {
	err error
}

func (f fakeTranspiler) Transpile(src string) (string, map[string]string, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return "#version 410 core\n" + src, map[string]string{"iTime": "_uiTime", "iResolution": "_uiResolution"}, nil
}

func TestTranspiledProgramUsesMappedNames(t *testing.T) {
	dev := graphicstest.New()
	a := NewAccelerated(dev, memLoader{effectRed}, fakeTranspiler{})
	a.Now = func() time.Time { return fixedNow }
	if err := a.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := a.LoadEffect(0); err != nil {
		t.Fatal(err)
	}
	if err := a.Render(3, Size{4, 4}); err != nil {
		t.Fatal(err)
	}

	if got := dev.Uniform("_uiTime"); len(got) != 1 || got[0] != 3 {
		t.Errorf("_uiTime = %v, want [3]", got)
	}
	if dev.Location("iTime") != -1 || dev.Location("iDate") != -1 {
		t.Error("unmapped names were looked up")
	}
	if src := liveSource(t, dev); !strings.HasPrefix(src, "#version 410 core\n#version 300 es") {
		t.Errorf("fragment stage did not go through the transpiler:\n%.60s", src)
	}
}

func TestTranspileErrorIsCompileError(t *testing.T) {
	dev := graphicstest.New()
	a := NewAccelerated(dev, memLoader{effectRed}, fakeTranspiler{err: errors.New("'x' : undeclared identifier")})
	if err := a.Initialize(); err != nil {
		t.Fatal(err)
	}
	err := a.LoadEffect(0)
	var compileErr *graphics.ShaderCompileError
	if !errors.As(err, &compileErr) || compileErr.Stage != graphics.StageTranslate {
		t.Fatalf("LoadEffect(0) error = %v, want translate-stage compile error", err)
	}
	if len(dev.Programs) != 0 {
		t.Error("a program linked although translation failed")
	}
}

func TestNewFrameUniforms(t *testing.T) {
	tests := []struct {
		name      string
		t, last   float64
		wantDelta float32
		wantRate  float32
	}{
		{"first frame", 0.25, 0, 0.25, 4},
		{"steady", 2.0, 1.5, 0.5, 2},
		{"zero delta", 3, 3, 0, 60},
		{"clock went back", 1, 2, -1, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewFrameUniforms(tt.t, tt.last, 7, Size{100, 50}, fixedNow)
			if u.TimeDelta != tt.wantDelta || u.FrameRate != tt.wantRate {
				t.Errorf("delta, rate = %v, %v; want %v, %v", u.TimeDelta, u.FrameRate, tt.wantDelta, tt.wantRate)
			}
			if u.Resolution != (mgl32.Vec3{100, 50, 1}) || u.Frame != 7 || u.SampleRate != SampleRate {
				t.Errorf("unexpected uniforms %+v", u)
			}
			if u.Mouse != (mgl32.Vec4{}) {
				t.Errorf("mouse = %v, want zero", u.Mouse)
			}
		})
	}
}

func TestDateVec(t *testing.T) {
	got := DateVec(time.Date(1999, time.December, 31, 23, 59, 59, 500, time.UTC))
	if want := (mgl32.Vec4{1999, 12, 31, 86399}); got != want {
		t.Errorf("DateVec() = %v, want %v", got, want)
	}
}
