package session

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/cycle"
	"github.com/richinsley/goshadersaver/renderer"
	"github.com/richinsley/goshadersaver/telemetry"
)

// fakeAccel is a scripted accelerated renderer.
type fakeAccel struct {
	initErr error
	failAt  int // 1-based Render call that fails; 0 never

	inits, renders, disposes int
	loaded                   []int
	lastT                    float64
}

func (f *fakeAccel) Initialize() error {
	f.inits++
	return f.initErr
}

func (f *fakeAccel) LoadEffect(index int) error {
	f.loaded = append(f.loaded, index)
	return nil
}

func (f *fakeAccel) Render(t float64, size renderer.Size) error {
	f.renders++
	f.lastT = t
	if f.failAt != 0 && f.renders >= f.failAt {
		return &renderer.RenderFailure{Frame: int32(f.renders - 1), Err: errors.New("device lost")}
	}
	return nil
}

func (f *fakeAccel) Snapshot() (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (f *fakeAccel) Dispose() { f.disposes++ }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newSession(t *testing.T, accel renderer.Renderer, start int) (*Session, *renderer.Software, *fakeClock) {
	t.Helper()
	c, err := cycle.New(len(catalog.Effects), start)
	if err != nil {
		t.Fatal(err)
	}
	soft := renderer.NewSoftware(catalog.Embedded{})
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := New(Options{Accelerated: accel, Software: soft, Cycle: c, Clock: clock})
	return s, soft, clock
}

var frameSize = renderer.Size{Width: 32, Height: 24}

func TestStartFallsBackWhenInitFails(t *testing.T) {
	accel := &fakeAccel{initErr: &renderer.InitError{Err: errors.New("no GL 3.3 context")}}
	s, soft, _ := newSession(t, accel, 4)

	if got := s.Start(); got != PathSoftware {
		t.Fatalf("Start() = %v, want software", got)
	}
	if len(accel.loaded) != 0 {
		t.Errorf("failed accelerated renderer was loaded with %v", accel.loaded)
	}
	if soft.Index() != 4 {
		t.Errorf("software index = %d, want 4", soft.Index())
	}
	if got := s.Render(1, frameSize); got != PathSoftware || accel.renders != 0 {
		t.Errorf("Render() = %v with %d accelerated calls", got, accel.renders)
	}
	if s.SoftwareFrame() == nil {
		t.Error("software renderer did not draw")
	}
}

func TestStartLoadsSameEffectEverywhere(t *testing.T) {
	accel := &fakeAccel{}
	s, soft, _ := newSession(t, accel, 7)

	if got := s.Start(); got != PathAccelerated {
		t.Fatalf("Start() = %v, want accelerated", got)
	}
	if len(accel.loaded) != 1 || accel.loaded[0] != 7 || soft.Index() != 7 {
		t.Errorf("loaded accelerated %v, software %d; want 7 for both", accel.loaded, soft.Index())
	}
	if got := s.Render(0.5, frameSize); got != PathAccelerated {
		t.Errorf("Render() = %v, want accelerated", got)
	}
}

func TestRenderFailureDemotesOnce(t *testing.T) {
	accel := &fakeAccel{failAt: 3}
	s, soft, _ := newSession(t, accel, 0)
	s.Start()

	var paths []Path
	for i := 0; i < 6; i++ {
		paths = append(paths, s.Render(float64(i)*0.1, frameSize))
	}

	want := []Path{PathAccelerated, PathAccelerated, PathSoftware, PathSoftware, PathSoftware, PathSoftware}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
	}
	if accel.renders != 3 {
		t.Errorf("accelerated Render calls = %d, want 3", accel.renders)
	}
	if accel.disposes != 1 {
		t.Errorf("accelerated Dispose calls = %d, want 1", accel.disposes)
	}
	if s.Active() != PathSoftware {
		t.Errorf("Active() = %v, want software", s.Active())
	}
	if soft.Frame() == nil {
		t.Error("the failed frame was not drawn in software")
	}
}

func TestAdvanceReloadsLiveRenderers(t *testing.T) {
	accel := &fakeAccel{failAt: 1}
	s, soft, _ := newSession(t, accel, 10)
	s.Start()

	if got := s.OnEffectAdvance(); got != 11 {
		t.Fatalf("OnEffectAdvance() = %d, want 11", got)
	}
	if len(accel.loaded) != 2 || accel.loaded[1] != 11 || soft.Index() != 11 {
		t.Errorf("after advance: accelerated %v, software %d", accel.loaded, soft.Index())
	}

	s.Render(0, frameSize) // demotes

	if got := s.OnEffectAdvance(); got != 0 {
		t.Fatalf("OnEffectAdvance() = %d, want wrap to 0", got)
	}
	if len(accel.loaded) != 2 {
		t.Errorf("disposed accelerated renderer was reloaded: %v", accel.loaded)
	}
	if soft.Index() != 0 || s.Current() != 0 {
		t.Errorf("software index %d, current %d; want 0", soft.Index(), s.Current())
	}
}

func TestTickUsesElapsedTime(t *testing.T) {
	accel := &fakeAccel{}
	s, _, clock := newSession(t, accel, 0)
	s.Start()

	clock.now = clock.now.Add(2500 * time.Millisecond)
	s.Tick(frameSize)
	if accel.lastT != 2.5 {
		t.Errorf("render time = %v, want 2.5", accel.lastT)
	}
	clock.now = clock.now.Add(time.Second)
	s.Tick(frameSize)
	if accel.lastT != 3.5 {
		t.Errorf("render time = %v, want 3.5", accel.lastT)
	}
}

func TestFrame(t *testing.T) {
	s, _, _ := newSession(t, nil, 0)
	s.Start()
	if _, err := s.Frame(); err == nil {
		t.Error("Frame() before the first render succeeded")
	}
	s.Render(1, frameSize)
	img, err := s.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Size() != image.Pt(32, 24) {
		t.Errorf("frame size = %v", img.Rect.Size())
	}

	accel := &fakeAccel{}
	s, _, _ = newSession(t, accel, 0)
	s.Start()
	s.Render(1, frameSize)
	if img, err := s.Frame(); err != nil || img.Rect.Dx() != 2 {
		t.Errorf("accelerated Frame() = %v, %v; want the snapshot", img, err)
	}
}

func TestTelemetryFollowsSession(t *testing.T) {
	accel := &fakeAccel{failAt: 2}
	c, _ := cycle.New(len(catalog.Effects), 0)
	col := telemetry.NewCollector(nil)
	s := New(Options{
		Accelerated: accel,
		Software:    renderer.NewSoftware(catalog.Embedded{}),
		Cycle:       c,
		Telemetry:   col,
	})
	s.Start()
	s.Render(0, frameSize)
	s.Render(0.1, frameSize)
	s.OnEffectAdvance()
	s.Render(0.2, frameSize)
	s.Dispose()

	recs := col.Records()
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Title != "Singularity" || recs[0].Frames != 2 || !recs[0].Demoted || recs[0].Path != "software" {
		t.Errorf("first record = %+v", recs[0])
	}
	if recs[1].Index != 1 || recs[1].Path != "software" || recs[1].Frames != 1 {
		t.Errorf("second record = %+v", recs[1])
	}
}

type sliceSink struct {
	frames []*image.RGBA
	err    error
}

func (s *sliceSink) WriteFrame(img *image.RGBA) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, img)
	return nil
}

func TestRecordAdvancesOnSimulatedTime(t *testing.T) {
	s, _, _ := newSession(t, nil, 0)
	s.Start()

	var indices []int
	sink := &sliceSink{}
	n, err := s.Record(context.Background(), sink, RecordOptions{
		Duration: 3 * time.Second,
		FPS:      4,
		Interval: time.Second,
		Size:     renderer.Size{Width: 16, Height: 8},
		Decorate: func(img *image.RGBA, index int, path Path) {
			indices = append(indices, index)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 || len(sink.frames) != 12 {
		t.Fatalf("wrote %d frames (sink has %d), want 12", n, len(sink.frames))
	}
	want := []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("effect per frame = %v, want %v", indices, want)
		}
	}
	if sink.frames[0].Rect.Size() != image.Pt(16, 8) {
		t.Errorf("frame size = %v", sink.frames[0].Rect.Size())
	}
}

func TestRecordStopsOnCancelAndSinkError(t *testing.T) {
	s, _, _ := newSession(t, nil, 0)
	s.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if n, err := s.Record(ctx, &sliceSink{}, RecordOptions{Duration: time.Second, FPS: 10}); n != 0 || !errors.Is(err, context.Canceled) {
		t.Errorf("Record(cancelled) = %d, %v", n, err)
	}

	boom := errors.New("pipe closed")
	if _, err := s.Record(context.Background(), &sliceSink{err: boom}, RecordOptions{Duration: time.Second, FPS: 10}); !errors.Is(err, boom) {
		t.Errorf("Record() error = %v, want the sink error", err)
	}

	if _, err := s.Record(context.Background(), &sliceSink{}, RecordOptions{Duration: time.Second}); err == nil {
		t.Error("Record() with zero fps succeeded")
	}
}
