package renderer

import (
	"image"
	"log"
	"math"
	"math/rand"

	"github.com/gogpu/gg"
	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/shader"
)

const (
	orbiterCount  = 8
	spiralCount   = 3
	spiralPoints  = 100
	particleCount = 50
)

// Software approximates effect motion with 2D primitives. It is the terminal
// fallback: nothing it does can fail.
type Software struct {
	loader catalog.Loader
	source string
	index  int
	dc     *gg.Context
	frame  *image.RGBA
	warned bool
}

// NewSoftware returns a software renderer reading effects from loader.
func NewSoftware(loader catalog.Loader) *Software {
	return &Software{loader: loader}
}

func (s *Software) Initialize() error { return nil }

// LoadEffect records the effect source. The drawing does not depend on it.
func (s *Software) LoadEffect(index int) error {
	raw, err := s.loader.Source(index)
	if err != nil {
		log.Printf("Software renderer: effect %d unavailable, using default: %v", index, err)
		raw = shader.DefaultEffect
	}
	s.index = index
	s.source = raw
	return nil
}

// Source returns the raw text of the loaded effect.
func (s *Software) Source() string { return s.source }

// Index returns the loaded catalog index.
func (s *Software) Index() int { return s.index }

// Render draws a frame that depends only on t and size.
func (s *Software) Render(t float64, size Size) error {
	size = size.Clamp()
	if s.dc == nil {
		s.dc = gg.NewContext(size.Width, size.Height)
	} else if s.dc.Width() != size.Width || s.dc.Height() != size.Height {
		s.check(s.dc.Resize(size.Width, size.Height))
	}
	dc := s.dc
	dc.ClearWithColor(gg.Black)

	for _, o := range orbiters(t, size) {
		dc.SetRGBA(channel(o.r), channel(o.g), channel(o.b), channel(o.a))
		dc.DrawCircle(o.x, o.y, o.d/2)
		s.check(dc.Fill())
	}

	dc.SetRGBA(1, 1, 1, channel(64))
	dc.SetLineWidth(2)
	for i := 0; i < spiralCount; i++ {
		pts := spiral(t, size, i)
		dc.MoveTo(pts[0].x, pts[0].y)
		for _, p := range pts[1:] {
			dc.LineTo(p.x, p.y)
		}
		s.check(dc.Stroke())
	}

	for _, p := range particles(t, size) {
		dc.SetRGBA(1, 1, 1, channel(p.a))
		dc.DrawCircle(p.x, p.y, 1)
		s.check(dc.Fill())
	}

	r, g, b, a := wash(t)
	dc.SetRGBA(channel(r), channel(g), channel(b), channel(a))
	dc.DrawRectangle(0, 0, float64(size.Width), float64(size.Height))
	s.check(dc.Fill())

	s.check(dc.FlushGPU())
	s.frame = copyPixmap(s.frame, dc.ResizeTarget())
	return nil
}

// check logs the first drawing error; the frame is still shown.
func (s *Software) check(err error) {
	if err == nil || s.warned {
		return
	}
	s.warned = true
	log.Printf("Software renderer: %v", err)
}

// Frame returns the last rendered frame, or nil before the first Render.
// The image is reused by the next Render.
func (s *Software) Frame() *image.RGBA { return s.frame }

func (s *Software) Dispose() {
	if s.dc != nil {
		s.check(s.dc.Close())
		s.dc = nil
	}
	s.frame = nil
}

// copyPixmap copies pm into dst, allocating only when the size changed.
func copyPixmap(dst *image.RGBA, pm *gg.Pixmap) *image.RGBA {
	w, h := pm.Width(), pm.Height()
	if dst == nil || dst.Rect.Dx() != w || dst.Rect.Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	copy(dst.Pix, pm.Data())
	return dst
}

func channel(v int) float64 { return float64(v) / 255 }

// level maps a sine phase to an 8-bit channel value.
func level(phase float64) int {
	return int(127 + 127*math.Sin(phase))
}

type orbiter struct {
	x, y, d    float64
	r, g, b, a int
}

type point struct {
	x, y float64
}

type particle struct {
	x, y float64
	a    int
}

func center(size Size) (cx, cy, maxR float64) {
	cx = float64(size.Width / 2)
	cy = float64(size.Height / 2)
	return cx, cy, math.Min(cx, cy) * 0.8
}

func orbiters(t float64, size Size) [orbiterCount]orbiter {
	cx, cy, maxR := center(size)
	var out [orbiterCount]orbiter
	for i := range out {
		fi := float64(i)
		angle := t*0.5 + fi*math.Pi*2/orbiterCount
		radius := maxR * (0.3 + 0.7*(fi/orbiterCount))
		out[i] = orbiter{
			x: cx + math.Cos(angle)*radius*0.3,
			y: cy + math.Sin(angle)*radius*0.3,
			d: 30 + 20*math.Sin(t*3+fi),
			r: level(t*2 + fi*0.5),
			g: level(t*1.5 + fi*0.7 + math.Pi*2/3),
			b: level(t*1.8 + fi*0.3 + math.Pi*4/3),
			a: 128,
		}
	}
	return out
}

func spiral(t float64, size Size, index int) [spiralPoints]point {
	cx, cy, maxR := center(size)
	var out [spiralPoints]point
	for j := range out {
		u := float64(j) / float64(spiralPoints-1)
		angle := t*(1+float64(index)*0.3) + u*math.Pi*6
		radius := u * maxR * 0.6
		out[j] = point{x: cx + math.Cos(angle)*radius, y: cy + math.Sin(angle)*radius}
	}
	return out
}

// particleSeed keeps the particle field stable within a millisecond and
// repeating every second.
func particleSeed(t float64) int64 {
	return int64(math.Floor(t*1000)) % 1000
}

func particles(t float64, size Size) [particleCount]particle {
	rng := rand.New(rand.NewSource(particleSeed(t)))
	w, h := float64(size.Width), float64(size.Height)
	var out [particleCount]particle
	for i := range out {
		pt := t + float64(i)*0.1
		out[i] = particle{
			x: wrap(float64(rng.Intn(size.Width))+pt*50, w),
			y: wrap(float64(rng.Intn(size.Height))+pt*30, h),
			a: int(127 * (0.5 + 0.5*math.Sin(pt*5))),
		}
	}
	return out
}

func wrap(v, n float64) float64 {
	v = math.Mod(v, n)
	if v < 0 {
		v += n
	}
	return v
}

// wash is the translucent color laid over the whole frame.
func wash(t float64) (r, g, b, a int) {
	return level(t * 0.7),
		level(t*0.9 + math.Pi*2/3),
		level(t*1.1 + math.Pi*4/3),
		int(30 + 20*math.Sin(t*0.5))
}
