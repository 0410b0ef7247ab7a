// Package telemetry records per-effect frame timing.
package telemetry

import (
	"log"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// EffectRecord summarizes the frames drawn while one effect was current.
type EffectRecord struct {
	Started time.Time `csv:"-"`
	Index   int       `csv:"index"`
	Title   string    `csv:"title"`
	Path    string    `csv:"path"`
	Frames  int       `csv:"frames"`
	MeanMS  float64   `csv:"mean_ms"`
	P50MS   float64   `csv:"p50_ms"`
	P95MS   float64   `csv:"p95_ms"`
	Demoted bool      `csv:"demoted"`
}

// Collector accumulates frame durations for the current effect. A nil
// *Collector is valid and records nothing.
type Collector struct {
	out     *Writer
	open    bool
	current EffectRecord
	samples []float64
	records []EffectRecord
}

// NewCollector returns a collector that hands each closed record to out.
// out may be nil to keep records in memory only.
func NewCollector(out *Writer) *Collector {
	return &Collector{out: out}
}

// Begin closes the running record and starts one for the effect at index.
func (c *Collector) Begin(index int, title, path string) {
	if c == nil {
		return
	}
	c.flush()
	c.open = true
	c.current = EffectRecord{Started: time.Now(), Index: index, Title: title, Path: path}
	c.samples = c.samples[:0]
}

// Frame adds one frame duration drawn on path.
func (c *Collector) Frame(d time.Duration, path string) {
	if c == nil || !c.open {
		return
	}
	c.current.Path = path
	c.samples = append(c.samples, float64(d)/float64(time.Millisecond))
}

// Demoted marks the running record as having lost the accelerated path.
func (c *Collector) Demoted() {
	if c == nil || !c.open {
		return
	}
	c.current.Demoted = true
}

// Records returns every closed record.
func (c *Collector) Records() []EffectRecord {
	if c == nil {
		return nil
	}
	return c.records
}

// Close closes the running record.
func (c *Collector) Close() {
	if c == nil {
		return
	}
	c.flush()
}

func (c *Collector) flush() {
	if !c.open {
		return
	}
	c.open = false
	r := c.current
	r.Frames = len(c.samples)
	if r.Frames > 0 {
		sorted := append([]float64(nil), c.samples...)
		sort.Float64s(sorted)
		r.MeanMS = stat.Mean(sorted, nil)
		r.P50MS = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		r.P95MS = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	c.records = append(c.records, r)
	if err := c.out.Write(r); err != nil {
		log.Printf("Telemetry: %v", err)
	}
}
