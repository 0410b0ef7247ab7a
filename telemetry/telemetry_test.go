package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
)

func TestCollectorSummarizesEffects(t *testing.T) {
	c := NewCollector(nil)
	c.Begin(0, "Singularity", "accelerated")
	for i := 1; i <= 20; i++ {
		c.Frame(time.Duration(i)*time.Millisecond, "accelerated")
	}
	c.Begin(1, "Sunset", "accelerated")
	c.Frame(4*time.Millisecond, "accelerated")
	c.Demoted()
	c.Frame(8*time.Millisecond, "software")
	c.Close()
	c.Close()

	recs := c.Records()
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}

	first := recs[0]
	if first.Frames != 20 || first.Title != "Singularity" || first.Demoted {
		t.Errorf("first record = %+v", first)
	}
	if math.Abs(first.MeanMS-10.5) > 1e-9 {
		t.Errorf("mean = %v, want 10.5", first.MeanMS)
	}
	if first.P50MS != 10 || first.P95MS != 19 {
		t.Errorf("p50, p95 = %v, %v; want 10, 19", first.P50MS, first.P95MS)
	}

	second := recs[1]
	if !second.Demoted || second.Path != "software" || second.Frames != 2 {
		t.Errorf("second record = %+v", second)
	}
}

func TestCollectorWithoutFrames(t *testing.T) {
	c := NewCollector(nil)
	c.Frame(time.Millisecond, "software") // no effect begun yet
	c.Begin(3, "Origami", "software")
	c.Close()
	if recs := c.Records(); len(recs) != 1 || recs[0].Frames != 0 || recs[0].MeanMS != 0 {
		t.Errorf("records = %+v", recs)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Begin(0, "x", "software")
	c.Frame(time.Millisecond, "software")
	c.Demoted()
	c.Close()
	if c.Records() != nil {
		t.Error("nil collector returned records")
	}
}

func TestWriterAppendsWithSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "effects.csv")

	for run := 0; run < 2; run++ {
		w, err := NewWriter(path)
		if err != nil {
			t.Fatal(err)
		}
		c := NewCollector(w)
		c.Begin(run, "Effect", "software")
		c.Frame(2*time.Millisecond, "software")
		c.Close()
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "index,title"); n != 1 {
		t.Errorf("header count = %d, want 1:\n%s", n, data)
	}

	var got []EffectRecord
	if err := gocsv.UnmarshalBytes(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 || got[1].MeanMS != 2 {
		t.Errorf("read back %+v", got)
	}
}

func TestDisabledWriter(t *testing.T) {
	w, err := NewWriter("")
	if err != nil || w != nil {
		t.Fatalf("NewWriter(\"\") = %v, %v; want nil, nil", w, err)
	}
	if err := w.Write(EffectRecord{}); err != nil {
		t.Error(err)
	}
	if err := w.Close(); err != nil {
		t.Error(err)
	}
}
