package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedServesEveryEffect(t *testing.T) {
	var l Embedded
	if l.Len() != 12 {
		t.Fatalf("Len() = %d, want 12", l.Len())
	}
	for i := 0; i < l.Len(); i++ {
		src, err := l.Source(i)
		if err != nil {
			t.Fatalf("Source(%d): %v", i, err)
		}
		if !strings.Contains(src, "mainImage") && !strings.Contains(src, "void main()") {
			t.Errorf("effect %d (%s) has no entry point", i, Effects[i].Title)
		}
	}
}

func TestEmbeddedOutOfRange(t *testing.T) {
	for _, index := range []int{-1, 12, 100} {
		if _, err := (Embedded{}).Source(index); !errors.Is(err, ErrResourceNotFound) {
			t.Errorf("Source(%d) error = %v, want ErrResourceNotFound", index, err)
		}
	}
}

func TestDirPrefersFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	override := "void main() { fragColor = vec4(1.0); }"
	if err := os.WriteFile(filepath.Join(dir, Effects[3].File), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	l := Dir{Path: dir}
	got, err := l.Source(3)
	if err != nil {
		t.Fatalf("Source(3): %v", err)
	}
	if got != override {
		t.Errorf("Source(3) = %q, want the file on disk", got)
	}

	// not on disk: embedded copy
	want, _ := Embedded{}.Source(4)
	got, err = l.Source(4)
	if err != nil {
		t.Fatalf("Source(4): %v", err)
	}
	if got != want {
		t.Error("Source(4) did not fall back to the embedded copy")
	}

	if _, err := l.Source(12); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("Source(12) error = %v, want ErrResourceNotFound", err)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "Singularity"},
		{7, "Water Ripples"},
		{11, "Rainbow Road"},
		{12, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := Title(tt.index); got != tt.want {
			t.Errorf("Title(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("").(Embedded); !ok {
		t.Error("New(\"\") should return the embedded loader")
	}
	if d, ok := New("/tmp/fx").(Dir); !ok || d.Path != "/tmp/fx" {
		t.Error("New(dir) should return a Dir loader")
	}
}
