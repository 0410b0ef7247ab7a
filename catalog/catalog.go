package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed effects/*.glsl
var effectFS embed.FS

// ErrResourceNotFound is returned when an effect index has no loadable source.
var ErrResourceNotFound = errors.New("effect resource not found")

// Effect describes one built-in effect.
type Effect struct {
	Title string
	File  string
}

// Effects is the built-in catalog, in cycle order.
var Effects = []Effect{
	{Title: "Singularity", File: "singularity.glsl"},
	{Title: "Sunset", File: "sunset.glsl"},
	{Title: "Starship", File: "starship.glsl"},
	{Title: "Origami", File: "origami.glsl"},
	{Title: "Shield", File: "shield.glsl"},
	{Title: "Ghosts", File: "ghosts.glsl"},
	{Title: "Waveform", File: "waveform.glsl"},
	{Title: "Water Ripples", File: "ripples.glsl"},
	{Title: "Simplex", File: "simplex.glsl"},
	{Title: "Terraform", File: "terraform.glsl"},
	{Title: "DNA", File: "dna.glsl"},
	{Title: "Rainbow Road", File: "rainbow_road.glsl"},
}

// Title returns the display title of the effect at index, or "" when out of range.
func Title(index int) string {
	if index < 0 || index >= len(Effects) {
		return ""
	}
	return Effects[index].Title
}

// Loader supplies raw effect text by catalog index.
type Loader interface {
	Source(index int) (string, error)
	Len() int
}

// Embedded serves the effects compiled into the binary.
type Embedded struct{}

func (Embedded) Len() int { return len(Effects) }

func (Embedded) Source(index int) (string, error) {
	if index < 0 || index >= len(Effects) {
		return "", fmt.Errorf("effect %d: %w", index, ErrResourceNotFound)
	}
	data, err := effectFS.ReadFile("effects/" + Effects[index].File)
	if err != nil {
		return "", fmt.Errorf("effect %d (%s): %w", index, Effects[index].File, ErrResourceNotFound)
	}
	return string(data), nil
}

// Dir reads effects from a directory on disk, using the catalog file names.
// Files missing from Path are served from the embedded copy.
type Dir struct {
	Path string
}

func (d Dir) Len() int { return len(Effects) }

func (d Dir) Source(index int) (string, error) {
	if index < 0 || index >= len(Effects) {
		return "", fmt.Errorf("effect %d: %w", index, ErrResourceNotFound)
	}
	data, err := os.ReadFile(filepath.Join(d.Path, Effects[index].File))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read effect %s: %w", Effects[index].File, err)
	}
	return Embedded{}.Source(index)
}

// New returns a Dir loader when dir is set, the embedded catalog otherwise.
func New(dir string) Loader {
	if dir == "" {
		return Embedded{}
	}
	return Dir{Path: dir}
}
