package renderer

// Size is a drawing surface size in pixels.
type Size struct {
	Width  int
	Height int
}

// Clamp returns s with both dimensions raised to at least 1.
func (s Size) Clamp() Size {
	if s.Width < 1 {
		s.Width = 1
	}
	if s.Height < 1 {
		s.Height = 1
	}
	return s
}

// Renderer draws the effect at a catalog index, one frame at a time.
type Renderer interface {
	Initialize() error
	LoadEffect(index int) error
	Render(t float64, size Size) error
	Dispose()
}

// Transpiler rewrites a translated fragment program for the target GL dialect.
// names maps each declared uniform to the name it has in code; a uniform
// missing from names was optimized away.
type Transpiler interface {
	Transpile(fragmentSource string) (code string, names map[string]string, err error)
}
