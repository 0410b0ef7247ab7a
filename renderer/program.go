package renderer

import (
	"log"

	"github.com/richinsley/goshadersaver/graphics"
)

// program is a linked GPU program plus the uniform slots resolved at link.
type program struct {
	id    uint32
	index int
	locs  uniformLocations
}

// programSlot owns the single live program.
type programSlot struct {
	dev     graphics.Device
	current *program
}

// replace installs p and deletes the program it supersedes.
func (s *programSlot) replace(p *program) {
	if s.current != nil {
		log.Printf("Releasing program %d (effect %d)", s.current.id, s.current.index)
		s.dev.DeleteProgram(s.current.id)
	}
	s.current = p
}

func (s *programSlot) release() {
	s.replace(nil)
}
