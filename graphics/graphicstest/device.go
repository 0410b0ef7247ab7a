// Package graphicstest provides a recording graphics.Device for tests that
// cannot open a GL context.
package graphicstest

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/richinsley/goshadersaver/graphics"
)

// ErrDraw is the device error reported after a draw when FailDraw is set.
var ErrDraw = &graphics.DeviceError{Code: 0x0505}

// Call is one recorded uniform upload.
type Call struct {
	Loc    int32
	Values []float32
}

// Device is a fake graphics.Device. Knobs are plain fields; set them before
// the call they should affect.
type Device struct {
	// InitErr is returned by Init.
	InitErr error
	// MeshErr is reported through Err right after CreateMesh.
	MeshErr error
	// FailCompile makes CompileProgram fail for fragment sources containing it.
	FailCompile string
	// FailLink makes CompileProgram fail to link fragment sources containing it.
	FailLink string
	// FailDraw makes the next Err after DrawMesh report ErrDraw.
	FailDraw bool
	// Missing lists uniform names the linked programs do not expose.
	Missing map[string]bool
	// Fill is the color ReadPixels returns.
	Fill color.RGBA

	nextID       uint32
	pending      error
	locs         map[string]int32
	Programs     map[uint32]string // live program id -> fragment source
	Meshes       map[uint32]graphics.Mesh
	Current      uint32
	Draws        int
	Uniforms     map[int32][]float32
	ViewportSize [2]int
	Deleted      []uint32
}

// New returns a Device with every knob off.
func New() *Device {
	return &Device{
		Missing:  map[string]bool{},
		locs:     map[string]int32{},
		Programs: map[uint32]string{},
		Meshes:   map[uint32]graphics.Mesh{},
		Uniforms: map[int32][]float32{},
	}
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) Init() error { return d.InitErr }

func (d *Device) CreateMesh(vertices []float32, indices []uint32, stride int32, attribs []graphics.Attrib) (graphics.Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return graphics.Mesh{}, errors.New("empty mesh")
	}
	m := graphics.Mesh{VAO: d.id(), VBO: d.id(), EBO: d.id(), IndexCount: int32(len(indices))}
	d.Meshes[m.VAO] = m
	if d.MeshErr != nil {
		d.pending = d.MeshErr
	}
	return m, nil
}

func (d *Device) DeleteMesh(m graphics.Mesh) {
	delete(d.Meshes, m.VAO)
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (uint32, error) {
	if d.FailCompile != "" && strings.Contains(fragmentSource, d.FailCompile) {
		return 0, &graphics.ShaderCompileError{Stage: graphics.StageFragment, Log: "0:1(1): error: syntax error near " + d.FailCompile}
	}
	if d.FailLink != "" && strings.Contains(fragmentSource, d.FailLink) {
		return 0, &graphics.ShaderLinkError{Log: "error: unresolved reference " + d.FailLink}
	}
	p := d.id()
	d.Programs[p] = fragmentSource
	return p, nil
}

func (d *Device) DeleteProgram(program uint32) {
	if _, ok := d.Programs[program]; !ok {
		return
	}
	delete(d.Programs, program)
	d.Deleted = append(d.Deleted, program)
}

func (d *Device) UseProgram(program uint32) { d.Current = program }

// UniformLocation hands out a stable location per name.
func (d *Device) UniformLocation(program uint32, name string) int32 {
	if d.Missing[name] {
		return -1
	}
	if loc, ok := d.locs[name]; ok {
		return loc
	}
	loc := int32(len(d.locs))
	d.locs[name] = loc
	return loc
}

// Location returns the location handed out for name, or -1.
func (d *Device) Location(name string) int32 {
	if loc, ok := d.locs[name]; ok {
		return loc
	}
	return -1
}

// Uniform returns the last values uploaded for name.
func (d *Device) Uniform(name string) []float32 {
	loc := d.Location(name)
	if loc < 0 {
		return nil
	}
	return d.Uniforms[loc]
}

func (d *Device) Uniform1f(loc int32, v float32) { d.Uniforms[loc] = []float32{v} }
func (d *Device) Uniform1i(loc int32, v int32)   { d.Uniforms[loc] = []float32{float32(v)} }
func (d *Device) Uniform3f(loc int32, x, y, z float32) {
	d.Uniforms[loc] = []float32{x, y, z}
}
func (d *Device) Uniform4f(loc int32, x, y, z, w float32) {
	d.Uniforms[loc] = []float32{x, y, z, w}
}

func (d *Device) Viewport(width, height int) { d.ViewportSize = [2]int{width, height} }
func (d *Device) Clear(r, g, b, a float32)   {}

func (d *Device) DrawMesh(m graphics.Mesh) {
	d.Draws++
	if d.FailDraw {
		d.pending = ErrDraw
	}
}

func (d *Device) ReadPixels(width, height int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = d.Fill.R, d.Fill.G, d.Fill.B, d.Fill.A
	}
	return img, nil
}

func (d *Device) Err() error {
	err := d.pending
	d.pending = nil
	return err
}
