package graphics

import "image"

// Attrib describes one interleaved float vertex attribute. Size and Offset are
// counted in floats.
type Attrib struct {
	Location uint32
	Size     int32
	Offset   int
}

// Mesh is an indexed triangle list uploaded to the device.
type Mesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
}

// Device is the subset of a GPU API the renderers draw with. The OpenGL
// implementation lives in package gldevice; graphicstest provides a fake.
//
// All methods must be called from the goroutine that owns the context.
type Device interface {
	// Init loads the API entry points. It is safe to call more than once.
	Init() error

	CreateMesh(vertices []float32, indices []uint32, stride int32, attribs []Attrib) (Mesh, error)
	DeleteMesh(m Mesh)

	// CompileProgram compiles and links a vertex and fragment stage. Failures
	// are *ShaderCompileError or *ShaderLinkError.
	CompileProgram(vertexSource, fragmentSource string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	// UniformLocation returns -1 for names the linked program does not expose.
	UniformLocation(program uint32, name string) int32
	Uniform1f(loc int32, v float32)
	Uniform1i(loc int32, v int32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)

	Viewport(width, height int)
	Clear(r, g, b, a float32)
	DrawMesh(m Mesh)

	// ReadPixels returns the current framebuffer as top-down RGBA.
	ReadPixels(width, height int) (*image.RGBA, error)

	// Err reports and clears the first pending device error.
	Err() error
}
