package graphics

// Full-screen quad: 4 vertices of position (xyz) followed by texture
// coordinates (uv), drawn as two triangles.
var (
	QuadVertices = []float32{
		// positions     // uv
		-1.0, -1.0, 0.0, 0.0, 0.0,
		1.0, -1.0, 0.0, 1.0, 0.0,
		1.0, 1.0, 0.0, 1.0, 1.0,
		-1.0, 1.0, 0.0, 0.0, 1.0,
	}
	QuadIndices = []uint32{0, 1, 2, 2, 3, 0}
)

// QuadStride is the number of floats per quad vertex.
const QuadStride = 5

// QuadAttribs binds position to location 0 and uv to location 1.
var QuadAttribs = []Attrib{
	{Location: 0, Size: 3, Offset: 0},
	{Location: 1, Size: 2, Offset: 3},
}

// CreateQuad uploads the full-screen quad to dev.
func CreateQuad(dev Device) (Mesh, error) {
	return dev.CreateMesh(QuadVertices, QuadIndices, QuadStride, QuadAttribs)
}
