package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle holds three vertex indices into a Pose.
type Triangle [3]int

// Pose is an ordered set of vertex positions for a fixed topology.
type Pose []r3.Vec

// Clone returns a copy that shares no storage with the receiver.
func (p Pose) Clone() (R Pose) {
	R = make(Pose, len(p))
	copy(R, p)
	return
}

// Centroid returns the arithmetic mean of the positions.
func (p Pose) Centroid() (c r3.Vec) {
	if len(p) == 0 {
		return
	}
	for _, v := range p {
		c = r3.Add(c, v)
	}
	return r3.Scale(1/float64(len(p)), c)
}

// Translate returns a new pose with every position shifted by d.
func (p Pose) Translate(d r3.Vec) (R Pose) {
	R = make(Pose, len(p))
	for i, v := range p {
		R[i] = r3.Add(v, d)
	}
	return
}

// FlipZ returns a new pose mirrored through the z = 0 plane.
func (p Pose) FlipZ() (R Pose) {
	R = make(Pose, len(p))
	for i, v := range p {
		R[i] = r3.Vec{X: v.X, Y: v.Y, Z: -v.Z}
	}
	return
}

// Axis returns one coordinate of every position as a dense slice, 0=x 1=y 2=z.
func (p Pose) Axis(axis int) (R []float64) {
	R = make([]float64, len(p))
	for i, v := range p {
		switch axis {
		case 0:
			R[i] = v.X
		case 1:
			R[i] = v.Y
		default:
			R[i] = v.Z
		}
	}
	return
}

// PoseFromAxes is the inverse of Axis, taking the first n entries of each axis.
func PoseFromAxes(n int, x, y, z []float64) (R Pose) {
	R = make(Pose, n)
	for i := 0; i < n; i++ {
		R[i] = r3.Vec{X: x[i], Y: y[i], Z: z[i]}
	}
	return
}

// Mesh is an immutable triangle topology with its reference pose. Only
// positions vary across frames, the triangle list never changes after NewMesh.
type Mesh struct {
	vertices  Pose
	triangles []Triangle
}

// NewMesh validates index ranges and copies the inputs.
func NewMesh(vertices Pose, triangles []Triangle) (m *Mesh, err error) {
	if len(vertices) == 0 {
		err = topologyMismatch("mesh has no vertices")
		return
	}
	if len(triangles) == 0 {
		err = topologyMismatch("mesh has no triangles")
		return
	}
	nv := len(vertices)
	for k, tri := range triangles {
		for _, ind := range tri {
			if ind < 0 || ind >= nv {
				err = topologyMismatch("triangle %d references vertex %d, mesh has %d vertices",
					k, ind, nv)
				return
			}
		}
	}
	m = &Mesh{
		vertices:  vertices.Clone(),
		triangles: make([]Triangle, len(triangles)),
	}
	copy(m.triangles, triangles)
	return
}

func (m *Mesh) NumVertices() int  { return len(m.vertices) }
func (m *Mesh) NumTriangles() int { return len(m.triangles) }

// Vertices returns a copy of the reference pose.
func (m *Mesh) Vertices() Pose { return m.vertices.Clone() }

// Triangles returns the shared read-only triangle list; callers must not modify it.
func (m *Mesh) Triangles() []Triangle { return m.triangles }

// CheckPose verifies that p can be evaluated against this topology.
func (m *Mesh) CheckPose(p Pose) error {
	if len(p) != len(m.vertices) {
		return topologyMismatch("pose has %d vertices, mesh has %d", len(p), len(m.vertices))
	}
	return nil
}

// FaceNormal is (v1-v0) x (v2-v0), unnormalized.
func FaceNormal(p Pose, tri Triangle) r3.Vec {
	v0 := p[tri[0]]
	return r3.Cross(r3.Sub(p[tri[1]], v0), r3.Sub(p[tri[2]], v0))
}

// CheckDegenerate returns a DegenerateGeometryError for the first triangle
// whose face normal magnitude is at or below tol.
func CheckDegenerate(p Pose, triangles []Triangle, tol float64) error {
	for k, tri := range triangles {
		if mag := r3.Norm(FaceNormal(p, tri)); !(mag > tol) {
			return &DegenerateGeometryError{Triangle: k, Magnitude: mag}
		}
	}
	return nil
}
