package deformation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
)

/*
ExtendedPose is a pose followed by one synthetic vertex per triangle:

	Vertices[0:NumReal]           real vertices
	Vertices[NumReal+k]           synthetic 4th vertex of triangle k

It is derived data for exactly one pose and is never reused for another.
*/
type ExtendedPose struct {
	Vertices mesh.Pose
	NumReal  int
}

// Real returns the real vertex part of the extended pose.
func (ep ExtendedPose) Real() mesh.Pose { return ep.Vertices[:ep.NumReal] }

// Quads appends the synthetic vertex index to every triangle.
func Quads(triangles []mesh.Triangle, numVertices int) (Q [][4]int) {
	Q = make([][4]int, len(triangles))
	for k, tri := range triangles {
		Q[k] = [4]int{tri[0], tri[1], tri[2], numVertices + k}
	}
	return
}

// SyntheticVertex returns v0 + n/sqrt(|n|) for n = (v1-v0)x(v2-v0), along
// with |n|. The three edges from v0 then span R3 for any non-degenerate
// triangle.
func SyntheticVertex(v0, v1, v2 r3.Vec) (v3 r3.Vec, mag float64) {
	n := r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0))
	mag = r3.Norm(n)
	v3 = r3.Add(v0, r3.Scale(1/math.Sqrt(mag), n))
	return
}

// Extend computes the synthetic vertex of every triangle in pose. The
// triangles are split across cfg.ParallelDegree go routines, each writing
// only its own slots of the output.
func Extend(pose mesh.Pose, triangles []mesh.Triangle, cfg Config) (ep ExtendedPose, err error) {
	var (
		NV = len(pose)
		K  = len(triangles)
		V4 = make(mesh.Pose, NV+K)
	)
	copy(V4, pose)
	err = cfg.partitions(K).ParallelRange(func(np, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			tri := triangles[k]
			v3, mag := SyntheticVertex(pose[tri[0]], pose[tri[1]], pose[tri[2]])
			if !(mag > cfg.DegenerateTolerance) {
				return &mesh.DegenerateGeometryError{Triangle: k, Magnitude: mag}
			}
			V4[NV+k] = v3
		}
		return nil
	})
	if err != nil {
		return
	}
	ep = ExtendedPose{Vertices: V4, NumReal: NV}
	return
}
