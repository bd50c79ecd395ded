package laplacian

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
	"github.com/notargets/godeform/utils"
)

// Two directed entries for each of the three edges of a triangle
const entriesPerTriangle = 6

/*
assemble fills the cotangent operator into a triplet buffer with room for
extraRows appended rows (one entry each). Slot layout:

	[0, 6M)          off diagonal -cot(alpha) entries, triangle k owns 6k..6k+5
	[6M, 6M+N)       diagonal, the row sum of the cotangent weights
	[6M+N, 6M+N+E)   appended rows, filled by the caller

An edge shared by two triangles gets one entry from each; they are summed.
*/
func assemble(pose mesh.Pose, triangles []mesh.Triangle, extraRows int, cfg Config) (L *utils.Triplets, err error) {
	var (
		N = len(pose)
		M = len(triangles)
	)
	L = utils.NewTriplets(N+extraRows, N, entriesPerTriangle*M+N+extraRows)
	pm := utils.NewPartitionMap(cfg.ParallelDegree, M)
	err = pm.ParallelRange(func(np, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			tri := triangles[k]
			for shift := 0; shift < 3; shift++ {
				var (
					i, j, o = tri[shift], tri[(shift+1)%3], tri[(shift+2)%3]
					dV1     = r3.Sub(pose[i], pose[o])
					dV2     = r3.Sub(pose[j], pose[o])
					nMag    = r3.Norm(r3.Cross(dV1, dV2))
					slot    = entriesPerTriangle*k + 2*shift
				)
				if !(nMag > cfg.DegenerateTolerance) {
					return &mesh.DegenerateGeometryError{Triangle: k, Magnitude: nMag}
				}
				cotAlpha := r3.Dot(dV1, dV2) / nMag
				L.Set(slot, i, j, -cotAlpha)
				L.Set(slot+1, j, i, -cotAlpha)
			}
		}
		return nil
	})
	if err != nil {
		L = nil
		return
	}
	rowSum := make([]float64, N)
	for n := 0; n < entriesPerTriangle*M; n++ {
		i, _, v := L.At(n)
		rowSum[i] -= v
	}
	for i := 0; i < N; i++ {
		L.Set(entriesPerTriangle*M+i, i, i, rowSum[i])
	}
	return
}

// Cotangent returns the N x N cotangent Laplacian: L_ij = -sum of cot of the
// angles opposite edge ij, L_ii = -sum_j L_ij, so every row sums to zero.
func Cotangent(pose mesh.Pose, triangles []mesh.Triangle, cfg Config) (L *utils.Triplets, err error) {
	return assemble(pose, triangles, 0, cfg)
}

// DifferentialCoordinates returns L X, the per vertex local detail of pose.
func DifferentialCoordinates(pose mesh.Pose, triangles []mesh.Triangle, cfg Config) (delta mesh.Pose, err error) {
	var L *utils.Triplets
	if L, err = Cotangent(pose, triangles, cfg); err != nil {
		return
	}
	var (
		N    = len(pose)
		dxyz [3][]float64
	)
	for axis := 0; axis < 3; axis++ {
		dxyz[axis] = make([]float64, N)
		utils.MulVec(dxyz[axis], L, false, pose.Axis(axis))
	}
	delta = mesh.PoseFromAxes(N, dxyz[0], dxyz[1], dxyz[2])
	return
}

// VertexAreas sums the areas of the triangles incident to each vertex.
func VertexAreas(pose mesh.Pose, triangles []mesh.Triangle) (areas []float64) {
	areas = make([]float64, len(pose))
	for _, tri := range triangles {
		a := 0.5 * r3.Norm(mesh.FaceNormal(pose, tri))
		for _, ind := range tri {
			areas[ind] += a
		}
	}
	return
}
