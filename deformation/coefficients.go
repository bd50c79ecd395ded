package deformation

import (
	"github.com/notargets/godeform/utils"
)

// entriesPerTriangle: 3 rows for v0 plus 3 rows for each of v1, v2, v3.
const entriesPerTriangle = 12

/*
BuildCoefficients assembles the (3K) x (NV+K) operator A for an extended pose,
such that for one spatial axis of the unknown positions x (real then
synthetic), rows 3k..3k+2 of A x are row "axis" of V_x V^-1, V being the edge
matrix of triangle k in ep. With Vinv = V^-1 = [A B C; D E F; G H I]:

	row 3k+j:  -(Vinv[0][j]+Vinv[1][j]+Vinv[2][j]) x_v0 + Vinv[0][j] x_v1 + Vinv[1][j] x_v2 + Vinv[2][j] x_v3

Triangle k owns triplet slots 12k..12k+11, so partitions never overlap.
*/
func BuildCoefficients(ep ExtendedPose, quads [][4]int, cfg Config) (A *utils.Triplets, err error) {
	var (
		K = len(quads)
	)
	A = utils.NewTriplets(3*K, len(ep.Vertices), entriesPerTriangle*K)
	err = cfg.partitions(K).ParallelRange(func(np, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			var (
				q      = quads[k]
				idxRow = 3 * k
				slot   = entriesPerTriangle * k
			)
			Vinv, err := invertEdgeMatrix(edgeMatrix(ep.Vertices, q), k, cfg.SingularTolerance)
			if err != nil {
				return err
			}
			for j := 0; j < 3; j++ {
				colSum := Vinv.At(0, j) + Vinv.At(1, j) + Vinv.At(2, j)
				A.Set(slot, idxRow+j, q[0], -colSum)
				slot++
			}
			for j := 0; j < 3; j++ {
				for i := 0; i < 3; i++ {
					A.Set(slot, idxRow+i, q[j+1], Vinv.At(j, i))
					slot++
				}
			}
		}
		return nil
	})
	if err != nil {
		A = nil
	}
	return
}
