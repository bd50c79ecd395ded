package deformation

import (
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// edgeMatrix has columns v1-v0, v2-v0, v3-v0 of the extended triangle q.
func edgeMatrix(V4 []r3.Vec, q [4]int) (E *mat.Dense) {
	var (
		v0 = V4[q[0]]
		e  [3]r3.Vec
	)
	for j := 0; j < 3; j++ {
		e[j] = r3.Sub(V4[q[j+1]], v0)
	}
	E = mat.NewDense(3, 3, []float64{
		e[0].X, e[1].X, e[2].X,
		e[0].Y, e[1].Y, e[2].Y,
		e[0].Z, e[1].Z, e[2].Z,
	})
	return
}

// invertEdgeMatrix returns E^-1, or a SingularFrameError for triangle k.
func invertEdgeMatrix(E *mat.Dense, k int, tol float64) (Einv *mat.Dense, err error) {
	var (
		col = func(j int) r3.Vec { return r3.Vec{X: E.At(0, j), Y: E.At(1, j), Z: E.At(2, j)} }
		det = r3.Dot(col(0), r3.Cross(col(1), col(2)))
	)
	if !(det > tol || det < -tol) {
		err = &SingularFrameError{Triangle: k, Determinant: det}
		return
	}
	Einv = mat.DenseCopyOf(E)
	var (
		raw  = Einv.RawMatrix()
		iPiv = make([]int, 3)
		work = make([]float64, 9)
	)
	if ok := lapack64.Getrf(raw, iPiv); !ok {
		err = &SingularFrameError{Triangle: k, Determinant: det}
		return
	}
	if ok := lapack64.Getri(raw, iPiv, work, len(work)); !ok {
		err = &SingularFrameError{Triangle: k, Determinant: det}
	}
	return
}

// AffineTransformations holds one 3x3 block per triangle, in triangle order,
// valid only for the (old, new) pose pair that produced it.
type AffineTransformations struct {
	Blocks []*mat.Dense
}

// Row returns row axis of the 3 x 3K block concatenation [S_0 S_1 ...], the
// right hand side of the axis least squares problem.
func (S *AffineTransformations) Row(axis int) (R []float64) {
	R = make([]float64, 3*len(S.Blocks))
	for k, B := range S.Blocks {
		copy(R[3*k:3*k+3], B.RawRowView(axis))
	}
	return
}

// Concatenated returns the 3 x 3K block matrix [S_0 S_1 ...].
func (S *AffineTransformations) Concatenated() (R *mat.Dense) {
	R = mat.NewDense(3, 3*len(S.Blocks), nil)
	for k, B := range S.Blocks {
		R.Slice(0, 3, 3*k, 3*k+3).(*mat.Dense).Copy(B)
	}
	return
}

// BuildAffine computes S_k = V_to V_from^-1 for every extended triangle,
// where V holds the three edge vectors of the triangle as columns.
func BuildAffine(from, to ExtendedPose, quads [][4]int, cfg Config) (S *AffineTransformations, err error) {
	var (
		K      = len(quads)
		blocks = make([]*mat.Dense, K)
	)
	err = cfg.partitions(K).ParallelRange(func(np, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			VfromInv, err := invertEdgeMatrix(edgeMatrix(from.Vertices, quads[k]), k, cfg.SingularTolerance)
			if err != nil {
				return err
			}
			blocks[k] = mat.NewDense(3, 3, nil)
			blocks[k].Mul(edgeMatrix(to.Vertices, quads[k]), VfromInv)
		}
		return nil
	})
	if err != nil {
		return
	}
	S = &AffineTransformations{Blocks: blocks}
	return
}
