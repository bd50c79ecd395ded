package deformation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/utils"
)

func TestBuildCoefficientsLayout(t *testing.T) {
	var (
		m     = quadMesh(t)
		cfg   = testConfig()
		quads = Quads(m.Triangles(), m.NumVertices())
	)
	ep, err := Extend(m.Vertices(), m.Triangles(), cfg)
	require.NoError(t, err)
	A, err := BuildCoefficients(ep, quads, cfg)
	require.NoError(t, err)
	nr, nc := A.Dims()
	assert.Equal(t, 3*m.NumTriangles(), nr)
	assert.Equal(t, m.NumVertices()+m.NumTriangles(), nc)
	assert.Equal(t, entriesPerTriangle*m.NumTriangles(), A.Len())

	D := A.Dense()
	for i := 0; i < nr; i++ {
		// Only vertex differences enter, so every row sums to zero
		assert.InDelta(t, 0, mat.Sum(D.Slice(i, i+1, 0, nc)), 1.e-12)
	}
	// Triangle 0 = {0,1,2,4}: its rows never touch vertex 3 or synthetic vertex 5
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0., D.At(i, 3))
		assert.Equal(t, 0., D.At(i, 5))
	}
	/*
		Triangle 0 has edges (1,0,0), (1,1,0), (0,0,1), so
			Vinv = [1 -1 0; 0 1 0; 0 0 1]
		and row i, column v(j+1) holds Vinv[j][i].
	*/
	assert.True(t, mat.EqualApprox(D.Slice(0, 3, 0, 3), mat.NewDense(3, 3, []float64{
		-1, 1, 0,
		0, -1, 1,
		-1, 0, 0,
	}), 1.e-14))
	assert.InDelta(t, 1, D.At(2, 4), 1.e-14)
	assert.InDelta(t, 0, D.At(0, 4), 1.e-14)
}

// A x_new reproduces the affine transformation rows when A is built from the
// old pose of the same mesh.
func TestCoefficientsReproduceAffine(t *testing.T) {
	var (
		m     = bumpGrid(t, 5)
		cfg   = testConfig()
		quads = Quads(m.Triangles(), m.NumVertices())
		pose  = m.Vertices()
		bent  = m.Vertices()
	)
	for i := range bent {
		bent[i] = r3.Vec{X: bent[i].X * 1.2, Y: bent[i].Y + 0.1*bent[i].X*bent[i].X, Z: bent[i].Z - 0.2*bent[i].Y}
	}
	old, err := Extend(pose, m.Triangles(), cfg)
	require.NoError(t, err)
	cur, err := Extend(bent, m.Triangles(), cfg)
	require.NoError(t, err)
	S, err := BuildAffine(old, cur, quads, cfg)
	require.NoError(t, err)
	A, err := BuildCoefficients(old, quads, cfg)
	require.NoError(t, err)
	op := A.ToCSR()
	for axis := 0; axis < 3; axis++ {
		nr, _ := op.Dims()
		got := make([]float64, nr)
		utils.MulVec(got, op, false, cur.Vertices.Axis(axis))
		assert.InDeltaSlice(t, S.Row(axis), got, 1.e-10)
	}
}
