package deformation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
)

func testConfig() (cfg Config) {
	cfg = DefaultConfig()
	cfg.ParallelDegree = 3
	return
}

// quadMesh is the unit square split along the 0-2 diagonal.
func quadMesh(t *testing.T) *mesh.Mesh {
	m, err := mesh.NewMesh(mesh.Pose{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}, []mesh.Triangle{
		{0, 1, 2},
		{0, 2, 3},
	})
	require.NoError(t, err)
	return m
}

// bumpGrid is an n x n vertex height field triangulated into 2(n-1)^2 triangles.
func bumpGrid(t *testing.T, n int) *mesh.Mesh {
	var (
		verts = make(mesh.Pose, 0, n*n)
		tris  = make([]mesh.Triangle, 0, 2*(n-1)*(n-1))
	)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			x, y := float64(i), float64(j)
			verts = append(verts, r3.Vec{X: x, Y: y, Z: 0.3 * math.Sin(x+0.7*y)})
		}
	}
	for j := 0; j < n-1; j++ {
		for i := 0; i < n-1; i++ {
			a := j*n + i
			tris = append(tris,
				mesh.Triangle{a, a + 1, a + n + 1},
				mesh.Triangle{a, a + n + 1, a + n})
		}
	}
	m, err := mesh.NewMesh(verts, tris)
	require.NoError(t, err)
	return m
}

func rigidMotion(p mesh.Pose, rot r3.Rotation, shift r3.Vec) (R mesh.Pose) {
	R = make(mesh.Pose, len(p))
	for i, v := range p {
		R[i] = r3.Add(rot.Rotate(v), shift)
	}
	return
}

func assertPoseInDelta(t *testing.T, want, got mesh.Pose, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Equal(t, len(want), len(got), msgAndArgs...)
	for i := range want {
		d := r3.Norm(r3.Sub(want[i], got[i]))
		require.LessOrEqualf(t, d, delta, "vertex %d: want %v got %v", i, want[i], got[i])
	}
}
