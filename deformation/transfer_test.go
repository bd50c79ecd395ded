package deformation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
)

func newTransfer(t *testing.T, source, target *mesh.Mesh, frames []mesh.Pose, cfg Config) *Transfer {
	t.Helper()
	corr, err := mesh.NewCorrespondence(source, target)
	require.NoError(t, err)
	seq, err := mesh.NewSequence(source.NumVertices(), frames...)
	require.NoError(t, err)
	tr, err := NewTransfer(corr, seq, target.Vertices(), cfg)
	require.NoError(t, err)
	return tr
}

func relTol(p mesh.Pose) float64 {
	var scale float64
	for _, v := range p {
		scale = math.Max(scale, r3.Norm(v))
	}
	return 1.e-6 * math.Max(scale, 1)
}

func TestTransferRigidMotionEquivariance(t *testing.T) {
	var (
		m      = bumpGrid(t, 5)
		rot    = r3.NewRotation(0.3, r3.Unit(r3.Vec{X: 0.2, Y: 1, Z: 0.5}))
		shift  = r3.Vec{X: 0.5, Y: -0.25, Z: 1}
		frames = []mesh.Pose{m.Vertices()}
	)
	for i := 1; i < 4; i++ {
		frames = append(frames, rigidMotion(frames[i-1], rot, shift))
	}
	tr := newTransfer(t, m, m, frames, testConfig())
	out, reports, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, len(frames), out.Len())
	require.Len(t, reports, len(frames)-1)
	for i := range frames {
		assertPoseInDelta(t, frames[i], out.Frame(i), relTol(frames[i]), "frame %d", i)
	}
	for _, r := range reports {
		for _, ax := range r.Axes {
			assert.Nil(t, ax.X)
		}
		assert.Less(t, r.MaxResidual(), 1.e-7)
	}
}

func TestTransferIdentityStep(t *testing.T) {
	var (
		source = bumpGrid(t, 4)
		cfg    = testConfig()
	)
	// A target with different geometry but the same triangles
	targetPose := source.Vertices()
	for i := range targetPose {
		targetPose[i] = r3.Vec{X: 2 * targetPose[i].X, Y: targetPose[i].Y + 0.3*targetPose[i].X, Z: -targetPose[i].Z}
	}
	target, err := mesh.NewMesh(targetPose, source.Triangles())
	require.NoError(t, err)

	tr := newTransfer(t, source, target, []mesh.Pose{source.Vertices()}, cfg)
	next, report, err := tr.Step(source.Vertices(), source.Vertices(), targetPose)
	require.NoError(t, err)
	assertPoseInDelta(t, targetPose, next, relTol(targetPose))
	assert.Less(t, report.MaxResidual(), 1.e-7)
}

func TestTransferRotationOfDifferentTarget(t *testing.T) {
	var (
		source = bumpGrid(t, 4)
		rot    = r3.NewRotation(math.Pi/5, r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1}))
	)
	targetPose := source.Vertices()
	for i := range targetPose {
		targetPose[i] = r3.Scale(1.5, targetPose[i])
		targetPose[i].Z += 0.1 * targetPose[i].X * targetPose[i].Y
	}
	target, err := mesh.NewMesh(targetPose, source.Triangles())
	require.NoError(t, err)
	frames := []mesh.Pose{source.Vertices(), rigidMotion(source.Vertices(), rot, r3.Vec{})}
	tr := newTransfer(t, source, target, frames, testConfig())
	out, _, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	// The target shape follows the same rotation
	got := out.Frame(1)
	for i := range targetPose {
		want := rot.Rotate(r3.Sub(targetPose[i], targetPose[0]))
		assert.InDelta(t, 0, r3.Norm(r3.Sub(want, r3.Sub(got[i], got[0]))), 1.e-6)
	}
	// Source centroid displacement is carried over
	wantShift := r3.Sub(frames[1].Centroid(), frames[0].Centroid())
	gotShift := r3.Sub(got.Centroid(), targetPose.Centroid())
	assert.InDelta(t, 0, r3.Norm(r3.Sub(wantShift, gotShift)), 1.e-9)
}

// Two triangle quad, frame 1 folds triangle {0,2,3} by 90 degrees about the
// shared diagonal, frame 2 lifts the folded quad.
func TestTransferQuadBendScenario(t *testing.T) {
	var (
		m    = quadMesh(t)
		axis = r3.Unit(r3.Vec{X: 1, Y: 1})
		rot  = r3.NewRotation(math.Pi/2, axis)
	)
	f0 := m.Vertices()
	f1 := m.Vertices()
	f1[3] = rot.Rotate(f1[3])
	f2 := f1.Translate(r3.Vec{Z: 1})
	assert.InDelta(t, 0.5, f1[3].X, 1.e-12)
	assert.InDelta(t, 0.5, f1[3].Y, 1.e-12)
	assert.InDelta(t, math.Sqrt2/2, math.Abs(f1[3].Z), 1.e-12)

	var (
		sunk []int
		sink = func(frame int, pose mesh.Pose) error {
			assert.Len(t, pose, m.NumVertices())
			sunk = append(sunk, frame)
			return nil
		}
	)
	tr := newTransfer(t, m, m, []mesh.Pose{f0, f1, f2}, testConfig())
	out, _, err := tr.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, sunk)

	// Frame 0 is the reference pose, exactly
	assert.Equal(t, m.Vertices(), out.Frame(0))
	// Frame 1: only the folded vertex moves, up out of the plane
	assertPoseInDelta(t, f1, out.Frame(1), 1.e-6)
	assert.InDelta(t, math.Sqrt2/2, math.Abs(out.Frame(1)[3].Z), 1.e-6)
	assertPoseInDelta(t, f2, out.Frame(2), 1.e-6)
}

func TestTransferTopologyPreservation(t *testing.T) {
	var (
		source = bumpGrid(t, 4)
		frames = []mesh.Pose{source.Vertices()}
	)
	for i := 1; i < 5; i++ {
		f := frames[i-1].Clone()
		for j := range f {
			f[j].Z += 0.05 * float64(i) * math.Cos(f[j].X+float64(i))
		}
		frames = append(frames, f)
	}
	targetPose := source.Vertices().Translate(r3.Vec{X: 10})
	target, err := mesh.NewMesh(targetPose, source.Triangles())
	require.NoError(t, err)
	tr := newTransfer(t, source, target, frames, testConfig())
	out, reports, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, len(frames), out.Len())
	for i := 0; i < out.Len(); i++ {
		assert.Len(t, out.Frame(i), target.NumVertices())
	}
	for i, r := range reports {
		assert.Equal(t, i+1, r.Frame)
	}
}

func TestTransferDegenerateRejection(t *testing.T) {
	m := quadMesh(t)
	collapsed := m.Vertices()
	collapsed[2] = collapsed[1]

	corr, err := mesh.NewCorrespondence(m, m)
	require.NoError(t, err)

	t.Run("degenerate reference", func(t *testing.T) {
		seq, err := mesh.NewSequence(4, m.Vertices())
		require.NoError(t, err)
		_, err = NewTransfer(corr, seq, collapsed, testConfig())
		assert.ErrorIs(t, err, mesh.ErrDegenerateGeometry)
	})
	t.Run("degenerate source frame", func(t *testing.T) {
		var sunk []int
		seq, err := mesh.NewSequence(4, m.Vertices(), collapsed, m.Vertices())
		require.NoError(t, err)
		tr, err := NewTransfer(corr, seq, m.Vertices(), testConfig())
		require.NoError(t, err)
		out, reports, err := tr.Run(context.Background(), func(frame int, pose mesh.Pose) error {
			sunk = append(sunk, frame)
			return nil
		})
		var dg *mesh.DegenerateGeometryError
		require.True(t, errors.As(err, &dg))
		assert.Equal(t, 0, dg.Triangle)
		// No partial frame is emitted
		assert.Equal(t, 1, out.Len())
		assert.Empty(t, reports)
		assert.Equal(t, []int{0}, sunk)
	})
}

func TestTransferConstruction(t *testing.T) {
	var (
		m    = quadMesh(t)
		grid = bumpGrid(t, 3)
		cfg  = testConfig()
	)
	corr, err := mesh.NewCorrespondence(m, m)
	require.NoError(t, err)
	seq, err := mesh.NewSequence(4, m.Vertices())
	require.NoError(t, err)

	_, err = NewTransfer(corr, seq, m.Vertices()[:3], cfg)
	assert.ErrorIs(t, err, mesh.ErrTopologyMismatch)

	gridSeq := mesh.StaticSequence(grid)
	_, err = NewTransfer(corr, gridSeq, m.Vertices(), cfg)
	assert.ErrorIs(t, err, mesh.ErrTopologyMismatch)

	empty, err := mesh.NewSequence(4)
	require.NoError(t, err)
	_, err = NewTransfer(corr, empty, m.Vertices(), cfg)
	assert.ErrorIs(t, err, mesh.ErrTopologyMismatch)

	_, err = NewTransfer(nil, seq, m.Vertices(), cfg)
	assert.ErrorIs(t, err, mesh.ErrTopologyMismatch)

	// A single frame sequence yields just the reference pose
	tr, err := NewTransfer(corr, seq, m.Vertices(), cfg)
	require.NoError(t, err)
	out, reports, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
	assert.Empty(t, reports)
}

func TestTransferCancellation(t *testing.T) {
	m := quadMesh(t)
	f1 := m.Vertices().Translate(r3.Vec{Z: 1})
	tr := newTransfer(t, m, m, []mesh.Pose{m.Vertices(), f1, f1}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	out, _, err := tr.Run(ctx, func(frame int, pose mesh.Pose) error {
		if frame == 1 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, out.Len())

	sinkErr := errors.New("sink full")
	out, _, err = tr.Run(context.Background(), func(frame int, pose mesh.Pose) error {
		return sinkErr
	})
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 1, out.Len())
}

func TestTransferUnpinnedTranslation(t *testing.T) {
	var (
		m   = quadMesh(t)
		cfg = testConfig()
	)
	cfg.PinTranslation = false
	f1 := m.Vertices().Translate(r3.Vec{X: 3, Z: 1})
	tr := newTransfer(t, m, m, []mesh.Pose{m.Vertices(), f1}, cfg)
	out, _, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	// Without pinning, a pure translation leaves the target in place
	assertPoseInDelta(t, m.Vertices(), out.Frame(1), 1.e-9)
}

func TestTransferDisjointComponents(t *testing.T) {
	m, err := mesh.NewMesh(mesh.Pose{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1},
		{X: 0, Y: 5}, {X: 1, Y: 5}, {X: 0, Y: 6},
	}, []mesh.Triangle{{0, 1, 2}, {3, 4, 5}})
	require.NoError(t, err)
	var (
		rot    = r3.NewRotation(math.Pi/2, r3.Vec{Z: 1})
		frames = []mesh.Pose{m.Vertices()}
	)
	frames = append(frames, rigidMotion(frames[0], rot, r3.Vec{}))
	frames = append(frames, rigidMotion(frames[1], rot, r3.Vec{X: 2, Z: -1}))
	tr := newTransfer(t, m, m, frames, testConfig())
	out, _, err := tr.Run(context.Background(), nil)
	require.NoError(t, err)
	// Both triangles turn about the common origin, not their own centroids
	for i := range frames {
		assertPoseInDelta(t, frames[i], out.Frame(i), 1.e-6, "frame %d", i)
	}
}

func TestTransferStepPoseSizes(t *testing.T) {
	var (
		m    = quadMesh(t)
		pose = m.Vertices()
		tr   = newTransfer(t, m, m, []mesh.Pose{pose}, testConfig())
	)
	for _, tc := range []struct {
		name                         string
		oldSource, newSource, target mesh.Pose
	}{
		{"short old source", pose[:3], pose, pose},
		{"long new source", pose, append(pose.Clone(), r3.Vec{}), pose},
		{"empty target", pose, pose, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			next, _, err := tr.Step(tc.oldSource, tc.newSource, tc.target)
			assert.ErrorIs(t, err, mesh.ErrTopologyMismatch)
			assert.Nil(t, next)
		})
	}
}
