package laplacian

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
	"github.com/notargets/godeform/utils"
)

// Anchor pins a vertex to a target position.
type Anchor struct {
	Vertex   int
	Position r3.Vec
}

type Result struct {
	Positions mesh.Pose
	Axes      [3]utils.LSQRResult // X is dropped, see Positions
}

func checkAnchors(anchors []Anchor, N int) error {
	for a, anc := range anchors {
		if anc.Vertex < 0 || anc.Vertex >= N {
			return &InvalidAnchorError{Anchor: a, Vertex: anc.Vertex, NumVertices: N}
		}
	}
	return nil
}

// System returns the (N+K) x N operator: the cotangent Laplacian of pose with
// one row per anchor selecting the anchored vertex with cfg.AnchorWeight.
func System(pose mesh.Pose, triangles []mesh.Triangle, anchors []Anchor, cfg Config) (A *utils.Triplets, err error) {
	var (
		N = len(pose)
		K = len(anchors)
	)
	if err = checkAnchors(anchors, N); err != nil {
		return
	}
	if A, err = assemble(pose, triangles, K, cfg); err != nil {
		return
	}
	base := A.Len() - K
	for a, anc := range anchors {
		A.Set(base+a, N+a, anc.Vertex, cfg.AnchorWeight)
	}
	return
}

/*
Solve moves the anchored vertices of pose to their targets while keeping the
differential coordinates L X of every vertex as close as possible to their
current values, solving independently per axis:

	min || [L; W] x - [L X; W p] ||^2

Each solve starts from the current positions, so with no anchors the pose is
returned unchanged.
*/
func Solve(m *mesh.Mesh, pose mesh.Pose, anchors []Anchor, cfg Config) (res *Result, err error) {
	if err = m.CheckPose(pose); err != nil {
		return
	}
	var (
		N   = len(pose)
		K   = len(anchors)
		log = cfg.logger()
		A   *utils.Triplets
	)
	if A, err = System(pose, m.Triangles(), anchors, cfg); err != nil {
		return
	}
	var (
		op   = A.ToCSR()
		res3 [3]utils.LSQRResult
		wg   = sync.WaitGroup{}
	)
	for axis := 0; axis < 3; axis++ {
		wg.Add(1)
		go func(axis int) {
			var (
				X     = pose.Axis(axis)
				delta = make([]float64, N+K)
			)
			utils.MulVec(delta, op, false, X)
			for a, anc := range anchors {
				delta[N+a] = cfg.AnchorWeight * component(anc.Position, axis)
			}
			res3[axis] = utils.LSQR(op, delta, X, cfg.Solver)
			wg.Done()
		}(axis)
	}
	wg.Wait()
	res = &Result{
		Positions: mesh.PoseFromAxes(N, res3[0].X, res3[1].X, res3[2].X),
	}
	for axis := 0; axis < 3; axis++ {
		res3[axis].X = nil
		log.Debug("laplacian axis solved", "axis", axis, "result", res3[axis].String())
	}
	res.Axes = res3
	log.Info("laplacian edit complete", "vertices", N, "anchors", K)
	return
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
