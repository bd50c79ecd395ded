package deformation

import (
	"context"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
	"github.com/notargets/godeform/utils"
)

// FrameSink receives each target frame once it is completely solved. Frames
// arrive in order, and a frame that failed is never delivered.
type FrameSink func(frame int, pose mesh.Pose) error

// StepReport is the solver quality record for one frame transition.
type StepReport struct {
	Frame int
	Axes  [3]utils.LSQRResult // X is dropped, the solved pose is the frame itself
}

func (sr StepReport) MaxResidual() (r float64) {
	for _, ax := range sr.Axes {
		r = max(r, ax.ResidualNorm)
	}
	return
}

/*
Transfer retargets the source sequence onto the target mesh. Target frame 0 is
the target reference pose; target frame i+1 is solved from source frames i,
i+1 and target frame i, so frames are produced strictly in order.
*/
type Transfer struct {
	corr         *mesh.Correspondence
	source       *mesh.Sequence
	reference    mesh.Pose
	cfg          Config
	log          *slog.Logger
	sourceQuads  [][4]int
	targetQuads  [][4]int
	numTargetV   int
	numTriangles int
	groups       []pinGroup
}

// pinGroup is one connected component of the target: its vertices and the
// source vertices of the corresponding triangles.
type pinGroup struct {
	target, source []int
}

// pinGroups splits the target into vertex connected components. A only sees
// vertex differences, so each component carries its own free translation.
func pinGroups(corr *mesh.Correspondence) (groups []pinGroup) {
	var (
		srcTris   = corr.Source.Triangles()
		tgtTris   = corr.Target.Triangles()
		labels, n = mesh.ConnectedComponents(tgtTris, corr.Target.NumVertices())
		tgtSeen   = make([]int, corr.Target.NumVertices())
		srcSeen   = make([]int, corr.Source.NumVertices())
	)
	members := make([][]int, n)
	for k, c := range labels {
		members[c] = append(members[c], k)
	}
	groups = make([]pinGroup, n)
	// seen holds component+1, zero is unvisited. A source vertex may belong
	// to several components.
	for c, tris := range members {
		for _, k := range tris {
			for _, ind := range tgtTris[k] {
				if tgtSeen[ind] != c+1 {
					tgtSeen[ind] = c + 1
					groups[c].target = append(groups[c].target, ind)
				}
			}
			for _, ind := range srcTris[k] {
				if srcSeen[ind] != c+1 {
					srcSeen[ind] = c + 1
					groups[c].source = append(groups[c].source, ind)
				}
			}
		}
	}
	return
}

// Step solves one frame transition: the source moving from oldSource to
// newSource drives the target from target to the returned pose.
func (tr *Transfer) Step(oldSource, newSource, target mesh.Pose) (next mesh.Pose, report StepReport, err error) {
	if err = tr.corr.Source.CheckPose(oldSource); err != nil {
		return
	}
	if err = tr.corr.Source.CheckPose(newSource); err != nil {
		return
	}
	if err = tr.corr.Target.CheckPose(target); err != nil {
		return
	}
	var (
		srcTris = tr.corr.Source.Triangles()
		tgtTris = tr.corr.Target.Triangles()
		oldExt, newExt, tgtExt ExtendedPose
		S                      *AffineTransformations
		A                      *utils.Triplets
	)
	if oldExt, err = Extend(oldSource, srcTris, tr.cfg); err != nil {
		return
	}
	if newExt, err = Extend(newSource, srcTris, tr.cfg); err != nil {
		return
	}
	if S, err = BuildAffine(oldExt, newExt, tr.sourceQuads, tr.cfg); err != nil {
		return
	}
	if tgtExt, err = Extend(target, tgtTris, tr.cfg); err != nil {
		return
	}
	if A, err = BuildCoefficients(tgtExt, tr.targetQuads, tr.cfg); err != nil {
		return
	}
	var (
		op  = A.ToCSR()
		X   [3][]float64
		wg  = sync.WaitGroup{}
		NV  = tr.numTargetV
		res [3]utils.LSQRResult
	)
	for axis := 0; axis < 3; axis++ {
		wg.Add(1)
		go func(axis int) {
			res[axis] = utils.LSQR(op, S.Row(axis), tgtExt.Vertices.Axis(axis), tr.cfg.Solver)
			wg.Done()
		}(axis)
	}
	wg.Wait()
	for axis := 0; axis < 3; axis++ {
		X[axis] = res[axis].X
		res[axis].X = nil
	}
	report.Axes = res
	next = mesh.PoseFromAxes(NV, X[0], X[1], X[2])
	if tr.cfg.PinTranslation {
		tr.pin(next, oldSource, newSource, target)
	}
	return
}

// pin moves each target component so its centroid follows the centroid
// displacement of the corresponding source vertices.
func (tr *Transfer) pin(next, oldSource, newSource, target mesh.Pose) {
	for _, g := range tr.groups {
		shift := r3.Sub(
			r3.Add(target.CentroidOf(g.target),
				r3.Sub(newSource.CentroidOf(g.source), oldSource.CentroidOf(g.source))),
			next.CentroidOf(g.target))
		for _, ind := range g.target {
			next[ind] = r3.Add(next[ind], shift)
		}
	}
}

// Run solves every frame of the source sequence. The context is checked
// between frames only; on error or cancellation the frames solved so far are
// returned and no partial frame is ever stored.
func (tr *Transfer) Run(ctx context.Context, sink FrameSink) (out *mesh.Sequence, reports []StepReport, err error) {
	var (
		NF     = tr.source.Len()
		solved = 0
	)
	out = mesh.NewSlots(tr.numTargetV, NF)
	defer func() {
		if err != nil {
			out = out.Truncate(solved)
		}
	}()
	if err = out.SetFrame(0, tr.reference.Clone()); err != nil {
		return
	}
	solved = 1
	if sink != nil {
		if err = sink(0, out.Frame(0)); err != nil {
			return
		}
	}
	reports = make([]StepReport, 0, NF-1)
	for i := 1; i < NF; i++ {
		if err = ctx.Err(); err != nil {
			return
		}
		var (
			next   mesh.Pose
			report StepReport
		)
		next, report, err = tr.Step(tr.source.Frame(i-1), tr.source.Frame(i), out.Frame(i-1))
		if err != nil {
			tr.log.Error("frame failed", "frame", i, "error", err)
			return
		}
		report.Frame = i
		if err = out.SetFrame(i, next); err != nil {
			return
		}
		solved = i + 1
		reports = append(reports, report)
		tr.log.Debug("frame solved",
			"frame", i,
			"residualX", report.Axes[0].ResidualNorm,
			"residualY", report.Axes[1].ResidualNorm,
			"residualZ", report.Axes[2].ResidualNorm,
			"iterations", report.Axes[0].Iterations+report.Axes[1].Iterations+report.Axes[2].Iterations,
		)
		if sink != nil {
			if err = sink(i, out.Frame(i)); err != nil {
				return
			}
		}
	}
	tr.log.Info("deformation transfer complete", "frames", NF)
	return
}
