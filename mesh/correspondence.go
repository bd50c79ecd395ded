package mesh

// Correspondence pairs source triangle i with target triangle i. It is built
// once per run and checked for consistent triangle counts.
type Correspondence struct {
	Source, Target *Mesh
}

func NewCorrespondence(source, target *Mesh) (c *Correspondence, err error) {
	if source == nil || target == nil {
		err = topologyMismatch("correspondence requires both a source and a target mesh")
		return
	}
	if source.NumTriangles() != target.NumTriangles() {
		err = topologyMismatch("source has %d triangles, target has %d",
			source.NumTriangles(), target.NumTriangles())
		return
	}
	c = &Correspondence{Source: source, Target: target}
	return
}

// TargetTriangle maps a source triangle index to its target triangle index.
func (c *Correspondence) TargetTriangle(sourceTri int) int { return sourceTri }

func (c *Correspondence) NumTriangles() int { return c.Source.NumTriangles() }
