package mesh

// Sequence is an ordered set of frames sharing one vertex count. Frames are
// snapshots: a stored frame is never modified after it is placed in its slot.
type Sequence struct {
	numVertices int
	frames      []Pose
}

// NewSequence validates that every frame has numVertices positions. The
// frames are copied.
func NewSequence(numVertices int, frames ...Pose) (s *Sequence, err error) {
	s = &Sequence{
		numVertices: numVertices,
		frames:      make([]Pose, len(frames)),
	}
	for i, f := range frames {
		if len(f) != numVertices {
			s = nil
			err = topologyMismatch("frame %d has %d vertices, sequence expects %d",
				i, len(f), numVertices)
			return
		}
		s.frames[i] = f.Clone()
	}
	return
}

// StaticSequence is a one frame sequence holding the mesh reference pose.
func StaticSequence(m *Mesh) *Sequence {
	return &Sequence{
		numVertices: m.NumVertices(),
		frames:      []Pose{m.Vertices()},
	}
}

func (s *Sequence) Len() int         { return len(s.frames) }
func (s *Sequence) NumVertices() int { return s.numVertices }

// Frame returns the stored snapshot for frame i; callers must not modify it.
func (s *Sequence) Frame(i int) Pose { return s.frames[i] }

// NewSlots allocates an empty arena of numFrames slots, filled by SetFrame.
func NewSlots(numVertices, numFrames int) *Sequence {
	return &Sequence{
		numVertices: numVertices,
		frames:      make([]Pose, numFrames),
	}
}

// SetFrame fills an empty slot, taking ownership of p.
func (s *Sequence) SetFrame(i int, p Pose) error {
	if len(p) != s.numVertices {
		return topologyMismatch("frame %d has %d vertices, sequence expects %d",
			i, len(p), s.numVertices)
	}
	if s.frames[i] != nil {
		return topologyMismatch("frame %d is already filled", i)
	}
	s.frames[i] = p
	return nil
}

// Truncate returns a sequence holding only the first n frames.
func (s *Sequence) Truncate(n int) *Sequence {
	return &Sequence{numVertices: s.numVertices, frames: s.frames[:n]}
}
