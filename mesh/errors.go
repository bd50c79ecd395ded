package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrTopologyMismatch matches any TopologyMismatchError through errors.Is.
	ErrTopologyMismatch = errors.New("mesh: topology mismatch")
	// ErrDegenerateGeometry matches any DegenerateGeometryError through errors.Is.
	ErrDegenerateGeometry = errors.New("mesh: degenerate geometry")
)

// TopologyMismatchError reports a violated vertex count, index range or
// triangle count invariant. It is raised before any frame is processed.
type TopologyMismatchError struct {
	Reason string
}

func (e *TopologyMismatchError) Error() string {
	return fmt.Sprintf("%v: %s", ErrTopologyMismatch, e.Reason)
}

func (e *TopologyMismatchError) Is(target error) bool { return target == ErrTopologyMismatch }

func topologyMismatch(format string, args ...interface{}) error {
	return &TopologyMismatchError{Reason: fmt.Sprintf(format, args...)}
}

// DegenerateGeometryError reports a triangle whose edge cross product has a
// magnitude at or below the configured tolerance in the pose being processed.
type DegenerateGeometryError struct {
	Triangle  int
	Magnitude float64
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%v: triangle %d has face normal magnitude %g",
		ErrDegenerateGeometry, e.Triangle, e.Magnitude)
}

func (e *DegenerateGeometryError) Is(target error) bool { return target == ErrDegenerateGeometry }
