package laplacian

import (
	"errors"
	"fmt"
)

// ErrInvalidAnchor matches any InvalidAnchorError through errors.Is.
var ErrInvalidAnchor = errors.New("laplacian: invalid anchor")

// InvalidAnchorError reports an anchor whose vertex index is outside the mesh.
type InvalidAnchorError struct {
	Anchor      int // position in the anchor list
	Vertex      int
	NumVertices int
}

func (e *InvalidAnchorError) Error() string {
	return fmt.Sprintf("%v: anchor %d references vertex %d, mesh has %d vertices",
		ErrInvalidAnchor, e.Anchor, e.Vertex, e.NumVertices)
}

func (e *InvalidAnchorError) Is(target error) bool { return target == ErrInvalidAnchor }
