package deformation

import (
	"errors"
	"fmt"
)

// ErrSingularFrame matches any SingularFrameError through errors.Is.
var ErrSingularFrame = errors.New("deformation: singular triangle frame")

// SingularFrameError reports a triangle whose 3x3 extended edge matrix cannot
// be inverted. Retrying with the same pose cannot succeed.
type SingularFrameError struct {
	Triangle    int
	Determinant float64
}

func (e *SingularFrameError) Error() string {
	return fmt.Sprintf("%v: triangle %d has edge matrix determinant %g",
		ErrSingularFrame, e.Triangle, e.Determinant)
}

func (e *SingularFrameError) Is(target error) bool { return target == ErrSingularFrame }
