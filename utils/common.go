package utils

const (
	// NODETOL is the default face normal magnitude at or below which a
	// triangle is treated as degenerate.
	NODETOL = 1.e-12
	// SINGULARTOL is the default |det| at or below which a 3x3 edge matrix is
	// treated as singular. An extended triangle frame has det = |n|^1.5, so
	// this is consistent with NODETOL.
	SINGULARTOL = 1.e-18
)
