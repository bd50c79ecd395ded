package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// ConnectedComponents labels every triangle with the index of its connected
// component, triangles sharing a vertex being connected. Components are
// numbered in order of first appearance.
func ConnectedComponents(triangles []Triangle, numVertices int) (labels []int, n int) {
	parent := make([]int, numVertices)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, tri := range triangles {
		r0 := find(tri[0])
		for _, ind := range tri[1:] {
			if r := find(ind); r != r0 {
				parent[r] = r0
			}
		}
	}
	ids := make(map[int]int)
	labels = make([]int, len(triangles))
	for k, tri := range triangles {
		root := find(tri[0])
		id, ok := ids[root]
		if !ok {
			id = n
			ids[root] = id
			n++
		}
		labels[k] = id
	}
	return
}

// CentroidOf returns the mean of the positions at indices.
func (p Pose) CentroidOf(indices []int) (c r3.Vec) {
	if len(indices) == 0 {
		return
	}
	for _, i := range indices {
		c = r3.Add(c, p[i])
	}
	return r3.Scale(1/float64(len(indices)), c)
}
