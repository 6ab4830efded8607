package skeleton

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// NewLatticeGraph builds a 6-connected grid skeleton spanning [min, max] at the given spacing.
// Lattice points rejected by keep are left out along with their edges. Vertex ids are assigned in
// x-major order starting at zero over the kept points.
func NewLatticeGraph(min, max r3.Vector, spacing float64, keep func(r3.Vector) bool) (*Graph, error) {
	if spacing <= 0 {
		return nil, errors.Errorf("lattice spacing must be positive, got %f", spacing)
	}
	steps := func(lo, hi float64) int {
		if hi < lo {
			return 0
		}
		return int(math.Floor((hi-lo)/spacing+1e-9)) + 1
	}
	nx, ny, nz := steps(min.X, max.X), steps(min.Y, max.Y), steps(min.Z, max.Z)

	sg := NewGraph()
	type cell struct{ i, j, k int }
	ids := map[cell]int64{}
	var next int64
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				p := r3.Vector{X: min.X + float64(i)*spacing, Y: min.Y + float64(j)*spacing, Z: min.Z + float64(k)*spacing}
				if keep != nil && !keep(p) {
					continue
				}
				if err := sg.AddVertex(Vertex{ID: next, Point: p}); err != nil {
					return nil, err
				}
				ids[cell{i, j, k}] = next
				next++
			}
		}
	}
	for c, id := range ids {
		for _, n := range []cell{{c.i + 1, c.j, c.k}, {c.i, c.j + 1, c.k}, {c.i, c.j, c.k + 1}} {
			if other, ok := ids[n]; ok {
				if err := sg.AddEdge(id, other); err != nil {
					return nil, err
				}
			}
		}
	}
	return sg, nil
}
