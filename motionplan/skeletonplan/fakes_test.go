package skeletonplan

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/glocal/mapping"
)

// lineMap places every point in submap 0 and answers line checks through the given functions. A
// nil function accepts every line.
type lineMap struct {
	activeLine func(a, b r3.Vector) bool
	globalLine func(a, b r3.Vector) bool
}

func (m *lineMap) VoxelSize() float64 { return 0.2 }

func (m *lineMap) IsTraversableInActiveSubmap(r3.Vector) bool { return true }

func (m *lineMap) IsPoseTraversableInActiveSubmap(r3.Vector, quat.Number) bool { return true }

func (m *lineMap) IsLineTraversableInActiveSubmap(a, b r3.Vector) bool {
	return m.activeLine == nil || m.activeLine(a, b)
}

func (m *lineMap) IsTraversableInGlobalMap(r3.Vector) bool { return true }

func (m *lineMap) IsLineTraversableInGlobalMap(a, b r3.Vector) bool {
	return m.globalLine == nil || m.globalLine(a, b)
}

func (m *lineMap) SubmapIDsAtPosition(r3.Vector) []mapping.SubmapID { return []mapping.SubmapID{0} }

func (m *lineMap) DistanceAtPosition(r3.Vector) (float64, bool) { return math.Inf(1), true }

// longerThan accepts lines strictly longer than d.
func longerThan(d float64) func(a, b r3.Vector) bool {
	return func(a, b r3.Vector) bool { return a.Distance(b) > d }
}
