package nearest

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func randomPoints(rnd *rand.Rand, n int) []r3.Vector {
	points := make([]r3.Vector, n)
	for i := range points {
		points[i] = r3.Vector{X: rnd.Float64()*20 - 10, Y: rnd.Float64()*20 - 10, Z: rnd.Float64() * 4}
	}
	return points
}

func bruteForce(points []r3.Vector, q r3.Vector, k int) []int {
	ids := make([]int, len(points))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return points[ids[i]].Distance(q) < points[ids[j]].Distance(q)
	})
	if k < len(ids) {
		ids = ids[:k]
	}
	return ids
}

func TestEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	test.That(t, idx.Len(), test.ShouldEqual, 0)
	test.That(t, idx.KNearest(r3.Vector{}, 5), test.ShouldBeEmpty)
	_, ok := idx.Nearest(r3.Vector{})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestKNearestMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	points := randomPoints(rnd, 300)

	t.Run("batch built", func(t *testing.T) {
		idx := NewIndex(points)
		for i := 0; i < 25; i++ {
			q := randomPoints(rnd, 1)[0]
			got := idx.KNearest(q, 7)
			test.That(t, got, test.ShouldHaveLength, 7)
			for j, id := range bruteForce(points, q, 7) {
				test.That(t, got[j].Index, test.ShouldEqual, id)
				test.That(t, got[j].Distance, test.ShouldAlmostEqual, points[id].Distance(q))
			}
		}
	})

	t.Run("incrementally inserted", func(t *testing.T) {
		idx := NewIndex(nil)
		for i, p := range points {
			test.That(t, idx.Insert(p), test.ShouldEqual, i)
		}
		q := r3.Vector{X: 1, Y: -2, Z: 1}
		got := idx.KNearest(q, 4)
		for j, id := range bruteForce(points, q, 4) {
			test.That(t, got[j].Index, test.ShouldEqual, id)
		}
	})
}

func TestKNearestFewerPointsThanK(t *testing.T) {
	idx := NewIndex([]r3.Vector{{X: 3}, {X: 1}})
	got := idx.KNearest(r3.Vector{}, 10)
	test.That(t, got, test.ShouldHaveLength, 2)
	test.That(t, got[0].Index, test.ShouldEqual, 1)
	test.That(t, got[1].Index, test.ShouldEqual, 0)
}

func TestRebuildAfterRemoval(t *testing.T) {
	points := []r3.Vector{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	idx := NewIndex(points)
	idx.InsertBatch([]r3.Vector{{X: 10}})
	test.That(t, idx.Len(), test.ShouldEqual, 5)

	// drop the second point, indices shift down
	remaining := []r3.Vector{points[0], points[2], points[3]}
	idx.Rebuild(remaining)
	nn, ok := idx.Nearest(r3.Vector{X: 2.1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nn.Index, test.ShouldEqual, 1)
	test.That(t, idx.Len(), test.ShouldEqual, 3)
}
