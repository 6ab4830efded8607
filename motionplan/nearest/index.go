// Package nearest provides the k-nearest-neighbor index used by the planners to look up tree nodes
// and skeleton vertices. It is a static-batch kd-tree: cheap incremental insertion and queries,
// with a full rebuild whenever the indexed point set is reordered.
package nearest

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Neighbor is a query result: the insertion index of the point and its distance to the query.
type Neighbor struct {
	Index    int
	Distance float64
}

// Index is a kd-tree over r3 points addressed by insertion index.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex returns an index built over points, where points[i] is addressed by i.
func NewIndex(points []r3.Vector) *Index {
	idx := &Index{}
	idx.Rebuild(points)
	return idx
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return idx.size
}

// Rebuild discards the tree and rebuilds it balanced over points.
func (idx *Index) Rebuild(points []r3.Vector) {
	if len(points) == 0 {
		idx.tree = &kdtree.Tree{}
		idx.size = 0
		return
	}
	set := make(itemSet, len(points))
	for i, p := range points {
		set[i] = item{p: p, id: i}
	}
	idx.tree = kdtree.New(set, false)
	idx.size = len(points)
}

// Insert appends a point. It is addressed by the number of points inserted before it.
func (idx *Index) Insert(p r3.Vector) int {
	id := idx.size
	idx.tree.Insert(item{p: p, id: id}, false)
	idx.size++
	return id
}

// InsertBatch appends several points at once. An empty index is built balanced from the batch.
func (idx *Index) InsertBatch(points []r3.Vector) {
	if idx.size == 0 {
		idx.Rebuild(points)
		return
	}
	for _, p := range points {
		idx.Insert(p)
	}
}

// KNearest returns up to k indexed points ordered by increasing distance to p. Equal distances are
// ordered by insertion index.
func (idx *Index) KNearest(p r3.Vector, k int) []Neighbor {
	if idx.size == 0 || k <= 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(k)
	idx.tree.NearestSet(keeper, item{p: p, id: -1})

	out := make([]Neighbor, 0, k)
	for _, cd := range keeper.Heap {
		it, ok := cd.Comparable.(item)
		if !ok {
			// sentinel left in the heap when fewer than k points exist
			continue
		}
		out = append(out, Neighbor{Index: it.id, Distance: math.Sqrt(cd.Dist)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance == out[j].Distance {
			return out[i].Index < out[j].Index
		}
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Nearest returns the closest indexed point, false if the index is empty.
func (idx *Index) Nearest(p r3.Vector) (Neighbor, bool) {
	nn := idx.KNearest(p, 1)
	if len(nn) == 0 {
		return Neighbor{}, false
	}
	return nn[0], true
}

type item struct {
	p  r3.Vector
	id int
}

func (it item) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return it.p.X
	case 1:
		return it.p.Y
	default:
		return it.p.Z
	}
}

// Compare returns the signed distance of it from the plane through c perpendicular to d.
func (it item) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return it.coord(d) - c.(item).coord(d)
}

func (it item) Dims() int { return 3 }

// Distance is the squared euclidean distance, as the kd-tree expects.
func (it item) Distance(c kdtree.Comparable) float64 {
	return it.p.Sub(c.(item).p).Norm2()
}

type itemSet []item

func (s itemSet) Index(i int) kdtree.Comparable { return s[i] }
func (s itemSet) Len() int                      { return len(s) }
func (s itemSet) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

func (s itemSet) Pivot(d kdtree.Dim) int {
	p := plane{dim: d, itemSet: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

type plane struct {
	dim kdtree.Dim
	itemSet
}

func (p plane) Less(i, j int) bool { return p.itemSet[i].coord(p.dim) < p.itemSet[j].coord(p.dim) }
func (p plane) Swap(i, j int)      { p.itemSet[i], p.itemSet[j] = p.itemSet[j], p.itemSet[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.itemSet = p.itemSet[start:end]
	return p
}
