// Package skeleton holds the sparse topological graphs approximating free-space connectivity inside
// one mapped region. Vertices live in the frame of the submap that owns the graph.
package skeleton

import (
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"go.viam.com/glocal/motionplan/nearest"
)

// Vertex is a skeleton vertex expressed in its submap frame.
type Vertex struct {
	ID    int64     `json:"id"`
	Point r3.Vector `json:"point"`
}

// Graph is an undirected skeleton graph whose edge weights are the euclidean lengths of the edges.
// A graph is built once and is read-only from the moment it is handed to a planner.
type Graph struct {
	g        *simple.WeightedUndirectedGraph
	vertices map[int64]Vertex

	indexMu  sync.Mutex
	index    *nearest.Index
	indexIDs []int64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		g:        simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		vertices: map[int64]Vertex{},
	}
}

// AddVertex adds a vertex, ids must be unique.
func (sg *Graph) AddVertex(v Vertex) error {
	if _, ok := sg.vertices[v.ID]; ok {
		return errors.Errorf("skeleton vertex %d already exists", v.ID)
	}
	sg.vertices[v.ID] = v
	sg.g.AddNode(simple.Node(v.ID))
	sg.invalidateIndex()
	return nil
}

// AddEdge connects two existing distinct vertices.
func (sg *Graph) AddEdge(a, b int64) error {
	va, ok := sg.vertices[a]
	if !ok {
		return errors.Errorf("skeleton edge start vertex %d does not exist", a)
	}
	vb, ok := sg.vertices[b]
	if !ok {
		return errors.Errorf("skeleton edge end vertex %d does not exist", b)
	}
	if a == b {
		return errors.Errorf("skeleton edge %d cannot connect a vertex to itself", a)
	}
	sg.g.SetWeightedEdge(sg.g.NewWeightedEdge(simple.Node(a), simple.Node(b), va.Point.Distance(vb.Point)))
	return nil
}

// Len returns the number of vertices.
func (sg *Graph) Len() int {
	return len(sg.vertices)
}

// EdgeCount returns the number of edges.
func (sg *Graph) EdgeCount() int {
	return sg.g.Edges().Len()
}

// Vertex looks up a vertex by id.
func (sg *Graph) Vertex(id int64) (Vertex, bool) {
	v, ok := sg.vertices[id]
	return v, ok
}

// Vertices returns all vertices ordered by id.
func (sg *Graph) Vertices() []Vertex {
	out := make([]Vertex, 0, len(sg.vertices))
	for _, v := range sg.vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Degree returns the number of edges incident to a vertex.
func (sg *Graph) Degree(id int64) int {
	if _, ok := sg.vertices[id]; !ok {
		return 0
	}
	return sg.g.From(id).Len()
}

// Neighbors returns the ids adjacent to a vertex in increasing order.
func (sg *Graph) Neighbors(id int64) []int64 {
	if _, ok := sg.vertices[id]; !ok {
		return nil
	}
	nodes := graph.NodesOf(sg.g.From(id))
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeCost returns the stored length of the edge between a and b.
func (sg *Graph) EdgeCost(a, b int64) (float64, bool) {
	if !sg.g.HasEdgeBetween(a, b) {
		return 0, false
	}
	return sg.g.Weight(a, b)
}

// NClosestVertices returns the ids of up to n vertices closest to p, p given in the graph frame.
func (sg *Graph) NClosestVertices(p r3.Vector, n int) []int64 {
	sg.indexMu.Lock()
	if sg.index == nil {
		vertices := sg.Vertices()
		points := make([]r3.Vector, len(vertices))
		sg.indexIDs = make([]int64, len(vertices))
		for i, v := range vertices {
			points[i] = v.Point
			sg.indexIDs[i] = v.ID
		}
		sg.index = nearest.NewIndex(points)
	}
	index, ids := sg.index, sg.indexIDs
	sg.indexMu.Unlock()

	neighbors := index.KNearest(p, n)
	out := make([]int64, len(neighbors))
	for i, nb := range neighbors {
		out[i] = ids[nb.Index]
	}
	return out
}

func (sg *Graph) invalidateIndex() {
	sg.indexMu.Lock()
	sg.index = nil
	sg.indexIDs = nil
	sg.indexMu.Unlock()
}
