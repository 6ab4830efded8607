package skeletonplan

import (
	"container/heap"
	"context"
	"sort"

	"github.com/golang/geo/r3"

	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/motionplan"
)

// SearchStats describes one global search.
type SearchStats struct {
	Iterations int
	Expanded   int
	Bridges    int
}

type openEntry struct {
	id  GlobalVertexID
	f   float64
	seq int
}

// openSet is a binary heap ordered by f. Equal f pops in insertion order. Entries made stale by a
// later relaxation stay in the heap and are skipped once the vertex is closed.
type openSet []openEntry

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openSet) Push(x any) { *o = append(*o, x.(openEntry)) }

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	e := old[n-1]
	*o = old[:n-1]
	return e
}

type candidate struct {
	id       GlobalVertexID
	world    r3.Vector
	distance float64
}

// search holds the state of one A* run over the collection.
type search struct {
	cfg        Config
	m          mapping.Map
	collection *Collection
	goal       r3.Vector

	open    openSet
	seq     int
	g       map[GlobalVertexID]float64
	parents map[GlobalVertexID]GlobalVertexID
	closed  map[GlobalVertexID]bool
	exits   map[GlobalVertexID]bool
	stats   SearchStats
}

func newSearch(cfg Config, m mapping.Map, collection *Collection, goal r3.Vector) *search {
	return &search{
		cfg:        cfg,
		m:          m,
		collection: collection,
		goal:       goal,
		g:          map[GlobalVertexID]float64{},
		parents:    map[GlobalVertexID]GlobalVertexID{},
		closed:     map[GlobalVertexID]bool{},
		exits:      map[GlobalVertexID]bool{},
	}
}

// nClosestReachable returns the n vertices of the submaps at p closest to p among those whose
// straight line from p passes lineCheck. Vertices are checked in order of distance.
func (s *search) nClosestReachable(p r3.Vector, n int, lineCheck func(a, b r3.Vector) bool) []candidate {
	var all []candidate
	for _, sid := range s.m.SubmapIDsAtPosition(p) {
		sub, ok := s.collection.Submap(sid)
		if !ok {
			continue
		}
		for _, v := range sub.graph.Vertices() {
			w := sub.ToWorld(v.Point)
			all = append(all, candidate{
				id:       GlobalVertexID{Submap: sid, Vertex: v.ID},
				world:    w,
				distance: w.Distance(p),
			})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].distance != all[j].distance {
			return all[i].distance < all[j].distance
		}
		return all[i].id.less(all[j].id)
	})

	accepted := make([]candidate, 0, n)
	for _, c := range all {
		if len(accepted) == n {
			break
		}
		if lineCheck(p, c.world) {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func (s *search) world(id GlobalVertexID) (r3.Vector, bool) {
	if id.IsGoal() {
		return s.goal, true
	}
	sub, ok := s.collection.Submap(id.Submap)
	if !ok {
		return r3.Vector{}, false
	}
	return sub.WorldVertex(id.Vertex)
}

func (s *search) heuristic(id GlobalVertexID) float64 {
	w, ok := s.world(id)
	if !ok {
		return 0
	}
	return w.Distance(s.goal)
}

// relax lowers the cost of id through parent. Seeds pass root and keep no parent.
func (s *search) relax(id GlobalVertexID, g float64, parent GlobalVertexID, root bool) {
	if s.closed[id] {
		return
	}
	if old, ok := s.g[id]; ok && g >= old {
		return
	}
	s.g[id] = g
	if root {
		delete(s.parents, id)
	} else {
		s.parents[id] = parent
	}
	heap.Push(&s.open, openEntry{id: id, f: g + s.heuristic(id), seq: s.seq})
	s.seq++
}

func (s *search) run(ctx context.Context, start r3.Vector) ([]GlobalVertexID, error) {
	starts := s.nClosestReachable(start, s.cfg.NClosestStartVertices, s.m.IsLineTraversableInActiveSubmap)
	if len(starts) == 0 {
		return nil, motionplan.NewSearchExhaustedError("no skeleton vertex reachable from start %v", start)
	}
	ends := s.nClosestReachable(s.goal, s.cfg.NClosestEndVertices, s.m.IsLineTraversableInGlobalMap)
	if len(ends) == 0 {
		return nil, motionplan.NewSearchExhaustedError("no skeleton vertex reachable from goal %v", s.goal)
	}
	for _, c := range ends {
		s.exits[c.id] = true
	}
	for _, c := range starts {
		s.relax(c.id, c.distance, GlobalVertexID{}, true)
	}

	for s.open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.stats.Iterations++
		if s.stats.Iterations > s.cfg.MaxIterations {
			return nil, motionplan.NewSearchExhaustedError("iteration cap of %d reached", s.cfg.MaxIterations)
		}

		e := heap.Pop(&s.open).(openEntry)
		if s.closed[e.id] {
			continue
		}
		if e.id.IsGoal() {
			return s.reconstruct(), nil
		}
		s.closed[e.id] = true
		s.stats.Expanded++

		w, ok := s.world(e.id)
		if !ok {
			return nil, motionplan.NewInvariantViolationError("vertex %s is not in the collection", e.id)
		}
		g := s.g[e.id]
		if s.exits[e.id] {
			s.relax(GoalVertexID, g+w.Distance(s.goal), e.id, false)
			continue
		}

		sub, _ := s.collection.Submap(e.id.Submap)
		if sub.graph.Degree(e.id.Vertex) <= s.cfg.BridgingMaxEdges {
			s.bridge(e.id, w, g)
		}
		for _, n := range sub.graph.Neighbors(e.id.Vertex) {
			nid := GlobalVertexID{Submap: e.id.Submap, Vertex: n}
			if s.closed[nid] {
				continue
			}
			cost, _ := sub.graph.EdgeCost(e.id.Vertex, n)
			s.relax(nid, g+cost, e.id, false)
		}
	}
	return nil, motionplan.NewSearchExhaustedError("open set emptied after %d iterations", s.stats.Iterations)
}

// bridge relaxes links from a vertex into the other submaps overlapping it.
func (s *search) bridge(id GlobalVertexID, w r3.Vector, g float64) {
	for _, other := range s.collection.SubmapsAtPosition(w) {
		if other == id.Submap {
			continue
		}
		sub, ok := s.collection.Submap(other)
		if !ok {
			continue
		}
		for _, vid := range sub.graph.NClosestVertices(sub.ToLocal(w), s.cfg.BridgingNNearest) {
			nid := GlobalVertexID{Submap: other, Vertex: vid}
			if s.closed[nid] {
				continue
			}
			nw, _ := sub.WorldVertex(vid)
			d := w.Distance(nw)
			if d >= s.cfg.MaxLinkingDistance || !s.m.IsLineTraversableInGlobalMap(w, nw) {
				continue
			}
			s.stats.Bridges++
			s.relax(nid, g+d, id, false)
		}
	}
}

func (s *search) reconstruct() []GlobalVertexID {
	path := []GlobalVertexID{GoalVertexID}
	cur := GoalVertexID
	for {
		parent, ok := s.parents[cur]
		if !ok {
			break
		}
		path = append(path, parent)
		cur = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
