package rhrrt

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/motionplan/nearest"
	"go.viam.com/glocal/spatialmath"
)

// EdgeID identifies a connection. Ids are never reused within a session and survive pruning.
type EdgeID int

const noEdge EdgeID = -1

// Connection is a traversable straight segment between two viewpoints. Parent is the viewpoint
// that created the edge.
type Connection struct {
	ID     EdgeID `json:"id"`
	Parent int    `json:"parent"`
	Target int    `json:"target"`
	// PathPoints sample the segment at voxel resolution, both ends included.
	PathPoints []r3.Vector `json:"path_points"`
	Cost       float64     `json:"cost"`
}

// ConnectionRef is one entry of a viewpoint's adjacency list.
type ConnectionRef struct {
	// Outgoing is true if the viewpoint is the parent of the edge.
	Outgoing bool   `json:"outgoing"`
	Edge     EdgeID `json:"edge"`
}

// ViewPoint is a candidate pose in the tree.
type ViewPoint struct {
	Pose  spatialmath.Pose `json:"pose"`
	Gain  float64          `json:"gain"`
	Value float64          `json:"value"`
	// IsRoot is set on exactly one viewpoint.
	IsRoot bool `json:"is_root"`
	// ActiveConnection indexes Connections and selects the edge leading toward the root, -1 if unset.
	ActiveConnection int             `json:"active_connection"`
	Connections      []ConnectionRef `json:"connections"`
}

// Tree is the viewpoint arena of one planning session. Viewpoints are addressed by their index in
// insertion order, indices shift only when the tree is pruned.
type Tree struct {
	points   []ViewPoint
	edges    map[EdgeID]*Connection
	nextEdge EdgeID
	root     int
	index    *nearest.Index
}

func newTree(origin spatialmath.Pose) *Tree {
	t := &Tree{
		points: []ViewPoint{{Pose: origin, IsRoot: true, ActiveConnection: -1}},
		edges:  map[EdgeID]*Connection{},
	}
	t.index = nearest.NewIndex([]r3.Vector{origin.Position})
	return t
}

// Len returns the number of viewpoints.
func (t *Tree) Len() int {
	return len(t.points)
}

// Root returns the index of the root viewpoint.
func (t *Tree) Root() int {
	return t.root
}

// ViewPoint returns a copy of the viewpoint at index i.
func (t *Tree) ViewPoint(i int) ViewPoint {
	vp := t.points[i]
	vp.Connections = append([]ConnectionRef(nil), vp.Connections...)
	return vp
}

// ViewPoints returns copies of all viewpoints in arena order.
func (t *Tree) ViewPoints() []ViewPoint {
	out := make([]ViewPoint, len(t.points))
	for i := range t.points {
		out[i] = t.ViewPoint(i)
	}
	return out
}

// Connection looks up an edge by id.
func (t *Tree) Connection(id EdgeID) (Connection, bool) {
	c, ok := t.edges[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Connections returns all edges ordered by id.
func (t *Tree) Connections() []Connection {
	out := make([]Connection, 0, len(t.edges))
	for _, id := range t.edgeIDs() {
		out = append(out, *t.edges[id])
	}
	return out
}

func (t *Tree) edgeIDs() []EdgeID {
	ids := lo.Keys(t.edges)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t *Tree) insert(vp ViewPoint) int {
	t.points = append(t.points, vp)
	t.index.Insert(vp.Pose.Position)
	return len(t.points) - 1
}

func (t *Tree) addConnection(parent, target int, pathPoints []r3.Vector, cost float64) EdgeID {
	id := t.nextEdge
	t.nextEdge++
	t.edges[id] = &Connection{ID: id, Parent: parent, Target: target, PathPoints: pathPoints, Cost: cost}
	t.points[parent].Connections = append(t.points[parent].Connections, ConnectionRef{Outgoing: true, Edge: id})
	t.points[target].Connections = append(t.points[target].Connections, ConnectionRef{Outgoing: false, Edge: id})
	return id
}

// neighbor returns the viewpoint at the other end of the c-th connection of i.
func (t *Tree) neighbor(i, c int) int {
	e := t.edges[t.points[i].Connections[c].Edge]
	if e.Parent == i {
		return e.Target
	}
	return e.Parent
}

// activeEdge returns the edge selected by the active connection of i.
func (t *Tree) activeEdge(i int) (*Connection, bool) {
	vp := &t.points[i]
	if vp.ActiveConnection < 0 || vp.ActiveConnection >= len(vp.Connections) {
		return nil, false
	}
	return t.edges[vp.Connections[vp.ActiveConnection].Edge], true
}

// parent returns the viewpoint i's active connection leads to, -1 if unset.
func (t *Tree) parent(i int) int {
	vp := &t.points[i]
	if vp.ActiveConnection < 0 || vp.ActiveConnection >= len(vp.Connections) {
		return -1
	}
	return t.neighbor(i, vp.ActiveConnection)
}

func (t *Tree) connectionIndex(i int, id EdgeID) int {
	for c, ref := range t.points[i].Connections {
		if ref.Edge == id {
			return c
		}
	}
	return -1
}

// removeConnection deletes an edge from both endpoints. Active connections after the removed entry
// shift down, an active connection on the removed entry becomes unset.
func (t *Tree) removeConnection(id EdgeID) error {
	e, ok := t.edges[id]
	if !ok {
		return motionplan.NewInvariantViolationError("edge %d does not exist", id)
	}
	pc, tc := t.connectionIndex(e.Parent, id), t.connectionIndex(e.Target, id)
	if pc < 0 || tc < 0 {
		return motionplan.NewInvariantViolationError("edge %d is not referenced by both viewpoints %d and %d",
			id, e.Parent, e.Target)
	}
	t.dropRef(e.Parent, pc)
	t.dropRef(e.Target, tc)
	delete(t.edges, id)
	return nil
}

func (t *Tree) dropRef(i, c int) {
	vp := &t.points[i]
	vp.Connections = append(vp.Connections[:c], vp.Connections[c+1:]...)
	switch {
	case vp.ActiveConnection == c:
		vp.ActiveConnection = -1
	case vp.ActiveConnection > c:
		vp.ActiveConnection--
	}
}

// connectedToRoot marks every viewpoint reachable from the root. With activeOnly set an edge is
// only followed toward a viewpoint whose active connection is that edge.
func (t *Tree) connectedToRoot(activeOnly bool) []bool {
	reached := make([]bool, len(t.points))
	reached[t.root] = true
	queue := []int{t.root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for c, ref := range t.points[cur].Connections {
			next := t.neighbor(cur, c)
			if reached[next] {
				continue
			}
			if activeOnly {
				if e, ok := t.activeEdge(next); !ok || e.ID != ref.Edge {
					continue
				}
			}
			reached[next] = true
			queue = append(queue, next)
		}
	}
	return reached
}

// prune removes every viewpoint not marked in keep together with its edges, compacts the arena and
// rebuilds the spatial index. The root must be kept.
func (t *Tree) prune(keep []bool) int {
	remap := make([]int, len(t.points))
	kept := make([]ViewPoint, 0, len(t.points))
	for i, vp := range t.points {
		if !keep[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, vp)
	}
	removed := len(t.points) - len(kept)
	if removed == 0 {
		return 0
	}

	for id, e := range t.edges {
		if remap[e.Parent] < 0 || remap[e.Target] < 0 {
			delete(t.edges, id)
			continue
		}
		e.Parent, e.Target = remap[e.Parent], remap[e.Target]
	}
	for i := range kept {
		vp := &kept[i]
		var active EdgeID = noEdge
		if vp.ActiveConnection >= 0 && vp.ActiveConnection < len(vp.Connections) {
			active = vp.Connections[vp.ActiveConnection].Edge
		}
		vp.Connections = lo.Filter(vp.Connections, func(ref ConnectionRef, _ int) bool {
			_, ok := t.edges[ref.Edge]
			return ok
		})
		vp.ActiveConnection = -1
		for c, ref := range vp.Connections {
			if ref.Edge == active {
				vp.ActiveConnection = c
			}
		}
	}
	t.points = kept
	t.root = remap[t.root]
	t.rebuildIndex()
	return removed
}

func (t *Tree) rebuildIndex() {
	t.index.Rebuild(lo.Map(t.points, func(vp ViewPoint, _ int) r3.Vector { return vp.Pose.Position }))
}

// CheckInvariants verifies that there is exactly one root, that every edge is referenced by both
// of its endpoints, and that following active connections from any viewpoint never loops.
func (t *Tree) CheckInvariants() error {
	roots := lo.CountBy(t.points, func(vp ViewPoint) bool { return vp.IsRoot })
	if roots != 1 || !t.points[t.root].IsRoot {
		return motionplan.NewInvariantViolationError("tree has %d roots", roots)
	}
	refs := 0
	for i, vp := range t.points {
		for _, ref := range vp.Connections {
			e, ok := t.edges[ref.Edge]
			if !ok {
				return motionplan.NewInvariantViolationError("viewpoint %d references missing edge %d", i, ref.Edge)
			}
			if (ref.Outgoing && e.Parent != i) || (!ref.Outgoing && e.Target != i) {
				return motionplan.NewInvariantViolationError("viewpoint %d has a mismatched reference to edge %d", i, ref.Edge)
			}
			refs++
		}
	}
	if refs != 2*len(t.edges) {
		return motionplan.NewInvariantViolationError("%d edges but %d references", len(t.edges), refs)
	}
	for i := range t.points {
		cur := i
		for steps := 0; cur >= 0 && !t.points[cur].IsRoot; steps++ {
			if steps > len(t.points) {
				return motionplan.NewInvariantViolationError("active connections of viewpoint %d form a cycle", i)
			}
			cur = t.parent(cur)
		}
	}
	return nil
}
