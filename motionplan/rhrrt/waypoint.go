package rhrrt

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/glocal/motionplan"
)

// selectNextBestWayPoint optimizes the tree and advances the root to the neighbor leading to the
// most valuable subtree. It reports false without error when the tree holds only the root; ties
// go to the first neighbor in connection order.
func (p *Planner) selectNextBestWayPoint() (motionplan.WayPoint, bool, error) {
	t := p.tree
	if t.Len() < 2 {
		return motionplan.WayPoint{}, false, nil
	}
	start := p.clock.Now()
	if err := p.connectAllToRoot(); err != nil {
		return motionplan.WayPoint{}, false, err
	}
	rounds, err := p.rewire()
	if err != nil {
		return motionplan.WayPoint{}, false, err
	}
	if err := p.updateValues(); err != nil {
		return motionplan.WayPoint{}, false, err
	}
	p.logger.Debugf("optimized the tree in %v, %d iterations", p.clock.Since(start), rounds)

	root := t.root
	next, nextConn, bestValue := -1, -1, math.Inf(-1)
	for c, ref := range t.points[root].Connections {
		target := t.neighbor(root, c)
		if e, ok := t.activeEdge(target); !ok || e.ID != ref.Edge {
			continue
		}
		if t.points[target].Value > bestValue {
			next, nextConn, bestValue = target, c, t.points[target].Value
		}
	}
	if next < 0 {
		return motionplan.WayPoint{}, false, errors.Wrapf(motionplan.ErrNoCandidateWaypoint, "root %d has no neighbor wired to it", root)
	}

	old := &t.points[root]
	old.IsRoot = false
	old.ActiveConnection = nextConn
	p.currentConnection = old.Connections[nextConn].Edge
	t.points[next].IsRoot = true
	t.root = next

	p.refreshLocalQuota()

	p.logger.Infow("published next segment", "new", p.added, "killed", p.pruned, "total", t.Len())
	p.recorder.TreeUpdated(p.added, p.pruned, t.Len())
	p.recorder.WaypointSelected()
	p.stats.WayPoints++
	p.added, p.pruned = 0, 0

	return t.points[next].Pose, true, nil
}

// refreshLocalQuota counts how many of the closest viewpoints already lie within the local
// sampling radius of the new root.
func (p *Planner) refreshLocalQuota() {
	if p.cfg.MinLocalPoints <= 0 {
		return
	}
	p.localSampled = p.cfg.MinLocalPoints
	for _, nb := range p.tree.index.KNearest(p.tree.points[p.tree.root].Pose.Position, p.cfg.MinLocalPoints) {
		if nb.Distance <= p.cfg.LocalSamplingRadius {
			p.localSampled--
		}
	}
}
