package rhrrt

import (
	"math"

	"go.viam.com/glocal/motionplan"
)

// connectAllToRoot makes the active connections of all viewpoints lead to the root. Viewpoints
// that are not reached through active connections attach to the first reached neighbor, and
// passes repeat until every viewpoint is attached.
func (p *Planner) connectAllToRoot() error {
	t := p.tree
	reached := t.connectedToRoot(true)
	var pending []int
	for i, ok := range reached {
		if !ok {
			pending = append(pending, i)
		}
	}
	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			attached := false
			for c := range t.points[i].Connections {
				if reached[t.neighbor(i, c)] {
					t.points[i].ActiveConnection = c
					reached[i] = true
					attached = true
					break
				}
			}
			if !attached {
				next = append(next, i)
			}
		}
		if len(next) == len(pending) {
			return motionplan.NewInvariantViolationError("%d viewpoints cannot be connected to the root", len(next))
		}
		pending = next
	}
	return nil
}

// rewire optimizes the active connections until no viewpoint changes or the iteration limit is
// reached. It returns the number of rounds performed.
func (p *Planner) rewire() (int, error) {
	rounds := 0
	for rounds < p.cfg.MaximumRewiringIterations {
		rounds++
		changed := false
		for i := range p.tree.points {
			if p.tree.points[i].IsRoot {
				continue
			}
			c, err := p.selectBestConnection(i)
			if err != nil {
				return rounds, err
			}
			changed = changed || c
		}
		if !changed {
			break
		}
	}
	return rounds, nil
}

// selectBestConnection tries every connection of i as its active connection and keeps the one
// with the highest value. Candidates closing a loop are skipped. If no candidate is valid the
// previous active connection is restored.
func (p *Planner) selectBestConnection(i int) (bool, error) {
	vp := &p.tree.points[i]
	if vp.IsRoot || len(vp.Connections) == 0 {
		return false, nil
	}
	previous := vp.ActiveConnection
	best, bestValue := -1, math.Inf(-1)
	for c := range vp.Connections {
		vp.ActiveConnection = c
		if !p.leadsToRoot(i) {
			continue
		}
		value, err := p.computeValue(i)
		if err != nil {
			vp.ActiveConnection = previous
			return false, err
		}
		if value > bestValue {
			best, bestValue = c, value
		}
	}
	if best < 0 {
		vp.ActiveConnection = previous
		return false, nil
	}
	vp.ActiveConnection = best
	vp.Value = bestValue
	return best != previous, nil
}

// leadsToRoot reports whether following active connections from i reaches the root without
// returning to i.
func (p *Planner) leadsToRoot(i int) bool {
	cur := i
	for steps := 0; steps <= len(p.tree.points); steps++ {
		cur = p.tree.parent(cur)
		if cur < 0 || cur == i {
			return false
		}
		if p.tree.points[cur].IsRoot {
			return true
		}
	}
	return false
}

// computeValue returns the best gain to cost ratio found in the subtree of i, where gain and cost
// accumulate along the active connections from the root down to each subtree viewpoint. The root
// contributes neither gain nor cost.
func (p *Planner) computeValue(i int) (float64, error) {
	t := p.tree
	if t.points[i].IsRoot {
		return 0, nil
	}
	var gain, cost float64
	cur := i
	for steps := 0; ; steps++ {
		if steps > len(t.points) {
			return 0, motionplan.NewInvariantViolationError("active connections above viewpoint %d form a cycle", i)
		}
		cur = t.parent(cur)
		if cur < 0 {
			return 0, motionplan.NewInvariantViolationError("viewpoint %d is not connected to the root", i)
		}
		if t.points[cur].IsRoot {
			break
		}
		e, _ := t.activeEdge(cur)
		gain += t.points[cur].Gain
		cost += e.Cost
	}
	return p.subtreeValue(i, gain, cost)
}

type valueFrame struct {
	node       int
	gain, cost float64
}

// subtreeValue walks the subtree below i with an explicit stack.
func (p *Planner) subtreeValue(i int, gain, cost float64) (float64, error) {
	t := p.tree
	best := 0.0
	stack := []valueFrame{{node: i, gain: gain, cost: cost}}
	for visited := 0; len(stack) > 0; visited++ {
		if visited > len(t.points) {
			return 0, motionplan.NewInvariantViolationError("active connections below viewpoint %d form a cycle", i)
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e, ok := t.activeEdge(f.node)
		if !ok {
			return 0, motionplan.NewInvariantViolationError("viewpoint %d has no active connection", f.node)
		}
		g, c := f.gain+t.points[f.node].Gain, f.cost+e.Cost
		if c > 0 {
			best = math.Max(best, g/c)
		}
		for k, ref := range t.points[f.node].Connections {
			child := t.neighbor(f.node, k)
			if t.points[child].IsRoot || ref.Edge == e.ID {
				continue
			}
			if ce, ok := t.activeEdge(child); ok && ce.ID == ref.Edge {
				stack = append(stack, valueFrame{node: child, gain: g, cost: c})
			}
		}
	}
	return best, nil
}

// updateValues recomputes the value of every viewpoint for the current active connections.
func (p *Planner) updateValues() error {
	for i := range p.tree.points {
		v, err := p.computeValue(i)
		if err != nil {
			return err
		}
		p.tree.points[i].Value = v
	}
	return nil
}
