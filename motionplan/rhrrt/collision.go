package rhrrt

// updateCollision re-validates every edge except the one being executed, removes the edges that
// became blocked and prunes the viewpoints no longer reachable from the root.
func (p *Planner) updateCollision() error {
	t := p.tree
	before := t.Len()
	for _, id := range t.edgeIDs() {
		if id == p.currentConnection {
			continue
		}
		if p.pathIsTraversable(t.edges[id].PathPoints) {
			continue
		}
		if err := t.removeConnection(id); err != nil {
			return err
		}
	}
	t.prune(t.connectedToRoot(false))
	pruned := before - t.Len()
	p.pruned += pruned
	p.stats.Pruned += pruned
	return nil
}
