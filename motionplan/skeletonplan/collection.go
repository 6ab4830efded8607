package skeletonplan

import (
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/glocal/mapping"
)

// Collection is an append-only set of submaps. It is safe for concurrent use, submaps are
// typically added by the mapping layer while the planner reads.
type Collection struct {
	margin float64

	mu      sync.RWMutex
	submaps map[mapping.SubmapID]*Submap
	ids     []mapping.SubmapID
}

// NewCollection returns an empty collection. Position queries pad every submap bounding box by margin.
func NewCollection(margin float64) *Collection {
	return &Collection{margin: margin, submaps: map[mapping.SubmapID]*Submap{}}
}

// AddSubmap adds a submap, ids cannot be reused.
func (c *Collection) AddSubmap(s *Submap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.submaps[s.id]; ok {
		return errors.Errorf("submap %d is already in the collection", s.id)
	}
	c.submaps[s.id] = s
	c.ids = append(c.ids, s.id)
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// Submap looks up a submap by id.
func (c *Collection) Submap(id mapping.SubmapID) (*Submap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.submaps[id]
	return s, ok
}

// IDs returns all submap ids in increasing order.
func (c *Collection) IDs() []mapping.SubmapID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]mapping.SubmapID(nil), c.ids...)
}

// Len returns the number of submaps.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// SubmapsAtPosition returns the ids of submaps whose padded bounding box contains p, in increasing order.
func (c *Collection) SubmapsAtPosition(p r3.Vector) []mapping.SubmapID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.ids, func(id mapping.SubmapID, _ int) bool {
		return c.submaps[id].bounds.Expand(c.margin).Contains(p)
	})
}
