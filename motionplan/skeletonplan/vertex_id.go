package skeletonplan

import (
	"fmt"

	"go.viam.com/glocal/mapping"
)

// GlobalVertexID identifies a skeleton vertex across all submaps.
type GlobalVertexID struct {
	Submap mapping.SubmapID `json:"submap"`
	Vertex int64            `json:"vertex"`
}

// GoalVertexID is the virtual vertex standing for the goal point.
var GoalVertexID = GlobalVertexID{Submap: -1, Vertex: -1}

// IsGoal reports whether id is the virtual goal vertex.
func (id GlobalVertexID) IsGoal() bool {
	return id == GoalVertexID
}

func (id GlobalVertexID) String() string {
	if id.IsGoal() {
		return "goal"
	}
	return fmt.Sprintf("%d/%d", id.Submap, id.Vertex)
}

func (id GlobalVertexID) less(other GlobalVertexID) bool {
	if id.Submap != other.Submap {
		return id.Submap < other.Submap
	}
	return id.Vertex < other.Vertex
}
