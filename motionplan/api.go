// Package motionplan contains the contracts shared by the exploration planners: the waypoint type
// they emit, the supervisor callbacks they use, and their error taxonomy.
package motionplan

import (
	"context"

	"github.com/golang/geo/r3"

	"go.viam.com/glocal/spatialmath"
)

// WayPoint is a pose the robot is requested to move to.
type WayPoint = spatialmath.Pose

// Communicator is the narrow interface through which planners talk to the supervisor that owns
// the robot state.
type Communicator interface {
	CurrentPose() spatialmath.Pose
	// TargetIsReached reports whether the last requested waypoint has been reached.
	TargetIsReached() bool
	RequestWayPoint(wp WayPoint)
}

// LocalPlanner is a receding-horizon planner invoked once per control tick.
type LocalPlanner interface {
	// Reset starts a new planning session rooted at origin.
	Reset(origin spatialmath.Pose)
	RunOneIteration(ctx context.Context) error
}

// GlobalPlanner produces long-range paths, invoked once per committed goal.
type GlobalPlanner interface {
	PlanPath(ctx context.Context, start, goal r3.Vector) ([]WayPoint, error)
}

// Reachability classifies a frontier goal candidate.
type Reachability int

const (
	// ReachabilityUnknown means no reachability check has been performed yet.
	ReachabilityUnknown Reachability = iota
	// Reachable goals were confirmed reachable by the frontier builder.
	Reachable
	// Unreachable goals are never planned to.
	Unreachable
)

func (r Reachability) String() string {
	switch r {
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// FrontierGoal is a goal candidate supplied by the frontier builder: the centroid of an
// unexplored region with its reachability classification.
type FrontierGoal struct {
	Centroid     r3.Vector
	Reachability Reachability
}
