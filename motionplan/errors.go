package motionplan

import "github.com/pkg/errors"

var (
	// ErrSamplingFailed classifies a tree expansion whose sample found no traversable pose. Local
	// planners count it and carry on; it is never returned from a planning tick.
	ErrSamplingFailed = errors.New("no traversable sample found")

	// ErrConnectionFailed classifies a tree expansion whose sample could not be connected to any
	// neighbor. Like ErrSamplingFailed it is only counted.
	ErrConnectionFailed = errors.New("viewpoint could not be connected to the tree")

	// ErrNoCandidateWaypoint means value propagation found no root connected candidate. The tree
	// invariants make this impossible, so seeing it means the tree is corrupt.
	ErrNoCandidateWaypoint = errors.New("no candidate waypoint connected to the root")

	// ErrSearchExhausted is returned by global planners that could not find a path.
	ErrSearchExhausted = errors.New("global search exhausted")

	// ErrInvariantViolation marks a broken data structure contract.
	ErrInvariantViolation = errors.New("planner invariant violated")
)

// NewSearchExhaustedError wraps ErrSearchExhausted with a reason.
func NewSearchExhaustedError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSearchExhausted, format, args...)
}

// NewInvariantViolationError wraps ErrInvariantViolation with a description of the breach.
func NewInvariantViolationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvariantViolation, format, args...)
}
