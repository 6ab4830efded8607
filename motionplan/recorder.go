package motionplan

// Recorder receives planner statistics for observability tooling.
type Recorder interface {
	// TreeUpdated reports the viewpoints added and pruned since the last waypoint and the current tree size.
	TreeUpdated(added, pruned, total int)
	WaypointSelected()
	// GlobalSearchFinished reports one global search and its outcome, err is nil on success.
	GlobalSearchFinished(iterations int, err error)
}

// NoopRecorder discards all statistics.
type NoopRecorder struct{}

// TreeUpdated does nothing.
func (NoopRecorder) TreeUpdated(added, pruned, total int) {}

// WaypointSelected does nothing.
func (NoopRecorder) WaypointSelected() {}

// GlobalSearchFinished does nothing.
func (NoopRecorder) GlobalSearchFinished(iterations int, err error) {}
