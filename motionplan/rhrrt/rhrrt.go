// Package rhrrt implements a receding-horizon RRT* exploration planner. It grows a graph of
// candidate viewpoints around the robot, keeps one active connection per viewpoint so that the
// active connections form a tree rooted at the robot, and repeatedly advances the root toward the
// subtree promising the best gain per unit of travel.
package rhrrt

import (
	"context"
	"math/rand"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/sensormodel"
	"go.viam.com/glocal/spatialmath"
)

var _ motionplan.LocalPlanner = (*Planner)(nil)

// Stats counts planner events over the lifetime of the planner.
type Stats struct {
	Iterations         int `json:"iterations"`
	SamplingFailures   int `json:"sampling_failures"`
	ConnectionFailures int `json:"connection_failures"`
	Added              int `json:"added"`
	Pruned             int `json:"pruned"`
	WayPoints          int `json:"waypoints"`
}

// Option configures optional planner collaborators.
type Option func(*Planner)

// WithClock sets the clock used to time planner phases.
func WithClock(c clock.Clock) Option {
	return func(p *Planner) { p.clock = c }
}

// WithRecorder sets the recorder receiving tree statistics.
func WithRecorder(r motionplan.Recorder) Option {
	return func(p *Planner) { p.recorder = r }
}

// Planner is the receding-horizon tree planner. It is not safe for concurrent use, the map it
// reads may be updated concurrently.
type Planner struct {
	cfg      Config
	m        mapping.Map
	sensor   sensormodel.Model
	comm     motionplan.Communicator
	clock    clock.Clock
	recorder motionplan.Recorder
	rand     *rand.Rand

	baseLogger logging.Logger
	logger     logging.Logger

	// session state, cleared by Reset
	session           uuid.UUID
	tree              *Tree
	currentConnection EdgeID
	localSampled      int
	shouldUpdate      bool
	added             int
	pruned            int

	stats Stats
}

// NewPlanner returns a planner that still needs a Reset or a first iteration to root its tree.
func NewPlanner(
	cfg Config,
	m mapping.Map,
	sensor sensormodel.Model,
	comm motionplan.Communicator,
	logger logging.Logger,
	opts ...Option,
) (*Planner, error) {
	if err := cfg.Validate("local_planner"); err != nil {
		return nil, err
	}
	p := &Planner{
		cfg:               cfg,
		m:                 m,
		sensor:            sensor,
		comm:              comm,
		clock:             clock.New(),
		recorder:          motionplan.NoopRecorder{},
		rand:              rand.New(rand.NewSource(cfg.RandomSeed)), //nolint:gosec
		baseLogger:        logger,
		logger:            logger,
		currentConnection: noEdge,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Reset clears the tree and roots a new one at origin.
func (p *Planner) Reset(origin spatialmath.Pose) {
	p.session = uuid.New()
	p.logger = p.baseLogger.WithFields("session", p.session.String())
	p.tree = newTree(origin)
	p.currentConnection = noEdge
	p.localSampled = p.cfg.MinLocalPoints
	p.shouldUpdate = false
	p.added = 0
	p.pruned = 0
	p.logger.Debugf("reset local planner at %v", origin)
}

// RunOneIteration performs one planning tick: refresh gains after a committed waypoint, grow the
// tree by at most one viewpoint, and request the next waypoint once the robot reached its target.
func (p *Planner) RunOneIteration(ctx context.Context) error {
	_, span := trace.StartSpan(ctx, "rhrrt::RunOneIteration")
	defer span.End()

	if p.tree == nil {
		p.Reset(p.comm.CurrentPose())
	}
	p.stats.Iterations++

	if p.shouldUpdate {
		p.updateGains()
		p.shouldUpdate = false
	}

	switch err := p.expandTree(); {
	case errors.Is(err, motionplan.ErrSamplingFailed):
		p.stats.SamplingFailures++
	case errors.Is(err, motionplan.ErrConnectionFailed):
		p.stats.ConnectionFailures++
	}

	if !p.comm.TargetIsReached() {
		return nil
	}
	if err := p.updateCollision(); err != nil {
		return err
	}
	wp, ok, err := p.selectNextBestWayPoint()
	if err != nil {
		return err
	}
	if ok {
		p.comm.RequestWayPoint(wp)
		p.shouldUpdate = true
	}
	return nil
}

// Tree exposes the current tree for observability tooling. The returned tree must not be used
// concurrently with RunOneIteration.
func (p *Planner) Tree() *Tree {
	return p.tree
}

// Session returns the id of the current planning session.
func (p *Planner) Session() uuid.UUID {
	return p.session
}

// Stats returns the counters accumulated since the planner was created.
func (p *Planner) Stats() Stats {
	return p.stats
}

// VisibleVoxels returns the unknown voxels the sensor would observe from pose.
func (p *Planner) VisibleVoxels(pose spatialmath.Pose) []mapping.VoxelIndex {
	return p.sensor.VisibleUnknownVoxels(pose)
}

// expandTree samples one viewpoint and adds it if it connects to the tree. A miss leaves the tree
// untouched and is reported as ErrSamplingFailed or ErrConnectionFailed.
func (p *Planner) expandTree() error {
	pose, ok := p.samplePoint()
	if !ok {
		return motionplan.ErrSamplingFailed
	}
	pending := p.connectionCandidates(pose.Position)
	if len(pending) == 0 {
		return motionplan.ErrConnectionFailed
	}
	idx := p.tree.insert(ViewPoint{
		Pose:             pose,
		Gain:             p.sensor.ComputeVisibleUnknownVolume(pose),
		ActiveConnection: 0,
	})
	for _, c := range pending {
		p.tree.addConnection(idx, c.target, c.pathPoints, c.cost)
	}
	if p.localSampled > 0 {
		p.localSampled--
	}
	p.added++
	p.stats.Added++
	return nil
}

// updateGains re-evaluates every viewpoint except the two ends of the edge being executed, which
// have been observed already.
func (p *Planner) updateGains() {
	start := p.clock.Now()
	for i := range p.tree.points {
		if e, ok := p.tree.activeEdge(i); ok && e.ID == p.currentConnection {
			p.tree.points[i].Gain = 0
			continue
		}
		p.tree.points[i].Gain = p.sensor.ComputeVisibleUnknownVolume(p.tree.points[i].Pose)
	}
	p.logger.Debugf("updated all gains in %v", p.clock.Since(start))
}
