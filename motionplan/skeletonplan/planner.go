package skeletonplan

import (
	"context"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"

	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/spatialmath"
)

var (
	_ motionplan.GlobalPlanner = (*Planner)(nil)
	_ mapping.SubmapListener   = (*Planner)(nil)
)

// Option configures optional planner collaborators.
type Option func(*Planner)

// WithRecorder sets the recorder receiving search outcomes.
func WithRecorder(r motionplan.Recorder) Option {
	return func(p *Planner) { p.recorder = r }
}

// WithCollection makes the planner search an existing collection instead of an empty one.
func WithCollection(c *Collection) Option {
	return func(p *Planner) { p.collection = c }
}

// Planner searches the skeleton graphs of all finalized submaps. Plans may run concurrently with
// submaps being finalized.
type Planner struct {
	cfg        Config
	m          mapping.Map
	collection *Collection
	recorder   motionplan.Recorder
	logger     logging.Logger

	statsMu   sync.Mutex
	lastStats SearchStats
}

// NewPlanner returns a global planner reading traversability from m.
func NewPlanner(cfg Config, m mapping.Map, logger logging.Logger, opts ...Option) (*Planner, error) {
	if err := cfg.Validate("global_planner"); err != nil {
		return nil, err
	}
	p := &Planner{
		cfg:      cfg,
		m:        m,
		recorder: motionplan.NoopRecorder{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.collection == nil {
		p.collection = NewCollection(cfg.MaxLinkingDistance)
	}
	return p, nil
}

// Collection returns the submaps known to the planner.
func (p *Planner) Collection() *Collection {
	return p.collection
}

// LastSearchStats returns the statistics of the most recent search.
func (p *Planner) LastSearchStats() SearchStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.lastStats
}

// SubmapFinalized adds the skeleton of a newly finalized submap to the collection.
func (p *Planner) SubmapFinalized(fs mapping.FinalizedSubmap) error {
	sub, err := NewSubmap(fs.ID, fs.Pose, fs.Skeleton)
	if err != nil {
		return err
	}
	if err := p.collection.AddSubmap(sub); err != nil {
		return err
	}
	p.logger.Debugw("added skeleton submap", "id", fs.ID, "vertices", fs.Skeleton.Len(), "edges", fs.Skeleton.EdgeCount())
	return nil
}

// PlanPath returns waypoints along the skeleton graphs from start to goal. The last waypoint is
// the goal itself.
func (p *Planner) PlanPath(ctx context.Context, start, goal r3.Vector) ([]motionplan.WayPoint, error) {
	ctx, span := trace.StartSpan(ctx, "skeletonplan::PlanPath")
	defer span.End()

	s := newSearch(p.cfg, p.m, p.collection, goal)
	ids, err := s.run(ctx, start)

	p.statsMu.Lock()
	p.lastStats = s.stats
	p.statsMu.Unlock()
	p.recorder.GlobalSearchFinished(s.stats.Iterations, err)

	if err != nil {
		p.logger.Debugw("global search failed", "start", start, "goal", goal,
			"iterations", s.stats.Iterations, "expanded", s.stats.Expanded, "error", err)
		return nil, err
	}

	path := make([]motionplan.WayPoint, 0, len(ids))
	for _, id := range ids {
		w, ok := s.world(id)
		if !ok {
			return nil, motionplan.NewInvariantViolationError("path vertex %s is not in the collection", id)
		}
		path = append(path, spatialmath.NewPose(w, 0))
	}
	p.logger.Debugw("global search succeeded", "waypoints", len(path),
		"iterations", s.stats.Iterations, "expanded", s.stats.Expanded, "bridges", s.stats.Bridges)
	return path, nil
}

// PlanToFrontier plans to the closest frontier goal that can be reached. Goals known to be
// unreachable are skipped, the others are tried in order of straight-line distance from start.
func (p *Planner) PlanToFrontier(
	ctx context.Context,
	start r3.Vector,
	goals []motionplan.FrontierGoal,
) ([]motionplan.WayPoint, motionplan.FrontierGoal, error) {
	candidates := lo.Filter(goals, func(g motionplan.FrontierGoal, _ int) bool {
		return g.Reachability != motionplan.Unreachable
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Centroid.Distance(start) < candidates[j].Centroid.Distance(start)
	})

	var errs error
	for _, g := range candidates {
		path, err := p.PlanPath(ctx, start, g.Centroid)
		if err == nil {
			return path, g, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, motionplan.FrontierGoal{}, ctxErr
		}
		errs = multierr.Append(errs, err)
	}
	if errs == nil {
		return nil, motionplan.FrontierGoal{}, motionplan.NewSearchExhaustedError("no frontier goal to plan to")
	}
	return nil, motionplan.FrontierGoal{}, errors.Wrapf(motionplan.ErrSearchExhausted,
		"all %d frontier goals failed: %v", len(candidates), errs)
}
