package main

import (
	"context"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/glocal/config"
	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/mapping/skeleton"
	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/motionplan/rhrrt"
	"go.viam.com/glocal/motionplan/skeletonplan"
	"go.viam.com/glocal/sensormodel"
	"go.viam.com/glocal/spatialmath"
)

const (
	corridorHalfWidth  = 1.0
	corridorHalfHeight = 0.6
	skeletonSpacing    = 0.5
	robotBodyRadius    = 0.4
	exploredSubmapID   = mapping.SubmapID(0)
)

// simRobot teleports to every requested waypoint and observes the world from there.
type simRobot struct {
	mu        sync.Mutex
	pose      spatialmath.Pose
	waypoints []motionplan.WayPoint
	observe   func(spatialmath.Pose)
}

func (r *simRobot) CurrentPose() spatialmath.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

func (r *simRobot) TargetIsReached() bool {
	return true
}

func (r *simRobot) RequestWayPoint(wp motionplan.WayPoint) {
	r.mu.Lock()
	r.pose = wp
	r.waypoints = append(r.waypoints, wp)
	r.mu.Unlock()
	r.observe(wp)
}

func (r *simRobot) history() []motionplan.WayPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]motionplan.WayPoint(nil), r.waypoints...)
}

// result is the outcome of one simulated exploration run.
type result struct {
	Explored []motionplan.WayPoint
	Home     []motionplan.WayPoint
	Stats    rhrrt.Stats
	Search   skeletonplan.SearchStats
}

// simulation explores a straight corridor that starts at the origin and extends along +x. All
// space outside the corridor is solid.
type simulation struct {
	logger   logging.Logger
	corridor mapping.Box
	vm       *mapping.VoxelMap
	lidar    *sensormodel.Lidar
	robot    *simRobot
	local    *rhrrt.Planner
	global   *skeletonplan.Planner
}

func newSimulation(
	cfg *config.Config,
	corridorLength float64,
	recorder motionplan.Recorder,
	logger logging.Logger,
) (*simulation, error) {
	if corridorLength <= 0 {
		return nil, errors.Errorf("corridor length must be positive, got %f", corridorLength)
	}
	s := &simulation{
		logger: logger,
		corridor: mapping.Box{
			Min: r3.Vector{X: -corridorHalfWidth, Y: -corridorHalfWidth, Z: -corridorHalfHeight},
			Max: r3.Vector{X: corridorLength, Y: corridorHalfWidth, Z: corridorHalfHeight},
		},
	}

	mapCfg := cfg.Map
	if mapCfg.Bounds == nil {
		bounds := s.corridor.Expand(1)
		mapCfg.Bounds = &bounds
	}
	vm, err := mapping.NewVoxelMap(mapCfg, logger.Sublogger("map"))
	if err != nil {
		return nil, err
	}
	s.vm = vm

	if s.lidar, err = sensormodel.NewLidar(cfg.Lidar, vm); err != nil {
		return nil, err
	}
	s.robot = &simRobot{pose: spatialmath.NewZeroPose(), observe: s.observe}

	s.local, err = rhrrt.NewPlanner(cfg.LocalPlanner, vm, s.lidar, s.robot, logger.Sublogger("local"),
		rhrrt.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}
	s.global, err = skeletonplan.NewPlanner(cfg.GlobalPlanner, vm, logger.Sublogger("global"),
		skeletonplan.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}
	vm.Subscribe(s.global)

	s.observe(s.robot.CurrentPose())
	return s, nil
}

// observe reveals the ground truth of every unknown voxel the lidar sees from pose, along with
// the voxels covered by the robot body.
func (s *simulation) observe(pose spatialmath.Pose) {
	s.vm.SetRobotPosition(pose.Position)
	reveal := func(center r3.Vector) {
		state := mapping.VoxelOccupied
		if s.corridor.Contains(center) {
			state = mapping.VoxelFree
		}
		s.vm.SetVoxelState(center, state)
	}
	body := mapping.Box{Min: pose.Position, Max: pose.Position}.Expand(robotBodyRadius)
	lo, hi := s.vm.VoxelIndexOf(body.Min), s.vm.VoxelIndexOf(body.Max)
	for i := lo.I; i <= hi.I; i++ {
		for j := lo.J; j <= hi.J; j++ {
			for k := lo.K; k <= hi.K; k++ {
				reveal(s.vm.VoxelCenter(mapping.VoxelIndex{I: i, J: j, K: k}))
			}
		}
	}
	for _, idx := range s.lidar.VisibleUnknownVoxels(pose) {
		reveal(s.vm.VoxelCenter(idx))
	}
}

func (s *simulation) explore(ctx context.Context, ticks int) error {
	s.local.Reset(s.robot.CurrentPose())
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.local.RunOneIteration(ctx); err != nil {
			return errors.Wrapf(err, "local planning failed at tick %d", i)
		}
	}
	return nil
}

// finalizeExplored freezes the explored part of the corridor as one submap. The skeleton is a
// lattice along the corridor center, which is free by construction.
func (s *simulation) finalizeExplored() error {
	maxX := 0.0
	for _, wp := range s.robot.history() {
		maxX = math.Max(maxX, wp.Position.X)
	}
	region := s.corridor
	region.Max.X = math.Min(region.Max.X, maxX+1)

	graph, err := skeleton.NewLatticeGraph(
		r3.Vector{X: region.Min.X + skeletonSpacing, Y: -skeletonSpacing},
		r3.Vector{X: region.Max.X - skeletonSpacing, Y: skeletonSpacing},
		skeletonSpacing,
		nil,
	)
	if err != nil {
		return err
	}
	s.logger.Infow("finalizing explored region", "region", region.String(),
		"vertices", graph.Len(), "edges", graph.EdgeCount())
	return s.vm.FinalizeSubmap(mapping.FinalizedSubmap{
		ID:       exploredSubmapID,
		Pose:     spatialmath.NewZeroPose(),
		Region:   region,
		Skeleton: graph,
	})
}

func run(ctx context.Context, cfg *config.Config, corridorLength float64, ticks int,
	recorder motionplan.Recorder, logger logging.Logger,
) (result, error) {
	s, err := newSimulation(cfg, corridorLength, recorder, logger)
	if err != nil {
		return result{}, err
	}
	if err := s.explore(ctx, ticks); err != nil {
		return result{}, err
	}
	res := result{Explored: s.robot.history(), Stats: s.local.Stats()}
	logger.Infow("exploration finished", "waypoints", len(res.Explored), "session", s.local.Session().String(),
		"added", res.Stats.Added, "pruned", res.Stats.Pruned)

	if err := s.finalizeExplored(); err != nil {
		return res, err
	}
	home, err := s.global.PlanPath(ctx, s.robot.CurrentPose().Position, r3.Vector{})
	res.Search = s.global.LastSearchStats()
	if err != nil {
		return res, errors.Wrap(err, "planning back to the start")
	}
	res.Home = home
	return res, nil
}
