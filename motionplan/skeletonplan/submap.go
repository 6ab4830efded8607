// Package skeletonplan implements a global planner searching across the skeleton graphs of
// independently built submaps. Submaps share no edges, the search links them on the fly.
package skeletonplan

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/glocal/mapping"
	"go.viam.com/glocal/mapping/skeleton"
	"go.viam.com/glocal/spatialmath"
)

// Submap is the frozen skeleton of one region and its placement in the mission frame.
type Submap struct {
	id      mapping.SubmapID
	pose    spatialmath.Pose
	toWorld spatialmath.Transform
	toLocal spatialmath.Transform
	graph   *skeleton.Graph
	bounds  mapping.Box
}

// NewSubmap wraps a skeleton graph expressed in the frame given by pose.
func NewSubmap(id mapping.SubmapID, pose spatialmath.Pose, graph *skeleton.Graph) (*Submap, error) {
	if graph == nil {
		return nil, errors.Errorf("submap %d has no skeleton graph", id)
	}
	s := &Submap{
		id:      id,
		pose:    pose,
		toWorld: spatialmath.NewTransformFromPose(pose),
		graph:   graph,
	}
	s.toLocal = s.toWorld.Inverse()

	vertices := graph.Vertices()
	if len(vertices) == 0 {
		s.bounds = mapping.NewBox(pose.Position, pose.Position)
		return s, nil
	}
	first := s.toWorld.Apply(vertices[0].Point)
	s.bounds = mapping.Box{Min: first, Max: first}
	for _, v := range vertices[1:] {
		p := s.toWorld.Apply(v.Point)
		s.bounds.Min = r3.Vector{X: min(s.bounds.Min.X, p.X), Y: min(s.bounds.Min.Y, p.Y), Z: min(s.bounds.Min.Z, p.Z)}
		s.bounds.Max = r3.Vector{X: max(s.bounds.Max.X, p.X), Y: max(s.bounds.Max.Y, p.Y), Z: max(s.bounds.Max.Z, p.Z)}
	}
	return s, nil
}

// ID returns the submap id.
func (s *Submap) ID() mapping.SubmapID { return s.id }

// Pose returns the pose of the submap frame in the mission frame.
func (s *Submap) Pose() spatialmath.Pose { return s.pose }

// Graph returns the skeleton graph in the submap frame.
func (s *Submap) Graph() *skeleton.Graph { return s.graph }

// Bounds returns the mission frame bounding box of the skeleton vertices.
func (s *Submap) Bounds() mapping.Box { return s.bounds }

// ToWorld maps a submap frame point into the mission frame.
func (s *Submap) ToWorld(p r3.Vector) r3.Vector { return s.toWorld.Apply(p) }

// ToLocal maps a mission frame point into the submap frame.
func (s *Submap) ToLocal(p r3.Vector) r3.Vector { return s.toLocal.Apply(p) }

// WorldVertex returns the mission frame position of a vertex.
func (s *Submap) WorldVertex(id int64) (r3.Vector, bool) {
	v, ok := s.graph.Vertex(id)
	if !ok {
		return r3.Vector{}, false
	}
	return s.toWorld.Apply(v.Point), true
}
