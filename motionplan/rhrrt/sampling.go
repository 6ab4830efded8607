package rhrrt

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/glocal/spatialmath"
)

// samplePoint draws a goal on a sphere around the robot and marches toward it from its nearest
// viewpoint while the map stays traversable. The result is cropped back from the first blocked
// point, so it never rests on an obstacle boundary.
func (p *Planner) samplePoint() (spatialmath.Pose, bool) {
	theta := 2 * math.Pi * p.rand.Float64()
	phi := math.Acos(1 - 2*p.rand.Float64())
	rho := p.cfg.GlobalSamplingRadius
	if p.localSampled > 0 {
		rho = p.cfg.LocalSamplingRadius
	}
	goal := r3.Vector{
		X: math.Sin(phi) * math.Cos(theta),
		Y: math.Sin(phi) * math.Sin(theta),
		Z: math.Cos(phi),
	}.Mul(rho).Add(p.comm.CurrentPose().Position)

	nb, ok := p.tree.index.Nearest(goal)
	if !ok || nb.Distance == 0 {
		return spatialmath.Pose{}, false
	}
	origin := p.tree.points[nb.Index].Pose.Position
	direction := goal.Sub(origin).Normalize()
	distMax := math.Min(math.Max(nb.Distance, p.cfg.MinSamplingDistance), p.cfg.MaxPathLength) + p.cfg.PathCroppingLength

	step := p.m.VoxelSize()
	orientation := spatialmath.YawToQuat(0)
	dist := step
	for dist < distMax && p.m.IsPoseTraversableInActiveSubmap(origin.Add(direction.Mul(dist)), orientation) {
		dist += step
	}
	dist -= p.cfg.PathCroppingLength + step
	if dist < p.cfg.MinSamplingDistance {
		return spatialmath.Pose{}, false
	}
	return spatialmath.NewPose(origin.Add(direction.Mul(dist)), 2*math.Pi*p.rand.Float64()), true
}

type pendingConnection struct {
	target     int
	pathPoints []r3.Vector
	cost       float64
}

// connectionCandidates returns the collision free edges a viewpoint at pos could make to its
// nearest neighbors. Nothing is added to the tree.
func (p *Planner) connectionCandidates(pos r3.Vector) []pendingConnection {
	var out []pendingConnection
	for _, nb := range p.tree.index.KNearest(pos, p.cfg.MaxNumberOfNeighbors) {
		if nb.Distance > p.cfg.MaxPathLength || nb.Distance < p.cfg.MinPathLength {
			continue
		}
		points := pathPoints(pos, p.tree.points[nb.Index].Pose.Position, p.m.VoxelSize())
		if !p.pathIsTraversable(points) {
			continue
		}
		out = append(out, pendingConnection{
			target:     nb.Index,
			pathPoints: points,
			cost:       points[0].Distance(points[len(points)-1]),
		})
	}
	return out
}

func (p *Planner) pathIsTraversable(points []r3.Vector) bool {
	for _, pt := range points {
		if !p.m.IsTraversableInActiveSubmap(pt) {
			return false
		}
	}
	return true
}

// pathPoints samples the segment from a to b every voxel, both ends included.
func pathPoints(a, b r3.Vector, voxelSize float64) []r3.Vector {
	n := int(math.Floor(a.Distance(b) / voxelSize))
	if n < 1 {
		return []r3.Vector{a, b}
	}
	out := make([]r3.Vector, 0, n+1)
	delta := b.Sub(a)
	for i := 0; i <= n; i++ {
		out = append(out, a.Add(delta.Mul(float64(i)/float64(n))))
	}
	return out
}
