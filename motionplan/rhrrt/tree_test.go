package rhrrt

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/spatialmath"
)

func pose(x, y, z float64) spatialmath.Pose {
	return spatialmath.NewPose(r3.Vector{X: x, Y: y, Z: z}, 0)
}

func TestRemoveConnectionIsSymmetric(t *testing.T) {
	tree := newTree(spatialmath.NewZeroPose())
	a := tree.insert(ViewPoint{Pose: pose(1, 0, 0), ActiveConnection: 0})
	b := tree.insert(ViewPoint{Pose: pose(2, 0, 0), ActiveConnection: 1})
	e0 := tree.addConnection(a, 0, nil, 1)
	e1 := tree.addConnection(b, a, nil, 1)
	e2 := tree.addConnection(b, 0, nil, 2)
	test.That(t, tree.CheckInvariants(), test.ShouldBeNil)
	test.That(t, tree.parent(b), test.ShouldEqual, 0)

	test.That(t, tree.removeConnection(e1), test.ShouldBeNil)
	test.That(t, tree.ViewPoint(a).Connections, test.ShouldResemble, []ConnectionRef{{Outgoing: true, Edge: e0}})
	test.That(t, tree.ViewPoint(b).Connections, test.ShouldResemble, []ConnectionRef{{Outgoing: true, Edge: e2}})
	// the active connection of b still selects e2
	test.That(t, tree.ViewPoint(b).ActiveConnection, test.ShouldEqual, 0)
	test.That(t, tree.parent(b), test.ShouldEqual, 0)
	test.That(t, tree.CheckInvariants(), test.ShouldBeNil)

	test.That(t, tree.removeConnection(e2), test.ShouldBeNil)
	test.That(t, tree.ViewPoint(b).Connections, test.ShouldBeEmpty)
	test.That(t, tree.ViewPoint(b).ActiveConnection, test.ShouldEqual, -1)
	test.That(t, len(tree.ViewPoint(0).Connections), test.ShouldEqual, 1)

	err := tree.removeConnection(e2)
	test.That(t, errors.Is(err, motionplan.ErrInvariantViolation), test.ShouldBeTrue)

	t.Run("one sided reference", func(t *testing.T) {
		e3 := tree.addConnection(b, a, nil, 1)
		tree.points[a].Connections = tree.points[a].Connections[:1]
		test.That(t, errors.Is(tree.CheckInvariants(), motionplan.ErrInvariantViolation), test.ShouldBeTrue)
		err := tree.removeConnection(e3)
		test.That(t, errors.Is(err, motionplan.ErrInvariantViolation), test.ShouldBeTrue)
	})
}

func TestConnectedToRoot(t *testing.T) {
	tree := newTree(spatialmath.NewZeroPose())
	a := tree.insert(ViewPoint{Pose: pose(1, 0, 0), ActiveConnection: 0})
	b := tree.insert(ViewPoint{Pose: pose(2, 0, 0), ActiveConnection: -1})
	tree.addConnection(a, 0, nil, 1)
	tree.addConnection(b, a, nil, 1)

	test.That(t, tree.connectedToRoot(true), test.ShouldResemble, []bool{true, true, false})
	test.That(t, tree.connectedToRoot(false), test.ShouldResemble, []bool{true, true, true})

	tree.points[b].ActiveConnection = 0
	test.That(t, tree.connectedToRoot(true), test.ShouldResemble, []bool{true, true, true})
}

func TestPruneRemapsIndices(t *testing.T) {
	tree := newTree(spatialmath.NewZeroPose())
	c := tree.insert(ViewPoint{Pose: pose(5, 5, 0), ActiveConnection: 0})
	a := tree.insert(ViewPoint{Pose: pose(1, 0, 0), ActiveConnection: 0})
	b := tree.insert(ViewPoint{Pose: pose(2, 0, 0), ActiveConnection: 1})
	e0 := tree.addConnection(a, 0, nil, 1)
	e1 := tree.addConnection(c, b, nil, 4)
	e2 := tree.addConnection(b, a, nil, 1)
	test.That(t, tree.parent(b), test.ShouldEqual, a)

	test.That(t, tree.removeConnection(e1), test.ShouldBeNil)
	test.That(t, tree.prune(tree.connectedToRoot(false)), test.ShouldEqual, 1)
	test.That(t, tree.Len(), test.ShouldEqual, 3)
	test.That(t, tree.CheckInvariants(), test.ShouldBeNil)

	edge, ok := tree.Connection(e0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, edge.Parent, test.ShouldEqual, 1)
	test.That(t, edge.Target, test.ShouldEqual, 0)
	edge, ok = tree.Connection(e2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, edge.Parent, test.ShouldEqual, 2)
	test.That(t, edge.Target, test.ShouldEqual, 1)

	// b lost its first connection, its active connection follows e2
	test.That(t, tree.parent(2), test.ShouldEqual, 1)
	test.That(t, tree.Root(), test.ShouldEqual, 0)

	nb, ok := tree.index.Nearest(r3.Vector{X: 2.1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nb.Index, test.ShouldEqual, 2)
	test.That(t, tree.index.Len(), test.ShouldEqual, 3)

	test.That(t, tree.prune([]bool{true, true, true}), test.ShouldEqual, 0)
	test.That(t, len(tree.Connections()), test.ShouldEqual, 2)
}
