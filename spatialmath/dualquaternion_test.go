package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestTransformApply(t *testing.T) {
	tf := NewTransformFromYaw(r3.Vector{X: 1, Y: 2, Z: 3}, math.Pi/2)
	out := tf.Apply(r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(out, r3.Vector{X: 1, Y: 3, Z: 3}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(tf.Translation(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-9), test.ShouldBeTrue)

	zero := NewZeroTransform()
	p := r3.Vector{X: -4, Y: 0.5, Z: 7}
	test.That(t, R3VectorAlmostEqual(zero.Apply(p), p, 1e-12), test.ShouldBeTrue)
}

func TestTransformInverse(t *testing.T) {
	tf := NewTransformFromYaw(r3.Vector{X: -3, Y: 0.25, Z: 1}, 0.7)
	inv := tf.Inverse()
	for _, p := range []r3.Vector{{}, {X: 1}, {X: 2.5, Y: -1, Z: 4}} {
		test.That(t, R3VectorAlmostEqual(inv.Apply(tf.Apply(p)), p, 1e-9), test.ShouldBeTrue)
		test.That(t, R3VectorAlmostEqual(tf.Apply(inv.Apply(p)), p, 1e-9), test.ShouldBeTrue)
	}
	test.That(t, tf.Compose(inv).AlmostEqual(NewZeroTransform(), 1e-9), test.ShouldBeTrue)
}

func TestTransformCompose(t *testing.T) {
	a := NewTransformFromYaw(r3.Vector{X: 1}, math.Pi/2)
	b := NewTransformFromYaw(r3.Vector{Y: 2}, -math.Pi/4)
	p := r3.Vector{X: 0.3, Y: -0.2, Z: 1.5}
	test.That(t, R3VectorAlmostEqual(a.Compose(b).Apply(p), a.Apply(b.Apply(p)), 1e-9), test.ShouldBeTrue)
}

func TestPoseTransform(t *testing.T) {
	pose := NewPose(r3.Vector{X: 1}, 0)
	moved := pose.Transform(NewTransformFromYaw(r3.Vector{Z: 1}, math.Pi/2))
	test.That(t, PoseAlmostEqual(moved, NewPose(r3.Vector{Y: 1, Z: 1}, math.Pi/2), 1e-9), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(NewPose(r3.Vector{}, math.Pi), NewPose(r3.Vector{}, -math.Pi), 1e-9), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(pose.Orientation(), NewZeroTransform().Rotation()), test.ShouldBeTrue)
}
