package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Transform is a rigid transformation stored as a unit dual quaternion. The real part is the
// rotation, the dual part is half the translation multiplied by the rotation.
type Transform struct {
	Quat dualquat.Number
}

// NewZeroTransform returns the identity transform.
func NewZeroTransform() Transform {
	return Transform{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewTransform returns the transform that rotates by rotation and then translates by translation.
func NewTransform(translation r3.Vector, rotation quat.Number) Transform {
	t := Transform{dualquat.Number{Real: Normalize(rotation)}}
	t.SetTranslation(translation)
	return t
}

// NewTransformFromYaw is shorthand for a transform rotating about the z axis.
func NewTransformFromYaw(translation r3.Vector, yaw float64) Transform {
	return NewTransform(translation, YawToQuat(yaw))
}

// NewTransformFromPose returns the transform which maps the pose frame into its parent frame.
func NewTransformFromPose(p Pose) Transform {
	return NewTransformFromYaw(p.Position, p.Yaw)
}

// Rotation returns the rotation quaternion.
func (t Transform) Rotation() quat.Number {
	return t.Quat.Real
}

// Translation returns the translation component.
func (t Transform) Translation() r3.Vector {
	tq := quat.Scale(2, quat.Mul(t.Quat.Dual, quat.Conj(t.Quat.Real)))
	return r3.Vector{X: tq.Imag, Y: tq.Jmag, Z: tq.Kmag}
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (t *Transform) SetTranslation(v r3.Vector) {
	t.Quat.Dual = quat.Mul(quat.Number{Imag: v.X / 2, Jmag: v.Y / 2, Kmag: v.Z / 2}, t.Quat.Real)
}

// Rotate applies only the rotational part of the transform to v.
func (t Transform) Rotate(v r3.Vector) r3.Vector {
	r := t.Quat.Real
	rotated := quat.Mul(quat.Mul(r, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(r))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// Apply maps a point from the source frame into the target frame.
func (t Transform) Apply(v r3.Vector) r3.Vector {
	return t.Rotate(v).Add(t.Translation())
}

// Inverse returns the transform mapping the target frame back into the source frame.
func (t Transform) Inverse() Transform {
	inv := Transform{dualquat.Number{Real: quat.Conj(t.Quat.Real)}}
	inv.SetTranslation(inv.Rotate(t.Translation()).Mul(-1))
	return inv
}

// Compose returns the transform equivalent to applying other first and then t.
func (t Transform) Compose(other Transform) Transform {
	return Transform{dualquat.Mul(t.Quat, other.Quat)}
}

// AlmostEqual reports whether both transforms move points identically within epsilon.
func (t Transform) AlmostEqual(other Transform, epsilon float64) bool {
	return OrientationAlmostEqual(t.Rotation(), other.Rotation()) &&
		R3VectorAlmostEqual(t.Translation(), other.Translation(), epsilon)
}
