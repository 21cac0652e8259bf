package rigid

import (
	"math"

	"github.com/setanarut/vec"
)

// Transform is a 2D affine transformation stored as a 2x3 matrix.
//
//	| a  c  tx |   -> X' = a * X + c * Y + tx
//	| b  d  ty |   -> Y' = b * X + d * Y + ty
//
// Bodies only ever produce rigid transforms (rotation plus translation).
type Transform struct {
	a, b, c, d, tx, ty float64
}

// NewTransformIdentity returns the identity transformation.
func NewTransformIdentity() Transform {
	return Transform{1, 0, 0, 1, 0, 0}
}

// NewTransformTranspose returns a new transformation matrix written in row order.
func NewTransformTranspose(a, c, tx, b, d, ty float64) Transform {
	return Transform{a, b, c, d, tx, ty}
}

// NewTransformTranslate returns a pure translation.
func NewTransformTranslate(translate vec.Vec2) Transform {
	return NewTransformTranspose(
		1, 0, translate.X,
		0, 1, translate.Y,
	)
}

// NewTransformRotate returns a rotation about the origin.
func NewTransformRotate(rotation float64) Transform {
	return NewTransformRigid(vec.Vec2{}, rotation)
}

// NewTransformRigid combines a rotation (radians) and a translation.
func NewTransformRigid(translate vec.Vec2, rotation float64) Transform {
	rot := vec.ForAngle(rotation)
	return NewTransformTranspose(
		rot.X, -rot.Y, translate.X,
		rot.Y, rot.X, translate.Y,
	)
}

// NewTransformRigidInverse returns the inverse of a rigid transformation.
// It is cheaper than Inverse because no determinant is needed.
func NewTransformRigidInverse(t Transform) Transform {
	return NewTransformTranspose(
		t.d, -t.c, t.c*t.ty-t.tx*t.d,
		-t.b, t.a, t.tx*t.b-t.a*t.ty,
	)
}

// Inverse returns the inverse of t.
func (t Transform) Inverse() Transform {
	invDet := 1.0 / (t.a*t.d - t.c*t.b)
	return NewTransformTranspose(
		t.d*invDet, -t.c*invDet, (t.c*t.ty-t.tx*t.d)*invDet,
		-t.b*invDet, t.a*invDet, (t.tx*t.b-t.a*t.ty)*invDet,
	)
}

// Mult returns t * t2, the transform that applies t2 first.
func (t Transform) Mult(t2 Transform) Transform {
	return NewTransformTranspose(
		t.a*t2.a+t.c*t2.b, t.a*t2.c+t.c*t2.d, t.a*t2.tx+t.c*t2.ty+t.tx,
		t.b*t2.a+t.d*t2.b, t.b*t2.c+t.d*t2.d, t.b*t2.tx+t.d*t2.ty+t.ty,
	)
}

// Apply transforms the absolute point p.
func (t Transform) Apply(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: t.a*p.X + t.c*p.Y + t.tx,
		Y: t.b*p.X + t.d*p.Y + t.ty,
	}
}

// ApplyVector transforms the direction v, ignoring the translation.
func (t Transform) ApplyVector(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: t.a*v.X + t.c*v.Y,
		Y: t.b*v.X + t.d*v.Y,
	}
}

// BB returns a box holding bb after it has been transformed by t.
func (t Transform) BB(bb BB) BB {
	hw := (bb.R - bb.L) * 0.5
	hh := (bb.T - bb.B) * 0.5

	a := t.a * hw
	b := t.c * hh
	d := t.b * hw
	e := t.d * hh
	hwMax := math.Max(math.Abs(a+b), math.Abs(a-b))
	hhMax := math.Max(math.Abs(d+e), math.Abs(d-e))
	return NewBBForExtents(t.Apply(bb.Center()), hwMax, hhMax)
}
