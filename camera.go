package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Movement int

const (
	MoveForward Movement = iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
)

func radian(angle float32) float64 {
	return float64(mgl32.DegToRad(angle))
}

func cos(r float64) float32 { return float32(math.Cos(r)) }
func sin(r float64) float32 { return float32(math.Sin(r)) }

// Camera is a free-flying editor camera. Rx is the yaw and Ry the pitch, in
// degrees.
type Camera struct {
	mgl32.Vec3
	Rx, Ry float32
	Sens   float32
	Fovy   float32
}

func NewCamera(pos mgl32.Vec3) *Camera {
	return &Camera{
		Vec3: pos,
		Rx:   -90,
		Sens: 0.14,
		Fovy: 45,
	}
}

func (c *Camera) Pos() mgl32.Vec3 {
	return c.Vec3
}

func (c *Camera) Front() mgl32.Vec3 {
	front := mgl32.Vec3{
		cos(radian(c.Ry)) * cos(radian(c.Rx)),
		sin(radian(c.Ry)),
		cos(radian(c.Ry)) * sin(radian(c.Rx)),
	}
	return front.Normalize()
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *Camera) Up() mgl32.Vec3 {
	return c.Right().Cross(c.Front()).Normalize()
}

func (c *Camera) Move(dir Movement, delta float32) {
	switch dir {
	case MoveForward:
		c.Vec3 = c.Add(c.Front().Mul(delta))
	case MoveBackward:
		c.Vec3 = c.Sub(c.Front().Mul(delta))
	case MoveLeft:
		c.Vec3 = c.Sub(c.Right().Mul(delta))
	case MoveRight:
		c.Vec3 = c.Add(c.Right().Mul(delta))
	case MoveUp:
		c.Vec3 = c.Add(mgl32.Vec3{0, delta, 0})
	case MoveDown:
		c.Vec3 = c.Sub(mgl32.Vec3{0, delta, 0})
	}
}

// ChangeAngle turns the camera by a cursor delta. Jumps larger than 200
// pixels are ignored.
func (c *Camera) ChangeAngle(dx, dy float32) {
	if mgl32.Abs(dx) > 200 || mgl32.Abs(dy) > 200 {
		return
	}
	c.Rx += dx * c.Sens
	c.Ry += dy * c.Sens
	if c.Ry > 89 {
		c.Ry = 89
	}
	if c.Ry < -89 {
		c.Ry = -89
	}
}

// Matrix is the view matrix.
func (c *Camera) Matrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Vec3, c.Add(c.Front()), c.Up())
}

// ViewProjection combines the view with a perspective projection for a
// width x height viewport.
func (c *Camera) ViewProjection(width, height int) mgl32.Mat4 {
	if height <= 0 {
		height = 1
	}
	proj := mgl32.Perspective(mgl32.DegToRad(c.Fovy), float32(width)/float32(height), 0.1, 1000)
	return proj.Mul4(c.Matrix())
}

// LookAt turns the camera towards target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	d := target.Sub(c.Vec3)
	if d.Len() == 0 {
		return
	}
	d = d.Normalize()
	c.Ry = mgl32.RadToDeg(float32(math.Asin(float64(d.Y()))))
	c.Rx = mgl32.RadToDeg(float32(math.Atan2(float64(d.Z()), float64(d.X()))))
	if c.Ry > 89 {
		c.Ry = 89
	}
	if c.Ry < -89 {
		c.Ry = -89
	}
}
