package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestCameraAxes(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	assertNear(t, mgl32.Vec3{0, 0, -1}, c.Front())
	assertNear(t, mgl32.Vec3{1, 0, 0}, c.Right())
	assertNear(t, mgl32.Vec3{0, 1, 0}, c.Up())
}

func TestCameraMove(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	c.Move(MoveForward, 2)
	assertNear(t, mgl32.Vec3{0, 0, -2}, c.Pos())
	c.Move(MoveRight, 1)
	c.Move(MoveUp, 3)
	assertNear(t, mgl32.Vec3{1, 3, -2}, c.Pos())
}

func TestCameraAngleClamp(t *testing.T) {
	c := NewCamera(mgl32.Vec3{})
	for i := 0; i < 10; i++ {
		c.ChangeAngle(0, 150)
	}
	assert.Equal(t, float32(89), c.Ry)
	c.ChangeAngle(500, 0)
	assert.Equal(t, float32(-90), c.Rx)
}

func TestCameraLookAt(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	c.LookAt(mgl32.Vec3{10, 0, 0})
	assertNear(t, mgl32.Vec3{1, 0, 0}, c.Front())
}
