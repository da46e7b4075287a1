package world

import "fmt"

// Vec3 is an integer grid coordinate or a set of grid dimensions.
type Vec3 struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	Z int `yaml:"z" json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Mul(n int) Vec3 {
	return Vec3{v.X * n, v.Y * n, v.Z * n}
}

// Volume is the number of cells in a grid of these dimensions.
func (v Vec3) Volume() int {
	return v.X * v.Y * v.Z
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}
