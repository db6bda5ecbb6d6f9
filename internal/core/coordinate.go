// Package core holds the fixed-width on-disk record types (Coordinate3D,
// Node, Connection, Header) and the small linguistic tables (layer Z-ranges,
// etymology base-Y, morpheme composition weights) that the rest of the
// module builds on.
package core

import "math"

// Coordinate3D is a point in the unit cube. X is phonetic/semantic
// similarity within a layer, Y is etymological origin, Z is layer depth.
type Coordinate3D struct {
	X, Y, Z float32
}

// NewCoordinate clamps each axis into [0,1].
func NewCoordinate(x, y, z float32) Coordinate3D {
	return Coordinate3D{X: clamp01(x), Y: clamp01(y), Z: clamp01(z)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp returns c with every axis clamped back into [0,1].
func (c Coordinate3D) Clamp() Coordinate3D {
	return NewCoordinate(c.X, c.Y, c.Z)
}

// Distance returns the Euclidean distance to other.
func (c Coordinate3D) Distance(other Coordinate3D) float32 {
	return float32(math.Sqrt(float64(c.DistanceSquared(other))))
}

// DistanceSquared avoids the sqrt when only ordering matters.
func (c Coordinate3D) DistanceSquared(other Coordinate3D) float32 {
	dx := c.X - other.X
	dy := c.Y - other.Y
	dz := c.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Lerp linearly interpolates from c to other by t.
func (c Coordinate3D) Lerp(other Coordinate3D, t float32) Coordinate3D {
	return Coordinate3D{
		X: c.X + (other.X-c.X)*t,
		Y: c.Y + (other.Y-c.Y)*t,
		Z: c.Z + (other.Z-c.Z)*t,
	}
}

// Add returns the componentwise sum.
func (c Coordinate3D) Add(other Coordinate3D) Coordinate3D {
	return Coordinate3D{X: c.X + other.X, Y: c.Y + other.Y, Z: c.Z + other.Z}
}

// Sub returns the componentwise difference c - other.
func (c Coordinate3D) Sub(other Coordinate3D) Coordinate3D {
	return Coordinate3D{X: c.X - other.X, Y: c.Y - other.Y, Z: c.Z - other.Z}
}

// Scale multiplies every axis by s.
func (c Coordinate3D) Scale(s float32) Coordinate3D {
	return Coordinate3D{X: c.X * s, Y: c.Y * s, Z: c.Z * s}
}

// IsValid reports whether every axis is a finite value in [0,1]; used by the
// builder to reject NaN/out-of-range positions outright rather than
// silently clamping them away.
func (c Coordinate3D) IsValid() bool {
	for _, v := range [3]float32{c.X, c.Y, c.Z} {
		if math.IsNaN(float64(v)) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// BoundingBox3D is an axis-aligned box used by the octree.
type BoundingBox3D struct {
	Min, Max Coordinate3D
}

// NewBoundingBox returns the box spanning min..max.
func NewBoundingBox(min, max Coordinate3D) BoundingBox3D {
	return BoundingBox3D{Min: min, Max: max}
}

// BoundingBoxFromCenterRadius returns the box obtained by expanding center
// by radius on every axis, clamped to the unit cube.
func BoundingBoxFromCenterRadius(center Coordinate3D, radius float32) BoundingBox3D {
	offset := Coordinate3D{X: radius, Y: radius, Z: radius}
	return BoundingBox3D{
		Min: center.Sub(offset).Clamp(),
		Max: center.Add(offset).Clamp(),
	}
}

// Contains reports whether point lies inside the box, inclusive on both
// bounds (spec §4.6 containment test).
func (b BoundingBox3D) Contains(point Coordinate3D) bool {
	return point.X >= b.Min.X && point.X <= b.Max.X &&
		point.Y >= b.Min.Y && point.Y <= b.Max.Y &&
		point.Z >= b.Min.Z && point.Z <= b.Max.Z
}

// IntersectsSphere reports whether a sphere (center, radius) touches box b.
func (b BoundingBox3D) IntersectsSphere(center Coordinate3D, radius float32) bool {
	closestX := clampTo(center.X, b.Min.X, b.Max.X)
	closestY := clampTo(center.Y, b.Min.Y, b.Max.Y)
	closestZ := clampTo(center.Z, b.Min.Z, b.Max.Z)

	dx := center.X - closestX
	dy := center.Y - closestY
	dz := center.Z - closestZ
	distSq := dx*dx + dy*dy + dz*dz
	return distSq <= radius*radius
}

func clampTo(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Center returns the box's midpoint.
func (b BoundingBox3D) Center() Coordinate3D {
	return Coordinate3D{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}
