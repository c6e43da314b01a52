// Package deform implements per-vertex collision deformation: a pure kernel
// and an engine that sweeps it over a mesh's vertex buffers.
package deform

import (
	"github.com/Faultbox/crumple/pkg/math"
)

// Vertex is the kernel's per-index input.
type Vertex struct {
	Position math.Vec3
	Original math.Vec3
	// Exceeded is the current exceeded-limit flag; once set the vertex is
	// pinned.
	Exceeded bool
}

// Contact is the read-only input shared by every vertex of one sweep.
type Contact struct {
	// Point is the contact point in the mesh's local space.
	Point    math.Vec3
	Settings Settings
	// Impulse is the normalized impulse in [0, 1.25].
	Impulse float32
	// Alignment scales the dent by how head-on the hit was.
	Alignment float32
}

// Result is the kernel output for one vertex.
type Result struct {
	Position      math.Vec3
	ExceededLimit bool
	Damaged       bool
}

// Deform computes the new state of a single vertex. It has no side effects
// and may run concurrently for different vertices.
func Deform(v Vertex, c Contact) Result {
	s := &c.Settings

	dCollision := v.Position.SqrDistance(c.Point)
	if dCollision >= s.DeformRadiusSquared {
		return Result{Position: v.Position}
	}

	dOriginal := v.Original.SqrDistance(v.Position)
	if v.Exceeded || dOriginal >= s.MaxDeformSquared {
		return Result{Position: v.Position, ExceededLimit: true, Damaged: true}
	}

	falloff := 1 - math.Sqrt(dCollision/s.DeformRadiusSquared)*s.DamageFalloff

	// Only positive-axis displacement toward the contact coordinate is modeled.
	displacement := c.Point.Scale(falloff).ClampComponents(0, s.MaxDeform)

	return Result{
		Position: v.Position.Sub(displacement.Scale(s.DamageMultiplier * c.Impulse * c.Alignment)),
		Damaged:  true,
	}
}
