package math

import (
	"math"
	"math/rand/v2"
)

// RandomOnUnitSphere returns a uniformly distributed point on the unit sphere.
func RandomOnUnitSphere(r *rand.Rand) Vec3 {
	// Normalized gaussian triple; retry the (practically impossible) zero draw.
	for {
		v := Vec3{
			X: float32(r.NormFloat64()),
			Y: float32(r.NormFloat64()),
			Z: float32(r.NormFloat64()),
		}
		if l := v.Length(); l > 1e-6 && !math.IsInf(float64(l), 0) {
			return v.Scale(1 / l)
		}
	}
}
