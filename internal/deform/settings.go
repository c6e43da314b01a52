package deform

import "fmt"

// Documented parameter ranges.
const (
	MaxDeformRadius     = 10
	MaxMaxDeform        = 10
	MaxDamageFalloff    = 1
	MaxDamageMultiplier = 10
	MaxMinDamage        = 2
)

// Settings are the immutable per-mesh deformation parameters. Radius and
// ceiling are kept squared so the sweep compares squared distances.
type Settings struct {
	DeformRadiusSquared float32
	MaxDeform           float32
	MaxDeformSquared    float32
	DamageFalloff       float32
	DamageMultiplier    float32
	MinDamage           float32
}

// NewSettings validates the raw parameters and precomputes the squared terms.
func NewSettings(deformRadius, maxDeform, damageFalloff, damageMultiplier, minDamage float32) (Settings, error) {
	checks := []struct {
		name      string
		v, lo, hi float32
	}{
		{"deform radius", deformRadius, 0, MaxDeformRadius},
		{"max deform", maxDeform, 0, MaxMaxDeform},
		{"damage falloff", damageFalloff, 0, MaxDamageFalloff},
		{"damage multiplier", damageMultiplier, 0, MaxDamageMultiplier},
		{"min damage", minDamage, 0, MaxMinDamage},
	}
	for _, c := range checks {
		if err := CheckRange(c.name, c.v, c.lo, c.hi); err != nil {
			return Settings{}, err
		}
	}

	return Settings{
		DeformRadiusSquared: deformRadius * deformRadius,
		MaxDeform:           maxDeform,
		MaxDeformSquared:    maxDeform * maxDeform,
		DamageFalloff:       damageFalloff,
		DamageMultiplier:    damageMultiplier,
		MinDamage:           minDamage,
	}, nil
}

// CheckRange returns ErrConfigurationOutOfRange when v is outside [lo, hi]
// or NaN.
func CheckRange(name string, v, lo, hi float32) error {
	if !(v >= lo && v <= hi) {
		return fmt.Errorf("%w: %s %v not in [%v, %v]", ErrConfigurationOutOfRange, name, v, lo, hi)
	}
	return nil
}
