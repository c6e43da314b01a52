package damage

import (
	"github.com/Faultbox/crumple/pkg/math"
)

// Impulse normalization constants.
const (
	// ImpulseScale maps impulse-per-mass into the normalized damage range.
	ImpulseScale = 0.25
	// MaxImpulse caps the normalized impulse.
	MaxImpulse = 1.25

	// PreciseStaticPartnerRatio and FastStaticPartnerRatio attenuate hits
	// against static (non-dynamic) partners. The two variants were
	// calibrated separately and keep separate values.
	PreciseStaticPartnerRatio = 0.5
	FastStaticPartnerRatio    = 0.2
)

// Contact is one contact point of a collision, in world space.
type Contact struct {
	Point  math.Vec3
	Normal math.Vec3
}

// Collision is one collision-enter or collision-stay notification from the
// physics host.
type Collision struct {
	Contacts         []Contact
	RelativeVelocity math.Vec3
	// Impulse is the total impulse applied to resolve the contact; only its
	// magnitude is used.
	Impulse math.Vec3
	// Dynamic reports whether the partner is a dynamic body.
	Dynamic bool
}

// NormalizeImpulse converts an impulse magnitude into the bounded damage
// scale. Non-positive mass yields zero.
func NormalizeImpulse(magnitude, mass, partnerRatio float32) float32 {
	if mass <= 0 {
		return 0
	}
	return math.Clamp(magnitude/mass*ImpulseScale*partnerRatio, 0, MaxImpulse)
}

func partnerRatio(dynamic bool, staticRatio float32) float32 {
	if dynamic {
		return 1
	}
	return staticRatio
}

// preciseAlignment never drops below one half, so grazing hits still dent.
func preciseAlignment(velocityDir, normal math.Vec3) float32 {
	d := velocityDir.Dot(normal) * 0.5
	if d < 0 {
		d = -d
	}
	return d + 0.5
}

func fastAlignment(velocityDir, normal math.Vec3) float32 {
	d := velocityDir.Dot(normal)
	if d < 0 {
		return -d
	}
	return d
}
