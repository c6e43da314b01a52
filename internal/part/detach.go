package part

import (
	"math/rand/v2"

	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/pkg/math"
)

// MaxVelocity caps the speed a detached part inherits.
const MaxVelocity = 25

// maxSpinDegrees is the angular kick at full randomization.
const maxSpinDegrees = 180

// Body is the host rigid body carrying a part.
type Body interface {
	SetKinematic(kinematic bool)
	// AddVelocityChange applies an instantaneous, mass-independent change.
	AddVelocityChange(v math.Vec3)
	AddAngularVelocityChange(v math.Vec3)
	// Detach unparents the body from the assembly.
	Detach()
}

// Detach is the default demolition: the part breaks loose and flies off
// along the incoming velocity, optionally scattered.
type Detach struct {
	Body Body
	// Randomize in [0, 1] scatters the direction and adds spin.
	Randomize float32
	// Drag in [0, 1] bleeds off inherited speed.
	Drag float32

	rand *rand.Rand
}

// NewDetach validates the tuning and returns the demolisher. r may be nil,
// in which case a randomly seeded source is used. r is not shared-safe:
// give each Detach its own source if parts are demolished concurrently.
func NewDetach(body Body, randomize, drag float32, r *rand.Rand) (*Detach, error) {
	if err := deform.CheckRange("demolish randomization", randomize, 0, 1); err != nil {
		return nil, err
	}
	if err := deform.CheckRange("drag", drag, 0, 1); err != nil {
		return nil, err
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Detach{Body: body, Randomize: randomize, Drag: drag, rand: r}, nil
}

// Impulse returns the velocity change and angular velocity change for a
// demolition at the given incoming velocity.
func (d *Detach) Impulse(velocity math.Vec3) (linear, angular math.Vec3) {
	dir := velocity.Normalize().Add(math.RandomOnUnitSphere(d.rand).Scale(d.Randomize)).Normalize()
	speed := math.Clamp(velocity.Length(), 0, MaxVelocity)
	linear = dir.Scale(speed * (1 - d.Drag))
	angular = math.RandomOnUnitSphere(d.rand).Scale(maxSpinDegrees * d.Randomize)
	return linear, angular
}

// Demolish implements Demolisher.
func (d *Detach) Demolish(p *Part, velocity math.Vec3) {
	linear, angular := d.Impulse(velocity)
	if d.Body != nil {
		d.Body.SetKinematic(false)
		d.Body.AddVelocityChange(linear)
		d.Body.AddAngularVelocityChange(angular)
		d.Body.Detach()
	}
	if c := p.Collider(); c != nil {
		c.SetEnabled(true)
	}
}
