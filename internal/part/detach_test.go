package part

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/pkg/math"
)

type fakeBody struct {
	kinematic bool
	attached  bool
	velocity  math.Vec3
	angular   math.Vec3
}

func (b *fakeBody) SetKinematic(k bool)                  { b.kinematic = k }
func (b *fakeBody) AddVelocityChange(v math.Vec3)        { b.velocity = b.velocity.Add(v) }
func (b *fakeBody) AddAngularVelocityChange(v math.Vec3) { b.angular = b.angular.Add(v) }
func (b *fakeBody) Detach()                              { b.attached = false }

type fakeCollider struct{ enabled bool }

func (c *fakeCollider) SetEnabled(e bool) { c.enabled = e }

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(3, 4))
}

func TestDetachWithoutRandomization(t *testing.T) {
	d, err := NewDetach(nil, 0, 0.25, seeded())
	if err != nil {
		t.Fatalf("NewDetach: %v", err)
	}

	linear, angular := d.Impulse(math.Vec3{X: 4})
	if linear.SqrDistance(math.Vec3{X: 3}) > 1e-10 {
		t.Errorf("linear = %v, want (3, 0, 0)", linear)
	}
	if angular != (math.Vec3{}) {
		t.Errorf("angular = %v, want zero", angular)
	}
}

func TestDetachSpeedIsCapped(t *testing.T) {
	d, _ := NewDetach(nil, 0.5, 0, seeded())
	for i := 0; i < 20; i++ {
		linear, angular := d.Impulse(math.Vec3{Y: 400})
		if l := linear.Length(); l > MaxVelocity+1e-3 {
			t.Fatalf("linear speed %v exceeds cap", l)
		}
		if a := angular.Length(); a > 90+1e-3 || a < 90-1e-3 {
			t.Fatalf("angular magnitude %v, want 90", a)
		}
	}
}

func TestDetachDemolishReleasesBody(t *testing.T) {
	body := &fakeBody{kinematic: true, attached: true}
	col := &fakeCollider{}
	d, _ := NewDetach(body, 0, 0, seeded())

	p, err := New(Config{Name: "fender", MaxHP: 1, Collider: col, Demolisher: d})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.TakeDamage(math.Vec3{Z: 10}, 1)

	if body.kinematic || body.attached {
		t.Errorf("body kinematic=%v attached=%v, want false false", body.kinematic, body.attached)
	}
	if body.velocity.SqrDistance(math.Vec3{Z: 10}) > 1e-8 {
		t.Errorf("velocity = %v, want (0, 0, 10)", body.velocity)
	}
	if !col.enabled {
		t.Error("collider not enabled after demolition")
	}
}

func TestNewDetachRanges(t *testing.T) {
	if _, err := NewDetach(nil, 1.5, 0, nil); !errors.Is(err, deform.ErrConfigurationOutOfRange) {
		t.Errorf("randomize 1.5: err = %v", err)
	}
	if _, err := NewDetach(nil, 0, -0.1, nil); !errors.Is(err, deform.ErrConfigurationOutOfRange) {
		t.Errorf("drag -0.1: err = %v", err)
	}
	if _, err := NewDetach(nil, 1, 1, nil); err != nil {
		t.Errorf("upper bounds rejected: %v", err)
	}
}
