// Package sim provides in-memory stand-ins for the physics host and a YAML
// scenario format that drives a damage controller frame by frame without a
// physics engine.
package sim

import (
	"github.com/Faultbox/crumple/internal/part"
	"github.com/Faultbox/crumple/pkg/math"
)

// RigidBody is a minimal rigid body. It serves both as the deformable
// mesh's carrier and as the body of a detachable part.
type RigidBody struct {
	mass     float32
	velocity math.Vec3
	angular  math.Vec3

	Position math.Vec3
	Rotation math.Quat

	kinematic bool
	attached  bool
}

// NewRigidBody returns an attached, kinematic body at the origin.
func NewRigidBody(mass float32, velocity math.Vec3) *RigidBody {
	return &RigidBody{
		mass:      mass,
		velocity:  velocity,
		Rotation:  math.QuatIdentity(),
		kinematic: true,
		attached:  true,
	}
}

func (b *RigidBody) Mass() float32                 { return b.mass }
func (b *RigidBody) Velocity() math.Vec3           { return b.velocity }
func (b *RigidBody) AngularVelocity() math.Vec3    { return b.angular }
func (b *RigidBody) Kinematic() bool               { return b.kinematic }
func (b *RigidBody) Attached() bool                { return b.attached }
func (b *RigidBody) SetKinematic(kinematic bool)   { b.kinematic = kinematic }
func (b *RigidBody) AddVelocityChange(v math.Vec3) { b.velocity = b.velocity.Add(v) }
func (b *RigidBody) Detach()                       { b.attached = false }

func (b *RigidBody) AddAngularVelocityChange(v math.Vec3) {
	b.angular = b.angular.Add(v)
}

// LocalToWorld returns the body transform.
func (b *RigidBody) LocalToWorld() math.Mat4 {
	return math.TRS(b.Position, b.Rotation, math.Vec3{X: 1, Y: 1, Z: 1})
}

// WorldToLocal returns the inverse body transform.
func (b *RigidBody) WorldToLocal() math.Mat4 {
	return b.LocalToWorld().Inverse()
}

// Mesh records the vertices pushed by the controller.
type Mesh struct {
	vertices []math.Vec3
	updates  int
}

// SetVertices copies the deformed vertices.
func (m *Mesh) SetVertices(vertices []math.Vec3) {
	m.vertices = append(m.vertices[:0], vertices...)
	m.updates++
}

// Vertices returns the last pushed vertices.
func (m *Mesh) Vertices() []math.Vec3 { return m.vertices }

// Updates returns how many times the mesh was rewritten.
func (m *Mesh) Updates() int { return m.updates }

// Collider is a named on/off collider.
type Collider struct {
	Name    string
	Enabled bool
}

func (c *Collider) SetEnabled(enabled bool) { c.Enabled = enabled }

// Filter records ignored collider pairs.
type Filter struct {
	ignored map[[2]string]bool
}

// IgnoreCollision marks the pair as non-colliding. Both sides must be
// *Collider; anything else is ignored.
func (f *Filter) IgnoreCollision(a, b part.Collider) {
	ca, ok1 := a.(*Collider)
	cb, ok2 := b.(*Collider)
	if !ok1 || !ok2 || ca == nil || cb == nil {
		return
	}
	if f.ignored == nil {
		f.ignored = make(map[[2]string]bool)
	}
	f.ignored[[2]string{ca.Name, cb.Name}] = true
	f.ignored[[2]string{cb.Name, ca.Name}] = true
}

// Ignored reports whether collisions between the two named colliders are
// suppressed.
func (f *Filter) Ignored(a, b string) bool {
	return f.ignored[[2]string{a, b}]
}

// Len returns the number of ignored pairs.
func (f *Filter) Len() int {
	return len(f.ignored) / 2
}
