// Package part implements destructible sub-components: a hit-point pool
// that transitions once to demolished, and pluggable demolition responses.
package part

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/internal/logger"
	"github.com/Faultbox/crumple/internal/observer"
	"github.com/Faultbox/crumple/pkg/math"
)

// Documented parameter ranges.
const (
	MinHP          = 1
	MaxHP          = 5000
	MaxMinDistance = 5
)

// Collider is the host collision shape attached to a part.
type Collider interface {
	SetEnabled(enabled bool)
}

// Demolisher is the demolition response of a part variant. It runs once,
// after the part has been marked demolished.
type Demolisher interface {
	Demolish(p *Part, velocity math.Vec3)
}

// DemolishFunc adapts a plain function to Demolisher.
type DemolishFunc func(p *Part, velocity math.Vec3)

// Demolish calls f(p, velocity).
func (f DemolishFunc) Demolish(p *Part, velocity math.Vec3) {
	f(p, velocity)
}

// Config describes a part at creation.
type Config struct {
	Name  string
	MaxHP int
	// MinDistance is the association radius around LocalPosition: vertices
	// of the parent mesh closer than this route damage to the part.
	MinDistance   float32
	LocalPosition math.Vec3
	// Collider is optional.
	Collider   Collider
	Demolisher Demolisher
}

// Validate checks the documented ranges.
func (c Config) Validate() error {
	if c.MaxHP < MinHP || c.MaxHP > MaxHP {
		return fmt.Errorf("%w: part %q max hp %d not in [%d, %d]", deform.ErrConfigurationOutOfRange, c.Name, c.MaxHP, MinHP, MaxHP)
	}
	if err := deform.CheckRange("min distance to parent", c.MinDistance, 0, MaxMinDistance); err != nil {
		return fmt.Errorf("part %q: %w", c.Name, err)
	}
	if c.Demolisher == nil {
		return fmt.Errorf("part %q: no demolisher", c.Name)
	}
	return nil
}

// Damage is broadcast when a part takes non-lethal damage.
type Damage struct {
	Part     *Part
	Amount   int
	HP       int
	Velocity math.Vec3
}

// Demolition is broadcast once when a part is demolished.
type Demolition struct {
	Part     *Part
	Velocity math.Vec3
}

// Part is a destructible sub-component with its own hit points.
type Part struct {
	cfg Config

	mu             sync.Mutex
	hp             int
	demolished     bool
	damageDisabled bool
	children       []*Part

	onDamaged    observer.List[Damage]
	onDemolished observer.List[Demolition]
}

// New creates a part at full health.
func New(cfg Config) (*Part, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Part{cfg: cfg, hp: cfg.MaxHP}
	p.onDamaged.Name = "part-damaged"
	p.onDemolished.Name = "part-demolished"
	return p, nil
}

// Name returns the configured name.
func (p *Part) Name() string { return p.cfg.Name }

// MaxHP returns the size of the hit-point pool.
func (p *Part) MaxHP() int { return p.cfg.MaxHP }

// MinDistance returns the association radius.
func (p *Part) MinDistance() float32 { return p.cfg.MinDistance }

// LocalPosition returns the part's position in the parent mesh's space.
func (p *Part) LocalPosition() math.Vec3 { return p.cfg.LocalPosition }

// Collider returns the part's collider, or nil.
func (p *Part) Collider() Collider { return p.cfg.Collider }

// HasCollider reports whether the part has a collider.
func (p *Part) HasCollider() bool { return p.cfg.Collider != nil }

// HP returns the remaining hit points. It may be negative after the lethal hit.
func (p *Part) HP() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp
}

// HPPercent returns HP / MaxHP.
func (p *Part) HPPercent() float32 {
	return float32(p.HP()) / float32(p.cfg.MaxHP)
}

// Demolished reports whether the part has been demolished.
func (p *Part) Demolished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.demolished
}

// DamageDisabled reports whether damage is currently ignored.
func (p *Part) DamageDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.damageDisabled
}

// SetDamageDisabled sets the flag on p and every descendant.
func (p *Part) SetDamageDisabled(disabled bool) {
	for _, q := range Flatten(p) {
		q.mu.Lock()
		q.damageDisabled = disabled
		q.mu.Unlock()
	}
}

// AddChild attaches child below p. Children share damage-disable state
// changes made through p.
func (p *Part) AddChild(child *Part) {
	if child == nil || child == p {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.children = append(p.children, child)
}

// Children returns the direct children.
func (p *Part) Children() []*Part {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Part(nil), p.children...)
}

// TakeDamage subtracts amount from the pool. The call is ignored when the
// part is demolished, damage is disabled, or amount is not positive. The
// hit that brings HP to zero or below demolishes the part; it reports
// whether the part's state changed.
func (p *Part) TakeDamage(velocity math.Vec3, amount int) bool {
	p.mu.Lock()
	if p.demolished || p.damageDisabled || amount <= 0 {
		p.mu.Unlock()
		return false
	}
	p.hp -= amount
	hp := p.hp
	lethal := hp <= 0
	if lethal {
		p.demolished = true
	}
	p.mu.Unlock()

	if !lethal {
		p.onDamaged.Emit(Damage{Part: p, Amount: amount, HP: hp, Velocity: velocity})
		return true
	}

	p.cfg.Demolisher.Demolish(p, velocity)
	logger.Debug("part demolished",
		zap.String("part", p.cfg.Name),
		zap.Int("hp", hp),
		zap.Float32("speed", velocity.Length()))
	p.onDemolished.Emit(Demolition{Part: p, Velocity: velocity})
	return true
}

// OnDamaged registers fn for non-lethal damage.
func (p *Part) OnDamaged(fn func(Damage)) observer.Handle {
	return p.onDamaged.Add(fn)
}

// RemoveOnDamaged unregisters a damage observer.
func (p *Part) RemoveOnDamaged(h observer.Handle) bool {
	return p.onDamaged.Remove(h)
}

// OnDemolished registers fn for the demolition transition.
func (p *Part) OnDemolished(fn func(Demolition)) observer.Handle {
	return p.onDemolished.Add(fn)
}

// RemoveOnDemolished unregisters a demolition observer.
func (p *Part) RemoveOnDemolished(h observer.Handle) bool {
	return p.onDemolished.Remove(h)
}

// Flatten returns roots and all their descendants depth-first, each part once.
func Flatten(roots ...*Part) []*Part {
	var out []*Part
	seen := make(map[*Part]bool)
	var walk func(p *Part)
	walk = func(p *Part) {
		if p == nil || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
		for _, c := range p.Children() {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
