package config

import (
	"fmt"

	"github.com/Faultbox/crumple/internal/damage"
	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/internal/part"
	"github.com/Faultbox/crumple/internal/sim"
)

// Validate checks every range. The first violation is returned.
func (c *Config) Validate() error {
	if _, err := c.Settings(); err != nil {
		return err
	}
	if _, err := c.ControllerOptions(); err != nil {
		return err
	}
	return c.validateParts()
}

// Settings builds the deformation settings.
func (c *Config) Settings() (deform.Settings, error) {
	d := c.Deform
	s, err := deform.NewSettings(d.Radius, d.MaxDeform, d.DamageFalloff, d.DamageMultiplier, d.MinDamage)
	if err != nil {
		return deform.Settings{}, fmt.Errorf("deform: %w", err)
	}
	return s, nil
}

// ControllerOptions builds the controller tuning.
func (c *Config) ControllerOptions() (damage.Options, error) {
	v, err := damage.ParseVariant(c.Controller.Variant)
	if err != nil {
		return damage.Options{}, fmt.Errorf("controller: %w", err)
	}
	opts := damage.Options{
		Variant:                 v,
		MaxCollisionsPerFrame:   c.Controller.MaxCollisionsPerFrame,
		MaxContactsPerCollision: c.Controller.MaxContactsPerCollision,
		Stride:                  c.Controller.Stride,
		Workers:                 c.Controller.Workers,
	}
	if err := opts.Validate(); err != nil {
		return damage.Options{}, fmt.Errorf("controller: %w", err)
	}
	return opts, nil
}

// PartDefaults returns the defaults applied to scenario parts.
func (c *Config) PartDefaults() sim.PartDefaults {
	return sim.PartDefaults{
		MaxHP:       c.Parts.MaxHP,
		MinDistance: c.Parts.MinDistance,
		Randomize:   c.Parts.Randomize,
		Drag:        c.Parts.Drag,
		Mass:        c.Parts.Mass,
	}
}

// Setup bundles everything a scenario run needs.
func (c *Config) Setup() (sim.Setup, error) {
	if err := c.Validate(); err != nil {
		return sim.Setup{}, err
	}
	s, _ := c.Settings()
	opts, _ := c.ControllerOptions()
	return sim.Setup{Settings: s, Options: opts, Parts: c.PartDefaults()}, nil
}

func (c *Config) validateParts() error {
	p := c.Parts
	if p.MaxHP < part.MinHP || p.MaxHP > part.MaxHP {
		return fmt.Errorf("parts: %w: max hp %d not in [%d, %d]", deform.ErrConfigurationOutOfRange, p.MaxHP, part.MinHP, part.MaxHP)
	}
	checks := []struct {
		name      string
		v, lo, hi float32
	}{
		{"min distance", p.MinDistance, 0, part.MaxMinDistance},
		{"demolish randomization", p.Randomize, 0, 1},
		{"drag", p.Drag, 0, 1},
	}
	for _, ch := range checks {
		if err := deform.CheckRange(ch.name, ch.v, ch.lo, ch.hi); err != nil {
			return fmt.Errorf("parts: %w", err)
		}
	}
	if p.Mass <= 0 {
		return fmt.Errorf("parts: %w: mass %v must be positive", deform.ErrConfigurationOutOfRange, p.Mass)
	}
	return nil
}
