// Package config handles deformation and controller configuration loading
// and management.
package config

// Config holds all simulation settings.
type Config struct {
	Deform     DeformConfig     `yaml:"deform"`
	Controller ControllerConfig `yaml:"controller"`
	Parts      PartsConfig      `yaml:"parts"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeformConfig holds the per-mesh deformation parameters.
type DeformConfig struct {
	Radius           float32 `yaml:"radius"`            // Reach of a contact, [0, 10]
	MaxDeform        float32 `yaml:"max_deform"`        // Per-vertex ceiling, [0, 10]
	DamageFalloff    float32 `yaml:"damage_falloff"`    // [0, 1]
	DamageMultiplier float32 `yaml:"damage_multiplier"` // [0, 10]
	MinDamage        float32 `yaml:"min_damage"`        // Impulse threshold, [0, 2]
}

// ControllerConfig holds collision processing settings.
type ControllerConfig struct {
	Variant                 string `yaml:"variant"` // "fast" or "precise"
	MaxCollisionsPerFrame   int    `yaml:"max_collisions_per_frame"`
	MaxContactsPerCollision int    `yaml:"max_contacts_per_collision"`
	Stride                  int    `yaml:"stride"` // Association sampling, [1, 10]
	Workers                 int    `yaml:"workers"`
}

// PartsConfig holds defaults for parts that do not set their own values.
type PartsConfig struct {
	MaxHP       int     `yaml:"max_hp"`       // [1, 5000]
	MinDistance float32 `yaml:"min_distance"` // [0, 5]
	Randomize   float32 `yaml:"randomize"`    // [0, 1]
	Drag        float32 `yaml:"drag"`         // [0, 1]
	Mass        float32 `yaml:"mass"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Deform: DeformConfig{
			Radius:           0.2,
			MaxDeform:        0.1,
			DamageFalloff:    1,
			DamageMultiplier: 1,
			MinDamage:        0.1,
		},
		Controller: ControllerConfig{
			Variant:                 "fast",
			MaxCollisionsPerFrame:   2,
			MaxContactsPerCollision: 2,
			Stride:                  1,
			Workers:                 4,
		},
		Parts: PartsConfig{
			MaxHP:       100,
			MinDistance: 0.5,
			Randomize:   0.2,
			Drag:        0,
			Mass:        10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
