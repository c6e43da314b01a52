package sim

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/crumple/internal/damage"
	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/internal/logger"
	"github.com/Faultbox/crumple/internal/part"
	"github.com/Faultbox/crumple/pkg/math"
)

const meshColliderName = "mesh"

// PartDefaults fill unset PartDef fields.
type PartDefaults struct {
	MaxHP       int
	MinDistance float32
	Randomize   float32
	Drag        float32
	Mass        float32
}

// Setup is everything a run needs besides the scenario.
type Setup struct {
	Settings deform.Settings
	Options  damage.Options
	Parts    PartDefaults
}

// PartReport is the final state of one part.
type PartReport struct {
	Name       string
	HP         int
	MaxHP      int
	Demolished bool
	Attached   bool
	Velocity   math.Vec3
}

// Report summarizes a finished run.
type Report struct {
	Scenario        string
	Frames          int
	Events          int
	Processed       int
	Ignored         int
	MaxDeformEvents int
	Demolitions     int
	MeshUpdates     int
	Vertices        int
	// MaxDisplacement is the largest distance any vertex moved.
	MaxDisplacement float32
	Parts           []PartReport
}

type builtPart struct {
	part *part.Part
	body *RigidBody
}

// Run plays the scenario against a fresh controller. It stops early with
// ctx's error if ctx is cancelled between frames.
func Run(ctx context.Context, sc *Scenario, setup Setup) (*Report, error) {
	log := logger.Named("sim")
	rng := rand.New(rand.NewPCG(sc.Seed, sc.Seed^0x5deece66d))

	body := NewRigidBody(sc.Body.Mass, sc.Body.Velocity.Vec3())
	body.Position = sc.Body.Position.Vec3()
	r := sc.Body.Rotation
	body.Rotation = math.QuatFromEuler(r[0], r[1], r[2])

	var built []builtPart
	roots := make([]*part.Part, 0, len(sc.Parts))
	for _, def := range sc.Parts {
		p, err := buildPart(def, setup.Parts, rng, &built)
		if err != nil {
			return nil, err
		}
		roots = append(roots, p)
	}

	mesh := &Mesh{}
	filter := &Filter{}
	ctrl, err := damage.NewController(setup.Settings, setup.Options, damage.Host{
		Body:     body,
		Mesh:     mesh,
		Collider: &Collider{Name: meshColliderName, Enabled: true},
		Filter:   filter,
	}, roots...)
	if err != nil {
		return nil, fmt.Errorf("creating controller: %w", err)
	}
	defer ctrl.Teardown()

	original := sc.Mesh.Build()
	if err := ctrl.Initialize(original); err != nil {
		return nil, err
	}

	rep := &Report{Scenario: sc.Name, Vertices: len(original)}
	ctrl.OnCollisionProcessed(func(damage.Processed) { rep.Processed++ })
	ctrl.OnMaxDeformReached(func(damage.MaxDeform) { rep.MaxDeformEvents++ })
	for _, b := range built {
		b.part.OnDemolished(func(d part.Demolition) {
			rep.Demolitions++
			log.Info("part demolished", zap.String("part", d.Part.Name()))
		})
	}

	for i, f := range sc.Frames {
		repeat := max(f.Repeat, 1)
		for n := 0; n < repeat; n++ {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			if f.DamageDisabled != nil {
				ctrl.SetDamageDisabled(*f.DamageDisabled)
			}
			for _, c := range f.Collisions {
				rep.Events++
				col := c.toCollision()
				var ok bool
				if c.Phase == PhaseStay {
					ok = ctrl.CollisionStay(col)
				} else {
					ok = ctrl.CollisionEnter(col)
				}
				if !ok {
					rep.Ignored++
				}
			}
			ctrl.EndFrame()
			rep.Frames++
		}
		log.Debug("frame done", zap.Int("frame", i), zap.Int("repeat", repeat))
	}

	for i, v := range ctrl.Vertices() {
		if d := v.Distance(original[i]); d > rep.MaxDisplacement {
			rep.MaxDisplacement = d
		}
	}
	rep.MeshUpdates = mesh.Updates()
	for _, b := range built {
		rep.Parts = append(rep.Parts, PartReport{
			Name:       b.part.Name(),
			HP:         b.part.HP(),
			MaxHP:      b.part.MaxHP(),
			Demolished: b.part.Demolished(),
			Attached:   b.body.Attached(),
			Velocity:   b.body.Velocity(),
		})
	}

	log.Info("scenario finished",
		zap.String("scenario", sc.Name),
		zap.Int("frames", rep.Frames),
		zap.Int("processed", rep.Processed),
		zap.Int("demolitions", rep.Demolitions))
	return rep, nil
}

func buildPart(def PartDef, defaults PartDefaults, rng *rand.Rand, built *[]builtPart) (*part.Part, error) {
	maxHP := def.MaxHP
	if maxHP == 0 {
		maxHP = defaults.MaxHP
	}
	mass := def.Mass
	if mass == 0 {
		mass = defaults.Mass
	}

	body := NewRigidBody(mass, math.Vec3{})
	detach, err := part.NewDetach(body, orDefault(def.Randomize, defaults.Randomize), orDefault(def.Drag, defaults.Drag), rng)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", def.Name, err)
	}

	cfg := part.Config{
		Name:          def.Name,
		MaxHP:         maxHP,
		MinDistance:   orDefault(def.MinDistance, defaults.MinDistance),
		LocalPosition: def.Position.Vec3(),
		Demolisher:    detach,
	}
	if def.Collider {
		cfg.Collider = &Collider{Name: def.Name}
	}

	p, err := part.New(cfg)
	if err != nil {
		return nil, err
	}
	*built = append(*built, builtPart{part: p, body: body})

	for _, child := range def.Children {
		c, err := buildPart(child, defaults, rng, built)
		if err != nil {
			return nil, err
		}
		p.AddChild(c)
	}
	return p, nil
}

func orDefault(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

func (c Collision) toCollision() damage.Collision {
	col := damage.Collision{
		RelativeVelocity: c.RelativeVelocity.Vec3(),
		Impulse:          c.Impulse.Vec3(),
		Dynamic:          c.Dynamic,
	}
	for _, ct := range c.Contacts {
		col.Contacts = append(col.Contacts, damage.Contact{Point: ct.Point.Vec3(), Normal: ct.Normal.Vec3()})
	}
	return col
}
