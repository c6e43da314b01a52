package sim

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/crumple/pkg/math"
)

// ErrInvalidScenario is returned for scenarios that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Collision phases.
const (
	PhaseEnter = "enter"
	PhaseStay  = "stay"
)

// Vec is a YAML-friendly [x, y, z] triple.
type Vec [3]float32

// Vec3 converts to the math type.
func (v Vec) Vec3() math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// Scenario is a scripted sequence of collisions against one deformable mesh.
type Scenario struct {
	Name   string    `yaml:"name"`
	Seed   uint64    `yaml:"seed"`
	Body   Body      `yaml:"body"`
	Mesh   MeshDef   `yaml:"mesh"`
	Parts  []PartDef `yaml:"parts"`
	Frames []Frame   `yaml:"frames"`
}

// Body describes the rigid body carrying the mesh.
type Body struct {
	Mass     float32 `yaml:"mass"`
	Velocity Vec     `yaml:"velocity"`
	Position Vec     `yaml:"position"`
	// Rotation is Euler angles in degrees.
	Rotation Vec `yaml:"rotation"`
}

// MeshDef gives the mesh either as explicit vertices or as a flat grid.
type MeshDef struct {
	Vertices []Vec `yaml:"vertices"`
	Grid     *Grid `yaml:"grid"`
}

// Grid is a Columns x Rows vertex lattice in the local XY plane, starting at
// the origin.
type Grid struct {
	Columns int     `yaml:"columns"`
	Rows    int     `yaml:"rows"`
	Spacing float32 `yaml:"spacing"`
}

// PartDef describes a damageable part. Unset optional fields fall back to
// the run's PartDefaults.
type PartDef struct {
	Name        string    `yaml:"name"`
	MaxHP       int       `yaml:"max_hp"`
	MinDistance *float32  `yaml:"min_distance"`
	Position    Vec       `yaml:"position"`
	Collider    bool      `yaml:"collider"`
	Randomize   *float32  `yaml:"randomize"`
	Drag        *float32  `yaml:"drag"`
	Mass        float32   `yaml:"mass"`
	Children    []PartDef `yaml:"children"`
}

// Frame is one simulation step. Repeat runs it several times.
type Frame struct {
	Repeat         int         `yaml:"repeat"`
	DamageDisabled *bool       `yaml:"damage_disabled"`
	Collisions     []Collision `yaml:"collisions"`
}

// Collision is one enter or stay event in world space.
type Collision struct {
	Phase            string    `yaml:"phase"`
	Contacts         []Contact `yaml:"contacts"`
	RelativeVelocity Vec       `yaml:"relative_velocity"`
	Impulse          Vec       `yaml:"impulse"`
	Dynamic          bool      `yaml:"dynamic"`
}

// Contact is one contact point.
type Contact struct {
	Point  Vec `yaml:"point"`
	Normal Vec `yaml:"normal"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a YAML scenario. Unknown keys are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks structural consistency. Physical ranges are checked when
// the parts and controller are built.
func (s *Scenario) Validate() error {
	if s.Body.Mass <= 0 {
		return fmt.Errorf("%w: body mass %v must be positive", ErrInvalidScenario, s.Body.Mass)
	}
	if len(s.Mesh.Vertices) == 0 && s.Mesh.Grid == nil {
		return fmt.Errorf("%w: mesh has no vertices", ErrInvalidScenario)
	}
	if len(s.Mesh.Vertices) > 0 && s.Mesh.Grid != nil {
		return fmt.Errorf("%w: mesh sets both vertices and grid", ErrInvalidScenario)
	}
	if g := s.Mesh.Grid; g != nil && (g.Columns < 1 || g.Rows < 1 || g.Spacing <= 0) {
		return fmt.Errorf("%w: grid %dx%d spacing %v", ErrInvalidScenario, g.Columns, g.Rows, g.Spacing)
	}

	seen := make(map[string]bool)
	var walk func(defs []PartDef) error
	walk = func(defs []PartDef) error {
		for _, d := range defs {
			if d.Name == "" {
				return fmt.Errorf("%w: part without a name", ErrInvalidScenario)
			}
			if d.Name == meshColliderName || seen[d.Name] {
				return fmt.Errorf("%w: duplicate part name %q", ErrInvalidScenario, d.Name)
			}
			seen[d.Name] = true
			if err := walk(d.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s.Parts); err != nil {
		return err
	}

	for i, f := range s.Frames {
		if f.Repeat < 0 {
			return fmt.Errorf("%w: frame %d: negative repeat", ErrInvalidScenario, i)
		}
		for j, c := range f.Collisions {
			switch c.Phase {
			case "", PhaseEnter, PhaseStay:
			default:
				return fmt.Errorf("%w: frame %d collision %d: unknown phase %q", ErrInvalidScenario, i, j, c.Phase)
			}
		}
	}
	return nil
}

// Build returns the mesh geometry in local space.
func (m MeshDef) Build() []math.Vec3 {
	if m.Grid == nil {
		out := make([]math.Vec3, len(m.Vertices))
		for i, v := range m.Vertices {
			out[i] = v.Vec3()
		}
		return out
	}

	g := m.Grid
	out := make([]math.Vec3, 0, g.Columns*g.Rows)
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Columns; x++ {
			out = append(out, math.Vec3{X: float32(x) * g.Spacing, Y: float32(y) * g.Spacing})
		}
	}
	return out
}
