// Package damage turns physics collision notifications into mesh dents and
// part damage.
//
// A Controller owns one mesh's deformation engine. Per collision it
// normalizes the impulse, rejects weak or degenerate hits and runs the
// deformation for each contact in order, each seeing the previous dent.
// Only then does it push the new vertices to the host mesh, route damage to
// the parts near every dented vertex and broadcast its notifications.
//
// Two variants share that pipeline:
//
//   - precise: unbounded contacts, each swept on the calling goroutine.
//   - fast: at most MaxContactsPerCollision contacts, each swept on the
//     engine's worker pool.
//
// A Controller is driven from the simulation thread and is not safe for
// concurrent use.
package damage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/crumple/internal/deform"
	"github.com/Faultbox/crumple/internal/logger"
	"github.com/Faultbox/crumple/internal/observer"
	"github.com/Faultbox/crumple/internal/parallel"
	"github.com/Faultbox/crumple/internal/part"
	"github.com/Faultbox/crumple/pkg/math"
)

// Variant selects the contact processing strategy.
type Variant string

const (
	VariantFast    Variant = "fast"
	VariantPrecise Variant = "precise"
)

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantFast, VariantPrecise:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown variant %q", deform.ErrConfigurationOutOfRange, s)
}

// Options tune a Controller.
type Options struct {
	Variant Variant
	// MaxCollisionsPerFrame caps the enter/stay events handled between
	// EndFrame calls. Extra events are dropped.
	MaxCollisionsPerFrame int
	// MaxContactsPerCollision caps contacts per event in the fast variant.
	MaxContactsPerCollision int
	// Stride samples every Stride-th vertex when building the part
	// association. The fast variant scales part damage by it.
	Stride int
	// Workers is the engine's sweep fan-out.
	Workers int
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		Variant:                 VariantFast,
		MaxCollisionsPerFrame:   2,
		MaxContactsPerCollision: 2,
		Stride:                  1,
		Workers:                 parallel.DefaultWorkers,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if _, err := ParseVariant(string(o.Variant)); err != nil {
		return err
	}
	if o.MaxCollisionsPerFrame < 1 {
		return fmt.Errorf("%w: max collisions per frame %d < 1", deform.ErrConfigurationOutOfRange, o.MaxCollisionsPerFrame)
	}
	if o.MaxContactsPerCollision < 1 {
		return fmt.Errorf("%w: max contacts per collision %d < 1", deform.ErrConfigurationOutOfRange, o.MaxContactsPerCollision)
	}
	if o.Stride < 1 || o.Stride > MaxStride {
		return fmt.Errorf("%w: stride %d not in [1, %d]", deform.ErrConfigurationOutOfRange, o.Stride, MaxStride)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers %d < 1", deform.ErrConfigurationOutOfRange, o.Workers)
	}
	return nil
}

// Body is the rigid body carrying the deformable mesh.
type Body interface {
	Mass() float32
	Velocity() math.Vec3
	WorldToLocal() math.Mat4
}

// MeshSink receives the deformed vertices for rendering and collision. The
// slice is only valid for the duration of the call.
type MeshSink interface {
	SetVertices(vertices []math.Vec3)
}

// Host bundles the collaborators a Controller drives. Collider and Filter
// are optional.
type Host struct {
	Body     Body
	Mesh     MeshSink
	Collider part.Collider
	Filter   CollisionFilter
}

// Processed is broadcast after a collision has deformed the mesh.
type Processed struct {
	Variant Variant
	Impulse float32
	// Contacts is the number of contacts that were swept.
	Contacts        int
	DamagedVertices int
	PartHits        int
}

// MaxDeform is broadcast for a vertex sitting at its deformation ceiling.
type MaxDeform struct {
	Vertex int
	// Transitioned is true when the vertex reached the ceiling during this
	// collision.
	Transitioned bool
}

// Controller processes collisions for one deformable mesh.
type Controller struct {
	settings deform.Settings
	opts     Options
	host     Host
	log      *zap.Logger

	engine *deform.Engine
	parts  []*part.Part
	assoc  Association

	collisions     int
	damageDisabled bool
	processing     bool

	// per-collision scratch
	reached []bool
	hits    []int
	maxed   []MaxDeform

	onCollision observer.List[Processed]
	onMaxDeform observer.List[MaxDeform]
}

// NewController creates a controller over the given part trees. Call
// Initialize with the mesh geometry before feeding collisions.
func NewController(settings deform.Settings, opts Options, host Host, roots ...*part.Part) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if host.Body == nil || host.Mesh == nil {
		return nil, fmt.Errorf("%w: host body and mesh are required", deform.ErrInvalidState)
	}

	c := &Controller{
		settings: settings,
		opts:     opts,
		host:     host,
		log:      logger.Named("damage"),
		parts:    part.Flatten(roots...),
	}
	c.onCollision.Name = "collision-processed"
	c.onMaxDeform.Name = "max-deform-reached"
	return c, nil
}

// Initialize snapshots the mesh geometry, starts the deformation engine and
// builds the vertex-to-part association. Calling it again restarts from the
// new geometry.
func (c *Controller) Initialize(vertices []math.Vec3) error {
	if c.processing {
		return fmt.Errorf("%w: initialize during collision processing", deform.ErrInvalidState)
	}
	if c.engine != nil {
		c.engine.Dispose()
	}

	engine := deform.New(c.settings, deform.Options{Workers: c.opts.Workers, Logger: c.log})
	if err := engine.Initialize(vertices); err != nil {
		engine.Dispose()
		return fmt.Errorf("initializing engine: %w", err)
	}

	c.engine = engine
	c.assoc = BuildAssociation(vertices, c.parts, c.opts.Stride, c.host.Filter, c.host.Collider)
	c.reached = make([]bool, len(vertices))

	if c.damageDisabled {
		c.SetDamageDisabled(true)
	}

	c.log.Info("deformable mesh initialized",
		zap.Int("vertices", len(vertices)),
		zap.Int("parts", len(c.parts)),
		zap.Int("links", c.assoc.Links()),
		zap.String("variant", string(c.opts.Variant)))
	return nil
}

// Teardown releases the engine. It is safe to call more than once.
func (c *Controller) Teardown() {
	if c.engine != nil {
		c.engine.Dispose()
	}
}

// CollisionEnter handles the first frame of a contact. It reports whether
// the mesh was deformed.
func (c *Controller) CollisionEnter(col Collision) bool {
	return c.handle(col)
}

// CollisionStay handles a continuing contact. It shares the per-frame
// budget with CollisionEnter.
func (c *Controller) CollisionStay(col Collision) bool {
	return c.handle(col)
}

// EndFrame resets the per-frame collision budget.
func (c *Controller) EndFrame() {
	c.collisions = 0
}

func (c *Controller) handle(col Collision) bool {
	if c.damageDisabled || c.engine == nil || c.processing {
		return false
	}
	if c.collisions >= c.opts.MaxCollisionsPerFrame {
		return false
	}
	c.collisions++

	c.processing = true
	defer func() { c.processing = false }()

	if len(col.Contacts) == 0 || col.RelativeVelocity.IsZero() {
		return false
	}

	var res Processed
	var ok bool
	c.hits = c.hits[:0]
	c.maxed = c.maxed[:0]
	switch c.opts.Variant {
	case VariantPrecise:
		res, ok = c.precise(col)
	default:
		res, ok = c.fast(col)
	}
	if !ok {
		return false
	}

	// The mesh already shows every contact's dent when parts hear about it.
	amount := 1
	if res.Variant == VariantFast {
		amount = c.assoc.Stride()
	}
	velocity := c.host.Body.Velocity()
	for _, i := range c.hits {
		for _, p := range c.assoc.Parts(i) {
			if p.TakeDamage(velocity, amount) {
				res.PartHits++
			}
		}
	}

	for _, m := range c.maxed {
		c.onMaxDeform.Emit(m)
	}
	c.onCollision.Emit(res)

	c.log.Debug("collision processed",
		zap.String("variant", string(res.Variant)),
		zap.Float32("impulse", res.Impulse),
		zap.Int("contacts", res.Contacts),
		zap.Int("damaged", res.DamagedVertices),
		zap.Int("part_hits", res.PartHits),
		zap.Int("max_deform", len(c.maxed)))
	return true
}

// precise sweeps every contact serially. Each contact's damaged vertices
// are queued for one hit per part.
func (c *Controller) precise(col Collision) (Processed, bool) {
	body := c.host.Body
	impulse := NormalizeImpulse(col.Impulse.Length(), body.Mass(), partnerRatio(col.Dynamic, PreciseStaticPartnerRatio))
	if impulse <= c.settings.MinDamage {
		return Processed{}, false
	}

	res := Processed{Variant: VariantPrecise, Impulse: impulse}
	dir := col.RelativeVelocity.Normalize()
	worldToLocal := body.WorldToLocal()

	var out deform.Output
	for _, ct := range col.Contacts {
		if ct.Normal.IsZero() {
			continue
		}

		first := len(c.hits)
		var err error
		out, err = c.engine.CalculateSerial(impulse, preciseAlignment(dir, ct.Normal), worldToLocal, ct.Point,
			func(i int, _ deform.Result) { c.hits = append(c.hits, i) })
		if err != nil {
			c.log.Warn("deformation skipped", zap.Error(err))
			return Processed{}, false
		}
		res.Contacts++

		for _, i := range c.hits[first:] {
			res.DamagedVertices++
			if out.ExceededLimit[i] {
				c.maxed = append(c.maxed, MaxDeform{Vertex: i, Transitioned: out.Transitioned[i]})
			}
		}
	}
	if res.Contacts == 0 {
		return Processed{}, false
	}

	c.host.Mesh.SetVertices(out.Positions)
	return res, true
}

// fast sweeps up to MaxContactsPerCollision contacts on the worker pool.
// Part damage is scaled by the association stride to make up for the
// vertices the association skipped.
func (c *Controller) fast(col Collision) (Processed, bool) {
	body := c.host.Body
	impulse := NormalizeImpulse(col.Impulse.Length(), body.Mass(), partnerRatio(col.Dynamic, FastStaticPartnerRatio))
	if impulse <= c.settings.MinDamage {
		return Processed{}, false
	}

	res := Processed{Variant: VariantFast, Impulse: impulse}
	dir := col.RelativeVelocity.Normalize()
	worldToLocal := body.WorldToLocal()
	clear(c.reached)

	var out deform.Output
	for _, ct := range col.Contacts {
		if res.Contacts >= c.opts.MaxContactsPerCollision {
			break
		}
		if ct.Normal.IsZero() {
			continue
		}

		var err error
		out, err = c.engine.Calculate(impulse, fastAlignment(dir, ct.Normal), worldToLocal, ct.Point)
		if err != nil {
			c.log.Warn("deformation skipped", zap.Error(err))
			return Processed{}, false
		}
		res.Contacts++

		for i, damaged := range out.Damaged {
			if out.Transitioned[i] {
				c.reached[i] = true
			}
			if damaged {
				res.DamagedVertices++
				c.hits = append(c.hits, i)
			}
		}
	}
	if res.Contacts == 0 {
		return Processed{}, false
	}

	c.host.Mesh.SetVertices(out.Positions)

	for i, exceeded := range out.ExceededLimit {
		if exceeded {
			c.maxed = append(c.maxed, MaxDeform{Vertex: i, Transitioned: c.reached[i]})
		}
	}
	return res, true
}

// SetDamageDisabled turns collision processing off or on and applies the
// same flag to every part.
func (c *Controller) SetDamageDisabled(disabled bool) {
	c.damageDisabled = disabled
	for _, p := range c.parts {
		p.SetDamageDisabled(disabled)
	}
}

// DamageDisabled reports whether collisions are being ignored.
func (c *Controller) DamageDisabled() bool {
	return c.damageDisabled
}

// OnCollisionProcessed registers fn for processed collisions.
func (c *Controller) OnCollisionProcessed(fn func(Processed)) observer.Handle {
	return c.onCollision.Add(fn)
}

// RemoveOnCollisionProcessed unregisters a collision observer.
func (c *Controller) RemoveOnCollisionProcessed(h observer.Handle) bool {
	return c.onCollision.Remove(h)
}

// OnMaxDeformReached registers fn for vertices at their ceiling.
func (c *Controller) OnMaxDeformReached(fn func(MaxDeform)) observer.Handle {
	return c.onMaxDeform.Add(fn)
}

// RemoveOnMaxDeformReached unregisters a max-deform observer.
func (c *Controller) RemoveOnMaxDeformReached(h observer.Handle) bool {
	return c.onMaxDeform.Remove(h)
}

// Parts returns every part reachable from the roots, depth-first.
func (c *Controller) Parts() []*part.Part {
	return append([]*part.Part(nil), c.parts...)
}

// Association returns the vertex-to-part mapping.
func (c *Controller) Association() Association {
	return c.assoc
}

// Settings returns the deformation settings.
func (c *Controller) Settings() deform.Settings {
	return c.settings
}

// Options returns the controller tuning.
func (c *Controller) Options() Options {
	return c.opts
}

// Vertices returns a copy of the current mesh vertices.
func (c *Controller) Vertices() []math.Vec3 {
	if c.engine == nil {
		return nil
	}
	return c.engine.Positions()
}

// ExceededLimit returns a copy of the per-vertex ceiling flags.
func (c *Controller) ExceededLimit() []bool {
	if c.engine == nil {
		return nil
	}
	return c.engine.ExceededLimit()
}
