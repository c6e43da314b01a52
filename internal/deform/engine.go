package deform

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/crumple/internal/parallel"
	"github.com/Faultbox/crumple/pkg/math"
)

type engineState uint8

const (
	stateEmpty engineState = iota
	stateReady
	stateReleased
)

func (s engineState) String() string {
	switch s {
	case stateEmpty:
		return "uninitialized"
	case stateReady:
		return "ready"
	default:
		return "released"
	}
}

// Options tune an Engine. Workers affects speed only, never results.
type Options struct {
	// Workers is the sweep fan-out. Zero means parallel.DefaultWorkers.
	Workers int
	Logger  *zap.Logger
}

// Output is the state after one Calculate. The slices alias engine-owned
// buffers and stay valid until the next Calculate, Initialize or Dispose.
type Output struct {
	Positions     []math.Vec3
	ExceededLimit []bool
	// Damaged marks vertices inside the deform radius for this contact.
	Damaged []bool
	// Transitioned marks vertices whose ExceededLimit flipped during this call.
	Transitioned []bool
}

// DamagedCount returns how many vertices the contact reached.
func (o Output) DamagedCount() int {
	n := 0
	for _, d := range o.Damaged {
		if d {
			n++
		}
	}
	return n
}

// Engine owns one mesh's vertex buffers and runs the deformation kernel
// over them. Contacts must be fed one at a time; the sweep for a single
// contact is spread over a fixed worker pool.
type Engine struct {
	settings Settings
	pool     *parallel.Pool
	log      *zap.Logger

	busy atomic.Bool

	mu           sync.Mutex
	state        engineState
	positions    []math.Vec3
	original     []math.Vec3
	exceeded     []bool
	damaged      []bool
	transitioned []bool
}

// New creates an engine. Call Initialize before Calculate and Dispose on
// teardown.
func New(settings Settings, opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = parallel.DefaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		settings: settings,
		pool:     parallel.NewPool(workers),
		log:      log,
	}
}

// Settings returns the engine's deformation parameters.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Workers returns the sweep fan-out.
func (e *Engine) Workers() int {
	return e.pool.Workers()
}

// Initialize snapshots vertices as both current and original positions and
// clears every exceeded-limit flag.
func (e *Engine) Initialize(vertices []math.Vec3) error {
	if !e.busy.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: initialize during calculation", ErrInvalidState)
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateReleased {
		return fmt.Errorf("%w: initialize after dispose", ErrInvalidState)
	}

	n := len(vertices)
	e.positions = append(make([]math.Vec3, 0, n), vertices...)
	e.original = append(make([]math.Vec3, 0, n), vertices...)
	e.exceeded = make([]bool, n)
	e.damaged = make([]bool, n)
	e.transitioned = make([]bool, n)
	e.state = stateReady

	e.log.Debug("engine initialized", zap.Int("vertices", n), zap.Int("workers", e.pool.Workers()))
	return nil
}

// Calculate deforms the mesh for one contact point given in world space.
// Each vertex is handled independently, so the result does not depend on
// the worker count.
func (e *Engine) Calculate(impulse, alignment float32, worldToLocal math.Mat4, contact math.Vec3) (Output, error) {
	return e.calculate(impulse, alignment, worldToLocal, contact, e.pool.For, nil)
}

// CalculateSerial is Calculate on the calling goroutine. visit, if non-nil,
// is called for every damaged vertex as soon as it is folded back, before
// the next vertex is processed. visit must not call back into the engine.
func (e *Engine) CalculateSerial(impulse, alignment float32, worldToLocal math.Mat4, contact math.Vec3, visit func(i int, r Result)) (Output, error) {
	inline := func(n int, fn func(lo, hi int)) { fn(0, n) }
	return e.calculate(impulse, alignment, worldToLocal, contact, inline, visit)
}

func (e *Engine) calculate(impulse, alignment float32, worldToLocal math.Mat4, contact math.Vec3,
	sweep func(n int, fn func(lo, hi int)), visit func(int, Result)) (Output, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return Output{}, fmt.Errorf("%w: calculation already in flight", ErrInvalidState)
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateReady {
		return Output{}, fmt.Errorf("%w: calculate on %s engine", ErrInvalidState, e.state)
	}

	c := Contact{
		Point:     worldToLocal.TransformPoint(contact),
		Settings:  e.settings,
		Impulse:   impulse,
		Alignment: alignment,
	}

	sweep(len(e.positions), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			r := Deform(Vertex{Position: e.positions[i], Original: e.original[i], Exceeded: e.exceeded[i]}, c)
			e.positions[i] = r.Position
			e.damaged[i] = r.Damaged
			e.transitioned[i] = r.ExceededLimit && !e.exceeded[i]
			e.exceeded[i] = e.exceeded[i] || r.ExceededLimit
			if visit != nil && r.Damaged {
				visit(i, r)
			}
		}
	})

	return Output{
		Positions:     e.positions,
		ExceededLimit: e.exceeded,
		Damaged:       e.damaged,
		Transitioned:  e.transitioned,
	}, nil
}

// Len returns the vertex count, zero before Initialize or after Dispose.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}

// Positions returns a copy of the current vertex positions.
func (e *Engine) Positions() []math.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]math.Vec3(nil), e.positions...)
}

// ExceededLimit returns a copy of the exceeded-limit flags.
func (e *Engine) ExceededLimit() []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bool(nil), e.exceeded...)
}

// Released reports whether Dispose has run.
func (e *Engine) Released() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateReleased
}

// Dispose releases the vertex buffers and stops the worker pool. Extra
// calls are no-ops. An in-flight calculation finishes first.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateReleased {
		return
	}
	e.pool.Close()
	e.positions, e.original = nil, nil
	e.exceeded, e.damaged, e.transitioned = nil, nil, nil
	e.state = stateReleased

	e.log.Debug("engine disposed")
}
