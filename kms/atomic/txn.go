package atomic

import (
	"time"

	"github.com/juju/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tinykms/tinykms/kms/hw"
	"github.com/tinykms/tinykms/kms/resource"
)

// Transaction flags, forwarded untouched to the driver's apply primitives.
const (
	// FlagAsync requests asynchronous (non-vblank-synchronous) submission.
	// Honored by the primitives, not by the engine.
	FlagAsync uint32 = 1 << 0
)

// StagedState is the engine's view of one resource's shadow state,
// independent of kind.
type StagedState interface {
	// Settled reports whether a commit step already accounted for this
	// state's framebuffer reference.
	Settled() bool
	// Release drops the staged framebuffer reference unless settled.
	Release()
}

// StateOps binds the engine to one resource kind. The engine's check and
// commit loops dispatch through this interface only, so a driver can
// substitute its own per-kind behavior.
type StateOps interface {
	// GetState returns the staged state for res, creating it from a
	// snapshot of the live state on first touch and recording it in the
	// transaction's tables.
	GetState(t *Txn, res resource.Object) (StagedState, error)
	// CheckState validates staged state. Must be a pure function of the
	// resource and its shadow: no live-state access, no allocations that
	// need matching release.
	CheckState(t *Txn, res resource.Object, st StagedState) error
	// CommitState applies staged state to the hardware and, on success,
	// swaps it with the live state. Failure must leave the live state
	// exactly as it was.
	CommitState(t *Txn, res resource.Object, st StagedState) error
}

// Engine holds everything transactions need: the resource directory, the
// driver, and the per-kind state ops.
type Engine struct {
	dir   *resource.Directory
	drv   hw.Driver
	ops   map[resource.Kind]StateOps
	props PropertyInterpreter
}

// NewEngine creates an engine with the built-in surface and output ops.
func NewEngine(dir *resource.Directory, drv hw.Driver) *Engine {
	e := &Engine{dir: dir, drv: drv}
	e.ops = map[resource.Kind]StateOps{
		resource.KindSurface: surfaceOps{e},
		resource.KindOutput:  outputOps{e},
	}
	return e
}

// SetOps overrides the state ops for one resource kind.
func (e *Engine) SetOps(kind resource.Kind, ops StateOps) { e.ops[kind] = ops }

// SetPropertyInterpreter installs the collaborator that maps named
// property values onto staged state.
func (e *Engine) SetPropertyInterpreter(pi PropertyInterpreter) { e.props = pi }

// Directory returns the engine's resource directory.
func (e *Engine) Directory() *resource.Directory { return e.dir }

// Driver returns the engine's hardware driver.
func (e *Engine) Driver() hw.Driver { return e.drv }

// Txn is one in-flight atomic update: transaction-wide flags plus, per
// resource kind, parallel touched-marker and shadow tables indexed by
// resource identity. A marker and its shadow are created together and are
// non-nil together; resources never staged are left entirely untouched by
// Check and Commit.
type Txn struct {
	engine *Engine
	flags  uint32
	ended  bool

	surfaces      []*resource.Surface
	surfaceStates []*resource.SurfaceState
	outputs       []*resource.Output
	outputStates  []*resource.OutputState
}

// Begin starts a transaction sized to the directory's current resource
// counts. The counts must not change while the transaction is open. The
// error return is reserved for ErrBusy on drivers that cannot overlap
// asynchronous updates; the built-in engine always succeeds.
func (e *Engine) Begin(flags uint32) (*Txn, error) {
	return &Txn{
		engine:        e,
		flags:         flags,
		surfaces:      make([]*resource.Surface, e.dir.SurfaceCount()),
		surfaceStates: make([]*resource.SurfaceState, e.dir.SurfaceCount()),
		outputs:       make([]*resource.Output, e.dir.OutputCount()),
		outputStates:  make([]*resource.OutputState, e.dir.OutputCount()),
	}, nil
}

// Flags returns the transaction-wide flags.
func (t *Txn) Flags() uint32 { return t.flags }

// Stage returns the shadow state for res, creating it on first touch. This
// is the only path by which a resource joins the transaction. Repeat
// touches return the same shadow; last writer wins per field.
func (t *Txn) Stage(res resource.Object) (StagedState, error) {
	ops, ok := t.engine.ops[res.Kind()]
	if !ok {
		return nil, errors.Trace(&ErrUnsupportedResource{Op: "stage", Kind: res.Kind(), ID: res.ID()})
	}
	return ops.GetState(t, res)
}

// StageSurface is Stage for a surface, returning the concrete shadow.
func (t *Txn) StageSurface(s *resource.Surface) (*resource.SurfaceState, error) {
	st, err := t.Stage(s)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return st.(*resource.SurfaceState), nil
}

// StageOutput is Stage for an output, returning the concrete shadow.
func (t *Txn) StageOutput(o *resource.Output) (*resource.OutputState, error) {
	st, err := t.Stage(o)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return st.(*resource.OutputState), nil
}

// SetEvent attaches a completion event to a resource, staging it if
// needed. The event is delivered by the driver once the resource's update
// latches. Events are output-only; any other kind fails with
// ErrUnsupportedResource.
func (t *Txn) SetEvent(res resource.Object, ev resource.Event) error {
	o, ok := res.(*resource.Output)
	if !ok {
		return errors.Trace(&ErrUnsupportedResource{Op: "set-event", Kind: res.Kind(), ID: res.ID()})
	}
	st, err := t.StageOutput(o)
	if err != nil {
		return errors.Trace(err)
	}
	st.Event = ev
	return nil
}

// Check validates the whole batch, stopping at the first failing resource.
// Checking is read-only per resource, so iteration order (resource
// identity order) only affects which error surfaces first. Output
// feasibility is delegated to the broader reconfiguration primitive and
// not checked here.
func (t *Txn) Check() error {
	sops := t.engine.ops[resource.KindSurface]
	for i, s := range t.surfaces {
		if s == nil {
			continue
		}
		if err := sops.CheckState(t, s, t.surfaceStates[i]); err != nil {
			checkRejectCounter.Inc()
			log.Debug("check rejected staged state",
				zap.Uint32("surface", uint32(s.ID())), zap.Error(err))
			return errors.Trace(err)
		}
	}
	oops := t.engine.ops[resource.KindOutput]
	for i, o := range t.outputs {
		if o == nil {
			continue
		}
		if err := oops.CheckState(t, o, t.outputStates[i]); err != nil {
			checkRejectCounter.Inc()
			log.Debug("check rejected staged state",
				zap.Uint32("output", uint32(o.ID())), zap.Error(err))
			return errors.Trace(err)
		}
	}
	return nil
}

// Commit applies the batch: all touched surfaces, then all touched
// outputs. Only call after Check succeeded. The first failure stops the
// commit — later resources in the same pass and the whole other pass are
// left untouched — and is returned to the caller. Resources committed
// before the failure stay committed; per-resource application is atomic,
// the batch is not.
func (t *Txn) Commit() error {
	start := time.Now()
	err := t.commit()
	commitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		commitCounter.WithLabelValues("err").Inc()
		log.Warn("atomic commit failed", zap.Error(err))
		return errors.Trace(err)
	}
	commitCounter.WithLabelValues("ok").Inc()
	return nil
}

func (t *Txn) commit() error {
	sops := t.engine.ops[resource.KindSurface]
	for i, s := range t.surfaces {
		if s == nil {
			continue
		}
		if err := sops.CommitState(t, s, t.surfaceStates[i]); err != nil {
			return errors.Trace(err)
		}
	}
	oops := t.engine.ops[resource.KindOutput]
	for i, o := range t.outputs {
		if o == nil {
			continue
		}
		if err := oops.CommitState(t, o, t.outputStates[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// End releases the transaction. Every still-populated shadow slot is
// released exactly once: this covers shadows never committed (abort or a
// failure earlier in the pass) and the stale pre-commit copies left in the
// slots by the swap. Required after every transaction regardless of
// outcome; never call any other method afterwards.
func (t *Txn) End() {
	if t.ended {
		return
	}
	t.ended = true
	for i, st := range t.surfaceStates {
		if st != nil {
			st.Release()
			t.surfaceStates[i] = nil
			t.surfaces[i] = nil
		}
	}
	for i, st := range t.outputStates {
		if st != nil {
			st.Release()
			t.outputStates[i] = nil
			t.outputs[i] = nil
		}
	}
}

// RecordSurface records a surface and its shadow in the transaction's
// tables. StateOps implementations call this when creating a shadow so the
// touched marker and the shadow appear together, and again after a commit
// swap to store the previous live state.
func (t *Txn) RecordSurface(s *resource.Surface, st *resource.SurfaceState) {
	t.surfaces[s.ID()] = s
	t.surfaceStates[s.ID()] = st
}

// RecordOutput is RecordSurface for outputs.
func (t *Txn) RecordOutput(o *resource.Output, st *resource.OutputState) {
	t.outputs[o.ID()] = o
	t.outputStates[o.ID()] = st
}

// SurfaceState returns the staged state for a surface identity, or nil if
// that surface was never staged.
func (t *Txn) SurfaceState(id resource.ID) *resource.SurfaceState {
	return t.surfaceStates[id]
}

// OutputState returns the staged state for an output identity, or nil if
// that output was never staged.
func (t *Txn) OutputState(id resource.ID) *resource.OutputState {
	return t.outputStates[id]
}

// Touched returns every resource staged so far, surfaces first, in
// identity order. Callers use this to latch the batch before checking.
func (t *Txn) Touched() []resource.Object {
	var objs []resource.Object
	for _, s := range t.surfaces {
		if s != nil {
			objs = append(objs, s)
		}
	}
	for _, o := range t.outputs {
		if o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}
