package atomic

import (
	"github.com/juju/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tinykms/tinykms/kms/hw"
	"github.com/tinykms/tinykms/kms/resource"
)

// outputOps is the built-in StateOps for outputs.
type outputOps struct {
	e *Engine
}

func (k outputOps) GetState(t *Txn, res resource.Object) (StagedState, error) {
	o := res.(*resource.Output)
	if st := t.OutputState(o.ID()); st != nil {
		return st, nil
	}
	st := resource.NewOutputState(o, t)
	t.RecordOutput(o, st)
	return st, nil
}

// CheckState is a no-op for outputs: whether a full reconfiguration is
// feasible (clocks, bandwidth, connector topology) is decided by the
// reconfiguration primitive itself at commit time.
func (k outputOps) CheckState(t *Txn, res resource.Object, ss StagedState) error {
	return nil
}

// CommitState applies one output's staged state. Three mutually exclusive
// sub-cases are selected by shadow content, each serialized by the
// output's commit lock (the full reconfiguration additionally by the
// layout lock):
//
// Full reconfiguration: staged wiring IDs resolve to live wiring objects
// and the whole request goes through the reconfiguration primitive, which
// may perform a complete modeset.
//
// Page flip (framebuffer staged and different from the live one): needs a
// currently bound framebuffer and a flip primitive. On failure the old
// framebuffer keeps its binding reference and the staged one is dropped.
//
// Disable (framebuffer cleared while previously bound): a minimal request
// through the reconfiguration primitive. The primitive's result is
// checked; a failed disable swaps and releases nothing.
//
// A touch matching none of these is a no-op: nothing is applied, the
// shadow is discarded at End, the live state is unchanged.
func (k outputOps) CommitState(t *Txn, res resource.Object, ss StagedState) error {
	o := res.(*resource.Output)
	st := ss.(*resource.OutputState)

	if st.SetConfig {
		return errors.Trace(k.setConfig(t, o, st))
	}

	var fb, oldFB *resource.Framebuffer
	var err error

	o.Lock()
	live := o.State()
	switch {
	case st.FB != nil && st.FB != live.FB:
		// Page flip.
		fb = st.FB
		if live.FB == nil {
			// Unbound, presumably a hotplug event the client has not yet
			// discovered.
			err = &ErrResourceUnbound{Output: o.ID()}
			break
		}
		flipper, ok := k.e.drv.(hw.Flipper)
		if !ok {
			err = &ErrUnsupported{Op: "page-flip", Output: o.ID()}
			break
		}
		oldFB = live.FB
		err = flipper.PageFlip(o, fb, st.Event, t.flags)
		if err != nil {
			// Keep the old framebuffer bound; drop only the staged
			// reference.
			oldFB = nil
			pageFlipCounter.WithLabelValues("err").Inc()
		} else {
			t.RecordOutput(o, o.SwapState(st))
			fb = nil
			pageFlipCounter.WithLabelValues("ok").Inc()
		}
	case st.FB != live.FB:
		// Disable: framebuffer cleared while previously bound.
		err = k.e.drv.ApplyConfig(&hw.ConfigRequest{Output: o})
		if err == nil {
			oldFB = live.FB
			t.RecordOutput(o, o.SwapState(st))
		}
	default:
		// No-op touch; shadow is discarded at End.
		o.Unlock()
		return nil
	}
	o.Unlock()

	if fb != nil {
		fb.Unref()
	}
	if oldFB != nil {
		oldFB.Unref()
	}
	t.OutputState(o.ID()).SettleRefs()

	if err != nil {
		log.Debug("output commit failed",
			zap.Uint32("output", uint32(o.ID())), zap.Error(err))
	}
	return errors.Trace(err)
}

// setConfig commits a full reconfiguration under the layout lock and the
// output's commit lock, always in that order, so it cannot interleave with
// a flip or disable against the same output. The resolved wiring set is
// transient and dropped regardless of outcome; the staged framebuffer
// reference transfers through the swap on success and is dropped on
// failure.
func (k outputOps) setConfig(t *Txn, o *resource.Output, st *resource.OutputState) error {
	dir := k.e.dir

	wiring, err := dir.ResolveWiring(st.WiringIDs)
	if err != nil {
		return errors.Trace(&ErrInvalidRequest{Kind: resource.KindOutput, ID: o.ID(), Err: err})
	}

	fb := st.FB
	var oldFB *resource.Framebuffer
	req := &hw.ConfigRequest{
		Output: o,
		FB:     fb,
		Mode:   st.Mode,
		X:      st.X,
		Y:      st.Y,
		Wiring: wiring,
		Event:  st.Event,
	}

	dir.LockLayout()
	o.Lock()
	err = k.e.drv.ApplyConfig(req)
	if err == nil {
		oldFB = o.State().FB
		t.RecordOutput(o, o.SwapState(st))
		fb = nil
	}
	o.Unlock()
	dir.UnlockLayout()

	if fb != nil {
		fb.Unref()
	}
	if oldFB != nil {
		oldFB.Unref()
	}
	t.OutputState(o.ID()).SettleRefs()

	return errors.Trace(err)
}
