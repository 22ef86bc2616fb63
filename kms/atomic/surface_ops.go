package atomic

import (
	"github.com/juju/errors"

	"github.com/tinykms/tinykms/kms/hw"
	"github.com/tinykms/tinykms/kms/resource"
)

// surfaceOps is the built-in StateOps for surfaces.
type surfaceOps struct {
	e *Engine
}

func (k surfaceOps) GetState(t *Txn, res resource.Object) (StagedState, error) {
	s := res.(*resource.Surface)
	if st := t.SurfaceState(s.ID()); st != nil {
		return st, nil
	}
	st := resource.NewSurfaceState(s, t)
	t.RecordSurface(s, st)
	return st, nil
}

// CheckState delegates to the driver's check hook when it has one. Any
// rejection is reported as an invalid request naming the surface.
func (k surfaceOps) CheckState(t *Txn, res resource.Object, ss StagedState) error {
	s := res.(*resource.Surface)
	c, ok := k.e.drv.(hw.SurfaceChecker)
	if !ok {
		return nil
	}
	if err := c.CheckSurface(s, ss.(*resource.SurfaceState)); err != nil {
		return errors.Trace(&ErrInvalidRequest{Kind: resource.KindSurface, ID: s.ID(), Err: err})
	}
	return nil
}

// CommitState applies one surface's staged state under the layout lock.
//
// Update (output and framebuffer both staged): on success the staged
// framebuffer reference transfers to the live state through the swap, and
// the previous live framebuffer loses its binding reference. On failure
// nothing swaps and the staged reference is dropped as an unconsumed
// borrow.
//
// Disable (either missing): the disable primitive's result is checked; a
// failed disable performs no swap and releases nothing beyond the staged
// borrow. A successful disable installs a fully unbound state.
func (k surfaceOps) CommitState(t *Txn, res resource.Object, ss StagedState) error {
	s := res.(*resource.Surface)
	st := ss.(*resource.SurfaceState)
	dir := k.e.dir
	drv := k.e.drv

	// fb balances the staged reference across every branch: it is cleared
	// exactly when ownership moves through the swap.
	fb := st.FB
	var oldFB *resource.Framebuffer
	var err error

	dir.LockLayout()
	if st.Output != nil && st.FB != nil {
		err = drv.UpdateSurface(s, st.Output, st.FB, st.Dst, st.Src)
		if err == nil {
			oldFB = s.State().FB
			t.RecordSurface(s, s.SwapState(st))
			fb = nil
		}
	} else {
		err = drv.DisableSurface(s)
		if err == nil {
			st.Output = nil
			st.FB = nil
			oldFB = s.State().FB
			t.RecordSurface(s, s.SwapState(st))
		}
	}
	dir.UnlockLayout()

	if fb != nil {
		fb.Unref()
	}
	if oldFB != nil {
		oldFB.Unref()
	}
	// Whichever state sits in the transaction slot now — the stale
	// pre-commit copy on success, the unswapped shadow on failure — has
	// had its reference accounted for above.
	t.SurfaceState(s.ID()).SettleRefs()

	return errors.Trace(err)
}
