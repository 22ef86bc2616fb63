package resource

// Surface is a movable, positionable source of image data feeding an
// output. Its live configuration is held in exactly one SurfaceState at any
// time; the state is only ever replaced wholesale by the commit-time swap.
type Surface struct {
	id    ID
	state *SurfaceState
}

func (s *Surface) ID() ID     { return s.id }
func (s *Surface) Kind() Kind { return KindSurface }

// State returns the live state. Readers racing a commit must hold the
// layout lock.
func (s *Surface) State() *SurfaceState { return s.state }

// SwapState installs st as the live state and returns the previous live
// state. The caller must hold the layout lock.
func (s *Surface) SwapState(st *SurfaceState) *SurfaceState {
	old := s.state
	s.state = st
	return old
}

// SurfaceState is a surface's full configuration: which output it feeds,
// where it lands on that output, which part of the framebuffer it scans
// out, and the framebuffer itself. A staged copy additionally carries a
// back-reference to the owning transaction.
type SurfaceState struct {
	Output *Output
	FB     *Framebuffer
	Dst    Rect
	Src    FixedRect

	Txn Txn

	settled bool
}

// NewSurfaceState snapshots the surface's current live configuration into a
// fresh staged state owned by txn. The snapshot takes its own framebuffer
// reference, so unspecified fields carry forward with ownership intact.
func NewSurfaceState(s *Surface, txn Txn) *SurfaceState {
	st := *s.state
	st.Txn = txn
	st.settled = false
	if st.FB != nil {
		st.FB.Ref()
	}
	return &st
}

// SetFramebuffer replaces the staged framebuffer, taking a reference on fb
// and dropping the one held on the previous staged framebuffer. fb may be
// nil to stage a disable.
func (st *SurfaceState) SetFramebuffer(fb *Framebuffer) {
	if fb != nil {
		fb.Ref()
	}
	if st.FB != nil {
		st.FB.Unref()
	}
	st.FB = fb
}

// SettleRefs marks this state's framebuffer reference as accounted for by
// the commit step, so Release will not touch it again.
func (st *SurfaceState) SettleRefs() { st.settled = true }

// Settled reports whether commit already settled this state's references.
func (st *SurfaceState) Settled() bool { return st.settled }

// Release drops the staged framebuffer reference unless a commit step
// already settled it. Called exactly once per shadow at transaction end;
// this covers both the never-committed shadow and the stale pre-commit copy
// left in the transaction slot by the swap.
func (st *SurfaceState) Release() {
	if !st.settled && st.FB != nil {
		st.FB.Unref()
	}
	st.settled = true
}
