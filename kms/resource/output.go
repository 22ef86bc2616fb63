package resource

import "sync"

// Output drives one physical display path: a controller plus the connector
// wiring it currently scans out to. Like Surface, its live configuration is
// exactly one OutputState, replaced only by the commit-time swap.
type Output struct {
	id    ID
	mu    sync.Mutex
	state *OutputState
}

func (o *Output) ID() ID     { return o.id }
func (o *Output) Kind() Kind { return KindOutput }

// State returns the live state. Readers racing a commit must hold the
// output's commit lock.
func (o *Output) State() *OutputState { return o.state }

// Lock serializes commit sub-cases against each other and against any
// legacy non-transactional mutation of this output.
func (o *Output) Lock()   { o.mu.Lock() }
func (o *Output) Unlock() { o.mu.Unlock() }

// SwapState installs st as the live state and returns the previous live
// state. The caller must hold the output's commit lock.
func (o *Output) SwapState(st *OutputState) *OutputState {
	old := o.state
	o.state = st
	return old
}

// Mode is a display timing the output can drive.
type Mode struct {
	Name          string
	Width, Height uint32
	Refresh       uint32 // Hz
}

// OutputState is an output's configuration. The common staged shape carries
// just a framebuffer (page-flip) and an optional completion event; a full
// reconfiguration additionally sets SetConfig with the mode, position and
// wiring set to rebind.
type OutputState struct {
	FB    *Framebuffer
	Event Event

	// Full-reconfiguration payload, only honored when SetConfig is set.
	SetConfig bool
	Mode      *Mode // nil clears the mode
	X, Y      int32
	WiringIDs []ID

	Txn Txn

	settled bool
}

// NewOutputState snapshots the output's current live configuration into a
// fresh staged state owned by txn, taking its own framebuffer reference.
// The pending event is not carried over; completion events belong to a
// single transaction.
func NewOutputState(o *Output, txn Txn) *OutputState {
	st := *o.state
	st.Txn = txn
	st.Event = nil
	st.SetConfig = false
	st.settled = false
	if st.FB != nil {
		st.FB.Ref()
	}
	return &st
}

// SetFramebuffer replaces the staged framebuffer, taking a reference on fb
// and dropping the one held on the previous staged framebuffer. fb may be
// nil to stage a disable.
func (st *OutputState) SetFramebuffer(fb *Framebuffer) {
	if fb != nil {
		fb.Ref()
	}
	if st.FB != nil {
		st.FB.Unref()
	}
	st.FB = fb
}

// SettleRefs marks this state's framebuffer reference as accounted for by
// the commit step.
func (st *OutputState) SettleRefs() { st.settled = true }

// Settled reports whether commit already settled this state's references.
func (st *OutputState) Settled() bool { return st.settled }

// Release drops the staged framebuffer reference unless a commit step
// already settled it. Called exactly once per shadow at transaction end.
func (st *OutputState) Release() {
	if !st.settled && st.FB != nil {
		st.FB.Unref()
	}
	st.settled = true
}
