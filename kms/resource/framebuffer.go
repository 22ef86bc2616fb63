package resource

import (
	"go.uber.org/atomic"
)

// Framebuffer is a reference-counted image object. Exactly one reference is
// held per live binding (the live state of each resource currently scanning
// out of it), plus transiently one per transaction shadow that has it
// attached. The count is adjusted at three points only: attach to a shadow,
// the commit-time ownership settlement, and shadow release at transaction
// end.
type Framebuffer struct {
	Width, Height uint32

	refs atomic.Int32

	// OnRelease, if set, runs once when the last reference is dropped.
	// Typically returns the pinned backing memory to its allocator.
	OnRelease func(*Framebuffer)
}

// NewFramebuffer allocates a framebuffer handle holding one reference,
// owned by the caller.
func NewFramebuffer(width, height uint32) *Framebuffer {
	fb := &Framebuffer{Width: width, Height: height}
	fb.refs.Store(1)
	return fb
}

// Ref takes an additional reference and returns fb for chaining.
func (fb *Framebuffer) Ref() *Framebuffer {
	fb.refs.Inc()
	return fb
}

// Unref drops one reference, running OnRelease when the count hits zero.
func (fb *Framebuffer) Unref() {
	if fb.refs.Dec() == 0 && fb.OnRelease != nil {
		fb.OnRelease(fb)
	}
}

// Refs reports the current reference count.
func (fb *Framebuffer) Refs() int32 { return fb.refs.Load() }
