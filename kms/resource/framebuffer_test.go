package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramebufferRefCounting(t *testing.T) {
	released := 0
	fb := NewFramebuffer(640, 480)
	fb.OnRelease = func(*Framebuffer) { released++ }

	assert.Equal(t, int32(1), fb.Refs())
	fb.Ref()
	fb.Ref()
	assert.Equal(t, int32(3), fb.Refs())

	fb.Unref()
	fb.Unref()
	assert.Equal(t, 0, released)
	fb.Unref()
	assert.Equal(t, int32(0), fb.Refs())
	assert.Equal(t, 1, released)
}

func TestSurfaceStateRelease(t *testing.T) {
	d := NewDirectory(1, 0)
	fb := NewFramebuffer(640, 480)
	defer fb.Unref()

	st := NewSurfaceState(d.Surface(0), nil)
	st.SetFramebuffer(fb)
	assert.Equal(t, int32(2), fb.Refs())

	// Release drops the staged reference once; settled states and repeat
	// releases are no-ops.
	st.Release()
	assert.Equal(t, int32(1), fb.Refs())
	st.Release()
	assert.Equal(t, int32(1), fb.Refs())

	st2 := NewOutputState(&Output{state: &OutputState{FB: fb}}, nil)
	assert.Equal(t, int32(2), fb.Refs())
	st2.SettleRefs()
	st2.Release()
	assert.Equal(t, int32(2), fb.Refs())
	fb.Unref() // balance the snapshot reference settled above
}
