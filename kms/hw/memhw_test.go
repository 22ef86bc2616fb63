package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinykms/tinykms/kms/resource"
)

func TestCheckSurface(t *testing.T) {
	m := NewMemHW(1, 1)
	dir := resource.NewDirectory(1, 1)
	s := dir.Surface(0)
	fb := resource.NewFramebuffer(640, 480)
	defer fb.Unref()

	st := &resource.SurfaceState{
		Output: dir.Output(0),
		FB:     fb,
		Dst:    resource.Rect{W: 640, H: 480},
		Src:    resource.FixedFull(640, 480),
	}
	assert.NoError(t, m.CheckSurface(s, st))

	// Source crop exceeding the framebuffer is rejected.
	st.Src = resource.FixedFull(641, 480)
	assert.Error(t, m.CheckSurface(s, st))

	st.Src = resource.FixedFull(320, 240)
	st.Src.X = int32(resource.ToFixed(400))
	assert.Error(t, m.CheckSurface(s, st))

	// A crop wide enough to wrap the 32-bit fixed-point edge computation is
	// still rejected.
	st.Src = resource.FixedRect{
		X: int32(resource.ToFixed(32512)),
		W: resource.ToFixed(33024),
		H: resource.ToFixed(480),
	}
	assert.Error(t, m.CheckSurface(s, st))

	// Empty destination is rejected.
	st.Src = resource.FixedFull(640, 480)
	st.Dst = resource.Rect{}
	assert.Error(t, m.CheckSurface(s, st))

	// Disables always pass.
	assert.NoError(t, m.CheckSurface(s, &resource.SurfaceState{}))
}

func TestApplyConfigDisconnectedWiring(t *testing.T) {
	m := NewMemHW(1, 1)
	dir := resource.NewDirectory(1, 1)
	w := dir.AddWiring("HDMI-1")
	w.Connected = false

	err := m.ApplyConfig(&ConfigRequest{Output: dir.Output(0), Wiring: []*resource.Wiring{w}})
	require.Error(t, err)
	assert.Equal(t, 0, len(m.Configs()))
}

func TestMemHWMutatesOnlyTarget(t *testing.T) {
	m := NewMemHW(2, 2)
	dir := resource.NewDirectory(2, 2)
	fb := resource.NewFramebuffer(640, 480)
	defer fb.Unref()

	err := m.UpdateSurface(dir.Surface(1), dir.Output(0), fb,
		resource.Rect{W: 640, H: 480}, resource.FixedFull(640, 480))
	require.NoError(t, err)
	assert.True(t, m.SurfaceRegsFor(1).Bound)
	assert.False(t, m.SurfaceRegsFor(0).Bound)

	require.NoError(t, m.PageFlip(dir.Output(1), fb, nil, 0))
	assert.Equal(t, fb, m.OutputRegsFor(1).FB)
	assert.Nil(t, m.OutputRegsFor(0).FB)
	assert.Equal(t, 1, len(m.Flips()))
}
