package runner

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinykms/tinykms/kms/atomic"
	"github.com/tinykms/tinykms/kms/hw"
	"github.com/tinykms/tinykms/kms/latches"
	"github.com/tinykms/tinykms/kms/resource"
)

func testSetup(numSurfaces, numOutputs int) (*atomic.Engine, *resource.Directory, *hw.MemHW, *latches.Latches) {
	dir := resource.NewDirectory(numSurfaces, numOutputs)
	device := hw.NewMemHW(numSurfaces, numOutputs)
	return atomic.NewEngine(dir, device), dir, device, latches.NewLatches()
}

func TestRunCommits(t *testing.T) {
	e, dir, device, lat := testSetup(1, 1)
	fb := resource.NewFramebuffer(800, 600)
	defer fb.Unref()

	err := Run(e, lat, 0, func(txn *atomic.Txn) error {
		st, err := txn.StageSurface(dir.Surface(0))
		if err != nil {
			return err
		}
		st.Output = dir.Output(0)
		st.SetFramebuffer(fb)
		st.Dst = resource.Rect{W: 800, H: 600}
		st.Src = resource.FixedFull(800, 600)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, device.SurfaceRegsFor(0).Bound)
	assert.Equal(t, fb, dir.Surface(0).State().FB)
	assert.Equal(t, int32(2), fb.Refs())

	// Latches all released again.
	wg := lat.AcquireLatches([]string{"surface/0"})
	assert.Nil(t, wg)
	lat.ReleaseLatches([]string{"surface/0"})
}

func TestRunCheckFailureAbandons(t *testing.T) {
	e, dir, device, lat := testSetup(1, 1)
	fb := resource.NewFramebuffer(32, 32)
	defer fb.Unref()
	live := dir.Surface(0).State()

	err := Run(e, lat, 0, func(txn *atomic.Txn) error {
		st, err := txn.StageSurface(dir.Surface(0))
		if err != nil {
			return err
		}
		st.Output = dir.Output(0)
		st.SetFramebuffer(fb)
		st.Dst = resource.Rect{W: 32, H: 32}
		st.Src = resource.FixedFull(4096, 4096)
		return nil
	})
	require.Error(t, err)
	assert.True(t, atomic.IsInvalidRequest(err))

	// Nothing reached the hardware; every staged reference was returned.
	assert.True(t, live == dir.Surface(0).State())
	assert.False(t, device.SurfaceRegsFor(0).Bound)
	assert.Equal(t, int32(1), fb.Refs())
}

func TestRunBuildError(t *testing.T) {
	e, dir, _, lat := testSetup(1, 1)
	fb := resource.NewFramebuffer(32, 32)
	defer fb.Unref()

	boom := errors.New("client gave up")
	err := Run(e, lat, 0, func(txn *atomic.Txn) error {
		st, err := txn.StageSurface(dir.Surface(0))
		if err != nil {
			return err
		}
		st.SetFramebuffer(fb)
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Equal(t, int32(1), fb.Refs())
}
