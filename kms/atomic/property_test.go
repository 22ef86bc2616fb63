package atomic

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinykms/tinykms/kms/resource"
)

// posInterpreter understands a single "dst-x" surface knob.
type posInterpreter struct{}

func (posInterpreter) SetSurfaceProperty(st *resource.SurfaceState, name string, value uint64) error {
	if name != "dst-x" {
		return errors.NotSupportedf("surface property %q", name)
	}
	st.Dst.X = int32(value)
	return nil
}

func (posInterpreter) SetOutputProperty(st *resource.OutputState, name string, value uint64) error {
	return errors.NotSupportedf("output property %q", name)
}

func TestSetPropertyStagesFirst(t *testing.T) {
	e, dir, _ := newTestEngine(1, 1)
	e.SetPropertyInterpreter(posInterpreter{})

	txn, _ := e.Begin(0)
	defer txn.End()

	require.NoError(t, txn.SetProperty(dir.Surface(0), "dst-x", 120))

	// The property landed on a staged shadow, not the live state.
	st, err := txn.StageSurface(dir.Surface(0))
	require.NoError(t, err)
	assert.Equal(t, int32(120), st.Dst.X)
	assert.Equal(t, int32(0), dir.Surface(0).State().Dst.X)

	assert.Error(t, txn.SetProperty(dir.Surface(0), "bogus", 1))
}

func TestSetPropertyWithoutInterpreter(t *testing.T) {
	e, dir, _ := newTestEngine(1, 1)
	txn, _ := e.Begin(0)
	defer txn.End()

	err := txn.SetProperty(dir.Surface(0), "dst-x", 120)
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}
