package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLookup(t *testing.T) {
	d := NewDirectory(3, 2)
	assert.Equal(t, 3, d.SurfaceCount())
	assert.Equal(t, 2, d.OutputCount())

	s := d.Surface(2)
	require.NotNil(t, s)
	assert.Equal(t, ID(2), s.ID())
	assert.Equal(t, KindSurface, s.Kind())
	assert.Nil(t, d.Surface(3))

	o := d.Output(1)
	require.NotNil(t, o)
	assert.Equal(t, ID(1), o.ID())
	assert.Equal(t, KindOutput, o.Kind())
	assert.Nil(t, d.Output(2))
}

func TestResolveWiring(t *testing.T) {
	d := NewDirectory(0, 1)
	w1 := d.AddWiring("HDMI-1")
	w2 := d.AddWiring("DP-1")

	set, err := d.ResolveWiring([]ID{w2.ID(), w1.ID()})
	require.NoError(t, err)
	require.Equal(t, 2, len(set))
	assert.Equal(t, "DP-1", set[0].Name)
	assert.Equal(t, "HDMI-1", set[1].Name)

	_, err = d.ResolveWiring([]ID{w1.ID(), 99})
	assert.Error(t, err)
}

func TestFixedPoint(t *testing.T) {
	assert.Equal(t, uint32(1920<<16), ToFixed(1920))
	assert.Equal(t, uint32(1920), FromFixed(ToFixed(1920)))

	r := FixedFull(1920, 1080)
	assert.Equal(t, int32(0), r.X)
	assert.Equal(t, uint32(1920), FromFixed(r.W))
	assert.Equal(t, uint32(1080), FromFixed(r.H))
}
