package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "tinykms-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "tinykms.toml")
	data := `
metrics-addr = "0.0.0.0:9100"
num-surfaces = 8
num-outputs = 2
async-flip = true
flip-interval = "8ms"

[log]
level = "debug"
`
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9100", c.MetricsAddr)
	assert.Equal(t, 8, c.NumSurfaces)
	assert.Equal(t, 2, c.NumOutputs)
	assert.True(t, c.AsyncFlip)
	assert.Equal(t, 8*time.Millisecond, c.FlipInterval.Duration)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestValidate(t *testing.T) {
	c := NewDefaultConfig()
	require.NoError(t, c.Validate())

	c.NumSurfaces = 0
	assert.Error(t, c.Validate())

	c = NewDefaultConfig()
	c.NumOutputs = -1
	assert.Error(t, c.Validate())

	c = NewDefaultConfig()
	c.FlipInterval.Duration = 0
	assert.Error(t, c.Validate())
}
