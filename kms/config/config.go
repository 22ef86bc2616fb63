package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/juju/errors"
	"github.com/pingcap/log"
)

// Duration is a TOML-decodable wrapper around time.Duration accepting
// strings like "16ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return errors.Trace(err)
}

// Config is the tinykms demo server configuration.
type Config struct {
	// MetricsAddr is where /metrics is served.
	MetricsAddr string `toml:"metrics-addr"`

	// Shape of the simulated device.
	NumSurfaces int `toml:"num-surfaces"`
	NumOutputs  int `toml:"num-outputs"`

	// AsyncFlip requests asynchronous page flips from the driver.
	AsyncFlip bool `toml:"async-flip"`

	// FlipInterval is the pacing of the demo flip loop.
	FlipInterval Duration `toml:"flip-interval"`

	// Log related config.
	Log log.Config `toml:"log"`
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

// NewDefaultConfig returns a config with defaults suitable for local runs.
func NewDefaultConfig() *Config {
	c := &Config{
		MetricsAddr:  "127.0.0.1:20180",
		NumSurfaces:  2,
		NumOutputs:   1,
		FlipInterval: Duration{16 * time.Millisecond},
	}
	c.Log.Level = getLogLevel()
	return c
}

// Validate checks the config for nonsense values.
func (c *Config) Validate() error {
	if c.NumSurfaces <= 0 {
		return errors.Errorf("num-surfaces must be greater than 0, got %d", c.NumSurfaces)
	}
	if c.NumOutputs <= 0 {
		return errors.Errorf("num-outputs must be greater than 0, got %d", c.NumOutputs)
	}
	if c.FlipInterval.Duration <= 0 {
		return errors.Errorf("flip-interval must be positive, got %v", c.FlipInterval.Duration)
	}
	return nil
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, errors.Trace(err)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}
