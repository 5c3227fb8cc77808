package cache

import (
	"fmt"
	"time"
)

// Config holds result cache configuration.
type Config struct {
	// Enabled controls whether the cache is active. Disabled is the
	// default; the endpoint then runs every process call.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Password is the redis server password.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the redis database number.
	DB int `yaml:"db" mapstructure:"db"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`

	// DialTimeout is the timeout for establishing new connections (e.g. "5s").
	DialTimeout string `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads (e.g. "3s").
	ReadTimeout string `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout is the timeout for socket writes (e.g. "3s").
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`

	// TTL is how long cached results live (e.g. "10m"). "0" disables expiry.
	TTL string `yaml:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces cache keys (default "pipekit").
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.DialTimeout == "" {
		c.DialTimeout = "5s"
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "3s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "3s"
	}
	if c.TTL == "" {
		c.TTL = "10m"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "pipekit"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("cache.addr is required")
	}
	for name, val := range map[string]string{
		"dial_timeout":  c.DialTimeout,
		"read_timeout":  c.ReadTimeout,
		"write_timeout": c.WriteTimeout,
		"ttl":           c.TTL,
	} {
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("cache.%s %q: %w", name, val, err)
		}
	}
	return nil
}

// ttl returns the parsed entry lifetime. Call after Validate.
func (c *Config) ttl() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}
