package serve

import (
	"fmt"

	"github.com/docpack/pipekit/cache"
	"github.com/docpack/pipekit/config"
	"github.com/docpack/pipekit/errors"
	"github.com/docpack/pipekit/serve/middleware"
	"github.com/docpack/pipekit/validation"
	"github.com/docpack/pipekit/wire"
)

// AuthConfig enables bearer-token authentication on the process route.
// Handshake, health and info stay open so callers can discover the service
// before presenting credentials.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	Issuer  string `yaml:"issuer" mapstructure:"issuer"`
}

// LimitsConfig bounds admission on the process route: a token-bucket
// request rate and a cap on concurrent in-flight calls.
type LimitsConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	Rate          float64 `yaml:"rate" mapstructure:"rate" validate:"min=0"`                      // requests per second
	Burst         int     `yaml:"burst" mapstructure:"burst" validate:"min=0"`                    // bucket capacity
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"min=0"`  // in-flight cap
}

// Config holds serving endpoint configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout" validate:"min=0"`    // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout" validate:"min=0"`  // seconds
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"min=0"`    // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`                   // e.g. "10MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Auth         AuthConfig            `yaml:"auth" mapstructure:"auth"`
	Limits       LimitsConfig          `yaml:"limits" mapstructure:"limits"`
	Cache        cache.Config          `yaml:"cache" mapstructure:"cache"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
	if c.Limits.Enabled {
		if c.Limits.Rate == 0 {
			c.Limits.Rate = 50
		}
		if c.Limits.Burst == 0 {
			c.Limits.Burst = int(c.Limits.Rate) * 2
		}
		if c.Limits.MaxConcurrent == 0 {
			c.Limits.MaxConcurrent = 64
		}
	}
	c.Cache.ApplyDefaults()
}

// Validate checks the configuration for invalid values. Range checks
// run through the struct tags; the auth secret requirement is
// conditional on auth being enabled, so it stays hand-written.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("serve.auth.secret is required when auth is enabled")
	}
	return c.Cache.Validate()
}

// ServiceConfig is the full configuration of a serving deployment: the
// shared service block, this endpoint's identity and options, and the
// path of the pipeline topology to serve.
type ServiceConfig struct {
	Service     config.ServiceConfig `yaml:"service" mapstructure:"service"`
	Serve       Config               `yaml:"serve" mapstructure:"serve"`
	InputFormat string               `yaml:"input_format" mapstructure:"input_format"`
	Pipeline    string               `yaml:"pipeline" mapstructure:"pipeline"` // topology file path
}

// LoadServiceConfig resolves and loads the deployment configuration for
// the named service, applies defaults and validates it. The service name
// doubles as the endpoint's advertised identity.
func LoadServiceConfig(service string, opts ...config.LoaderOption) (*ServiceConfig, error) {
	cfg := &ServiceConfig{}
	if err := config.Load(service, cfg, opts...); err != nil {
		return nil, errors.Configuration(service, err.Error()).WithCause(err)
	}
	if cfg.Service.Name == "" {
		cfg.Service.Name = service
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = string(wire.FormatPack)
	}
	cfg.Service.ApplyDefaults()
	cfg.Serve.ApplyDefaults()
	if err := cfg.Service.Validate(); err != nil {
		return nil, errors.Configuration(service, err.Error()).WithCause(err)
	}
	if err := cfg.Serve.Validate(); err != nil {
		return nil, errors.Configuration(service, err.Error()).WithCause(err)
	}
	if _, err := wire.ParseFormat(cfg.InputFormat); err != nil {
		return nil, errors.Configuration(service, "invalid input_format").WithCause(err)
	}
	if cfg.Pipeline == "" {
		return nil, errors.Configuration(service, "pipeline topology path is required")
	}
	return cfg, nil
}
