// Package config loads service configuration for serving deployments.
//
// Configuration comes from three layered sources: a YAML config file, an
// optional .env file, and process environment variables, with later
// sources overriding earlier ones. Structs declare yaml and mapstructure
// tags and follow the ApplyDefaults/Validate convention used across the
// module.
//
// # Usage
//
//	type Config struct {
//	    Service config.ServiceConfig `yaml:"service" mapstructure:"service"`
//	    Serve   serve.Config         `yaml:"serve" mapstructure:"serve"`
//	}
//
//	var cfg Config
//	if err := config.Load("eliza", &cfg); err != nil {
//	    return err
//	}
//
// Environment variables map onto nested keys by underscore splitting:
// SERVE_AUTH_SECRET binds to serve.auth.secret (every split variant is
// bound, so flat and nested structs both resolve).
package config
