package auth

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// ServiceClaims identify a calling service. The svc claim names the caller;
// the registered subject mirrors it for tooling that only reads sub.
type ServiceClaims struct {
	gojwt.RegisteredClaims
	Service string `json:"svc,omitempty"`
}

// SetDefaults fills standard time claims before signing. Fields already set
// by the caller are kept.
func (c *ServiceClaims) SetDefaults(now time.Time, ttl time.Duration, issuer string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if c.Subject == "" {
		c.Subject = c.Service
	}
}

// ServiceTokens creates a token service for ServiceClaims, the claims type
// used by the serving endpoint and the remote processor.
func ServiceTokens(cfg *Config) (*Service[*ServiceClaims], error) {
	return NewService(cfg, func() *ServiceClaims { return &ServiceClaims{} })
}
