// Package security provides shared TLS configuration and certificate
// handling, reused by the HTTP client, the serving endpoint, and any
// other transport that talks to remote processing services.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
