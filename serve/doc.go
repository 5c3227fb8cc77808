// Package serve exposes an initialized pipeline as a network service.
//
// An Endpoint binds exactly one initialized pipeline.Pipeline to a service
// name and a wire input format for its entire lifetime, and answers the two
// protocol operations: the identity/schema handshake on GET /service and
// the process call on POST /process. A Server wraps the endpoint's handler
// with the standard middleware stack (recovery, request ID, CORS, body
// limit, request logging, optional bearer auth) and an h2c-capable HTTP
// server with graceful shutdown.
//
//	ep, err := serve.NewEndpoint(pipe, "test_service", wire.FormatText)
//	srv := serve.NewServer(cfg, ep, log)
//	err = srv.Serve(ctx) // runs until ctx is canceled
//
// For tests, the endpoint handler can be handed to a remote processor
// directly via SetTestHandle, exercising the full handshake and
// marshalling path with no socket. The servetest subpackage wraps both
// styles.
package serve
