// Package auth provides service-to-service bearer token authentication for
// served pipeline endpoints.
//
// A deployment that enables auth on its serving endpoint shares an HMAC
// secret with its callers. Callers mint a short-lived token naming
// themselves in the svc claim; the endpoint verifies signature, expiry and
// issuer before dispatching a process call.
//
//	svc, _ := auth.ServiceTokens(&auth.Config{Secret: secret, Issuer: "docpack"})
//	token, _ := svc.Issue(&auth.ServiceClaims{Service: "query_pipeline"})
//
//	// endpoint side
//	claims, err := svc.Parse(token)
//
// The TokenValidator contract decouples middleware from the concrete claims
// type; authctx carries verified claims through the request context.
package auth
