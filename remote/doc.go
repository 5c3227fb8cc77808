// Package remote implements a processor that delegates its work to a
// serving endpoint, making a served pipeline look like one local stage.
//
// At pipeline initialization the processor performs a handshake: it
// queries the endpoint's service name, accepted input format and
// declared schemas, verifies them against its configured expectations,
// and, with type checking on, adopts the schemas so the enclosing
// pipeline validates the remote stage like any local processor. A
// mismatch fails initialization; no pack is ever dispatched through a
// stage whose handshake failed.
//
// Per pack, Process marshals the pack in the negotiated format, posts it
// to the endpoint, and replaces the local pack in place with the
// returned result. Transport failures are fatal to the stage and never
// retried; the pack keeps its pre-call state.
//
// SetTestHandle switches the stage to an in-process loopback transport
// for deterministic protocol tests with no socket:
//
//	rp := remote.New()
//	rp.SetTestHandle(endpoint.Handler())
//	pl.Add(rp, processor.Config{
//	    "expected_name": "eliza",
//	    "validation":    map[string]any{"type_check": true},
//	})
package remote
