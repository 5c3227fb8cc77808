// Package pack defines the document unit that flows through pipelines.
//
// A Pack carries a text payload, typed annotation entries over spans of
// that text, and a manifest recording which entry types and attributes
// have been populated so far. Processors mutate the pack in place; the
// manifest only ever grows during a pass.
//
// A Pack is not safe for concurrent use. The framework hands each pack
// to exactly one goroutine at a time; use Clone to branch.
package pack
