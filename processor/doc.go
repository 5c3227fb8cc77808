// Package processor defines the processing stage contract.
//
// A Processor declares the entry types and attributes it expects to find
// on incoming packs and the ones it guarantees to produce, then mutates
// packs in place. Pipelines use the declarations to validate stage
// composition before any pack flows.
package processor
