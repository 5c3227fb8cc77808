// Package reader defines pipeline sources.
//
// A Reader turns one raw input into a lazy stream of packs. Readers are
// restartable: Iter may be called once per process call, each time with a
// fresh source.
package reader
