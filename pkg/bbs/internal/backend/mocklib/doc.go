// Package mocklib is a pure-Go stand-in for libbbs used by the bbs package
// tests. It implements backend.API over an in-memory arena with per-buffer
// deallocator accounting, deterministic signature and proof derivations, and
// per-call failure injection, so leak freedom and error translation can be
// asserted without the native library or cgo.
package mocklib
