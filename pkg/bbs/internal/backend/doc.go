// Package backend isolates the libbbs C boundary. It exposes the native call
// contract as the API interface plus the fixed-layout Buffer and RawError
// value types; the cgo-backed implementation is selected at build time and a
// stub keeps non-cgo builds compiling.
//
// This package should only be imported by pkg/bbs. All cgo complexity lives
// here; callers above it never see a raw pointer.
package backend
