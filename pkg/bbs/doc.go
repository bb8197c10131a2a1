// Package bbs wraps the native BBS+ signatures library (libbbs) behind a
// memory-safe Go API: seed-derived BLS12-381 key pairs, multi-message
// signing and verification, blind signing over commitments, and
// selective-disclosure proofs.
//
// Every operation is synchronous and self-contained. A call opens one buffer
// scope that owns every allocation crossing the C boundary and releases it on
// all exit paths, drives one native context through its init/step/finish
// protocol, and translates native error records into *Error values carrying
// the native code and message. Nothing native outlives a call; callers only
// ever see Go-owned copies.
//
// Builds without cgo (or on Windows) compile but Open returns ErrNotBuilt.
package bbs
