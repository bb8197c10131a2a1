package bbs

import (
	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
	"github.com/mattrglobal/bbs-go/pkg/bbs/logging"
)

// Config carries the knobs for opening the library. The zero value is valid
// and binds logging to slog.Default().
type Config struct {
	// Logger receives operation-level debug logs. Secrets are never logged;
	// sensitive attributes appear redacted.
	Logger logging.Logger
}

// Library is an opened handle to the native bbs library. All operations are
// methods on it. A Library is safe for concurrent use: every call owns its
// own native context and buffer scope, and nothing is shared between calls.
type Library struct {
	api    backend.API
	log    logging.Logger
	closed bool
}

// Open binds to the native library. It fails with ErrNotBuilt when the
// bindings were not compiled in (cgo disabled or unsupported platform).
func Open(cfg Config) (*Library, error) {
	api, err := backend.Default()
	if err != nil {
		return nil, localError("Open", err)
	}
	return newLibrary(api, cfg), nil
}

// newLibrary wires a Library over any backend implementation. Tests use it to
// substitute the in-process fake.
func newLibrary(api backend.API, cfg Config) *Library {
	log := cfg.Logger
	if log == nil {
		log = logging.New(nil)
	}
	return &Library{api: api, log: log}
}

// Close marks the library unusable. The method is idempotent, returning
// ErrLibraryClosed when called twice. The native library holds no per-handle
// state, so there is nothing to release.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	if l.closed {
		return ErrLibraryClosed
	}
	l.closed = true
	return nil
}

// usable guards every operation entry point.
func (l *Library) usable(op string) error {
	if l == nil || l.api == nil || l.closed {
		return localError(op, ErrLibraryClosed)
	}
	return nil
}

// SecretKeySize returns the fixed byte length of a BLS secret key (32).
func (l *Library) SecretKeySize() int { return l.api.SecretKeySize() }

// PublicKeySize returns the fixed byte length of a BLS G2 public key (96).
func (l *Library) PublicKeySize() int { return l.api.PublicKeySize() }

// SignatureSize returns the fixed byte length of a BBS signature (112).
func (l *Library) SignatureSize() int { return l.api.SignatureSize() }

// BlindSignatureSize returns the fixed byte length of a blind BBS
// signature (112).
func (l *Library) BlindSignatureSize() int { return l.api.BlindSignatureSize() }
