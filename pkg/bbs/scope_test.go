package bbs

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
)

func TestScopeReferenceCopiesAndReleases(t *testing.T) {
	_, mock := newTestLibrary(t)
	sc := newScope("Sign", mock)

	input := []byte("boundary payload")
	buf, err := sc.reference(input)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	// Mutating the Go slice must not affect the boundary copy.
	input[0] = 'X'
	if got := mock.Read(buf); !bytes.Equal(got, []byte("boundary payload")) {
		t.Fatalf("boundary copy changed with caller slice: %q", got)
	}
	if mock.Outstanding() != 1 {
		t.Fatalf("expected 1 outstanding buffer, got %d", mock.Outstanding())
	}

	sc.close()
	if mock.Outstanding() != 0 {
		t.Fatalf("scope close left %d buffers", mock.Outstanding())
	}
}

func TestScopeDereferenceTracksNativeBuffer(t *testing.T) {
	_, mock := newTestLibrary(t)
	sc := newScope("GenerateKeyPair", mock)

	pub, sec, raw := mock.GenerateKey(backend.Buffer{})
	if err := sc.check(raw); err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubBytes := sc.dereference(pub)
	secBytes := sc.dereference(sec)
	if len(pubBytes) != mock.PublicKeySize() || len(secBytes) != mock.SecretKeySize() {
		t.Fatalf("unexpected key sizes %d/%d", len(pubBytes), len(secBytes))
	}

	sc.close()
	if mock.Outstanding() != 0 {
		t.Fatalf("native buffers leaked: %d", mock.Outstanding())
	}
	if mis := mock.Misfrees(); len(mis) != 0 {
		t.Fatalf("wrong deallocator used: %v", mis)
	}
}

func TestScopeCheckTranslatesNativeError(t *testing.T) {
	_, mock := newTestLibrary(t)
	sc := newScope("GenerateKeyPair", mock)

	mock.FailOn("GenerateKey", 42, "native exploded")
	_, _, raw := mock.GenerateKey(backend.Buffer{})
	err := sc.check(raw)
	if err == nil {
		t.Fatal("expected error")
	}
	var bbsErr *Error
	if !errors.As(err, &bbsErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if bbsErr.Op != "GenerateKeyPair" || bbsErr.Code != 42 {
		t.Fatalf("unexpected op/code: %s/%d", bbsErr.Op, bbsErr.Code)
	}
	if !strings.Contains(err.Error(), "native exploded") {
		t.Fatalf("native message lost: %v", err)
	}

	// The error message string is native memory and must be released too.
	sc.close()
	if mock.Outstanding() != 0 {
		t.Fatalf("error message buffer leaked: %d outstanding", mock.Outstanding())
	}
}

func TestScopeTrackIsExactlyOnce(t *testing.T) {
	_, mock := newTestLibrary(t)
	sc := newScope("Sign", mock)

	buf, err := sc.reference([]byte("once"))
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	// Re-registering the same native pointer must not double-release it.
	sc.track(buf, originCaller)
	sc.close()
	sc.close() // idempotent

	if mis := mock.Misfrees(); len(mis) != 0 {
		t.Fatalf("double release detected: %v", mis)
	}
}
