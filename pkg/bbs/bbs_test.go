package bbs

import (
	"context"
	"testing"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend/mocklib"
)

// newTestLibrary wires a Library over the in-process fake. Every test gets a
// free leak check: at cleanup the fake's arena must be empty and every
// release must have gone through the right deallocator.
func newTestLibrary(t *testing.T) (*Library, *mocklib.Library) {
	t.Helper()
	mock := mocklib.New()
	lib := newLibrary(mock, Config{})
	t.Cleanup(func() {
		if n := mock.Outstanding(); n != 0 {
			t.Errorf("%d boundary buffers leaked", n)
		}
		if mis := mock.Misfrees(); len(mis) != 0 {
			t.Errorf("buffers released through the wrong deallocator: %v", mis)
		}
	})
	return lib, mock
}

// fixture is a signed message vector ready for verification and proof tests.
type fixture struct {
	lib         *Library
	mock        *mocklib.Library
	keyPair     *KeyPair
	messagesKey []byte
	messages    []string
	signature   []byte
}

// newSignedFixture generates a seeded key pair, derives the messages key for
// the vector length, and signs the vector.
func newSignedFixture(t *testing.T, messages []string) *fixture {
	t.Helper()
	ctx := context.Background()
	lib, mock := newTestLibrary(t)

	keyRes, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("test-seed")})
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	messagesKey, err := lib.PublicKeyForMessages(ctx, keyRes.KeyPair, uint32(len(messages)))
	if err != nil {
		t.Fatalf("PublicKeyForMessages: %v", err)
	}
	signRes, err := lib.Sign(ctx, &SignParams{
		KeyPair:  &KeyPair{PublicKey: messagesKey, SecretKey: keyRes.KeyPair.SecretKey},
		Messages: messages,
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return &fixture{
		lib:         lib,
		mock:        mock,
		keyPair:     keyRes.KeyPair,
		messagesKey: messagesKey,
		messages:    messages,
		signature:   signRes.Signature,
	}
}
