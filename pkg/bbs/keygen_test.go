package bbs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairDeterministicFromSeed(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	first, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("test-seed")})
	require.NoError(t, err)
	second, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("test-seed")})
	require.NoError(t, err)

	require.Equal(t, first.KeyPair.PublicKey, second.KeyPair.PublicKey)
	require.Equal(t, first.KeyPair.SecretKey, second.KeyPair.SecretKey)
	require.Len(t, first.KeyPair.SecretKey, lib.SecretKeySize())
	require.Len(t, first.KeyPair.PublicKey, lib.PublicKeySize())

	other, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("other-seed")})
	require.NoError(t, err)
	require.NotEqual(t, first.KeyPair.PublicKey, other.KeyPair.PublicKey)
}

func TestGenerateKeyPairFreshEntropyWithoutSeed(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	first, err := lib.GenerateKeyPair(ctx, nil)
	require.NoError(t, err)
	second, err := lib.GenerateKeyPair(ctx, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.KeyPair.PublicKey, second.KeyPair.PublicKey)
}

func TestSizesAreFixed(t *testing.T) {
	lib, _ := newTestLibrary(t)
	require.Equal(t, 32, lib.SecretKeySize())
	require.Equal(t, 96, lib.PublicKeySize())
	require.Equal(t, 112, lib.SignatureSize())
	require.Equal(t, 112, lib.BlindSignatureSize())
}

func TestPublicKeyForMessages(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	keyRes, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("test-seed")})
	require.NoError(t, err)

	forTwo, err := lib.PublicKeyForMessages(ctx, keyRes.KeyPair, 2)
	require.NoError(t, err)
	forThree, err := lib.PublicKeyForMessages(ctx, keyRes.KeyPair, 3)
	require.NoError(t, err)
	require.NotEqual(t, forTwo, forThree, "message count must be bound into the key")

	// Derivation is repeatable, never cached.
	again, err := lib.PublicKeyForMessages(ctx, keyRes.KeyPair, 2)
	require.NoError(t, err)
	require.Equal(t, forTwo, again)
}

func TestPublicKeyForMessagesValidation(t *testing.T) {
	ctx := context.Background()
	lib, mock := newTestLibrary(t)

	keyRes, err := lib.GenerateKeyPair(ctx, &GenerateKeyPairParams{Seed: []byte("test-seed")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		keyPair *KeyPair
		count   uint32
		want    error
	}{
		{name: "nil key pair", keyPair: nil, count: 2, want: ErrInvalidParameter},
		{name: "empty public key", keyPair: &KeyPair{}, count: 2, want: ErrInvalidParameter},
		{name: "zero message count", keyPair: keyRes.KeyPair, count: 0, want: ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(mock.Calls())
			_, err := lib.PublicKeyForMessages(ctx, tt.keyPair, tt.count)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, before, len(mock.Calls()), "local validation must not reach the native boundary")
		})
	}
}

func TestPublicKeyForMessagesUnknownKey(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	_, err := lib.PublicKeyForMessages(ctx, &KeyPair{PublicKey: []byte("not a registered key")}, 2)
	var bbsErr *Error
	require.ErrorAs(t, err, &bbsErr)
	require.NotZero(t, bbsErr.Code, "unknown key is a native failure, not a local one")
}

func TestClosedLibraryRefusesOperations(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t)

	require.NoError(t, lib.Close())
	require.ErrorIs(t, lib.Close(), ErrLibraryClosed)

	_, err := lib.GenerateKeyPair(ctx, nil)
	require.ErrorIs(t, err, ErrLibraryClosed)
	_, err = lib.Sign(ctx, &SignParams{})
	require.ErrorIs(t, err, ErrLibraryClosed)
}

func TestNilLibraryCloseIsSafe(t *testing.T) {
	var lib *Library
	if err := lib.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if err := lib.usable("Sign"); !errors.Is(err, ErrLibraryClosed) {
		t.Fatalf("nil library usable: %v", err)
	}
}
