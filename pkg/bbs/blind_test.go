package bbs

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// runBlindFlow drives the full issuance exchange: the holder commits to the
// hidden messages, the signer checks the commitment and blind-signs the known
// remainder, and the holder unblinds.
func runBlindFlow(t *testing.T, fx *fixture, nonce []byte) *UnblindSignatureResult {
	t.Helper()
	ctx := context.Background()

	commitRes, err := fx.lib.CreateBlindedCommitment(ctx, &CreateBlindedCommitmentParams{
		PublicKey: fx.messagesKey,
		Messages: []IndexedMessage{
			{Index: 0, Message: fx.messages[0]},
			{Index: 1, Message: fx.messages[1]},
		},
		Nonce: nonce,
	})
	if err != nil {
		t.Fatalf("CreateBlindedCommitment: %v", err)
	}
	bc := commitRes.BlindedCommitment

	checkRes, err := fx.lib.VerifyBlindedCommitment(ctx, &VerifyBlindedCommitmentParams{
		PublicKey:      fx.messagesKey,
		Context:        bc.Context,
		BlindedIndices: []uint32{0, 1},
		Nonce:          nonce,
	})
	if err != nil {
		t.Fatalf("VerifyBlindedCommitment: %v", err)
	}
	if !checkRes.Status.Verified() {
		t.Fatalf("commitment rejected: %v", checkRes.Status)
	}

	blindRes, err := fx.lib.BlindSign(ctx, &BlindSignParams{
		KeyPair:    &KeyPair{PublicKey: fx.messagesKey, SecretKey: fx.keyPair.SecretKey},
		Commitment: bc.Commitment,
		Messages:   []IndexedMessage{{Index: 2, Message: fx.messages[2]}},
	})
	if err != nil {
		t.Fatalf("BlindSign: %v", err)
	}
	if len(blindRes.BlindSignature) != fx.lib.BlindSignatureSize() {
		t.Fatalf("blind signature length %d", len(blindRes.BlindSignature))
	}

	unblindRes, err := fx.lib.UnblindSignature(ctx, &UnblindSignatureParams{
		BlindSignature: blindRes.BlindSignature,
		BlindingFactor: bc.BlindingFactor,
	})
	if err != nil {
		t.Fatalf("UnblindSignature: %v", err)
	}
	return unblindRes
}

func TestBlindSignRoundTrip(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"hidden_1", "hidden_2", "known_3"})

	unblinded := runBlindFlow(t, fx, []byte("issuance-nonce"))

	res, err := fx.lib.Verify(ctx, &VerifyParams{
		PublicKey: fx.messagesKey,
		Messages:  fx.messages,
		Signature: unblinded.Signature,
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Verified {
		t.Fatal("unblinded signature should verify over the full vector")
	}

	// The unblinded signature matches a direct signature over the same
	// vector: blinding is transparent to the verifier.
	if !bytes.Equal(unblinded.Signature, fx.signature) {
		t.Fatal("unblinded signature differs from a direct signature")
	}
}

func TestVerifyBlindedCommitmentWrongNonce(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"hidden_1", "hidden_2", "known_3"})

	commitRes, err := fx.lib.CreateBlindedCommitment(ctx, &CreateBlindedCommitmentParams{
		PublicKey: fx.messagesKey,
		Messages:  []IndexedMessage{{Index: 0, Message: "hidden_1"}},
		Nonce:     []byte("issuance-nonce"),
	})
	if err != nil {
		t.Fatalf("CreateBlindedCommitment: %v", err)
	}

	checkRes, err := fx.lib.VerifyBlindedCommitment(ctx, &VerifyBlindedCommitmentParams{
		PublicKey:      fx.messagesKey,
		Context:        commitRes.BlindedCommitment.Context,
		BlindedIndices: []uint32{0},
		Nonce:          []byte("replayed-nonce"),
	})
	if err != nil {
		t.Fatalf("VerifyBlindedCommitment: %v", err)
	}
	if checkRes.Status != StatusBadSignature {
		t.Fatalf("expected BadSignature for a replayed nonce, got %v", checkRes.Status)
	}
}

func TestBlindSignOverlappingIndexIsNativeError(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"hidden_1", "hidden_2", "known_3"})

	commitRes, err := fx.lib.CreateBlindedCommitment(ctx, &CreateBlindedCommitmentParams{
		PublicKey: fx.messagesKey,
		Messages:  []IndexedMessage{{Index: 0, Message: "hidden_1"}},
		Nonce:     []byte("n"),
	})
	if err != nil {
		t.Fatalf("CreateBlindedCommitment: %v", err)
	}

	// Index 0 is already committed by the holder.
	_, err = fx.lib.BlindSign(ctx, &BlindSignParams{
		KeyPair:    &KeyPair{PublicKey: fx.messagesKey, SecretKey: fx.keyPair.SecretKey},
		Commitment: commitRes.BlindedCommitment.Commitment,
		Messages: []IndexedMessage{
			{Index: 0, Message: "clobber"},
			{Index: 1, Message: "known_2"},
			{Index: 2, Message: "known_3"},
		},
	})
	var bbsErr *Error
	if !errors.As(err, &bbsErr) || bbsErr.Code == 0 {
		t.Fatalf("expected native failure for overlapping index, got %v", err)
	}
}

func TestBlindSignIncompleteVectorIsNativeError(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"hidden_1", "hidden_2", "known_3"})

	commitRes, err := fx.lib.CreateBlindedCommitment(ctx, &CreateBlindedCommitmentParams{
		PublicKey: fx.messagesKey,
		Messages:  []IndexedMessage{{Index: 0, Message: "hidden_1"}},
		Nonce:     []byte("n"),
	})
	if err != nil {
		t.Fatalf("CreateBlindedCommitment: %v", err)
	}

	// Key is for three messages; only indices 0 (hidden) and 2 are supplied.
	_, err = fx.lib.BlindSign(ctx, &BlindSignParams{
		KeyPair:    &KeyPair{PublicKey: fx.messagesKey, SecretKey: fx.keyPair.SecretKey},
		Commitment: commitRes.BlindedCommitment.Commitment,
		Messages:   []IndexedMessage{{Index: 2, Message: "known_3"}},
	})
	var bbsErr *Error
	if !errors.As(err, &bbsErr) || bbsErr.Code == 0 {
		t.Fatalf("expected native failure for incomplete vector, got %v", err)
	}
}

func TestCreateBlindedCommitmentDuplicateIndexFailsFast(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"hidden_1", "hidden_2", "known_3"})

	before := len(fx.mock.Calls())
	_, err := fx.lib.CreateBlindedCommitment(ctx, &CreateBlindedCommitmentParams{
		PublicKey: fx.messagesKey,
		Messages: []IndexedMessage{
			{Index: 1, Message: "a"},
			{Index: 1, Message: "b"},
		},
		Nonce: []byte("n"),
	})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if got := len(fx.mock.Calls()); got != before {
		t.Fatal("local validation reached the native boundary")
	}
}

func TestUnblindSignatureValidation(t *testing.T) {
	ctx := context.Background()
	fx := newSignedFixture(t, []string{"m"})

	_, err := fx.lib.UnblindSignature(ctx, &UnblindSignatureParams{BlindingFactor: []byte("bf")})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("missing blind signature: %v", err)
	}
	_, err = fx.lib.UnblindSignature(ctx, &UnblindSignatureParams{BlindSignature: fx.signature})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("missing blinding factor: %v", err)
	}
}
