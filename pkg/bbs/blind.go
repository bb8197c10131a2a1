package bbs

import (
	"context"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
	"github.com/mattrglobal/bbs-go/pkg/bbs/logging"
)

// checkIndexed rejects duplicate indices before anything crosses the
// boundary.
func checkIndexed(op string, messages []IndexedMessage) error {
	seen := make(map[uint32]bool, len(messages))
	for _, m := range messages {
		if seen[m.Index] {
			return errorf(op, "%w: duplicate message index %d", ErrInvalidParameter, m.Index)
		}
		seen[m.Index] = true
	}
	return nil
}

// CreateBlindedCommitmentParams contains parameters for committing to hidden
// messages ahead of blind signing.
type CreateBlindedCommitmentParams struct {
	// PublicKey is the signer's messages-specific key for the full vector
	// length, hidden and known messages combined.
	PublicKey []byte
	// Messages are the messages the holder hides from the signer, pinned to
	// their positions in the full vector.
	Messages []IndexedMessage
	// Nonce binds the commitment to one issuance exchange.
	Nonce []byte
}

// CreateBlindedCommitmentResult contains the holder-side commitment outputs.
type CreateBlindedCommitmentResult struct {
	BlindedCommitment *BlindedCommitment
}

// CreateBlindedCommitment commits to the hidden messages. The commitment and
// context go to the signer; the blinding factor stays with the holder for
// unblinding the eventual signature.
func (l *Library) CreateBlindedCommitment(ctx context.Context, params *CreateBlindedCommitmentParams) (*CreateBlindedCommitmentResult, error) {
	const op = "CreateBlindedCommitment"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.PublicKey) == 0 {
		return nil, errorf(op, "%w: public key is required", ErrInvalidParameter)
	}
	if len(params.Messages) == 0 {
		return nil, localError(op, ErrNoMessages)
	}
	if err := checkIndexed(op, params.Messages); err != nil {
		return nil, err
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.BlindCommitmentInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m.Message))
		if err != nil {
			return nil, err
		}
		index := m.Index
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.BlindCommitmentAddMessage(h, index, buf)
		}); err != nil {
			return nil, err
		}
	}
	nonce, err := sc.reference(params.Nonce)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.BlindCommitmentSetNonce(h, nonce)
	}); err != nil {
		return nil, err
	}
	pub, err := sc.reference(params.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.BlindCommitmentSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}

	outs, err := p.finishBuffers(func(h backend.Handle) ([]backend.Buffer, backend.RawError) {
		commitment, commitmentCtx, blindingFactor, raw := l.api.BlindCommitmentFinish(h)
		return []backend.Buffer{commitment, commitmentCtx, blindingFactor}, raw
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug(ctx, "created blinded commitment",
		"op", op,
		"hidden_count", len(params.Messages),
		logging.Redacted("blinding_factor"),
	)
	return &CreateBlindedCommitmentResult{
		BlindedCommitment: &BlindedCommitment{
			Commitment:     outs[0],
			Context:        outs[1],
			BlindingFactor: outs[2],
		},
	}, nil
}

// BlindSignParams contains parameters for signing over a commitment.
type BlindSignParams struct {
	// KeyPair must carry the secret key and the messages-specific public key
	// for the full vector length.
	KeyPair *KeyPair
	// Commitment is the holder's commitment to the hidden messages.
	Commitment []byte
	// Messages are the signer-known messages, pinned to their positions in
	// the full vector. Together with the committed messages they must fill
	// the vector exactly.
	Messages []IndexedMessage
}

// BlindSignResult contains the blind signature. The holder turns it into a
// regular signature with UnblindSignature.
type BlindSignResult struct {
	BlindSignature []byte
}

// BlindSign signs the combination of the committed hidden messages and the
// signer-known messages without ever seeing the hidden ones.
func (l *Library) BlindSign(ctx context.Context, params *BlindSignParams) (*BlindSignResult, error) {
	const op = "BlindSign"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || params.KeyPair == nil || len(params.KeyPair.PublicKey) == 0 {
		return nil, errorf(op, "%w: key pair with a public key is required", ErrInvalidParameter)
	}
	if !params.KeyPair.HasSecretKey() {
		return nil, localError(op, ErrMissingSecretKey)
	}
	if len(params.Commitment) == 0 {
		return nil, errorf(op, "%w: commitment is required", ErrInvalidParameter)
	}
	if err := checkIndexed(op, params.Messages); err != nil {
		return nil, err
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.BlindSignInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m.Message))
		if err != nil {
			return nil, err
		}
		index := m.Index
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.BlindSignAddMessage(h, index, buf)
		}); err != nil {
			return nil, err
		}
	}
	pub, err := sc.reference(params.KeyPair.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.BlindSignSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}
	sec, err := sc.reference(params.KeyPair.SecretKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.BlindSignSetSecretKey(h, sec)
	}); err != nil {
		return nil, err
	}
	commitment, err := sc.reference(params.Commitment)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.BlindSignSetCommitment(h, commitment)
	}); err != nil {
		return nil, err
	}

	blindSig, err := p.finishBuffer(l.api.BlindSignFinish)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "blind signed",
		"op", op,
		"known_count", len(params.Messages),
		logging.Redacted("secret_key"),
	)
	return &BlindSignResult{BlindSignature: blindSig}, nil
}

// UnblindSignatureParams contains parameters for unblinding a blind
// signature.
type UnblindSignatureParams struct {
	BlindSignature []byte
	// BlindingFactor is the holder's factor from CreateBlindedCommitment.
	BlindingFactor []byte
}

// UnblindSignatureResult contains the regular signature.
type UnblindSignatureResult struct {
	Signature []byte
}

// UnblindSignature turns a blind signature into a regular one that verifies
// against the full message vector. Stateless; no context protocol involved.
func (l *Library) UnblindSignature(ctx context.Context, params *UnblindSignatureParams) (*UnblindSignatureResult, error) {
	const op = "UnblindSignature"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.BlindSignature) == 0 {
		return nil, errorf(op, "%w: blind signature is required", ErrInvalidParameter)
	}
	if len(params.BlindingFactor) == 0 {
		return nil, errorf(op, "%w: blinding factor is required", ErrInvalidParameter)
	}

	sc := newScope(op, l.api)
	defer sc.close()

	blind, err := sc.reference(params.BlindSignature)
	if err != nil {
		return nil, err
	}
	factor, err := sc.reference(params.BlindingFactor)
	if err != nil {
		return nil, err
	}
	sig, raw := l.api.UnblindSignature(blind, factor)
	if err := sc.check(raw); err != nil {
		return nil, err
	}

	out := sc.dereference(sig)
	l.log.Debug(ctx, "unblinded signature", "op", op, logging.Redacted("blinding_factor"))
	return &UnblindSignatureResult{Signature: out}, nil
}

// VerifyBlindedCommitmentParams contains parameters for the signer-side check
// of a holder's commitment.
type VerifyBlindedCommitmentParams struct {
	// PublicKey is the signer's messages-specific key for the full vector
	// length.
	PublicKey []byte
	// Context is the commitment context produced by CreateBlindedCommitment.
	Context []byte
	// BlindedIndices are the vector positions the holder claims to have
	// committed.
	BlindedIndices []uint32
	// Nonce must match the nonce of the commitment exchange.
	Nonce []byte
}

// VerifyBlindedCommitmentResult contains the verification status.
type VerifyBlindedCommitmentResult struct {
	Status SignatureProofStatus
}

// VerifyBlindedCommitment checks that a commitment context is well formed for
// the claimed blinded positions before the signer blind-signs it.
func (l *Library) VerifyBlindedCommitment(ctx context.Context, params *VerifyBlindedCommitmentParams) (*VerifyBlindedCommitmentResult, error) {
	const op = "VerifyBlindedCommitment"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.PublicKey) == 0 {
		return nil, errorf(op, "%w: public key is required", ErrInvalidParameter)
	}
	if len(params.Context) == 0 {
		return nil, errorf(op, "%w: commitment context is required", ErrInvalidParameter)
	}
	if len(params.BlindedIndices) == 0 {
		return nil, errorf(op, "%w: at least one blinded index is required", ErrInvalidParameter)
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.VerifyBlindCommitmentInit); err != nil {
		return nil, err
	}
	for _, index := range params.BlindedIndices {
		index := index
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.VerifyBlindCommitmentAddBlindedIndex(h, index)
		}); err != nil {
			return nil, err
		}
	}
	nonce, err := sc.reference(params.Nonce)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyBlindCommitmentSetNonce(h, nonce)
	}); err != nil {
		return nil, err
	}
	proof, err := sc.reference(params.Context)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyBlindCommitmentSetProof(h, proof)
	}); err != nil {
		return nil, err
	}
	pub, err := sc.reference(params.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyBlindCommitmentSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}

	code, err := p.finishStatus(l.api.VerifyBlindCommitmentFinish)
	if err != nil {
		return nil, err
	}
	status, err := statusFromCode(op, code)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "verified blinded commitment",
		"op", op,
		"blinded_count", len(params.BlindedIndices),
		"status", status.String(),
	)
	return &VerifyBlindedCommitmentResult{Status: status}, nil
}
