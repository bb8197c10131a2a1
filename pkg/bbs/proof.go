package bbs

import (
	"context"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
	"github.com/mattrglobal/bbs-go/pkg/bbs/logging"
)

// CreateProofParams contains parameters for deriving a selective-disclosure
// proof from a signature.
type CreateProofParams struct {
	// PublicKey is the messages-specific key for exactly len(Messages)
	// messages.
	PublicKey []byte
	// Signature is a valid signature over the full message vector.
	Signature []byte
	// Nonce binds the proof to one presentation exchange.
	Nonce []byte
	// Messages is the full ordered vector, each entry carrying its
	// disclosure treatment.
	Messages []ProofMessage
}

// CreateProofResult contains the proof.
type CreateProofResult struct {
	Proof []byte
}

// CreateProof derives a proof revealing only the messages marked Revealed.
func (l *Library) CreateProof(ctx context.Context, params *CreateProofParams) (*CreateProofResult, error) {
	const op = "CreateProof"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.PublicKey) == 0 {
		return nil, errorf(op, "%w: public key is required", ErrInvalidParameter)
	}
	if len(params.Signature) == 0 {
		return nil, errorf(op, "%w: signature is required", ErrInvalidParameter)
	}
	if len(params.Messages) == 0 {
		return nil, localError(op, ErrNoMessages)
	}
	revealed := 0
	for i, m := range params.Messages {
		if !m.Type.valid() {
			return nil, errorf(op, "%w: message %d has unknown proof type %d", ErrInvalidParameter, i, m.Type)
		}
		if m.Type == HiddenExternalBlinding && len(m.BlindingFactor) == 0 {
			return nil, errorf(op, "%w: message %d requires an external blinding factor", ErrInvalidParameter, i)
		}
		if m.Type == Revealed {
			revealed++
		}
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.CreateProofInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m.Message))
		if err != nil {
			return nil, err
		}
		var factor backend.Buffer
		if m.Type == HiddenExternalBlinding {
			if factor, err = sc.reference(m.BlindingFactor); err != nil {
				return nil, err
			}
		}
		proofType := int32(m.Type)
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.CreateProofAddProofMessage(h, buf, proofType, factor)
		}); err != nil {
			return nil, err
		}
	}
	nonce, err := sc.reference(params.Nonce)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.CreateProofSetNonce(h, nonce)
	}); err != nil {
		return nil, err
	}
	pub, err := sc.reference(params.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.CreateProofSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}
	sig, err := sc.reference(params.Signature)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.CreateProofSetSignature(h, sig)
	}); err != nil {
		return nil, err
	}

	proof, err := p.finishBuffer(l.api.CreateProofFinish)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "created proof",
		"op", op,
		"message_count", len(params.Messages),
		"revealed_count", revealed,
		logging.Redacted("signature"),
	)
	return &CreateProofResult{Proof: proof}, nil
}

// VerifyProofParams contains parameters for checking a selective-disclosure
// proof.
type VerifyProofParams struct {
	// PublicKey is the messages-specific key for the full vector length the
	// proof was derived over.
	PublicKey []byte
	Proof     []byte
	// Nonce must match the nonce of the presentation exchange.
	Nonce []byte
	// Messages are the revealed messages, pinned to their positions in the
	// full vector.
	Messages []IndexedMessage
}

// VerifyProofResult contains the verification status.
type VerifyProofResult struct {
	Status SignatureProofStatus
}

// VerifyProof checks a proof against the revealed messages. The outcome is a
// status, not a boolean: failures distinguish a bad signature from a bad
// hidden or revealed message.
func (l *Library) VerifyProof(ctx context.Context, params *VerifyProofParams) (*VerifyProofResult, error) {
	const op = "VerifyProof"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.PublicKey) == 0 {
		return nil, errorf(op, "%w: public key is required", ErrInvalidParameter)
	}
	if len(params.Proof) == 0 {
		return nil, errorf(op, "%w: proof is required", ErrInvalidParameter)
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

	if err := p.init(l.api.VerifyProofInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m.Message))
		if err != nil {
			return nil, err
		}
		index := m.Index
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.VerifyProofAddMessage(h, buf)
		}); err != nil {
			return nil, err
		}
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.VerifyProofAddRevealedIndex(h, index)
		}); err != nil {
			return nil, err
		}
	}
	nonce, err := sc.reference(params.Nonce)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyProofSetNonce(h, nonce)
	}); err != nil {
		return nil, err
	}
	pub, err := sc.reference(params.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyProofSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}
	proof, err := sc.reference(params.Proof)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifyProofSetProof(h, proof)
	}); err != nil {
		return nil, err
	}

	code, err := p.finishStatus(l.api.VerifyProofFinish)
	if err != nil {
		return nil, err
	}
	status, err := statusFromCode(op, code)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "verified proof",
		"op", op,
		"revealed_count", len(params.Messages),
		"status", status.String(),
	)
	return &VerifyProofResult{Status: status}, nil
}
