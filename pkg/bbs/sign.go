package bbs

import (
	"context"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
	"github.com/mattrglobal/bbs-go/pkg/bbs/logging"
)

// SignParams contains parameters for signing a message vector.
type SignParams struct {
	// KeyPair must carry the secret key and the messages-specific public key
	// from PublicKeyForMessages for exactly len(Messages) messages.
	KeyPair *KeyPair
	// Messages is the full ordered message vector. Order is part of what is
	// signed: reordering produces a different, equally valid signature.
	Messages []string
}

// SignResult contains the output of signing.
type SignResult struct {
	Signature []byte
}

// Sign produces a BBS signature over the message vector.
func (l *Library) Sign(ctx context.Context, params *SignParams) (*SignResult, error) {
	const op = "Sign"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || params.KeyPair == nil || len(params.KeyPair.PublicKey) == 0 {
		return nil, errorf(op, "%w: key pair with a public key is required", ErrInvalidParameter)
	}
	if !params.KeyPair.HasSecretKey() {
		return nil, localError(op, ErrMissingSecretKey)
	}
	if len(params.Messages) == 0 {
		return nil, localError(op, ErrNoMessages)
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.SignInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m))
		if err != nil {
			return nil, err
		}
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.SignAddMessage(h, buf)
		}); err != nil {
			return nil, err
		}
	}
	pub, err := sc.reference(params.KeyPair.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.SignSetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}
	sec, err := sc.reference(params.KeyPair.SecretKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.SignSetSecretKey(h, sec)
	}); err != nil {
		return nil, err
	}

	sig, err := p.finishBuffer(l.api.SignFinish)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "signed message vector",
		"op", op,
		"message_count", len(params.Messages),
		logging.Redacted("secret_key"),
	)
	return &SignResult{Signature: sig}, nil
}

// VerifyParams contains parameters for verifying a signature.
type VerifyParams struct {
	// PublicKey is the messages-specific key for exactly len(Messages)
	// messages.
	PublicKey []byte
	// Messages is the full ordered message vector the signature was created
	// over.
	Messages  []string
	Signature []byte
}

// VerifyResult contains the verification verdict.
type VerifyResult struct {
	Verified bool
}

// Verify checks a BBS signature over the message vector. A signature that
// simply does not match yields Verified=false and a nil error; structural
// failures (wrong key shape, message count mismatch) surface as errors.
func (l *Library) Verify(ctx context.Context, params *VerifyParams) (*VerifyResult, error) {
	const op = "Verify"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil || len(params.PublicKey) == 0 {
		return nil, errorf(op, "%w: public key is required", ErrInvalidParameter)
	}
	if len(params.Messages) == 0 {
		return nil, localError(op, ErrNoMessages)
	}
	if len(params.Signature) == 0 {
		return nil, errorf(op, "%w: signature is required", ErrInvalidParameter)
	}

	sc := newScope(op, l.api)
	defer sc.close()
	p := newProtocol(op, sc)

	if err := p.init(l.api.VerifyInit); err != nil {
		return nil, err
	}
	for _, m := range params.Messages {
		buf, err := sc.reference([]byte(m))
		if err != nil {
			return nil, err
		}
		if err := p.step(func(h backend.Handle) backend.RawError {
			return l.api.VerifyAddMessage(h, buf)
		}); err != nil {
			return nil, err
		}
	}
	pub, err := sc.reference(params.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifySetPublicKey(h, pub)
	}); err != nil {
		return nil, err
	}
	sig, err := sc.reference(params.Signature)
	if err != nil {
		return nil, err
	}
	if err := p.step(func(h backend.Handle) backend.RawError {
		return l.api.VerifySetSignature(h, sig)
	}); err != nil {
		return nil, err
	}

	verified, err := p.finishBool(l.api.VerifyFinish)
	if err != nil {
		return nil, err
	}
	l.log.Debug(ctx, "verified signature",
		"op", op,
		"message_count", len(params.Messages),
		"verified", verified,
	)
	return &VerifyResult{Verified: verified}, nil
}
