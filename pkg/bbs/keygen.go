package bbs

import (
	"context"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
	"github.com/mattrglobal/bbs-go/pkg/bbs/logging"
)

// GenerateKeyPairParams contains parameters for BLS key pair generation.
type GenerateKeyPairParams struct {
	// Seed optionally derives the pair deterministically. Nil or empty draws
	// fresh entropy inside the native library.
	Seed []byte
}

// GenerateKeyPairResult contains the output of BLS key pair generation.
type GenerateKeyPairResult struct {
	KeyPair *KeyPair
}

// GenerateKeyPair produces a BLS12-381 key pair, deterministically when a
// seed is supplied. The same seed always yields the same pair.
func (l *Library) GenerateKeyPair(ctx context.Context, params *GenerateKeyPairParams) (*GenerateKeyPairResult, error) {
	const op = "GenerateKeyPair"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if params == nil {
		params = &GenerateKeyPairParams{}
	}

	sc := newScope(op, l.api)
	defer sc.close()

	var seed backend.Buffer
	if len(params.Seed) > 0 {
		var err error
		if seed, err = sc.reference(params.Seed); err != nil {
			return nil, err
		}
	}

	pub, sec, raw := l.api.GenerateKey(seed)
	if err := sc.check(raw); err != nil {
		return nil, err
	}

	kp := &KeyPair{
		PublicKey: sc.dereference(pub),
		SecretKey: sc.dereference(sec),
	}
	l.log.Debug(ctx, "generated key pair",
		"op", op,
		"seeded", len(params.Seed) > 0,
		logging.Redacted("secret_key"),
	)
	return &GenerateKeyPairResult{KeyPair: kp}, nil
}

// PublicKeyForMessages derives the messages-specific bbs public key that
// signs and verifies vectors of exactly messageCount messages. The derived
// key is returned, not cached; callers derive it per message count.
func (l *Library) PublicKeyForMessages(ctx context.Context, keyPair *KeyPair, messageCount uint32) ([]byte, error) {
	const op = "PublicKeyForMessages"
	if err := l.usable(op); err != nil {
		return nil, err
	}
	if keyPair == nil || len(keyPair.PublicKey) == 0 {
		return nil, errorf(op, "%w: key pair with a public key is required", ErrInvalidParameter)
	}
	if messageCount == 0 {
		return nil, errorf(op, "%w: message count must be positive", ErrInvalidParameter)
	}

	sc := newScope(op, l.api)
	defer sc.close()

	pub, err := sc.reference(keyPair.PublicKey)
	if err != nil {
		return nil, err
	}
	derived, raw := l.api.PublicKeyToMessagesKey(pub, messageCount)
	if err := sc.check(raw); err != nil {
		return nil, err
	}

	out := sc.dereference(derived)
	l.log.Debug(ctx, "derived messages key", "op", op, "message_count", messageCount)
	return out, nil
}
