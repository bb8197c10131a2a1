package bbs

// KeyPair is a seed-derived BLS12-381 key pair. SecretKey is nil for
// verify-only pairs; signing operations require it.
//
// SECURITY WARNING: SecretKey is sensitive material. Never log it, and
// zeroize serialized copies with ZeroizeBytes once they are no longer needed.
type KeyPair struct {
	PublicKey []byte
	SecretKey []byte
}

// HasSecretKey reports whether the pair can be used for signing.
func (k *KeyPair) HasSecretKey() bool {
	return k != nil && len(k.SecretKey) > 0
}

// IndexedMessage pins a message to its position in the signed message vector.
// Indices are zero-based and must be unique within one operation.
type IndexedMessage struct {
	Index   uint32
	Message string
}

// ProofMessageType selects how a message is treated when creating a proof.
// The values are the native contract values and must not be renumbered.
type ProofMessageType int32

const (
	// Revealed discloses the message to the verifier.
	Revealed ProofMessageType = 1
	// HiddenProofSpecificBlinding hides the message using a blinding tied to
	// this proof.
	HiddenProofSpecificBlinding ProofMessageType = 2
	// HiddenExternalBlinding hides the message using a caller-supplied
	// blinding factor.
	HiddenExternalBlinding ProofMessageType = 3
)

// String returns the string representation of the proof message type.
func (t ProofMessageType) String() string {
	switch t {
	case Revealed:
		return "Revealed"
	case HiddenProofSpecificBlinding:
		return "HiddenProofSpecificBlinding"
	case HiddenExternalBlinding:
		return "HiddenExternalBlinding"
	default:
		return "Unknown"
	}
}

func (t ProofMessageType) valid() bool {
	return t == Revealed || t == HiddenProofSpecificBlinding || t == HiddenExternalBlinding
}

// ProofMessage is one message of a signed vector together with its disclosure
// treatment. BlindingFactor is consulted only for HiddenExternalBlinding.
type ProofMessage struct {
	Message        string
	Type           ProofMessageType
	BlindingFactor []byte
}

// BlindedCommitment is the holder-side output of CreateBlindedCommitment:
// the commitment to send to the signer, the context proving the hidden
// messages are well formed, and the blinding factor the holder keeps to
// unblind the eventual signature.
type BlindedCommitment struct {
	Commitment     []byte
	Context        []byte
	BlindingFactor []byte
}

// SignatureProofStatus is the closed set of verification outcomes the native
// library reports for proofs and blinded commitments.
type SignatureProofStatus int32

const (
	// StatusSuccess means the proof verified.
	StatusSuccess SignatureProofStatus = 200
	// StatusBadSignature means the underlying signature did not verify.
	StatusBadSignature SignatureProofStatus = 400
	// StatusBadHiddenMessage means a hidden message failed its check.
	StatusBadHiddenMessage SignatureProofStatus = 401
	// StatusBadRevealedMessage means a revealed message failed its check.
	StatusBadRevealedMessage SignatureProofStatus = 402
)

// Verified reports whether the status is StatusSuccess.
func (s SignatureProofStatus) Verified() bool {
	return s == StatusSuccess
}

// String returns the string representation of the status.
func (s SignatureProofStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusBadSignature:
		return "BadSignature"
	case StatusBadHiddenMessage:
		return "BadHiddenMessage"
	case StatusBadRevealedMessage:
		return "BadRevealedMessage"
	default:
		return "Unknown"
	}
}

// statusFromCode maps a raw native status code onto the closed enum. A code
// outside the documented set is a contract violation, not a new status.
func statusFromCode(op string, code int32) (SignatureProofStatus, error) {
	switch s := SignatureProofStatus(code); s {
	case StatusSuccess, StatusBadSignature, StatusBadHiddenMessage, StatusBadRevealedMessage:
		return s, nil
	default:
		return 0, errorf(op, "%w: undocumented verification status %d", ErrContractViolation, code)
	}
}
