package backend

import "errors"

// ErrNotBuilt reports that the native libbbs bindings were not linked into
// the binary (built without cgo, or on an unsupported platform).
var ErrNotBuilt = errors.New("bbs: native bindings not built (cgo disabled or unsupported platform)")

// Handle is an opaque capability token referencing native-side state for one
// in-progress context protocol. Handles are meaningful only to the native
// side and must never be inspected or shared between operations.
type Handle uint64

// Buffer is the fixed-layout pointer+length pair that byte payloads use to
// cross the native boundary. The pointed-to memory is owned by whichever
// side allocated it; release always goes through the API deallocators.
type Buffer struct {
	Ptr uintptr
	Len int64
}

// IsNil reports whether the buffer references no native memory.
func (b Buffer) IsNil() bool { return b.Ptr == 0 }

// RawError is the out-parameter every fallible native call fills in.
// Code 0 means success. A nonzero code is accompanied by a native-allocated
// message string that must be released with FreeString like any other
// returned buffer.
type RawError struct {
	Code    int32
	Message Buffer
}

// Ok reports whether the native call succeeded.
func (e RawError) Ok() bool { return e.Code == 0 }

// API is the native call contract of libbbs, reproduced bit-exactly. Each
// method corresponds to one C entry point; the groupings mirror the seven
// context protocols plus the stateless calls.
//
// Ownership rules:
//   - Buffers passed in are created with Alloc and released with Release.
//   - Buffers handed back by finish calls, key generation, and error records
//     are native-allocated; release them with FreeByteBuffer (FreeString for
//     error messages).
//   - A Handle is consumed by its finish call. After any call on a handle
//     fails, native-side state is undefined and no further calls may use it.
type API interface {
	// Memory bridging.
	Alloc(data []byte) (Buffer, error)
	Read(buf Buffer) []byte
	Release(buf Buffer)
	FreeByteBuffer(buf Buffer)
	FreeString(buf Buffer)

	// Stateless size queries. Fixed positive values, no error parameter.
	SecretKeySize() int
	PublicKeySize() int
	SignatureSize() int
	BlindSignatureSize() int

	// Key generation and derivation.
	GenerateKey(seed Buffer) (publicKey, secretKey Buffer, rawErr RawError)
	PublicKeyToMessagesKey(publicKey Buffer, messageCount uint32) (Buffer, RawError)

	// Sign protocol.
	SignInit() (Handle, RawError)
	SignAddMessage(h Handle, msg Buffer) RawError
	SignSetPublicKey(h Handle, key Buffer) RawError
	SignSetSecretKey(h Handle, key Buffer) RawError
	SignFinish(h Handle) (Buffer, RawError)

	// Verify protocol.
	VerifyInit() (Handle, RawError)
	VerifyAddMessage(h Handle, msg Buffer) RawError
	VerifySetPublicKey(h Handle, key Buffer) RawError
	VerifySetSignature(h Handle, sig Buffer) RawError
	VerifyFinish(h Handle) (bool, RawError)

	// Blind commitment protocol.
	BlindCommitmentInit() (Handle, RawError)
	BlindCommitmentAddMessage(h Handle, index uint32, msg Buffer) RawError
	BlindCommitmentSetNonce(h Handle, nonce Buffer) RawError
	BlindCommitmentSetPublicKey(h Handle, key Buffer) RawError
	BlindCommitmentFinish(h Handle) (commitment, context, blindingFactor Buffer, rawErr RawError)

	// Blind sign protocol.
	BlindSignInit() (Handle, RawError)
	BlindSignAddMessage(h Handle, index uint32, msg Buffer) RawError
	BlindSignSetPublicKey(h Handle, key Buffer) RawError
	BlindSignSetSecretKey(h Handle, key Buffer) RawError
	BlindSignSetCommitment(h Handle, commitment Buffer) RawError
	BlindSignFinish(h Handle) (Buffer, RawError)

	// Create proof protocol.
	CreateProofInit() (Handle, RawError)
	CreateProofAddProofMessage(h Handle, msg Buffer, proofType int32, blindingFactor Buffer) RawError
	CreateProofSetNonce(h Handle, nonce Buffer) RawError
	CreateProofSetPublicKey(h Handle, key Buffer) RawError
	CreateProofSetSignature(h Handle, sig Buffer) RawError
	CreateProofFinish(h Handle) (Buffer, RawError)

	// Verify proof protocol.
	VerifyProofInit() (Handle, RawError)
	VerifyProofAddMessage(h Handle, msg Buffer) RawError
	VerifyProofAddRevealedIndex(h Handle, index uint32) RawError
	VerifyProofSetNonce(h Handle, nonce Buffer) RawError
	VerifyProofSetPublicKey(h Handle, key Buffer) RawError
	VerifyProofSetProof(h Handle, proof Buffer) RawError
	VerifyProofFinish(h Handle) (int32, RawError)

	// Verify blind commitment protocol.
	VerifyBlindCommitmentInit() (Handle, RawError)
	VerifyBlindCommitmentAddBlindedIndex(h Handle, index uint32) RawError
	VerifyBlindCommitmentSetNonce(h Handle, nonce Buffer) RawError
	VerifyBlindCommitmentSetProof(h Handle, proof Buffer) RawError
	VerifyBlindCommitmentSetPublicKey(h Handle, key Buffer) RawError
	VerifyBlindCommitmentFinish(h Handle) (int32, RawError)

	// Stateless transforms.
	UnblindSignature(blindSignature, blindingFactor Buffer) (Buffer, RawError)
}
