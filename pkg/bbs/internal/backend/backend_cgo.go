//go:build cgo && !windows

package backend

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../native/include -I/usr/local/include
#cgo LDFLAGS: -L${SRCDIR}/../../../../native/lib -L/usr/local/lib -lbbs
#include <stdlib.h>
#include <string.h>
#include "bbs.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// nativeLibrary implements API on top of the linked libbbs artifact.
type nativeLibrary struct{}

// Default returns the cgo-backed native library.
func Default() (API, error) {
	return nativeLibrary{}, nil
}

func cBuffer(b Buffer) C.ByteBuffer {
	var cb C.ByteBuffer
	cb.len = C.int64_t(b.Len)
	//nolint:govet // reconstructing a C pointer previously captured as uintptr
	cb.data = (*C.uint8_t)(unsafe.Pointer(b.Ptr))
	return cb
}

func goBuffer(cb C.ByteBuffer) Buffer {
	return Buffer{
		Ptr: uintptr(unsafe.Pointer(cb.data)),
		Len: int64(cb.len),
	}
}

func rawError(e C.ExternError) RawError {
	re := RawError{Code: int32(e.code)}
	if e.message != nil {
		re.Message = Buffer{
			Ptr: uintptr(unsafe.Pointer(e.message)),
			Len: int64(C.strlen(e.message)),
		}
	}
	return re
}

func (nativeLibrary) Alloc(data []byte) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, nil
	}
	p := C.malloc(C.size_t(len(data)))
	if p == nil {
		return Buffer{}, errors.New("bbs: native allocation failed")
	}
	C.memcpy(p, unsafe.Pointer(&data[0]), C.size_t(len(data)))
	return Buffer{Ptr: uintptr(p), Len: int64(len(data))}, nil
}

func (nativeLibrary) Read(buf Buffer) []byte {
	if buf.IsNil() || buf.Len <= 0 {
		return nil
	}
	//nolint:govet // reconstructing a C pointer previously captured as uintptr
	return C.GoBytes(unsafe.Pointer(buf.Ptr), C.int(buf.Len))
}

// Release frees a buffer produced by Alloc. The memory is zeroed first since
// inputs may carry secret key material.
func (nativeLibrary) Release(buf Buffer) {
	if buf.IsNil() {
		return
	}
	//nolint:govet // reconstructing a C pointer previously captured as uintptr
	p := unsafe.Pointer(buf.Ptr)
	if buf.Len > 0 {
		C.memset(p, 0, C.size_t(buf.Len))
	}
	C.free(p)
}

func (nativeLibrary) FreeByteBuffer(buf Buffer) {
	if buf.IsNil() {
		return
	}
	C.bbs_byte_buffer_free(cBuffer(buf))
}

func (nativeLibrary) FreeString(buf Buffer) {
	if buf.IsNil() {
		return
	}
	//nolint:govet // reconstructing a C pointer previously captured as uintptr
	C.bbs_string_free((*C.char)(unsafe.Pointer(buf.Ptr)))
}

func (nativeLibrary) SecretKeySize() int      { return int(C.bls_secret_key_size()) }
func (nativeLibrary) PublicKeySize() int      { return int(C.bls_public_key_g2_size()) }
func (nativeLibrary) SignatureSize() int      { return int(C.bbs_signature_size()) }
func (nativeLibrary) BlindSignatureSize() int { return int(C.bbs_blind_signature_size()) }

func (nativeLibrary) GenerateKey(seed Buffer) (Buffer, Buffer, RawError) {
	var pub, sec C.ByteBuffer
	var e C.ExternError
	C.bls_generate_g2_key(cBuffer(seed), &pub, &sec, &e)
	return goBuffer(pub), goBuffer(sec), rawError(e)
}

func (nativeLibrary) PublicKeyToMessagesKey(publicKey Buffer, messageCount uint32) (Buffer, RawError) {
	var out C.ByteBuffer
	var e C.ExternError
	C.bls_public_key_to_bbs_key(cBuffer(publicKey), C.uint32_t(messageCount), &out, &e)
	return goBuffer(out), rawError(e)
}

func (nativeLibrary) SignInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_sign_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) SignAddMessage(h Handle, msg Buffer) RawError {
	var e C.ExternError
	C.bbs_sign_context_add_message_bytes(C.uint64_t(h), cBuffer(msg), &e)
	return rawError(e)
}

func (nativeLibrary) SignSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_sign_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) SignSetSecretKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_sign_context_set_secret_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) SignFinish(h Handle) (Buffer, RawError) {
	var sig C.ByteBuffer
	var e C.ExternError
	C.bbs_sign_context_finish(C.uint64_t(h), &sig, &e)
	return goBuffer(sig), rawError(e)
}

func (nativeLibrary) VerifyInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_verify_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) VerifyAddMessage(h Handle, msg Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_context_add_message_bytes(C.uint64_t(h), cBuffer(msg), &e)
	return rawError(e)
}

func (nativeLibrary) VerifySetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) VerifySetSignature(h Handle, sig Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_context_set_signature(C.uint64_t(h), cBuffer(sig), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyFinish(h Handle) (bool, RawError) {
	var e C.ExternError
	status := C.bbs_verify_context_finish(C.uint64_t(h), &e)
	return int32(status) == 200, rawError(e)
}

func (nativeLibrary) BlindCommitmentInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_blind_commitment_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) BlindCommitmentAddMessage(h Handle, index uint32, msg Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_commitment_context_add_message_bytes(C.uint64_t(h), C.uint32_t(index), cBuffer(msg), &e)
	return rawError(e)
}

func (nativeLibrary) BlindCommitmentSetNonce(h Handle, nonce Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_commitment_context_set_nonce_bytes(C.uint64_t(h), cBuffer(nonce), &e)
	return rawError(e)
}

func (nativeLibrary) BlindCommitmentSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_commitment_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) BlindCommitmentFinish(h Handle) (Buffer, Buffer, Buffer, RawError) {
	var commitment, outContext, blinding C.ByteBuffer
	var e C.ExternError
	C.bbs_blind_commitment_context_finish(C.uint64_t(h), &commitment, &outContext, &blinding, &e)
	return goBuffer(commitment), goBuffer(outContext), goBuffer(blinding), rawError(e)
}

func (nativeLibrary) BlindSignInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_blind_sign_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) BlindSignAddMessage(h Handle, index uint32, msg Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_sign_context_add_message_bytes(C.uint64_t(h), C.uint32_t(index), cBuffer(msg), &e)
	return rawError(e)
}

func (nativeLibrary) BlindSignSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_sign_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) BlindSignSetSecretKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_sign_context_set_secret_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) BlindSignSetCommitment(h Handle, commitment Buffer) RawError {
	var e C.ExternError
	C.bbs_blind_sign_context_set_commitment(C.uint64_t(h), cBuffer(commitment), &e)
	return rawError(e)
}

func (nativeLibrary) BlindSignFinish(h Handle) (Buffer, RawError) {
	var sig C.ByteBuffer
	var e C.ExternError
	C.bbs_blind_sign_context_finish(C.uint64_t(h), &sig, &e)
	return goBuffer(sig), rawError(e)
}

func (nativeLibrary) CreateProofInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_create_proof_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) CreateProofAddProofMessage(h Handle, msg Buffer, proofType int32, blindingFactor Buffer) RawError {
	var e C.ExternError
	C.bbs_create_proof_context_add_proof_message_bytes(C.uint64_t(h), cBuffer(msg), C.int32_t(proofType), cBuffer(blindingFactor), &e)
	return rawError(e)
}

func (nativeLibrary) CreateProofSetNonce(h Handle, nonce Buffer) RawError {
	var e C.ExternError
	C.bbs_create_proof_context_set_nonce_bytes(C.uint64_t(h), cBuffer(nonce), &e)
	return rawError(e)
}

func (nativeLibrary) CreateProofSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_create_proof_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) CreateProofSetSignature(h Handle, sig Buffer) RawError {
	var e C.ExternError
	C.bbs_create_proof_context_set_signature(C.uint64_t(h), cBuffer(sig), &e)
	return rawError(e)
}

func (nativeLibrary) CreateProofFinish(h Handle) (Buffer, RawError) {
	var proof C.ByteBuffer
	var e C.ExternError
	C.bbs_create_proof_context_finish(C.uint64_t(h), &proof, &e)
	return goBuffer(proof), rawError(e)
}

func (nativeLibrary) VerifyProofInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_verify_proof_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) VerifyProofAddMessage(h Handle, msg Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_proof_context_add_message_bytes(C.uint64_t(h), cBuffer(msg), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyProofAddRevealedIndex(h Handle, index uint32) RawError {
	var e C.ExternError
	C.bbs_verify_proof_context_add_revealed_index(C.uint64_t(h), C.uint32_t(index), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyProofSetNonce(h Handle, nonce Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_proof_context_set_nonce_bytes(C.uint64_t(h), cBuffer(nonce), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyProofSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_proof_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyProofSetProof(h Handle, proof Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_proof_context_set_proof(C.uint64_t(h), cBuffer(proof), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyProofFinish(h Handle) (int32, RawError) {
	var e C.ExternError
	status := C.bbs_verify_proof_context_finish(C.uint64_t(h), &e)
	return int32(status), rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentInit() (Handle, RawError) {
	var e C.ExternError
	h := C.bbs_verify_blind_commitment_context_init(&e)
	return Handle(h), rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentAddBlindedIndex(h Handle, index uint32) RawError {
	var e C.ExternError
	C.bbs_verify_blind_commitment_context_add_blinded(C.uint64_t(h), C.uint32_t(index), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentSetNonce(h Handle, nonce Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_blind_commitment_context_set_nonce_bytes(C.uint64_t(h), cBuffer(nonce), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentSetProof(h Handle, proof Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_blind_commitment_context_set_proof(C.uint64_t(h), cBuffer(proof), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentSetPublicKey(h Handle, key Buffer) RawError {
	var e C.ExternError
	C.bbs_verify_blind_commitment_context_set_public_key(C.uint64_t(h), cBuffer(key), &e)
	return rawError(e)
}

func (nativeLibrary) VerifyBlindCommitmentFinish(h Handle) (int32, RawError) {
	var e C.ExternError
	status := C.bbs_verify_blind_commitment_context_finish(C.uint64_t(h), &e)
	return int32(status), rawError(e)
}

func (nativeLibrary) UnblindSignature(blindSignature, blindingFactor Buffer) (Buffer, RawError) {
	var sig C.ByteBuffer
	var e C.ExternError
	C.bbs_unblind_signature(cBuffer(blindSignature), cBuffer(blindingFactor), &sig, &e)
	return goBuffer(sig), rawError(e)
}
