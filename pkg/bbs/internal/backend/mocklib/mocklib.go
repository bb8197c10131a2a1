package mocklib

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
)

// Fixed sizes reported by the fake library. They match the libbbs contract
// (BLS12-381 G2 keys, BBS+ signatures).
const (
	secretKeySize      = 32
	publicKeySize      = 96
	derivedKeySize     = 100
	signatureSize      = 112
	blindSignatureSize = 112
	commitmentSize     = 48
	blindingFactorSize = 32
	proofSize          = 64
)

// Native error codes produced by the fake library.
const (
	codeUnknownPublicKey     = 1
	codeMessageCountMismatch = 2
	codeSecretKeyMismatch    = 3
	codeInvalidSignature     = 4
	codeUnknownCommitment    = 5
	codeBadMessageIndex      = 6
	codeInvalidArgument      = 7
	codePairingMismatch      = 8
	codeUnknownHandle        = 9
)

type allocKind int

const (
	kindInput allocKind = iota
	kindByteBuffer
	kindString
)

type allocation struct {
	data []byte
	kind allocKind
}

type contextKind int

const (
	ctxSign contextKind = iota
	ctxVerify
	ctxBlindCommitment
	ctxBlindSign
	ctxCreateProof
	ctxVerifyProof
	ctxVerifyBlindCommitment
)

type indexedMessage struct {
	index   uint32
	message []byte
}

type proofMessage struct {
	message   []byte
	proofType int32
}

type contextState struct {
	kind          contextKind
	messages      [][]byte
	indexed       []indexedMessage
	proofMessages []proofMessage
	indices       []uint32
	publicKey     []byte
	secretKey     []byte
	nonce         []byte
	signature     []byte
	proof         []byte
	commitment    []byte
}

type keyRecord struct {
	secret       []byte
	messageCount uint32
	derived      bool
}

type commitmentRecord struct {
	hidden         []indexedMessage
	blindingFactor []byte
}

type injectedFailure struct {
	code    int32
	message string
}

// Library is an in-process stand-in for libbbs. It reproduces the call
// contract of backend.API — opaque handles, pointer+length buffers, error
// records with native-allocated messages — over a bookkeeping arena, so the
// bridging layer can be exercised without the native artifact.
//
// The cryptography is deterministic make-believe (BLAKE2b expansion keyed by
// the generated secrets), but it preserves the observable relationships the
// real library has: signatures verify only with the matching derived key and
// the original message vector, blind signatures unblind into verifiable
// signatures, and proofs check out only against the revealed set they were
// created for.
type Library struct {
	mu sync.Mutex

	arena    map[uintptr]allocation
	nextPtr  uintptr
	allocs   int
	misfrees []string

	contexts   map[backend.Handle]*contextState
	nextHandle backend.Handle

	keys        map[string]keyRecord
	commitments map[string]commitmentRecord

	failures        map[string]injectedFailure
	statusOverrides map[string]int32
	calls           []string
}

var _ backend.API = (*Library)(nil)

// New returns an empty fake library.
func New() *Library {
	return &Library{
		arena:       make(map[uintptr]allocation),
		nextPtr:     0x1000,
		contexts:    make(map[backend.Handle]*contextState),
		nextHandle:  1,
		keys:        make(map[string]keyRecord),
		commitments: make(map[string]commitmentRecord),
		failures:        make(map[string]injectedFailure),
		statusOverrides: make(map[string]int32),
	}
}

// FailOn makes every subsequent call to the named API method (e.g.
// "SignAddMessage") fail with the given native code and message until
// ClearFailures is called.
func (l *Library) FailOn(op string, code int32, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = injectedFailure{code: code, message: message}
}

// ClearFailures removes all injected failures and status overrides.
func (l *Library) ClearFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = make(map[string]injectedFailure)
	l.statusOverrides = make(map[string]int32)
}

// ReturnStatus forces the named finish call (e.g. "VerifyProofFinish") to
// report the given status code with a success error record.
func (l *Library) ReturnStatus(op string, status int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statusOverrides[op] = status
}

// Outstanding returns the number of arena buffers that have been handed out
// and not yet released. Zero after a facade call means leak freedom.
func (l *Library) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.arena)
}

// Allocations returns the total number of arena buffers ever handed out.
func (l *Library) Allocations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allocs
}

// Misfrees reports releases through the wrong deallocator or of unknown
// buffers. Always empty when the tracker honours buffer origins.
func (l *Library) Misfrees() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.misfrees...)
}

// Calls returns the API method names invoked so far, in order.
func (l *Library) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// expand derives n deterministic bytes from a label and length-prefixed
// parts using the BLAKE2b XOF.
func expand(label string, n int, parts ...[]byte) []byte {
	x, err := blake2b.NewXOF(uint32(n), nil)
	if err != nil {
		panic(err)
	}
	x.Write([]byte(label))
	var l [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(l[:], uint64(len(p)))
		x.Write(l[:])
		x.Write(p)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(x, out); err != nil {
		panic(err)
	}
	return out
}

func encodeIndexed(items []indexedMessage) []byte {
	var buf bytes.Buffer
	var tmp [8]byte
	for _, it := range items {
		binary.BigEndian.PutUint32(tmp[:4], it.index)
		buf.Write(tmp[:4])
		binary.BigEndian.PutUint64(tmp[:], uint64(len(it.message)))
		buf.Write(tmp[:])
		buf.Write(it.message)
	}
	return buf.Bytes()
}

func encodeIndices(indices []uint32) []byte {
	var buf bytes.Buffer
	var tmp [4]byte
	for _, idx := range indices {
		binary.BigEndian.PutUint32(tmp[:], idx)
		buf.Write(tmp[:])
	}
	return buf.Bytes()
}

func xorMask(data, mask []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ mask[i%len(mask)]
	}
	return out
}

// arena bookkeeping; callers hold l.mu.

func (l *Library) allocLocked(data []byte, kind allocKind) backend.Buffer {
	if len(data) == 0 {
		return backend.Buffer{}
	}
	ptr := l.nextPtr
	l.nextPtr += uintptr(len(data)) + 16
	l.arena[ptr] = allocation{data: append([]byte(nil), data...), kind: kind}
	l.allocs++
	return backend.Buffer{Ptr: ptr, Len: int64(len(data))}
}

func (l *Library) readLocked(buf backend.Buffer) []byte {
	if buf.IsNil() {
		return nil
	}
	entry, ok := l.arena[buf.Ptr]
	if !ok {
		return nil
	}
	return append([]byte(nil), entry.data...)
}

func (l *Library) freeLocked(buf backend.Buffer, kind allocKind, deallocator string) {
	if buf.IsNil() {
		return
	}
	entry, ok := l.arena[buf.Ptr]
	if !ok {
		l.misfrees = append(l.misfrees, fmt.Sprintf("%s: release of unknown buffer %#x", deallocator, buf.Ptr))
		return
	}
	if entry.kind != kind {
		l.misfrees = append(l.misfrees, fmt.Sprintf("%s: wrong deallocator for buffer %#x", deallocator, buf.Ptr))
	}
	delete(l.arena, buf.Ptr)
}

func (l *Library) errLocked(code int32, message string) backend.RawError {
	return backend.RawError{Code: code, Message: l.allocLocked([]byte(message), kindString)}
}

// enter records the call and returns an injected failure, if configured.
func (l *Library) enter(op string) (backend.RawError, bool) {
	l.calls = append(l.calls, op)
	if f, ok := l.failures[op]; ok {
		return l.errLocked(f.code, f.message), true
	}
	return backend.RawError{}, false
}

func (l *Library) contextLocked(h backend.Handle, kind contextKind) (*contextState, backend.RawError, bool) {
	ctx, ok := l.contexts[h]
	if !ok || ctx.kind != kind {
		return nil, l.errLocked(codeUnknownHandle, "unknown context handle"), false
	}
	return ctx, backend.RawError{}, true
}

// Memory bridging.

func (l *Library) Alloc(data []byte) (backend.Buffer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allocLocked(data, kindInput), nil
}

func (l *Library) Read(buf backend.Buffer) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked(buf)
}

func (l *Library) Release(buf backend.Buffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.freeLocked(buf, kindInput, "Release")
}

func (l *Library) FreeByteBuffer(buf backend.Buffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.freeLocked(buf, kindByteBuffer, "FreeByteBuffer")
}

func (l *Library) FreeString(buf backend.Buffer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.freeLocked(buf, kindString, "FreeString")
}

// Stateless size queries.

func (l *Library) SecretKeySize() int      { return secretKeySize }
func (l *Library) PublicKeySize() int      { return publicKeySize }
func (l *Library) SignatureSize() int      { return signatureSize }
func (l *Library) BlindSignatureSize() int { return blindSignatureSize }

// Key generation and derivation.

func (l *Library) GenerateKey(seed backend.Buffer) (backend.Buffer, backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("GenerateKey"); ok {
		return backend.Buffer{}, backend.Buffer{}, re
	}

	var secret []byte
	if seedBytes := l.readLocked(seed); len(seedBytes) > 0 {
		secret = expand("secret-key", secretKeySize, seedBytes)
	} else {
		secret = make([]byte, secretKeySize)
		if _, err := rand.Read(secret); err != nil {
			return backend.Buffer{}, backend.Buffer{}, l.errLocked(codeInvalidArgument, "entropy source failed")
		}
	}
	public := expand("public-key", publicKeySize, secret)
	l.keys[string(public)] = keyRecord{secret: secret}

	return l.allocLocked(public, kindByteBuffer), l.allocLocked(secret, kindByteBuffer), backend.RawError{}
}

func (l *Library) PublicKeyToMessagesKey(publicKey backend.Buffer, messageCount uint32) (backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("PublicKeyToMessagesKey"); ok {
		return backend.Buffer{}, re
	}

	pub := l.readLocked(publicKey)
	rec, ok := l.keys[string(pub)]
	if !ok || rec.derived {
		return backend.Buffer{}, l.errLocked(codeUnknownPublicKey, "unknown bls public key")
	}
	if messageCount == 0 {
		return backend.Buffer{}, l.errLocked(codeInvalidArgument, "message count must be positive")
	}
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], messageCount)
	derived := expand("bbs-key", derivedKeySize, pub, count[:])
	l.keys[string(derived)] = keyRecord{secret: rec.secret, messageCount: messageCount, derived: true}

	return l.allocLocked(derived, kindByteBuffer), backend.RawError{}
}

// derivedKeyLocked resolves a derived bbs key registered through
// PublicKeyToMessagesKey.
func (l *Library) derivedKeyLocked(pub []byte) (keyRecord, backend.RawError, bool) {
	rec, ok := l.keys[string(pub)]
	if !ok {
		return keyRecord{}, l.errLocked(codeUnknownPublicKey, "unknown bbs public key"), false
	}
	if !rec.derived {
		return keyRecord{}, l.errLocked(codeUnknownPublicKey, "public key not bound to a message count"), false
	}
	return rec, backend.RawError{}, true
}

func (l *Library) signatureFor(pub []byte, rec keyRecord, msgs [][]byte) []byte {
	parts := append([][]byte{pub, rec.secret}, msgs...)
	return expand("signature", signatureSize, parts...)
}

// Sign protocol.

func (l *Library) SignInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("SignInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxSign), backend.RawError{}
}

func (l *Library) newContextLocked(kind contextKind) backend.Handle {
	h := l.nextHandle
	l.nextHandle++
	l.contexts[h] = &contextState{kind: kind}
	return h
}

func (l *Library) SignAddMessage(h backend.Handle, msg backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("SignAddMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxSign)
	if !ok {
		return re
	}
	ctx.messages = append(ctx.messages, l.readLocked(msg))
	return backend.RawError{}
}

func (l *Library) SignSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("SignSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxSign)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) SignSetSecretKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("SignSetSecretKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxSign)
	if !ok {
		return re
	}
	ctx.secretKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) SignFinish(h backend.Handle) (backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("SignFinish"); ok {
		return backend.Buffer{}, re
	}
	ctx, re, ok := l.contextLocked(h, ctxSign)
	if !ok {
		return backend.Buffer{}, re
	}
	delete(l.contexts, h)

	rec, re, ok := l.derivedKeyLocked(ctx.publicKey)
	if !ok {
		return backend.Buffer{}, re
	}
	if int(rec.messageCount) != len(ctx.messages) {
		return backend.Buffer{}, l.errLocked(codeMessageCountMismatch, "public key message count mismatch")
	}
	if !bytes.Equal(rec.secret, ctx.secretKey) {
		return backend.Buffer{}, l.errLocked(codeSecretKeyMismatch, "secret key does not match public key")
	}
	sig := l.signatureFor(ctx.publicKey, rec, ctx.messages)
	return l.allocLocked(sig, kindByteBuffer), backend.RawError{}
}

// Verify protocol.

func (l *Library) VerifyInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxVerify), backend.RawError{}
}

func (l *Library) VerifyAddMessage(h backend.Handle, msg backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyAddMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerify)
	if !ok {
		return re
	}
	ctx.messages = append(ctx.messages, l.readLocked(msg))
	return backend.RawError{}
}

func (l *Library) VerifySetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifySetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerify)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) VerifySetSignature(h backend.Handle, sig backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifySetSignature"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerify)
	if !ok {
		return re
	}
	raw := l.readLocked(sig)
	if len(raw) == 0 {
		return l.errLocked(codeInvalidSignature, "signature cannot be empty")
	}
	ctx.signature = raw
	return backend.RawError{}
}

func (l *Library) VerifyFinish(h backend.Handle) (bool, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyFinish"); ok {
		return false, re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerify)
	if !ok {
		return false, re
	}
	delete(l.contexts, h)

	rec, re, ok := l.derivedKeyLocked(ctx.publicKey)
	if !ok {
		return false, re
	}
	if int(rec.messageCount) != len(ctx.messages) {
		return false, l.errLocked(codeMessageCountMismatch, "public key message count mismatch")
	}
	if len(ctx.signature) != signatureSize {
		return false, l.errLocked(codeInvalidSignature, "invalid signature length")
	}
	expected := l.signatureFor(ctx.publicKey, rec, ctx.messages)
	return bytes.Equal(expected, ctx.signature), backend.RawError{}
}

// Blind commitment protocol.

func (l *Library) BlindCommitmentInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindCommitmentInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxBlindCommitment), backend.RawError{}
}

func (l *Library) BlindCommitmentAddMessage(h backend.Handle, index uint32, msg backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindCommitmentAddMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindCommitment)
	if !ok {
		return re
	}
	ctx.indexed = append(ctx.indexed, indexedMessage{index: index, message: l.readLocked(msg)})
	return backend.RawError{}
}

func (l *Library) BlindCommitmentSetNonce(h backend.Handle, nonce backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindCommitmentSetNonce"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindCommitment)
	if !ok {
		return re
	}
	ctx.nonce = l.readLocked(nonce)
	return backend.RawError{}
}

func (l *Library) BlindCommitmentSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindCommitmentSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindCommitment)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) BlindCommitmentFinish(h backend.Handle) (backend.Buffer, backend.Buffer, backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindCommitmentFinish"); ok {
		return backend.Buffer{}, backend.Buffer{}, backend.Buffer{}, re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindCommitment)
	if !ok {
		return backend.Buffer{}, backend.Buffer{}, backend.Buffer{}, re
	}
	delete(l.contexts, h)

	if _, re, ok := l.derivedKeyLocked(ctx.publicKey); !ok {
		return backend.Buffer{}, backend.Buffer{}, backend.Buffer{}, re
	}

	enc := encodeIndexed(ctx.indexed)
	indices := make([]uint32, len(ctx.indexed))
	for i, it := range ctx.indexed {
		indices[i] = it.index
	}
	bf := expand("blinding-factor", blindingFactorSize, ctx.publicKey, ctx.nonce, enc)
	commitment := expand("commitment", commitmentSize, ctx.publicKey, bf, enc)
	tag := expand("commitment-tag", proofSize/2, ctx.publicKey, ctx.nonce, encodeIndices(indices))
	body := expand("commitment-body", proofSize/2, bf)
	outContext := append(tag, body...)

	l.commitments[string(commitment)] = commitmentRecord{
		hidden:         append([]indexedMessage(nil), ctx.indexed...),
		blindingFactor: bf,
	}

	return l.allocLocked(commitment, kindByteBuffer),
		l.allocLocked(outContext, kindByteBuffer),
		l.allocLocked(bf, kindByteBuffer),
		backend.RawError{}
}

// Blind sign protocol.

func (l *Library) BlindSignInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxBlindSign), backend.RawError{}
}

func (l *Library) BlindSignAddMessage(h backend.Handle, index uint32, msg backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignAddMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindSign)
	if !ok {
		return re
	}
	ctx.indexed = append(ctx.indexed, indexedMessage{index: index, message: l.readLocked(msg)})
	return backend.RawError{}
}

func (l *Library) BlindSignSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindSign)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) BlindSignSetSecretKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignSetSecretKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindSign)
	if !ok {
		return re
	}
	ctx.secretKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) BlindSignSetCommitment(h backend.Handle, commitment backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignSetCommitment"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindSign)
	if !ok {
		return re
	}
	ctx.commitment = l.readLocked(commitment)
	return backend.RawError{}
}

func (l *Library) BlindSignFinish(h backend.Handle) (backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("BlindSignFinish"); ok {
		return backend.Buffer{}, re
	}
	ctx, re, ok := l.contextLocked(h, ctxBlindSign)
	if !ok {
		return backend.Buffer{}, re
	}
	delete(l.contexts, h)

	rec, re, ok := l.derivedKeyLocked(ctx.publicKey)
	if !ok {
		return backend.Buffer{}, re
	}
	if !bytes.Equal(rec.secret, ctx.secretKey) {
		return backend.Buffer{}, l.errLocked(codeSecretKeyMismatch, "secret key does not match public key")
	}
	com, ok := l.commitments[string(ctx.commitment)]
	if !ok {
		return backend.Buffer{}, l.errLocked(codeUnknownCommitment, "unknown commitment")
	}

	full := make([][]byte, rec.messageCount)
	place := func(it indexedMessage) backend.RawError {
		if int(it.index) >= len(full) {
			return l.errLocked(codeBadMessageIndex, "message index out of range")
		}
		if full[it.index] != nil {
			return l.errLocked(codeBadMessageIndex, "duplicate message index")
		}
		full[it.index] = it.message
		return backend.RawError{}
	}
	for _, it := range com.hidden {
		if re := place(it); !re.Ok() {
			return backend.Buffer{}, re
		}
	}
	for _, it := range ctx.indexed {
		if re := place(it); !re.Ok() {
			return backend.Buffer{}, re
		}
	}
	for i, m := range full {
		if m == nil {
			return backend.Buffer{}, l.errLocked(codeMessageCountMismatch,
				fmt.Sprintf("message %d missing from commitment and sign request", i))
		}
	}

	sig := l.signatureFor(ctx.publicKey, rec, full)
	blind := xorMask(sig, expand("blind-mask", blindSignatureSize, com.blindingFactor))
	return l.allocLocked(blind, kindByteBuffer), backend.RawError{}
}

// Create proof protocol.

func (l *Library) CreateProofInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxCreateProof), backend.RawError{}
}

func (l *Library) CreateProofAddProofMessage(h backend.Handle, msg backend.Buffer, proofType int32, blindingFactor backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofAddProofMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxCreateProof)
	if !ok {
		return re
	}
	if proofType < 1 || proofType > 3 {
		return l.errLocked(codeInvalidArgument, "unknown proof message type")
	}
	_ = l.readLocked(blindingFactor)
	ctx.proofMessages = append(ctx.proofMessages, proofMessage{message: l.readLocked(msg), proofType: proofType})
	return backend.RawError{}
}

func (l *Library) CreateProofSetNonce(h backend.Handle, nonce backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofSetNonce"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxCreateProof)
	if !ok {
		return re
	}
	ctx.nonce = l.readLocked(nonce)
	return backend.RawError{}
}

func (l *Library) CreateProofSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxCreateProof)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) CreateProofSetSignature(h backend.Handle, sig backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofSetSignature"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxCreateProof)
	if !ok {
		return re
	}
	ctx.signature = l.readLocked(sig)
	return backend.RawError{}
}

func (l *Library) CreateProofFinish(h backend.Handle) (backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("CreateProofFinish"); ok {
		return backend.Buffer{}, re
	}
	ctx, re, ok := l.contextLocked(h, ctxCreateProof)
	if !ok {
		return backend.Buffer{}, re
	}
	delete(l.contexts, h)

	rec, re, ok := l.derivedKeyLocked(ctx.publicKey)
	if !ok {
		return backend.Buffer{}, re
	}
	if int(rec.messageCount) != len(ctx.proofMessages) {
		return backend.Buffer{}, l.errLocked(codeMessageCountMismatch, "public key message count mismatch")
	}
	all := make([][]byte, len(ctx.proofMessages))
	var revealed []indexedMessage
	for i, pm := range ctx.proofMessages {
		all[i] = pm.message
		if pm.proofType == 1 {
			revealed = append(revealed, indexedMessage{index: uint32(i), message: pm.message})
		}
	}
	if !bytes.Equal(l.signatureFor(ctx.publicKey, rec, all), ctx.signature) {
		return backend.Buffer{}, l.errLocked(codeInvalidSignature, "signature does not verify")
	}

	tag := expand("proof-tag", proofSize/2, ctx.publicKey, ctx.nonce, encodeIndexed(revealed))
	body := expand("proof-body", proofSize/2, ctx.signature)
	return l.allocLocked(append(tag, body...), kindByteBuffer), backend.RawError{}
}

// Verify proof protocol.

func (l *Library) VerifyProofInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxVerifyProof), backend.RawError{}
}

func (l *Library) VerifyProofAddMessage(h backend.Handle, msg backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofAddMessage"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return re
	}
	ctx.messages = append(ctx.messages, l.readLocked(msg))
	return backend.RawError{}
}

func (l *Library) VerifyProofAddRevealedIndex(h backend.Handle, index uint32) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofAddRevealedIndex"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return re
	}
	ctx.indices = append(ctx.indices, index)
	return backend.RawError{}
}

func (l *Library) VerifyProofSetNonce(h backend.Handle, nonce backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofSetNonce"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return re
	}
	ctx.nonce = l.readLocked(nonce)
	return backend.RawError{}
}

func (l *Library) VerifyProofSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) VerifyProofSetProof(h backend.Handle, proof backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofSetProof"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return re
	}
	raw := l.readLocked(proof)
	if len(raw) == 0 {
		return l.errLocked(codeInvalidArgument, "proof cannot be empty")
	}
	ctx.proof = raw
	return backend.RawError{}
}

func (l *Library) VerifyProofFinish(h backend.Handle) (int32, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyProofFinish"); ok {
		return 0, re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyProof)
	if !ok {
		return 0, re
	}
	delete(l.contexts, h)

	if status, ok := l.statusOverrides["VerifyProofFinish"]; ok {
		return status, backend.RawError{}
	}
	if _, re, ok := l.derivedKeyLocked(ctx.publicKey); !ok {
		return 0, re
	}
	if len(ctx.messages) != len(ctx.indices) {
		return 0, l.errLocked(codePairingMismatch, "revealed message and index counts differ")
	}
	if len(ctx.proof) != proofSize {
		return 400, backend.RawError{}
	}
	revealed := make([]indexedMessage, len(ctx.messages))
	for i := range ctx.messages {
		revealed[i] = indexedMessage{index: ctx.indices[i], message: ctx.messages[i]}
	}
	tag := expand("proof-tag", proofSize/2, ctx.publicKey, ctx.nonce, encodeIndexed(revealed))
	if bytes.Equal(tag, ctx.proof[:proofSize/2]) {
		return 200, backend.RawError{}
	}
	return 400, backend.RawError{}
}

// Verify blind commitment protocol.

func (l *Library) VerifyBlindCommitmentInit() (backend.Handle, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentInit"); ok {
		return 0, re
	}
	return l.newContextLocked(ctxVerifyBlindCommitment), backend.RawError{}
}

func (l *Library) VerifyBlindCommitmentAddBlindedIndex(h backend.Handle, index uint32) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentAddBlindedIndex"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyBlindCommitment)
	if !ok {
		return re
	}
	ctx.indices = append(ctx.indices, index)
	return backend.RawError{}
}

func (l *Library) VerifyBlindCommitmentSetNonce(h backend.Handle, nonce backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentSetNonce"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyBlindCommitment)
	if !ok {
		return re
	}
	ctx.nonce = l.readLocked(nonce)
	return backend.RawError{}
}

func (l *Library) VerifyBlindCommitmentSetProof(h backend.Handle, proof backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentSetProof"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyBlindCommitment)
	if !ok {
		return re
	}
	ctx.proof = l.readLocked(proof)
	return backend.RawError{}
}

func (l *Library) VerifyBlindCommitmentSetPublicKey(h backend.Handle, key backend.Buffer) backend.RawError {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentSetPublicKey"); ok {
		return re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyBlindCommitment)
	if !ok {
		return re
	}
	ctx.publicKey = l.readLocked(key)
	return backend.RawError{}
}

func (l *Library) VerifyBlindCommitmentFinish(h backend.Handle) (int32, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("VerifyBlindCommitmentFinish"); ok {
		return 0, re
	}
	ctx, re, ok := l.contextLocked(h, ctxVerifyBlindCommitment)
	if !ok {
		return 0, re
	}
	delete(l.contexts, h)

	if status, ok := l.statusOverrides["VerifyBlindCommitmentFinish"]; ok {
		return status, backend.RawError{}
	}
	if _, re, ok := l.derivedKeyLocked(ctx.publicKey); !ok {
		return 0, re
	}
	if len(ctx.proof) != proofSize {
		return 400, backend.RawError{}
	}
	tag := expand("commitment-tag", proofSize/2, ctx.publicKey, ctx.nonce, encodeIndices(ctx.indices))
	if bytes.Equal(tag, ctx.proof[:proofSize/2]) {
		return 200, backend.RawError{}
	}
	return 400, backend.RawError{}
}

// Stateless transforms.

func (l *Library) UnblindSignature(blindSignature, blindingFactor backend.Buffer) (backend.Buffer, backend.RawError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if re, ok := l.enter("UnblindSignature"); ok {
		return backend.Buffer{}, re
	}
	blind := l.readLocked(blindSignature)
	bf := l.readLocked(blindingFactor)
	if len(blind) != blindSignatureSize {
		return backend.Buffer{}, l.errLocked(codeInvalidSignature, "invalid blind signature length")
	}
	if len(bf) == 0 {
		return backend.Buffer{}, l.errLocked(codeInvalidArgument, "blinding factor cannot be empty")
	}
	sig := xorMask(blind, expand("blind-mask", blindSignatureSize, bf))
	return l.allocLocked(sig, kindByteBuffer), backend.RawError{}
}
