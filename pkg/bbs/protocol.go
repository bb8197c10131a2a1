package bbs

import (
	"fmt"

	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
)

type protocolState int

const (
	stateUninitialized protocolState = iota
	stateOpen
	stateFinished
	stateFailed
)

func (s protocolState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateOpen:
		return "open"
	case stateFinished:
		return "finished"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// protocol drives one native context through its init / add-set steps /
// finish lifecycle. The native side keeps the accumulated state behind the
// handle; this side enforces the call shape: exactly one init, steps only
// while open, exactly one finish, and nothing after a failure. Violating the
// shape is a programming error in a facade, so it panics rather than
// returning an error.
//
// Native failures are not panics: any step or finish returning a nonzero
// error record moves the protocol to failed and surfaces the translated
// error. The handle is abandoned at that point; after a failed call the
// native-side state is undefined and no further calls may use it.
type protocol struct {
	op     string
	scope  *scope
	state  protocolState
	handle backend.Handle
}

func newProtocol(op string, sc *scope) *protocol {
	return &protocol{op: op, scope: sc}
}

func (p *protocol) require(state protocolState, what string) {
	if p.state != state {
		panic(fmt.Sprintf("bbs: %s on %s %s context", what, p.state, p.op))
	}
}

// init acquires the native handle. On failure the protocol is failed and may
// not be used again.
func (p *protocol) init(fn func() (backend.Handle, backend.RawError)) error {
	p.require(stateUninitialized, "init")
	h, raw := fn()
	if err := p.scope.check(raw); err != nil {
		p.state = stateFailed
		return err
	}
	p.handle = h
	p.state = stateOpen
	return nil
}

// step performs one fallible add or set call on the open context. The first
// failure is terminal for the whole protocol.
func (p *protocol) step(fn func(backend.Handle) backend.RawError) error {
	p.require(stateOpen, "step")
	if err := p.scope.check(fn(p.handle)); err != nil {
		p.state = stateFailed
		return err
	}
	return nil
}

// finishBuffer consumes the context and copies out its single result buffer.
func (p *protocol) finishBuffer(fn func(backend.Handle) (backend.Buffer, backend.RawError)) ([]byte, error) {
	p.require(stateOpen, "finish")
	buf, raw := fn(p.handle)
	if err := p.scope.check(raw); err != nil {
		p.state = stateFailed
		return nil, err
	}
	p.state = stateFinished
	return p.scope.dereference(buf), nil
}

// finishBuffers consumes the context and copies out each result buffer, in
// order.
func (p *protocol) finishBuffers(fn func(backend.Handle) ([]backend.Buffer, backend.RawError)) ([][]byte, error) {
	p.require(stateOpen, "finish")
	bufs, raw := fn(p.handle)
	if err := p.scope.check(raw); err != nil {
		p.state = stateFailed
		return nil, err
	}
	p.state = stateFinished
	out := make([][]byte, len(bufs))
	for i, b := range bufs {
		out[i] = p.scope.dereference(b)
	}
	return out, nil
}

// finishBool consumes the context and returns its boolean verdict.
func (p *protocol) finishBool(fn func(backend.Handle) (bool, backend.RawError)) (bool, error) {
	p.require(stateOpen, "finish")
	ok, raw := fn(p.handle)
	if err := p.scope.check(raw); err != nil {
		p.state = stateFailed
		return false, err
	}
	p.state = stateFinished
	return ok, nil
}

// finishStatus consumes the context and returns its raw status code. Mapping
// the code onto the closed status enum is the caller's job.
func (p *protocol) finishStatus(fn func(backend.Handle) (int32, backend.RawError)) (int32, error) {
	p.require(stateOpen, "finish")
	status, raw := fn(p.handle)
	if err := p.scope.check(raw); err != nil {
		p.state = stateFailed
		return 0, err
	}
	p.state = stateFinished
	return status, nil
}
