package bbs

import (
	"github.com/mattrglobal/bbs-go/pkg/bbs/internal/backend"
)

// bufferOrigin records which side allocated a tracked buffer, and therefore
// which native deallocator must release it.
type bufferOrigin int

const (
	originCaller  bufferOrigin = iota // copied in from Go via Alloc; released with Release
	originNative                      // produced by a native call; released with FreeByteBuffer
	originMessage                     // native error message string; released with FreeString
)

type trackedBuffer struct {
	buf    backend.Buffer
	origin bufferOrigin
}

// scope owns every buffer that crosses the native boundary during a single
// facade call. All inputs are copied into native-side memory through
// reference, all outputs are copied out through dereference, and close
// releases the whole set exactly once through the matching deallocators.
// Facades run `defer sc.close()` so release happens on every exit path.
//
// A scope belongs to one call on one goroutine and is never shared.
type scope struct {
	api     backend.API
	op      string
	tracked []trackedBuffer
	seen    map[uintptr]bool
	closed  bool
}

func newScope(op string, api backend.API) *scope {
	return &scope{api: api, op: op, seen: make(map[uintptr]bool)}
}

// track registers a buffer for release at close. Registering the same native
// pointer twice is a no-op; each buffer is released exactly once.
func (s *scope) track(buf backend.Buffer, origin bufferOrigin) {
	if buf.IsNil() || s.seen[buf.Ptr] {
		return
	}
	s.seen[buf.Ptr] = true
	s.tracked = append(s.tracked, trackedBuffer{buf: buf, origin: origin})
}

// reference copies caller bytes into native-side memory and registers the
// resulting buffer for release. An allocation failure is fatal for the call;
// everything referenced so far is still released by the deferred close.
func (s *scope) reference(data []byte) (backend.Buffer, error) {
	buf, err := s.api.Alloc(data)
	if err != nil {
		return backend.Buffer{}, errorf(s.op, "allocating %d boundary bytes: %v", len(data), err)
	}
	s.track(buf, originCaller)
	return buf, nil
}

// dereference registers a native-produced buffer for release and copies its
// contents into Go-owned memory. The copy, not the buffer, is what outlives
// the scope.
func (s *scope) dereference(buf backend.Buffer) []byte {
	s.track(buf, originNative)
	return s.api.Read(buf)
}

// check decodes a native error record. Code 0 is success. On failure the
// message buffer is tracked, copied out, and folded into a *Error carrying
// the native code and message verbatim.
func (s *scope) check(raw backend.RawError) error {
	if raw.Ok() {
		return nil
	}
	message := "no message supplied"
	if !raw.Message.IsNil() {
		s.track(raw.Message, originMessage)
		if m := s.api.Read(raw.Message); len(m) > 0 {
			message = string(m)
		}
	}
	return nativeError(s.op, raw.Code, message)
}

// close releases every tracked buffer through its origin's deallocator.
// Idempotent; a second close is a no-op.
func (s *scope) close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.tracked {
		switch t.origin {
		case originCaller:
			s.api.Release(t.buf)
		case originNative:
			s.api.FreeByteBuffer(t.buf)
		case originMessage:
			s.api.FreeString(t.buf)
		}
	}
	s.tracked = nil
}
