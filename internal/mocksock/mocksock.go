// Package mocksock implements the scripted Client/Server mock socket used
// by protocol-level tests (spec.md §4.11). It generalizes the teacher's
// two test fixtures -- internal/courier/fakeserver_test.go's live-net.Conn
// fake server, and internal/smtp/smtp_test.go's canned faker/fakeDialog
// string replay -- into a single strict, bidirectional action script that
// implements transport.Socket directly, so protocol tests don't need a
// real socket pair at all.
package mocksock

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"blitiri.com.ar/go/smtpclient/internal/transport"
)

// Actor identifies which side of the conversation an Action belongs to.
type Actor int

const (
	Server Actor = iota // bytes the mock will hand back on Read
	Client              // bytes the test expects the code under test to Write
)

// Action is one scripted step of the conversation.
type Action struct {
	Actor Actor
	Data  []byte
}

// ErrNotReady is returned (a sixteenth of the time, on average) in place
// of an otherwise-successful read or write, to exercise suspension /
// retry paths the way a real non-blocking socket occasionally would. It
// is transport.ErrWouldBlock under another name: wire.Conn retries on it
// internally, so scripts don't need to account for it.
var ErrNotReady = transport.ErrWouldBlock

// Socket is a transport.Socket that plays back a fixed script, panicking
// (via t.Fatalf) on any deviation: a read when the next action isn't
// Server, a write when the next action isn't Client, or a write whose
// bytes don't match the scripted prefix.
type Socket struct {
	t      *testing.T
	mu     sync.Mutex
	script []Action
	pos    int
	secure bool

	shutdown bool

	rng *rand.Rand
}

// New creates a mock socket that will play back script in order. It
// registers a t.Cleanup that asserts the script was fully consumed and
// that Shutdown was called, matching the teacher fixtures' on-drop
// assertions.
func New(t *testing.T, script []Action) *Socket {
	t.Helper()
	s := &Socket{
		t:      t,
		script: script,
		rng:    rand.New(rand.NewSource(1)),
	}
	t.Cleanup(s.checkDone)
	return s
}

// MarkSecure flags the socket as secure, for tests simulating the
// post-STARTTLS state without actually performing a TLS handshake.
func (s *Socket) MarkSecure() { s.secure = true }

func (s *Socket) checkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos != len(s.script) {
		s.t.Fatalf("mocksock: script not fully consumed: %d/%d actions run",
			s.pos, len(s.script))
	}
	if !s.shutdown {
		s.t.Fatalf("mocksock: connection was never shut down")
	}
}

func (s *Socket) maybeNotReady() bool {
	// 1/16 chance of injecting NotReady, per spec.md §4.11.
	return s.rng.Intn(16) == 0
}

func (s *Socket) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maybeNotReady() {
		return 0, ErrNotReady
	}

	if s.pos >= len(s.script) || s.script[s.pos].Actor != Server {
		s.t.Fatalf("mocksock: unexpected Read; script at %d expects %v", s.pos, s.nextActorLocked())
	}

	data := s.script[s.pos].Data
	n := copy(p, data)
	if n < len(data) {
		s.script[s.pos].Data = data[n:]
	} else {
		s.pos++
	}
	return n, nil
}

func (s *Socket) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maybeNotReady() {
		return 0, ErrNotReady
	}

	if s.pos >= len(s.script) || s.script[s.pos].Actor != Client {
		s.t.Fatalf("mocksock: unexpected Write of %q; script at %d expects %v",
			p, s.pos, s.nextActorLocked())
	}

	want := s.script[s.pos].Data
	n := len(p)
	if n > len(want) {
		n = len(want)
	}
	for i := 0; i < n; i++ {
		if p[i] != want[i] {
			s.t.Fatalf("mocksock: write mismatch at byte %d: got %q, want prefix of %q",
				i, p, want)
		}
	}

	if len(p) < len(want) {
		s.script[s.pos].Data = want[len(p):]
	} else {
		s.pos++
		if len(p) > len(want) {
			// The caller wrote past the scripted chunk in one call; treat
			// the remainder as the start of the next scripted action on
			// the next call by recursing once the position has advanced.
			s.mu.Unlock()
			extra, err := s.Write(p[len(want):])
			s.mu.Lock()
			return len(want) + extra, err
		}
	}
	return len(p), nil
}

func (s *Socket) nextActorLocked() string {
	if s.pos >= len(s.script) {
		return "<end of script>"
	}
	if s.script[s.pos].Actor == Server {
		return "Server"
	}
	return "Client"
}

func (s *Socket) Flush() error { return nil }

func (s *Socket) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	return nil
}

func (s *Socket) IsSecure() bool { return s.secure }

func (s *Socket) SetDeadline(ctx context.Context) error { return nil }

// WakeAfter simulates a background task waking a waiter after a short
// random delay, the way a real asynchronous runtime would resolve a
// NotReady future. Tests that want to exercise a specific ErrNotReady
// retry path can call this to pace their own retry loop.
func WakeAfter(maxDelay time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	time.AfterFunc(time.Duration(rand.Int63n(int64(maxDelay)+1)), func() {
		close(ch)
	})
	return ch
}
