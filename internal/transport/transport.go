// Package transport abstracts the byte-oriented connection a Conn speaks
// over: a plain TCP stream, a STARTTLS-upgraded or directly-dialed TLS
// stream, or (in tests) a scripted mock. All three implement the same
// Socket interface so the rest of the library does not need to know which
// one it is talking to, except where STARTTLS upgrades one into another.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"
)

// Socket is the uniform operations a Conn needs from its underlying
// connection.
type Socket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Flush() error
	Shutdown() error
	IsSecure() bool

	// SetDeadline propagates a context deadline to the underlying
	// connection, the way net.Conn.SetDeadline works.
	SetDeadline(ctx context.Context) error
}

// ErrAlreadySecure is returned by the STARTTLS command
// (internal/command.StartTls) when the connection's socket is not a
// Plain socket, e.g. because it is already Secure.
var ErrAlreadySecure = errors.New("transport: socket is already secure")

// ErrWouldBlock may be returned by a Socket's Read or Write to indicate
// the call should simply be retried: the translation, in this blocking
// Go model, of the futures-based spec's suspension points (spec.md §5,
// §4.11's NotReady). Real sockets (Plain, Secure) never return it --
// net.Conn already blocks until data is available or space frees up --
// but internal/mocksock injects it to exercise the retry path
// deterministically. wire.Conn retries on it internally; it is never
// visible outside the wire package.
var ErrWouldBlock = errors.New("transport: not ready, retry")

// Plain wraps a vanilla net.Conn.
type Plain struct {
	Conn net.Conn
}

func NewPlain(c net.Conn) *Plain { return &Plain{Conn: c} }

func (p *Plain) Read(b []byte) (int, error)  { return p.Conn.Read(b) }
func (p *Plain) Write(b []byte) (int, error) { return p.Conn.Write(b) }
func (p *Plain) Flush() error                { return nil }
func (p *Plain) Shutdown() error             { return p.Conn.Close() }
func (p *Plain) IsSecure() bool              { return false }

func (p *Plain) SetDeadline(ctx context.Context) error {
	return setDeadline(p.Conn, ctx)
}

// Secure wraps a *tls.Conn, either from a direct TLS dial or a completed
// STARTTLS handshake.
type Secure struct {
	Conn *tls.Conn
}

func NewSecure(c *tls.Conn) *Secure { return &Secure{Conn: c} }

func (s *Secure) Read(b []byte) (int, error)  { return s.Conn.Read(b) }
func (s *Secure) Write(b []byte) (int, error) { return s.Conn.Write(b) }
func (s *Secure) Flush() error                { return nil }
func (s *Secure) Shutdown() error             { return s.Conn.Close() }
func (s *Secure) IsSecure() bool              { return true }

func (s *Secure) SetDeadline(ctx context.Context) error {
	return setDeadline(s.Conn, ctx)
}

func setDeadline(c net.Conn, ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		return c.SetDeadline(dl)
	}
	// The zero Time clears any previously set deadline.
	return c.SetDeadline(time.Time{})
}
