// Package command implements the SMTP command/response protocol commands
// (spec.md §4.5–4.6): the Command interface every built-in and
// user-supplied command implements, the capability-aware dispatch logic,
// the logic error taxonomy, and the standard built-in commands
// themselves.
package command

import (
	"context"
	"fmt"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Command is a single SMTP command/response exchange. A command value may
// be capability-gated (CheckAvailability) and performs its own I/O
// (Exec). Unlike the futures-based model this spec is drawn from, Exec
// mutates conn in place rather than returning a new connection value: Go
// methods on *wire.Conn already give every caller the post-exec state,
// which is what the futures model achieves by passing ownership of io
// back out.
type Command interface {
	// CheckAvailability reports whether the command can run against the
	// capabilities in ehlo. A nil ehlo (no successful EHLO yet) means no
	// capability is available. Returns nil if available, or a
	// *MissingCapabilitiesError otherwise.
	CheckAvailability(e *ehlo.Data) error

	// Exec performs the command's wire exchange over conn. The returned
	// error is either a LogicError (the connection is still usable) or a
	// plain transport error (the connection should be presumed broken).
	Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error)
}

// LogicError is the common interface of every protocol-level failure that
// leaves the connection usable (spec.md §4.10). Logic errors are ordinary
// return values, never panics: callers decide whether to continue, RSET,
// or QUIT.
type LogicError interface {
	error
	logicError()
}

// CodeError reports that the server returned an erroneous (4xx/5xx/
// unknown) final code.
type CodeError struct {
	Response *reply.Response
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("command failed: %s", e.Response)
}
func (*CodeError) logicError() {}

// UnexpectedCodeError reports a non-erroneous code received at a point
// the command knows is wrong, e.g. a positive code where an intermediate
// one (354 after DATA) was required.
type UnexpectedCodeError struct {
	Response *reply.Response
}

func (e *UnexpectedCodeError) Error() string {
	return fmt.Sprintf("unexpected response code: %s", e.Response)
}
func (*UnexpectedCodeError) logicError() {}

// MissingCapabilitiesError reports that CheckAvailability failed: one or
// more required capabilities were not advertised by the server.
type MissingCapabilitiesError struct {
	Capabilities []ascii.Capability
}

func (e *MissingCapabilitiesError) Error() string {
	return fmt.Sprintf("missing capabilities: %v", e.Capabilities)
}
func (*MissingCapabilitiesError) logicError() {}

// CustomError wraps an arbitrary error for third-party command
// implementations that need to return a LogicError.
type CustomError struct {
	Err error
}

func (e *CustomError) Error() string { return e.Err.Error() }
func (e *CustomError) Unwrap() error { return e.Err }
func (*CustomError) logicError()     {}

// requireCapability is a small helper built-in commands use to implement
// CheckAvailability for a single required capability.
func requireCapability(e *ehlo.Data, name string) error {
	if e != nil && e.Has(name) {
		return nil
	}
	return &MissingCapabilitiesError{Capabilities: []ascii.Capability{ascii.NewCapability(name)}}
}

// sendAndParse writes a line built from parts, flushes it, and parses the
// resulting response. It's the common body of most simple commands.
func sendAndParse(ctx context.Context, conn *wire.Conn, parts ...string) (*reply.Response, error) {
	if err := conn.WriteLineFromParts(parts...); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}
	return conn.ParseResponse(ctx)
}

// expectPositive sends and parses like sendAndParse and, if the response
// is erroneous, returns a *CodeError alongside the response.
func expectPositive(ctx context.Context, conn *wire.Conn, parts ...string) (*reply.Response, error) {
	resp, err := sendAndParse(ctx, conn, parts...)
	if err != nil {
		return nil, err
	}
	if resp.IsErroneous() {
		return resp, &CodeError{Response: resp}
	}
	return resp, nil
}
