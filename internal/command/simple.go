package command

import (
	"context"

	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// noCapRequired is embedded by commands that are always available once a
// connection exists (RFC 5321 core commands).
type noCapRequired struct{}

func (noCapRequired) CheckAvailability(*ehlo.Data) error { return nil }

// Reset implements RSET.
type Reset struct{ noCapRequired }

func (Reset) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	return expectPositive(ctx, conn, "RSET")
}

// Noop implements NOOP.
type Noop struct{ noCapRequired }

func (Noop) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	return expectPositive(ctx, conn, "NOOP")
}

// Quit implements QUIT. Unlike the other simple commands, callers
// typically ignore its LogicError (spec.md §4.7: "errors from QUIT are
// swallowed"); Exec itself still reports it, leaving the swallowing
// policy to the caller (root Conn.Quit).
type Quit struct{ noCapRequired }

func (Quit) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	return expectPositive(ctx, conn, "QUIT")
}

// Vrfy implements VRFY <address>.
type Vrfy struct {
	noCapRequired
	Address string
}

func (v Vrfy) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	return expectPositive(ctx, conn, "VRFY ", v.Address)
}

// Help implements HELP [topic].
type Help struct {
	noCapRequired
	Topic string
}

func (h Help) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	if h.Topic == "" {
		return expectPositive(ctx, conn, "HELP")
	}
	return expectPositive(ctx, conn, "HELP ", h.Topic)
}
