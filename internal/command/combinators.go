package command

import (
	"context"

	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Either picks A or B at construction time and simply delegates to it;
// it exists so call sites can hold a single Command value while still
// choosing between two concrete implementations ahead of time.
type Either struct {
	A, B Command
	useA bool
}

func NewEither(useA bool, a, b Command) Either {
	return Either{A: a, B: b, useA: useA}
}

func (e Either) chosen() Command {
	if e.useA {
		return e.A
	}
	return e.B
}

func (e Either) CheckAvailability(d *ehlo.Data) error { return e.chosen().CheckAvailability(d) }
func (e Either) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	return e.chosen().Exec(ctx, conn)
}

// Select checks A's availability against the connection's current EHLO
// data and falls back to B if A is unavailable, the way a caller might
// want "authenticate with AUTH PLAIN if supported, otherwise proceed
// without".
type Select struct {
	A, B Command
}

func (s Select) CheckAvailability(d *ehlo.Data) error {
	if err := s.A.CheckAvailability(d); err == nil {
		return nil
	}
	return s.B.CheckAvailability(d)
}

func (s Select) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	if err := s.A.CheckAvailability(conn.Ehlo); err == nil {
		return s.A.Exec(ctx, conn)
	}
	return s.B.Exec(ctx, conn)
}
