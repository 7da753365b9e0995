package command

import (
	"context"
	"sync"

	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Boxed is a type-erased Command for heterogeneous chains (spec.md
// §4.5's "BoxedCmd"). Because the underlying Go Command values are
// ordinary interface values already, boxing here exists purely to carry
// the one-shot-use contract the distilled spec requires: Exec may only
// be invoked once per Boxed, since the original model consumes the
// command by value. A second Exec call is an implementation bug in the
// caller, so it panics rather than silently re-running (or worse,
// silently no-opping).
type Boxed struct {
	mu   sync.Mutex
	cmd  Command
	used bool
}

// NewBoxed wraps cmd as a one-shot boxed command.
func NewBoxed(cmd Command) *Boxed {
	return &Boxed{cmd: cmd}
}

func (b *Boxed) CheckAvailability(e *ehlo.Data) error {
	return b.cmd.CheckAvailability(e)
}

func (b *Boxed) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	b.mu.Lock()
	if b.used {
		b.mu.Unlock()
		panic("command: Boxed.Exec called more than once")
	}
	b.used = true
	b.mu.Unlock()

	return b.cmd.Exec(ctx, conn)
}
