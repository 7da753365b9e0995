package command

import (
	"context"
	"fmt"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Param is one "KEY[=VALUE]" extension parameter on a MAIL FROM or RCPT
// TO line.
type Param struct {
	Key   string
	Value string // empty means no "=VALUE" suffix
}

func renderParams(params []Param) (string, error) {
	s := ""
	for _, p := range params {
		if _, err := ascii.NewEsmtpKeyword(p.Key); err != nil {
			return "", err
		}
		s += " " + p.Key
		if p.Value != "" {
			if _, err := ascii.NewEsmtpValue(p.Value); err != nil {
				return "", err
			}
			s += "=" + p.Value
		}
	}
	return s, nil
}

// Mail implements MAIL FROM:<path> [params...]. An empty Path renders as
// the null reverse path "<>", per spec.md §4.6.
type Mail struct {
	noCapRequired
	Path   string // reverse path, without angle brackets; "" means <>
	Params []Param
}

func (m Mail) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	extra, err := renderParams(m.Params)
	if err != nil {
		return nil, &CustomError{Err: err}
	}
	return expectPositive(ctx, conn, fmt.Sprintf("MAIL FROM:<%s>%s", m.Path, extra))
}

// Rcpt implements RCPT TO:<path> [params...].
type Rcpt struct {
	noCapRequired
	Path   string // forward path, without angle brackets
	Params []Param
}

func (r Rcpt) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	extra, err := renderParams(r.Params)
	if err != nil {
		return nil, &CustomError{Err: err}
	}
	return expectPositive(ctx, conn, fmt.Sprintf("RCPT TO:<%s>%s", r.Path, extra))
}
