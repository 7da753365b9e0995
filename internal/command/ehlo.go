package command

import (
	"context"

	smtpehlo "blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Ehlo implements EHLO <identity>, replacing conn.Ehlo with the freshly
// parsed capability set on success (spec.md §4.6). Identity is the
// client's own domain or bracketed address literal, rendered verbatim.
type Ehlo struct {
	noCapRequired
	Identity string
	Handling smtpehlo.SyntaxErrorHandling

	// Skipped receives any capability lines that Lax-mode parsing chose
	// to skip, for callers that want to log them (spec.md's "optionally
	// logged" note). May be left nil.
	Skipped *[]smtpehlo.SkippedLine
}

func (e Ehlo) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	resp, err := sendAndParse(ctx, conn, "EHLO ", e.Identity)
	if err != nil {
		return nil, err
	}
	if resp.IsErroneous() {
		return resp, &CodeError{Response: resp}
	}

	data, skipped, perr := smtpehlo.Parse(resp, e.Handling)
	if perr != nil {
		return resp, &CustomError{Err: perr}
	}
	if e.Skipped != nil {
		*e.Skipped = skipped
	}

	conn.Ehlo = data
	return resp, nil
}
