package command

import (
	"bytes"
	"context"

	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Data implements the DATA command: it writes "DATA", expects the
// intermediate 354 code, streams Body through the dot-stashing
// transform, then parses the final response.
type Data struct {
	noCapRequired
	Body []byte
}

func (d Data) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	if err := conn.WriteLineFromParts("DATA"); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}

	resp, err := conn.ParseResponse(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Code != [3]byte{'3', '5', '4'} {
		return resp, &UnexpectedCodeError{Response: resp}
	}

	if err := conn.WriteDotStashed(bytes.NewReader(d.Body)); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}

	final, err := conn.ParseResponse(ctx)
	if err != nil {
		return nil, err
	}
	if final.IsErroneous() {
		return final, &CodeError{Response: final}
	}
	return final, nil
}
