// Package auth implements the AUTH PLAIN and AUTH LOGIN SMTP commands
// (spec.md §4.6), both gated on the AUTH capability.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/command"
	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// NullCodePointError reports that one of the AUTH PLAIN fields contains a
// NUL byte, which would corrupt the authzid\0authcid\0passwd framing.
type NullCodePointError struct {
	Field string
}

func (e *NullCodePointError) Error() string {
	return fmt.Sprintf("auth: %s contains a NUL byte", e.Field)
}

func requireAuth(e *ehlo.Data) error {
	if e != nil && e.Has("AUTH") {
		return nil
	}
	return &command.MissingCapabilitiesError{
		Capabilities: []ascii.Capability{ascii.NewCapability("AUTH")},
	}
}

// Plain implements AUTH PLAIN, encoding "authzid\0authcid\0passwd" as
// base64 in a single line.
type Plain struct {
	Authzid string
	Authcid string
	Passwd  string
}

func (Plain) CheckAvailability(e *ehlo.Data) error { return requireAuth(e) }

func (p Plain) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	// Normalize the authcid with PRECIS, the same way chasquid's
	// internal/auth normalizes the username before comparing or encoding
	// it, so a user can type their authcid in their own style.
	authcid, _ := ascii.NormalizeUser(p.Authcid)

	for name, v := range map[string]string{
		"authzid": p.Authzid, "authcid": authcid, "passwd": p.Passwd,
	} {
		if strings.IndexByte(v, 0) >= 0 {
			return nil, &command.CustomError{Err: &NullCodePointError{Field: name}}
		}
	}

	payload := p.Authzid + "\x00" + authcid + "\x00" + p.Passwd
	b64 := base64.StdEncoding.EncodeToString([]byte(payload))

	if err := conn.WriteLineFromParts("AUTH PLAIN ", b64); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}
	resp, err := conn.ParseResponse(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Family() != reply.Positive {
		return resp, &command.UnexpectedCodeError{Response: resp}
	}
	return resp, nil
}

// Login implements AUTH LOGIN, a two-step exchange: the username is sent
// with the initial command, then the password is sent in response to the
// server's 334 prompt.
type Login struct {
	Username string
	Password string
}

func (Login) CheckAvailability(e *ehlo.Data) error { return requireAuth(e) }

func (l Login) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	username, _ := ascii.NormalizeUser(l.Username)
	userB64 := base64.StdEncoding.EncodeToString([]byte(username))

	if err := conn.WriteLineFromParts("AUTH LOGIN ", userB64); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}
	resp, err := conn.ParseResponse(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Family() != reply.Intermediate {
		return resp, &command.UnexpectedCodeError{Response: resp}
	}

	passB64 := base64.StdEncoding.EncodeToString([]byte(l.Password))
	if err := conn.WriteLineFromParts(passB64); err != nil {
		return nil, err
	}
	if err := conn.Flush(ctx); err != nil {
		return nil, err
	}
	final, err := conn.ParseResponse(ctx)
	if err != nil {
		return nil, err
	}
	if final.Family() != reply.Positive {
		return final, &command.UnexpectedCodeError{Response: final}
	}
	return final, nil
}
