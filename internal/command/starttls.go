package command

import (
	"context"
	"crypto/tls"

	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/transport"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// StartTls implements the STARTTLS command (RFC 3207). On success it
// drops the plain socket, performs the TLS handshake, and replaces
// conn.Socket with the resulting secure socket. Per spec.md §4.6/§4.9/
// I-TLS, it also clears conn.Ehlo and both buffers: a fresh EHLO is
// mandatory after the upgrade since capabilities may differ over TLS, and
// no bytes from the pre-upgrade stream may leak into post-upgrade
// parsing.
type StartTls struct {
	// ServerName is the SNI domain for the handshake.
	ServerName string
	// Config is the base TLS configuration; may be nil for defaults.
	Config *tls.Config
	// Setup, if non-nil, is given the chance to customize Config before
	// the handshake (the "tls_setup" collaborator of spec.md §6).
	Setup func(*tls.Config) *tls.Config
}

func (s StartTls) CheckAvailability(e *ehlo.Data) error {
	return requireCapability(e, "STARTTLS")
}

func (s StartTls) Exec(ctx context.Context, conn *wire.Conn) (*reply.Response, error) {
	plain, ok := conn.Socket.(*transport.Plain)
	if !ok {
		return nil, transport.ErrAlreadySecure
	}

	resp, err := expectPositive(ctx, conn, "STARTTLS")
	if err != nil {
		return resp, err
	}

	cfg := s.Config
	if cfg == nil {
		cfg = &tls.Config{}
	}
	cfg = cfg.Clone()
	cfg.ServerName = s.ServerName

	secure, herr := transport.UpgradeToTLS(ctx, plain, cfg, s.Setup)
	if herr != nil {
		return nil, herr
	}

	conn.Socket = secure
	conn.Ehlo = nil
	conn.ResetBuffers()

	// A synthetic response gives STARTTLS a uniform shape with other
	// commands; no bytes are read from the server after the handshake as
	// part of this command.
	return &reply.Response{Code: [3]byte{'2', '2', '0'}, Lines: []string{"Ready"}}, nil
}
