package transport

import (
	"context"
	"crypto/tls"
)

// UpgradeToTLS performs a client TLS handshake over an already-connected
// Plain socket and returns the resulting Secure socket. It consumes the
// plain socket: the caller must not use it again regardless of the
// outcome, per spec.md's STARTTLS invariant that the old stream is
// dropped as part of the transition.
//
// cfg.ServerName should be set to the SNI domain; if setup is non-nil it
// is given the chance to wrap or replace cfg before the handshake (the
// "tls_setup" collaborator in the connection configuration), mirroring
// the teacher's pattern of building a tls.Config with a custom
// VerifyConnection callback in internal/courier/smtp.go.
func UpgradeToTLS(ctx context.Context, p *Plain, cfg *tls.Config, setup func(*tls.Config) *tls.Config) (*Secure, error) {
	if setup != nil {
		cfg = setup(cfg)
	}
	cfg = WithOCSPLogging(cfg)

	tc := tls.Client(p.Conn, cfg)
	if dl, ok := ctx.Deadline(); ok {
		tc.SetDeadline(dl)
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return NewSecure(tc), nil
}
