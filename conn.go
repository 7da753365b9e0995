// Package smtpclient is an asynchronous-in-spirit, blocking-in-Go SMTP/
// ESMTP client library (RFC 5321): it dials a server, negotiates
// capabilities, optionally upgrades to TLS, authenticates, and sends
// mail, while giving callers full control over command sequencing and
// error recovery via internal/chain.
package smtpclient

import (
	"context"
	"crypto/tls"
	"net"

	"golang.org/x/net/idna"

	"blitiri.com.ar/go/smtpclient/internal/command"
	smtpehlo "blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/trace"
	"blitiri.com.ar/go/smtpclient/internal/transport"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Conn is a ready, authenticated connection to an SMTP server. Like the
// spec it implements, a Conn has exactly one owner at a time: concurrent
// use of the same Conn from multiple goroutines is not supported, though
// independent Conns may run in parallel freely (spec.md §5).
type Conn struct {
	wire *wire.Conn
	tr   *trace.Trace
	cfg  *Config
}

// IsSecure reports whether the connection is currently running over TLS,
// whether from SecurityDirectTLS or a completed STARTTLS upgrade.
func (c *Conn) IsSecure() bool { return c.wire.Socket.IsSecure() }

// Capabilities returns the capability set learned from the last
// successful EHLO, or nil if none has completed.
func (c *Conn) Capabilities() *smtpehlo.Data { return c.wire.Ehlo }

// Dial connects to cfg.Host:cfg.Port, completing the full connect
// pipeline from spec.md §4.7: TCP connect, optional direct TLS, greeting,
// EHLO, optional STARTTLS plus re-EHLO, then cfg.AuthCmd. Any failure
// before the connection is ready closes the socket and returns a
// *ConnectingFailedError.
func Dial(ctx context.Context, cfg *Config) (*Conn, error) {
	cfg = cfg.withDefaults()
	dialAttempts.Add(1)

	tr := trace.New("smtpclient.Dial", net.JoinHostPort(cfg.Host, cfg.Port))
	ok := false
	defer func() {
		if !ok {
			tr.Finish()
		}
	}()

	// Fold an internationalized Host to its ASCII/punycode form before
	// dialing or using it as a TLS ServerName, the same way the teacher's
	// courier folds the destination domain before the MX lookup
	// (internal/courier/smtp.go's lookupMXs).
	asciiHost, err := idna.ToASCII(cfg.Host)
	if err != nil {
		return nil, &ConnectingFailedError{Stage: "io", Cause: tr.Error(err)}
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(asciiHost, cfg.Port))
	if err != nil {
		return nil, &ConnectingFailedError{Stage: "io", Cause: tr.Error(err)}
	}

	var sock transport.Socket
	if cfg.Security == SecurityDirectTLS {
		tcfg := transport.WithOCSPLogging(baseTLSConfig(cfg, asciiHost))
		tc := tls.Client(nc, tcfg)
		if err := tc.HandshakeContext(ctx); err != nil {
			nc.Close()
			tlsCount.Add("direct:failed", 1)
			return nil, &ConnectingFailedError{Stage: "io", Cause: tr.Error(err)}
		}
		tlsCount.Add("direct", 1)
		sock = transport.NewSecure(tc)
	} else {
		tlsCount.Add("plain", 1)
		sock = transport.NewPlain(nc)
	}

	wc := wire.New(sock)
	c := &Conn{wire: wc, tr: tr, cfg: cfg}

	if err := c.connectPipeline(ctx); err != nil {
		sock.Shutdown()
		return nil, err
	}

	ok = true
	tr.Printf("connected, secure=%v", c.IsSecure())
	return c, nil
}

func baseTLSConfig(cfg *Config, asciiHost string) *tls.Config {
	tcfg := cfg.TLSConfig
	if tcfg == nil {
		tcfg = &tls.Config{}
	}
	tcfg = tcfg.Clone()
	if tcfg.ServerName == "" {
		tcfg.ServerName = asciiHost
	}
	if cfg.TLSSetup != nil {
		tcfg = cfg.TLSSetup(tcfg)
	}
	return tcfg
}

// connectPipeline implements steps 3-6 of spec.md §4.7, given a Conn
// whose socket is already TCP-connected (and TLS-upgraded, if
// SecurityDirectTLS).
func (c *Conn) connectPipeline(ctx context.Context) error {
	greeting, err := c.wire.ParseResponse(ctx)
	if err != nil {
		return &ConnectingFailedError{Stage: "io", Cause: c.tr.Error(err)}
	}
	if greeting.IsErroneous() {
		le := command.LogicError(&command.CodeError{Response: greeting})
		return &ConnectingFailedError{Stage: "setup", Cause: c.tr.Error(le)}
	}

	ehloCmd := command.Ehlo{Identity: c.cfg.ClientID, Handling: c.cfg.SyntaxErrorHandling}
	if _, err := ehloCmd.Exec(ctx, c.wire); err != nil {
		return c.setupFailed(err)
	}

	if c.cfg.Security == SecurityStartTLS {
		serverName, err := idna.ToASCII(c.cfg.Host)
		if err != nil {
			return c.setupFailed(err)
		}
		starttls := command.StartTls{
			ServerName: serverName,
			Config:     c.cfg.TLSConfig,
			Setup:      c.cfg.TLSSetup,
		}
		if err := starttls.CheckAvailability(c.wire.Ehlo); err != nil {
			tlsCount.Add("starttls:failed", 1)
			return c.setupFailed(err)
		}
		if _, err := starttls.Exec(ctx, c.wire); err != nil {
			tlsCount.Add("starttls:failed", 1)
			return c.setupFailed(err)
		}
		tlsCount.Add("starttls", 1)

		ehloCmd := command.Ehlo{Identity: c.cfg.ClientID, Handling: c.cfg.SyntaxErrorHandling}
		if _, err := ehloCmd.Exec(ctx, c.wire); err != nil {
			return c.setupFailed(err)
		}
	}

	auth := c.cfg.AuthCmd
	if err := auth.CheckAvailability(c.wire.Ehlo); err != nil {
		authResultCount.Add("unavailable", 1)
		return c.authFailed(err)
	}
	if _, err := auth.Exec(ctx, c.wire); err != nil {
		authResultCount.Add("failed", 1)
		return c.authFailed(err)
	}
	authResultCount.Add("ok", 1)

	return nil
}

func (c *Conn) setupFailed(err error) error {
	if le, ok := err.(command.LogicError); ok {
		return &ConnectingFailedError{Stage: "setup", Cause: c.tr.Error(le)}
	}
	return &ConnectingFailedError{Stage: "io", Cause: c.tr.Error(err)}
}

func (c *Conn) authFailed(err error) error {
	if le, ok := err.(command.LogicError); ok {
		return &ConnectingFailedError{Stage: "auth", Cause: c.tr.Error(le)}
	}
	return &ConnectingFailedError{Stage: "io", Cause: c.tr.Error(err)}
}

// Send runs a single command against the connection: a capability
// preflight (CheckAvailability) followed by Exec if it passes.
func (c *Conn) Send(ctx context.Context, cmd command.Command) (*reply.Response, error) {
	if err := cmd.CheckAvailability(c.wire.Ehlo); err != nil {
		return nil, err
	}
	return cmd.Exec(ctx, c.wire)
}

// Quit sends QUIT and shuts down the socket regardless of the response,
// per spec.md §4.7: errors from QUIT are swallowed, since the intent is
// closure either way.
func (c *Conn) Quit(ctx context.Context) {
	defer c.tr.Finish()
	defer c.wire.Socket.Shutdown()

	_, err := (command.Quit{}).Exec(ctx, c.wire)
	if err != nil {
		c.tr.Debugf("quit: %v (ignored)", err)
	}
}
