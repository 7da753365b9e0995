package smtpclient

import (
	"crypto/tls"
	"os"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/command"
	"blitiri.com.ar/go/smtpclient/internal/ehlo"
)

// Security selects how (or whether) TLS is layered onto the connection
// (spec.md §4.7/§6).
type Security int

const (
	// SecurityStartTLS dials plain and upgrades via STARTTLS right after
	// the initial EHLO. This is the default.
	SecurityStartTLS Security = iota
	// SecurityDirectTLS performs the TLS handshake as part of the
	// initial connect, before any SMTP traffic.
	SecurityDirectTLS
	// SecurityNone never uses TLS. Deprecated: only useful against
	// trusted loopback relays, or in tests.
	SecurityNone
)

// Config is the immutable-once-built configuration for Dial (spec.md
// §4.7/§6).
type Config struct {
	// Host is the server to connect to. Required.
	Host string

	// Port defaults to "587" (the submission port) if empty. Use "25"
	// for MX-style delivery.
	Port string

	// Security selects the TLS mode. Defaults to SecurityStartTLS.
	Security Security

	// TLSConfig is the base TLS configuration used for both
	// SecurityDirectTLS and STARTTLS handshakes. A nil value is
	// equivalent to &tls.Config{}.
	TLSConfig *tls.Config

	// TLSSetup, if non-nil, is given the chance to customize the TLS
	// configuration (after ServerName has been filled in) right before
	// the handshake.
	TLSSetup func(*tls.Config) *tls.Config

	// ClientID is the domain or address literal this client identifies
	// itself as in EHLO. Defaults to the OS hostname, falling back to
	// "127.0.0.1" if it cannot be determined or does not parse as a
	// Domain.
	ClientID string

	// AuthCmd runs right after the connection is otherwise ready.
	// Defaults to command.Noop{} (no authentication).
	AuthCmd command.Command

	// AuthOptional, when true, wraps AuthCmd as command.Select{AuthCmd,
	// Noop{}}: "authenticate if the server supports it, otherwise proceed
	// unauthenticated" instead of failing Dial outright. Ignored if
	// AuthCmd is nil.
	AuthOptional bool

	// SyntaxErrorHandling controls how the EHLO response parser reacts
	// to an unparsable capability line. Defaults to ehlo.Lax.
	SyntaxErrorHandling ehlo.SyntaxErrorHandling
}

func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID()
	}
	if cfg.AuthCmd == nil {
		cfg.AuthCmd = command.Noop{}
	} else if cfg.AuthOptional {
		cfg.AuthCmd = command.Select{A: cfg.AuthCmd, B: command.Noop{}}
	}
	return &cfg
}

func defaultClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "127.0.0.1"
	}
	if _, err := ascii.NewDomain(host); err != nil {
		return "127.0.0.1"
	}
	return host
}
