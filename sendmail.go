package smtpclient

import (
	"context"
	"fmt"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/chain"
	"blitiri.com.ar/go/smtpclient/internal/command"
	"blitiri.com.ar/go/smtpclient/internal/mailenv"
	"blitiri.com.ar/go/smtpclient/internal/reply"
)

// SendMail sends one envelope over an already-ready connection, per
// spec.md §4.9: it computes the SMTPUTF8/8BITMIME requirement, preflights
// it against the connection's capabilities, builds the MAIL/RCPT*/DATA
// chain, and runs it with chain.StopAndReset.
//
// A capability preflight miss fails immediately, as if index 0 of the
// chain had failed, without writing any bytes to the connection.
func SendMail(ctx context.Context, c *Conn, env *mailenv.Envelope) error {
	c.tr.Printf("sendmail: from=%v to=%d recipients", env.From, len(env.To))

	useSMTPUTF8 := env.NeedsSMTPUTF8()
	use8BitMime := env.Needs8BitMime()

	if useSMTPUTF8 {
		if err := requireCapabilityPreflight(c, "SMTPUTF8"); err != nil {
			return c.tr.Error(err)
		}
	}
	if use8BitMime {
		if err := requireCapabilityPreflight(c, "8BITMIME"); err != nil {
			return c.tr.Error(err)
		}
	}

	from := ""
	if env.From != nil {
		from = env.From.Addr
	}

	var mailParams []command.Param
	if useSMTPUTF8 {
		mailParams = append(mailParams, command.Param{Key: "SMTPUTF8"})
	}
	if use8BitMime {
		mailParams = append(mailParams, command.Param{Key: "BODY", Value: "8BITMIME"})
	}

	cmds := []*command.Boxed{
		command.NewBoxed(command.Mail{Path: from, Params: mailParams}),
	}
	for _, to := range env.To {
		cmds = append(cmds, command.NewBoxed(command.Rcpt{Path: to.Addr}))
	}
	cmds = append(cmds, command.NewBoxed(command.Data{Body: env.Mail.Body}))

	obs := func(resp *reply.Response, _ error) {
		responseCodeCount.Add(resp.CodeString(), 1)
	}

	err := chain.Run(ctx, c.wire, cmds, chain.StopAndReset{}, obs)
	if err != nil {
		return c.tr.Error(err)
	}
	return nil
}

// requireCapabilityPreflight mirrors spec.md §4.9 step 3: if the
// connection's EHLO data lacks name, SendMail fails with index 0 and
// MissingCapabilities{name}, without writing any bytes.
func requireCapabilityPreflight(c *Conn, name string) error {
	if c.wire.Ehlo != nil && c.wire.Ehlo.Has(name) {
		return nil
	}
	return &chain.Error{
		Index: 0,
		Cause: &command.MissingCapabilitiesError{
			Capabilities: []ascii.Capability{ascii.NewCapability(name)},
		},
	}
}

// SendAllMails sends each envelope in mails, in order, over c (spec.md
// §4.9's streaming adapter). A logic failure of one envelope (a
// *chain.Error) is recorded and the next envelope is still sent. It does
// not attempt to reconnect: once a transport error occurs, every remaining
// envelope fails immediately with a wrapped "connection lost" error
// rather than being attempted.
func SendAllMails(ctx context.Context, c *Conn, mails []*mailenv.Envelope) []error {
	errs := make([]error, len(mails))

	lost := false
	for i, m := range mails {
		if lost {
			errs[i] = fmt.Errorf("smtpclient: connection lost, not attempting: %w", errs[i-1])
			continue
		}

		err := SendMail(ctx, c, m)
		errs[i] = err
		if err != nil {
			if _, ok := err.(*chain.Error); !ok {
				lost = true
			}
		}
	}
	return errs
}

// ConnectSendQuit dials cfg, sends every envelope in mails via
// SendAllMails, and issues QUIT, returning the per-envelope results. The
// connection is always closed, even if Dial itself fails (in which case
// every result is the dial error).
func ConnectSendQuit(ctx context.Context, cfg *Config, mails []*mailenv.Envelope) []error {
	c, err := Dial(ctx, cfg)
	if err != nil {
		errs := make([]error, len(mails))
		for i := range errs {
			errs[i] = err
		}
		return errs
	}
	defer c.Quit(ctx)

	return SendAllMails(ctx, c, mails)
}
