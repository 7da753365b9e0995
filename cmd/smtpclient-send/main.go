// smtpclient-send is a command-line tool for sending a single email
// through an SMTP server, exercising smtpclient end to end.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"blitiri.com.ar/go/smtpclient"
	"blitiri.com.ar/go/smtpclient/internal/command/auth"
	"blitiri.com.ar/go/smtpclient/internal/log"
	"blitiri.com.ar/go/smtpclient/internal/mailenv"
)

var (
	host = flag.String("host", "", "SMTP server to connect to (required)")
	port = flag.String("port", "587", "port to connect to")

	security = flag.String("security", "starttls",
		"one of: starttls, direct, none")
	insecureSkipVerify = flag.Bool("insecure_skip_verify", false,
		"skip TLS certificate verification (testing only)")

	clientID = flag.String("client_id", "", "EHLO identity; default os hostname")

	authUser = flag.String("auth_user", "", "AUTH PLAIN username")
	authPass = flag.String("auth_pass", "", "AUTH PLAIN password")

	from = flag.String("from", "", "envelope from address")
	to   = flag.String("to", "", "comma-separated envelope recipient addresses")

	dataFile = flag.String("data", "-",
		"path to the message body, or - for stdin")

	timeout = flag.Duration("timeout", 30*time.Second,
		"overall timeout for the connection and send")
)

func main() {
	flag.Parse()
	log.Init()

	if *host == "" || *to == "" {
		log.Fatalf("usage: smtpclient-send -host <host> -to <addr>[,<addr>...] [-from <addr>]")
	}

	body, err := readBody(*dataFile)
	if err != nil {
		log.Fatalf("reading message body: %v", err)
	}

	cfg := &smtpclient.Config{
		Host:     *host,
		Port:     *port,
		ClientID: *clientID,
		Security: parseSecurity(*security),
	}
	if *insecureSkipVerify {
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if *authUser != "" {
		cfg.AuthCmd = auth.Plain{Authzid: *authUser, Authcid: *authUser, Passwd: *authPass}
	}

	env := &mailenv.Envelope{
		To:   addresses(*to),
		Mail: mailenv.Mail{Body: body},
	}
	if *from != "" {
		a := mailenv.NewAddress(*from)
		env.From = &a
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := smtpclient.Dial(ctx, cfg)
	if err != nil {
		log.Fatalf("connecting to %s:%s: %v", *host, *port, err)
	}
	defer conn.Quit(ctx)

	log.Infof("connected to %s:%s (secure=%v)", *host, *port, conn.IsSecure())

	if err := smtpclient.SendMail(ctx, conn, env); err != nil {
		log.Fatalf("sending mail: %v", err)
	}

	log.Infof("message accepted for %d recipient(s)", len(env.To))
}

func parseSecurity(s string) smtpclient.Security {
	switch strings.ToLower(s) {
	case "direct":
		return smtpclient.SecurityDirectTLS
	case "none":
		return smtpclient.SecurityNone
	default:
		return smtpclient.SecurityStartTLS
	}
}

func addresses(s string) []mailenv.Address {
	var addrs []mailenv.Address
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		addrs = append(addrs, mailenv.NewAddress(a))
	}
	return addrs
}

func readBody(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
