// Package ehlo holds the capability data learned from a successful EHLO
// command (spec.md §3's EhloData), and the line-by-line parser that
// builds it from an EHLO response. It is kept separate from the command
// and wire packages so both can depend on it without a cycle: wire.Conn
// stores the last-known *Data, and the EHLO command (internal/command)
// produces one.
package ehlo

import (
	"fmt"

	"blitiri.com.ar/go/smtpclient/internal/ascii"
	"blitiri.com.ar/go/smtpclient/internal/reply"
)

// SyntaxErrorHandling controls how the EHLO parser reacts to a
// capability line it cannot parse (spec.md §4.6).
type SyntaxErrorHandling int

const (
	// Lax skips unparsable capability lines (returning them to the caller
	// as SkippedLine values) and continues with the rest.
	Lax SyntaxErrorHandling = iota
	// Strict aborts parsing entirely on the first unparsable line.
	Strict
)

// Data is the capability set advertised by a server's EHLO response, plus
// the domain it identified itself as.
type Data struct {
	Domain       ascii.Domain
	capabilities map[string][]ascii.EhloParam
	original     map[string]ascii.Capability
}

// Has reports whether the given capability was advertised, compared
// case-insensitively.
func (d *Data) Has(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.capabilities[ascii.FoldKey(name)]
	return ok
}

// Params returns the parameters advertised alongside a capability, or nil
// if the capability was not advertised.
func (d *Data) Params(name string) []ascii.EhloParam {
	if d == nil {
		return nil
	}
	return d.capabilities[ascii.FoldKey(name)]
}

// SkippedLine records one capability line that Lax-mode parsing chose to
// skip instead of aborting on.
type SkippedLine struct {
	Line string
	Err  error
}

// Parse builds a Data from an EHLO response: the first line is
// "<domain> [greeting...]", and each subsequent line is
// "<esmtp-keyword> (SP <esmtp-param>)*". In Lax mode, an unparsable
// capability line is skipped and recorded in Skipped rather than
// aborting the whole parse; in Strict mode the first such line aborts
// with the underlying error.
func Parse(resp *reply.Response, handling SyntaxErrorHandling) (*Data, []SkippedLine, error) {
	if len(resp.Lines) == 0 {
		return nil, nil, fmt.Errorf("ehlo: empty response")
	}

	domainTok := firstToken(resp.Lines[0])
	domain, err := ascii.NewDomain(domainTok)
	if err != nil {
		// Fall back to treating the whole first token as an opaque
		// domain-shaped string is not possible if it fails grammar; this
		// is a hard failure regardless of the syntax error policy, since
		// without a domain there is nothing to key EhloData on.
		return nil, nil, err
	}

	d := &Data{
		Domain:       domain,
		capabilities: map[string][]ascii.EhloParam{},
		original:     map[string]ascii.Capability{},
	}

	var skipped []SkippedLine
	for _, line := range resp.Lines[1:] {
		kw, params, perr := parseCapabilityLine(line)
		if perr != nil {
			if handling == Strict {
				return nil, nil, perr
			}
			skipped = append(skipped, SkippedLine{Line: line, Err: perr})
			continue
		}
		cap := ascii.NewCapability(kw.String())
		key := cap.Key()
		d.capabilities[key] = params
		if _, ok := d.original[key]; !ok {
			d.original[key] = cap
		}
	}

	return d, skipped, nil
}

func firstToken(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			return s[:i]
		}
	}
	return s
}

func parseCapabilityLine(line string) (ascii.EsmtpKeyword, []ascii.EhloParam, error) {
	fields := splitSpaces(line)
	if len(fields) == 0 {
		return ascii.EsmtpKeyword{}, nil, fmt.Errorf("ehlo: empty capability line")
	}

	kw, err := ascii.NewEsmtpKeyword(fields[0])
	if err != nil {
		return ascii.EsmtpKeyword{}, nil, err
	}

	var params []ascii.EhloParam
	for _, f := range fields[1:] {
		p, err := ascii.NewEhloParam(f)
		if err != nil {
			return ascii.EsmtpKeyword{}, nil, err
		}
		params = append(params, p)
	}
	return kw, params, nil
}

func splitSpaces(s string) []string {
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
