// Package mailenv implements the mail envelope data model (spec.md §3's
// MailEnvelop): a reverse path, one or more forward paths, and a body
// with an encoding requirement, plus the SMTPUTF8 need-detection that
// drives the send-mail composer's capability preflight.
package mailenv

// EncodingRequirement states what, if anything, the message body needs
// from the transport.
type EncodingRequirement int

const (
	// None means plain 7-bit US-ASCII is sufficient.
	None EncodingRequirement = iota
	// SMTPUTF8 means the message requires the SMTPUTF8 extension
	// (typically because of non-ASCII envelope addresses).
	SMTPUTF8
	// Mime8bit means the body uses 8-bit MIME content and should be sent
	// with BODY=8BITMIME when the server supports it.
	Mime8bit
)

// Address is an envelope address together with its precomputed
// "needs SMTPUTF8" flag: true if any byte in Addr is >= 0x80.
type Address struct {
	Addr          string
	NeedsSMTPUTF8 bool
}

// NewAddress computes NeedsSMTPUTF8 from addr via a byte-scan, the same
// rule the teacher's courier.smtp.isASCII uses (inverted).
func NewAddress(addr string) Address {
	return Address{Addr: addr, NeedsSMTPUTF8: !isASCII(addr)}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Mail is the message body plus its encoding requirement.
type Mail struct {
	Encoding EncodingRequirement
	Body     []byte
}

// Envelope is a complete MailEnvelop: an optional reverse path (nil means
// the null reverse path "<>"), one or more forward paths, and the mail
// itself.
type Envelope struct {
	From *Address
	To   []Address
	Mail Mail
}

// NeedsSMTPUTF8 reports whether any address in the envelope is non-ASCII,
// or the mail's encoding requirement explicitly demands SMTPUTF8
// (spec.md §4.9 step 1).
func (e *Envelope) NeedsSMTPUTF8() bool {
	if e.Mail.Encoding == SMTPUTF8 {
		return true
	}
	if e.From != nil && e.From.NeedsSMTPUTF8 {
		return true
	}
	for _, to := range e.To {
		if to.NeedsSMTPUTF8 {
			return true
		}
	}
	return false
}

// Needs8BitMime reports whether the envelope should request BODY=8BITMIME
// (spec.md §4.9 step 2): only when SMTPUTF8 isn't already in play and the
// mail explicitly asked for 8-bit MIME transport.
func (e *Envelope) Needs8BitMime() bool {
	return !e.NeedsSMTPUTF8() && e.Mail.Encoding == Mime8bit
}

