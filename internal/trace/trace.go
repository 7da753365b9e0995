// Package trace extends golang.org/x/net/trace with a convenience type
// that also mirrors every event into internal/log, the way the teacher's
// internal/trace does for chasquid's incoming/outgoing SMTP sessions.
// Here it traces outbound Dial and SendMail calls instead.
package trace

import (
	"fmt"
	"net/http"
	"strconv"

	"blitiri.com.ar/go/smtpclient/internal/log"

	nettrace "golang.org/x/net/trace"
)

func init() {
	// golang.org/x/net/trace has its own authorization which by default
	// only allows localhost; that's confusing when the monitoring
	// endpoint is accessed remotely (e.g. from a sidecar), so open it up
	// the same way the teacher does.
	nettrace.AuthRequest = func(req *http.Request) (any, sensitive bool) {
		return true, true
	}
}

// A Trace represents one active Dial or SendMail call.
type Trace struct {
	family string
	title  string
	t      nettrace.Trace
}

// New starts a trace. family is typically "smtpclient.Dial" or
// "smtpclient.SendMail"; title is usually the target address.
func New(family, title string) *Trace {
	t := &Trace{family, title, nettrace.New(family, title)}

	// The default max events (10) is a bit short for a full SMTP
	// exchange (greeting, EHLO, STARTTLS, re-EHLO, AUTH, MAIL, RCPT,
	// DATA); 30 comfortably covers it.
	t.t.SetMaxEvents(30)
	return t
}

// Printf adds this message to the trace's log.
func (t *Trace) Printf(format string, a ...interface{}) {
	t.t.LazyPrintf(format, a...)
	log.Log(log.Info, 1, "%s %s: %s", t.family, t.title,
		quote(fmt.Sprintf(format, a...)))
}

// Debugf adds this message to the trace's log, with a debugging level.
func (t *Trace) Debugf(format string, a ...interface{}) {
	t.t.LazyPrintf(format, a...)
	log.Log(log.Debug, 1, "%s %s: %s",
		t.family, t.title, quote(fmt.Sprintf(format, a...)))
}

// Errorf adds this message to the trace's log, with an error level, and
// returns it as an error value for the caller to propagate.
func (t *Trace) Errorf(format string, a ...interface{}) error {
	err := fmt.Errorf(format, a...)
	t.t.SetError()
	t.t.LazyPrintf("error: %v", err)
	log.Log(log.Info, 1, "%s %s: error: %s", t.family, t.title,
		quote(err.Error()))
	return err
}

// Error marks the trace as having seen an error, and logs it.
func (t *Trace) Error(err error) error {
	t.t.SetError()
	t.t.LazyPrintf("error: %v", err)
	log.Log(log.Info, 1, "%s %s: error: %s", t.family, t.title,
		quote(err.Error()))
	return err
}

// Finish the trace. It should not be used afterwards.
func (t *Trace) Finish() {
	t.t.Finish()
}

func quote(s string) string {
	qs := strconv.Quote(s)
	return qs[1 : len(qs)-1]
}
