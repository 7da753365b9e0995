package smtpclient

import "fmt"

// ConnectingFailedError reports that Dial could not bring up a usable
// connection (spec.md §4.10's ConnectingFailed). Stage identifies which
// step of the connect pipeline failed.
type ConnectingFailedError struct {
	// Stage is one of "io", "setup" or "auth".
	Stage string
	// Cause is the underlying error: a plain transport error for "io",
	// or a command.LogicError for "setup"/"auth".
	Cause error
}

func (e *ConnectingFailedError) Error() string {
	return fmt.Sprintf("smtpclient: connecting failed at %s: %v", e.Stage, e.Cause)
}

func (e *ConnectingFailedError) Unwrap() error { return e.Cause }
