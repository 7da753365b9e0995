// Package chain implements ordered execution of a list of commands with a
// pluggable recovery policy for the first logical failure (spec.md
// §4.8), generalizing the teacher's courier.SMTP.Deliver/attempt.deliver
// retry-and-give-up loop into a generic command sequence.
package chain

import (
	"context"
	"fmt"

	"blitiri.com.ar/go/smtpclient/internal/command"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

// Observer, if non-nil, is called once for every command in cmds whose
// Exec returned a response, with that response and the error Exec
// returned. Commands without a response (CheckAvailability failures,
// transport errors) never reach it. It is the hook callers use to feed
// per-response metrics without Run itself knowing what a metric is.
type Observer func(resp *reply.Response, err error)

// Error reports which command in the chain failed, by its 0-based
// position in the original input order, and why.
type Error struct {
	Index int
	Cause command.LogicError
}

func (e *Error) Error() string {
	return fmt.Sprintf("chain: command %d failed: %v", e.Index, e.Cause)
}
func (e *Error) Unwrap() error { return e.Cause }

// Policy decides what happens after a command in the chain fails with a
// LogicError. It returns true if the chain should stop (propagating the
// failure), or false to continue with the next command -- RFC 5321
// permits partial RCPT failure, which is the main reason to continue.
type Policy interface {
	Decide(ctx context.Context, conn *wire.Conn, failedIndex int, cause command.LogicError) (stop bool, err error)
}

// Stop always halts the chain on the first failure.
type Stop struct{}

func (Stop) Decide(context.Context, *wire.Conn, int, command.LogicError) (bool, error) {
	return true, nil
}

// StopAndReset halts the chain on the first failure, but first issues an
// RSET. A logic-level RSET failure is impossible in a well-behaved
// server and is promoted to a plain transport error, since the session
// state would otherwise be undefined.
type StopAndReset struct{}

func (StopAndReset) Decide(ctx context.Context, conn *wire.Conn, failedIndex int, cause command.LogicError) (bool, error) {
	_, err := (command.Reset{}).Exec(ctx, conn)
	if err != nil {
		if _, ok := err.(command.LogicError); ok {
			// A logical RSET failure is impossible in principle (RSET
			// has no preconditions to violate); if a server somehow
			// sends one, the session's state is undefined, so treat it
			// as a transport-level failure instead.
			return true, fmt.Errorf("chain: RSET itself failed logically, promoting to transport error: %w", err)
		}
		return true, err
	}
	return true, nil
}

// Run executes cmds in order against conn. On the first LogicError,
// policy.Decide is consulted; if it says to stop, Run returns an *Error
// identifying the failed command's original index. A transport error
// (from either a command or the policy) aborts immediately and is
// returned as-is, not wrapped in *Error, since the connection is assumed
// broken at that point. obs may be nil.
func Run(ctx context.Context, conn *wire.Conn, cmds []*command.Boxed, policy Policy, obs Observer) error {
	for i, cmd := range cmds {
		if err := cmd.CheckAvailability(conn.Ehlo); err != nil {
			if le, ok := err.(command.LogicError); ok {
				stop, perr := policy.Decide(ctx, conn, i, le)
				if perr != nil {
					return perr
				}
				if stop {
					return &Error{Index: i, Cause: le}
				}
				continue
			}
			return err
		}

		resp, err := cmd.Exec(ctx, conn)
		if obs != nil && resp != nil {
			obs(resp, err)
		}
		if err == nil {
			continue
		}

		le, ok := err.(command.LogicError)
		if !ok {
			return err
		}

		stop, perr := policy.Decide(ctx, conn, i, le)
		if perr != nil {
			return perr
		}
		if stop {
			return &Error{Index: i, Cause: le}
		}
	}
	return nil
}
