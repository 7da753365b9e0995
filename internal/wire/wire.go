// Package wire implements the buffered connection I/O core (spec.md
// §4.4): line writing, flushing, multi-line response parsing, and the
// dot-stashed DATA streaming transform, all layered over a
// transport.Socket.
package wire

import (
	"bytes"
	"context"
	"errors"
	"io"

	"blitiri.com.ar/go/smtpclient/internal/ehlo"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/transport"
)

// Buffer growth increments, per spec.md §3.
const (
	outputGrowIncrement = 1024
	inputGrowIncrement  = 256
)

// ErrSocketClosed is returned by ReadFromSocket when the underlying
// socket reports a clean close (a zero-byte read).
var ErrSocketClosed = errors.New("wire: socket closed")

// Conn owns the socket, the two buffers, and the last-known EHLO data for
// one connection. It is the sole owner of the socket at any instant: only
// one command may be executing against a Conn at a time (spec.md §3's
// Connection invariant).
type Conn struct {
	Socket transport.Socket
	Ehlo   *ehlo.Data

	input  bytes.Buffer
	output bytes.Buffer
}

// New wraps a socket in a fresh Conn with empty buffers and no EHLO data.
func New(s transport.Socket) *Conn {
	return &Conn{Socket: s}
}

// ResetBuffers discards any buffered input and output. Used by STARTTLS
// to enforce spec.md's I-TLS invariant that no pre-upgrade bytes are
// observable after the socket variant changes.
func (c *Conn) ResetBuffers() {
	c.input.Reset()
	c.output.Reset()
}

// WriteLineFromParts appends each part to the output buffer, separated by
// nothing within the line, followed by CR LF. Output capacity is grown in
// fixed 1024-byte increments ahead of the write.
func (c *Conn) WriteLineFromParts(parts ...string) error {
	n := 2 // CR LF
	for _, p := range parts {
		n += len(p)
	}
	c.growOutput(n)

	for _, p := range parts {
		c.output.WriteString(p)
	}
	c.output.WriteString("\r\n")
	return nil
}

func (c *Conn) growOutput(n int) {
	have := c.output.Cap() - c.output.Len()
	if have >= n {
		return
	}
	need := n - have
	grow := ((need + outputGrowIncrement - 1) / outputGrowIncrement) * outputGrowIncrement
	c.output.Grow(grow)
}

func (c *Conn) growInput(n int) {
	have := c.input.Cap() - c.input.Len()
	if have >= n {
		return
	}
	need := n - have
	grow := ((need + inputGrowIncrement - 1) / inputGrowIncrement) * inputGrowIncrement
	c.input.Grow(grow)
}

// Flush writes the output buffer to the socket until empty, then flushes
// the socket, returning once both are drained. A Write that reports
// transport.ErrWouldBlock is retried in place: in the futures-based spec
// this is a suspension point the runtime resumes later, and a plain
// retry is its direct translation into blocking Go.
func (c *Conn) Flush(ctx context.Context) error {
	if err := c.Socket.SetDeadline(ctx); err != nil {
		return err
	}
	for c.output.Len() > 0 {
		n, err := c.Socket.Write(c.output.Bytes())
		if n > 0 {
			c.output.Next(n)
		}
		if err == transport.ErrWouldBlock {
			continue
		}
		if err != nil {
			return err
		}
	}
	return c.Socket.Flush()
}

// ReadFromSocket performs one read into the input buffer, growing its
// capacity by 256 bytes if it is full. It returns ErrSocketClosed on a
// zero-byte read (clean close). A Read that reports
// transport.ErrWouldBlock is retried in place; see Flush.
func (c *Conn) ReadFromSocket(ctx context.Context) error {
	if err := c.Socket.SetDeadline(ctx); err != nil {
		return err
	}

	for {
		c.growInput(inputGrowIncrement)

		buf := make([]byte, inputGrowIncrement)
		n, err := c.Socket.Read(buf)
		if n > 0 {
			c.input.Write(buf[:n])
			return nil
		}
		if err == transport.ErrWouldBlock {
			continue
		}
		if err == nil || err == io.EOF {
			return ErrSocketClosed
		}
		return err
	}
}

// TryPopLine scans the input buffer for a CR LF terminator. If found, it
// passes the bytes before the terminator (without CR LF) to parseFn and,
// only if parseFn succeeds, advances the buffer past the terminator. If
// no terminator is present, or parseFn fails, the buffer is left
// untouched.
func (c *Conn) TryPopLine(parseFn func([]byte) error) (bool, error) {
	data := c.input.Bytes()
	idx := bytes.Index(data, []byte("\r\n"))
	if idx < 0 {
		return false, nil
	}

	line := data[:idx]
	if err := parseFn(line); err != nil {
		return false, err
	}

	c.input.Next(idx + 2)
	return true, nil
}

// ParseResponse requires the output buffer to be empty (spec.md §3's
// invariant: no command may have unflushed bytes outstanding while a
// response is parsed), and reads from the socket until a complete
// multi-line Response is available.
func (c *Conn) ParseResponse(ctx context.Context) (*reply.Response, error) {
	if c.output.Len() != 0 {
		return nil, errors.New("wire: ParseResponse called with non-empty output buffer")
	}

	var acc reply.Accumulator
	for {
		var resp *reply.Response
		for {
			popped, err := c.TryPopLine(func(line []byte) error {
				r, ferr := acc.Feed(line)
				resp = r
				return ferr
			})
			if err != nil {
				return nil, err
			}
			if !popped {
				break
			}
			if resp != nil {
				return resp, nil
			}
		}

		if err := c.ReadFromSocket(ctx); err != nil {
			return nil, err
		}
	}
}

// dotStashState is the small state machine WriteDotStashed maintains
// while scanning the source stream for lines beginning with '.'.
type dotStashState int

const (
	stateNone dotStashState = iota
	stateHitCr
	stateHitLf
)

// WriteDotStashed consumes source and writes it to the output buffer,
// applying the CRLF-based transparency transform: any line beginning
// with '.' has an extra '.' inserted immediately before it. When source
// is exhausted, a CR LF is appended if the stream is non-empty and didn't
// already end on one, followed by the end-of-data terminator ". CR LF".
func (c *Conn) WriteDotStashed(source io.Reader) error {
	// Start as if a line had just ended, so a '.' at the very start of
	// source is stashed too and an empty source yields just ". CR LF".
	state := stateHitLf

	buf := make([]byte, 4096)
	for {
		n, err := source.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]

			switch {
			case b == '\r':
				state = stateHitCr
			case b == '\n' && state == stateHitCr:
				state = stateHitLf
			case b == '.' && state == stateHitLf:
				c.growOutput(1)
				c.output.WriteByte('.')
				state = stateNone
			default:
				state = stateNone
			}

			c.growOutput(1)
			c.output.WriteByte(b)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if state != stateHitLf {
		c.growOutput(2)
		c.output.WriteString("\r\n")
	}
	c.growOutput(3)
	c.output.WriteString(".\r\n")
	return nil
}
