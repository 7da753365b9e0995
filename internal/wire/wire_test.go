package wire

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWriteDotStashedRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ".\r\n"},
		{"no-dot", "hi\r\n", "hi\r\n.\r\n"},
		{"no-dot-no-trailing-crlf", "hi", "hi\r\n.\r\n"},
		{"leading-dot-line", "hi\r\n.secret\r\n", "hi\r\n..secret\r\n.\r\n"},
		{"dot-at-start", ".abc\r\n", "..abc\r\n.\r\n"},
		{"ends-exactly-crlf", "abc\r\n", "abc\r\n.\r\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			conn := New(nil)
			if err := conn.WriteDotStashed(strings.NewReader(c.in)); err != nil {
				t.Fatalf("WriteDotStashed: %v", err)
			}
			got := conn.output.String()
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestWriteLineFromParts(t *testing.T) {
	conn := New(nil)
	if err := conn.WriteLineFromParts("MAIL FROM:<", "a@b", ">"); err != nil {
		t.Fatalf("WriteLineFromParts: %v", err)
	}
	want := "MAIL FROM:<a@b>\r\n"
	if got := conn.output.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTryPopLine(t *testing.T) {
	conn := New(nil)
	conn.input.WriteString("first\r\nsecond")

	var got string
	popped, err := conn.TryPopLine(func(line []byte) error {
		got = string(line)
		return nil
	})
	if err != nil || !popped {
		t.Fatalf("TryPopLine: popped=%v err=%v", popped, err)
	}
	if got != "first" {
		t.Errorf("got %q", got)
	}

	// No CRLF in the remainder yet: should not pop, buffer untouched.
	popped, err = conn.TryPopLine(func(line []byte) error {
		t.Fatalf("parseFn should not be called: %q", line)
		return nil
	})
	if err != nil || popped {
		t.Fatalf("expected no pop, got popped=%v err=%v", popped, err)
	}
	if conn.input.String() != "second" {
		t.Errorf("buffer should be untouched, got %q", conn.input.String())
	}
}

func TestTryPopLineParseFailureDoesNotAdvance(t *testing.T) {
	conn := New(nil)
	conn.input.WriteString("bad\r\nrest\r\n")

	_, err := conn.TryPopLine(func(line []byte) error {
		return bytesErr
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if conn.input.String() != "bad\r\nrest\r\n" {
		t.Errorf("buffer should not have advanced, got %q", conn.input.String())
	}
}

var bytesErr = bytesErrType{}

type bytesErrType struct{}

func (bytesErrType) Error() string { return "parse failed" }

func TestParseResponseRequiresEmptyOutput(t *testing.T) {
	conn := New(nil)
	conn.output.WriteString("pending")
	_, err := conn.ParseResponse(context.Background())
	if err == nil {
		t.Fatalf("expected error when output buffer is non-empty")
	}
}

func TestParseResponseMultiLine(t *testing.T) {
	sock := &fakeReadSocket{data: []byte("250-example.test\r\n250 HELP\r\n")}
	conn := New(sock)

	resp, err := conn.ParseResponse(context.Background())
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.CodeString() != "250" || len(resp.Lines) != 2 {
		t.Errorf("got %+v", resp)
	}
}

type fakeReadSocket struct {
	data []byte
	pos  int
}

func (f *fakeReadSocket) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, nil
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}
func (f *fakeReadSocket) Write(p []byte) (int, error)         { return len(p), nil }
func (f *fakeReadSocket) Flush() error                        { return nil }
func (f *fakeReadSocket) Shutdown() error                     { return nil }
func (f *fakeReadSocket) IsSecure() bool                      { return false }
func (f *fakeReadSocket) SetDeadline(ctx context.Context) error { return nil }

func TestFlushDrainsOutput(t *testing.T) {
	var buf bytes.Buffer
	sock := &captureSocket{buf: &buf}
	conn := New(sock)
	conn.output.WriteString("NOOP\r\n")

	if err := conn.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.String() != "NOOP\r\n" {
		t.Errorf("got %q", buf.String())
	}
	if conn.output.Len() != 0 {
		t.Errorf("expected output buffer to be drained")
	}
}

type captureSocket struct {
	buf *bytes.Buffer
}

func (c *captureSocket) Read(p []byte) (int, error)          { return 0, nil }
func (c *captureSocket) Write(p []byte) (int, error)         { return c.buf.Write(p) }
func (c *captureSocket) Flush() error                        { return nil }
func (c *captureSocket) Shutdown() error                     { return nil }
func (c *captureSocket) IsSecure() bool                      { return false }
func (c *captureSocket) SetDeadline(ctx context.Context) error { return nil }
