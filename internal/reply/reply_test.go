package reply

import "testing"

func feedAll(t *testing.T, lines ...string) (*Response, error) {
	t.Helper()
	var acc Accumulator
	var resp *Response
	var err error
	for _, l := range lines {
		resp, err = acc.Feed([]byte(l))
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func TestSingleLine(t *testing.T) {
	resp, err := feedAll(t, "250 OK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CodeString() != "250" || resp.Lines[0] != "OK" {
		t.Errorf("got %+v", resp)
	}
	if resp.Family() != Positive || resp.IsErroneous() {
		t.Errorf("expected positive, non-erroneous, got %v", resp.Family())
	}
}

func TestMultiLine(t *testing.T) {
	resp, err := feedAll(t, "250-example.test", "250-SIZE 35651584", "250 HELP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(resp.Lines), resp.Lines)
	}
	if resp.Lines[0] != "example.test" || resp.Lines[2] != "HELP" {
		t.Errorf("got %+v", resp.Lines)
	}
}

func TestCodeMismatch(t *testing.T) {
	var acc Accumulator
	if _, err := acc.Feed([]byte("250-first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := acc.Feed([]byte("251 second"))
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrCodeMismatch {
		t.Errorf("expected ErrCodeMismatch, got %v", err)
	}
}

func TestErroneousFamilies(t *testing.T) {
	cases := []struct {
		code  string
		erron bool
	}{
		{"250", false},
		{"354", false},
		{"450", true},
		{"550", true},
		{"999", true},
	}
	for _, c := range cases {
		resp, err := feedAll(t, c.code+" msg")
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", c.code, err)
		}
		if resp.IsErroneous() != c.erron {
			t.Errorf("%s: IsErroneous() = %v, want %v", c.code, resp.IsErroneous(), c.erron)
		}
	}
}

func TestLineTooShort(t *testing.T) {
	var acc Accumulator
	_, err := acc.Feed([]byte("25"))
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrLineTooShort {
		t.Errorf("expected ErrLineTooShort, got %v", err)
	}
}

func TestFourByteEmptyMessage(t *testing.T) {
	// "250 " (4 bytes) must parse as an empty-message final line.
	resp, err := feedAll(t, "250 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Lines) != 1 || resp.Lines[0] != "" {
		t.Errorf("got %+v", resp.Lines)
	}

	// A non-space 4th byte that isn't '-' either is a bad separator.
	var acc Accumulator
	_, err = acc.Feed([]byte("250\tx"))
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrBadSeparator {
		t.Errorf("expected ErrBadSeparator, got %v", err)
	}
}

func TestBadCodeByte(t *testing.T) {
	var acc Accumulator
	_, err := acc.Feed([]byte("25x ok"))
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrBadCodeByte {
		t.Errorf("expected ErrBadCodeByte, got %v", err)
	}
}

func TestBadUtf8(t *testing.T) {
	var acc Accumulator
	line := append([]byte("250 "), 0xff, 0xfe)
	_, err := acc.Feed(line)
	perr, ok := err.(*ParseError)
	if !ok || perr.Kind != ErrBadUtf8 {
		t.Errorf("expected ErrBadUtf8, got %v", err)
	}
}

func TestContinuationDoesNotAdvanceUntilFinal(t *testing.T) {
	var acc Accumulator
	resp, err := acc.Feed([]byte("250-still going"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != nil {
		t.Errorf("expected nil response while mid-continuation, got %+v", resp)
	}
}
