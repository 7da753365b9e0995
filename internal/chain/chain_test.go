package chain_test

import (
	"context"
	"testing"

	"blitiri.com.ar/go/smtpclient/internal/chain"
	"blitiri.com.ar/go/smtpclient/internal/command"
	"blitiri.com.ar/go/smtpclient/internal/mocksock"
	"blitiri.com.ar/go/smtpclient/internal/reply"
	"blitiri.com.ar/go/smtpclient/internal/wire"
)

func newConn(t *testing.T, script []mocksock.Action) *wire.Conn {
	t.Helper()
	sock := mocksock.New(t, script)
	conn := wire.New(sock)
	t.Cleanup(func() { sock.Shutdown() })
	return conn
}

func TestChainStopAndResetOnFailure(t *testing.T) {
	conn := newConn(t, []mocksock.Action{
		{Actor: mocksock.Client, Data: []byte("VRFY a\r\n")},
		{Actor: mocksock.Server, Data: []byte("250 ok\r\n")},
		{Actor: mocksock.Client, Data: []byte("VRFY b\r\n")},
		{Actor: mocksock.Server, Data: []byte("550 no such user\r\n")},
		{Actor: mocksock.Client, Data: []byte("RSET\r\n")},
		{Actor: mocksock.Server, Data: []byte("250 ok\r\n")},
	})

	cmds := []*command.Boxed{
		command.NewBoxed(command.Vrfy{Address: "a"}),
		command.NewBoxed(command.Vrfy{Address: "b"}),
		command.NewBoxed(command.Vrfy{Address: "c"}),
	}

	err := chain.Run(context.Background(), conn, cmds, chain.StopAndReset{}, nil)
	cerr, ok := err.(*chain.Error)
	if !ok {
		t.Fatalf("expected *chain.Error, got %v", err)
	}
	if cerr.Index != 1 {
		t.Errorf("expected failure at index 1, got %d", cerr.Index)
	}
}

// continueOnFailure is a Policy that never stops, exercising the
// RFC 5321 "partial RCPT failure is fine" case.
type continueOnFailure struct{}

func (continueOnFailure) Decide(context.Context, *wire.Conn, int, command.LogicError) (bool, error) {
	return false, nil
}

func TestChainContinuesWithCustomPolicy(t *testing.T) {
	conn := newConn(t, []mocksock.Action{
		{Actor: mocksock.Client, Data: []byte("VRFY a\r\n")},
		{Actor: mocksock.Server, Data: []byte("550 no\r\n")},
		{Actor: mocksock.Client, Data: []byte("VRFY b\r\n")},
		{Actor: mocksock.Server, Data: []byte("250 ok\r\n")},
	})

	cmds := []*command.Boxed{
		command.NewBoxed(command.Vrfy{Address: "a"}),
		command.NewBoxed(command.Vrfy{Address: "b"}),
	}

	err := chain.Run(context.Background(), conn, cmds, continueOnFailure{}, nil)
	if err != nil {
		t.Fatalf("expected chain to continue past the failure, got %v", err)
	}
}

func TestChainObserverSeesEachResponse(t *testing.T) {
	conn := newConn(t, []mocksock.Action{
		{Actor: mocksock.Client, Data: []byte("VRFY a\r\n")},
		{Actor: mocksock.Server, Data: []byte("550 no\r\n")},
		{Actor: mocksock.Client, Data: []byte("VRFY b\r\n")},
		{Actor: mocksock.Server, Data: []byte("250 ok\r\n")},
	})

	cmds := []*command.Boxed{
		command.NewBoxed(command.Vrfy{Address: "a"}),
		command.NewBoxed(command.Vrfy{Address: "b"}),
	}

	var codes []string
	obs := func(resp *reply.Response, err error) {
		codes = append(codes, resp.CodeString())
	}

	if err := chain.Run(context.Background(), conn, cmds, continueOnFailure{}, obs); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"550", "250"}
	if len(codes) != len(want) || codes[0] != want[0] || codes[1] != want[1] {
		t.Errorf("observed codes = %v, want %v", codes, want)
	}
}

func TestChainStopsImmediately(t *testing.T) {
	conn := newConn(t, []mocksock.Action{
		{Actor: mocksock.Client, Data: []byte("VRFY a\r\n")},
		{Actor: mocksock.Server, Data: []byte("550 no\r\n")},
	})

	cmds := []*command.Boxed{
		command.NewBoxed(command.Vrfy{Address: "a"}),
		command.NewBoxed(command.Vrfy{Address: "b"}),
	}

	err := chain.Run(context.Background(), conn, cmds, chain.Stop{}, nil)
	cerr, ok := err.(*chain.Error)
	if !ok || cerr.Index != 0 {
		t.Fatalf("expected *chain.Error at index 0, got %v", err)
	}
}
