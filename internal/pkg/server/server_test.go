package server

import (
	"context"
	"net"
	"testing"
	"time"

	"morris/internal/pkg/wire"

	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	disconnected chan string
}

func (h *echoHandler) HandleEnvelope(_ context.Context, conn *Conn, env *wire.Envelope) {
	_ = conn.Send(env)
}

func (h *echoHandler) HandleDisconnect(_ context.Context, conn *Conn) {
	h.disconnected <- conn.PlayerID()
}

func TestServerEchoAndShutdown(t *testing.T) {
	handler := &echoHandler{disconnected: make(chan string, 1)}
	srv, err := NewServer(WithHandler(handler), WithPort(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return srv.Addr() != nil
	}, time.Second, 10*time.Millisecond)

	sock, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)

	env, err := wire.NewEnvelope(wire.TypeConnect, "", &wire.ConnectRequest{Name: "alice"})
	require.NoError(t, err)
	require.NoError(t, wire.WriteFrame(sock, env))

	echoed, err := wire.ReadFrame(sock)
	require.NoError(t, err)
	require.Equal(t, wire.TypeConnect, echoed.Type)
	require.NotZero(t, echoed.Timestamp)

	require.NoError(t, sock.Close())
	select {
	case <-handler.disconnected:
	case <-time.After(time.Second):
		t.Fatal("disconnect never reached the handler")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRequiresHandler(t *testing.T) {
	_, err := NewServer(WithPort(0))
	require.Error(t, err)
}

func TestConnPlayerID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	conn := newConn(server, 1)
	defer conn.Close()

	require.Empty(t, conn.PlayerID())
	conn.SetPlayerID("p1")
	require.Equal(t, "p1", conn.PlayerID())
}

func TestConnSlowClientDropped(t *testing.T) {
	// Nobody reads the client end, so the write loop blocks on its
	// first frame and the queue can only fill up.
	client, server := net.Pipe()
	defer client.Close()
	conn := newConn(server, 2)

	env, err := wire.NewEnvelope(wire.TypeWelcome, "", &wire.WelcomeData{PlayerID: "p1"})
	require.NoError(t, err)

	var sendErr error
	for i := 0; i < 10; i++ {
		if sendErr = conn.Send(env); sendErr != nil {
			break
		}
	}
	require.ErrorIs(t, sendErr, ErrSlowClient)

	// The overflow closed the connection.
	require.ErrorIs(t, conn.Send(env), wire.ErrConnectionClosed)
}

func TestConnCloseIdempotent(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	conn := newConn(server, 1)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_, err := conn.Receive()
	require.Error(t, err)
}
