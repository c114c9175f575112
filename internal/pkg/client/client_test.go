package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"morris/internal/pkg/client"
	"morris/internal/pkg/wire"

	"github.com/stretchr/testify/require"
)

// scriptedServer accepts one connection, answers the connect handshake
// and hands the socket to the script.
func scriptedServer(t *testing.T, script func(sock net.Conn)) string {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		sock, err := listener.Accept()
		if err != nil {
			return
		}
		defer sock.Close()

		env, err := wire.ReadFrame(sock)
		if err != nil || env.Type != wire.TypeConnect {
			return
		}
		welcome, err := wire.NewEnvelope(wire.TypeWelcome, "", &wire.WelcomeData{PlayerID: "p1"})
		if err != nil {
			return
		}
		if err := wire.WriteFrame(sock, welcome); err != nil {
			return
		}
		script(sock)
	}()
	return listener.Addr().String()
}

func TestClientConnectHandshake(t *testing.T) {
	addr := scriptedServer(t, func(sock net.Conn) {
		// Hold the connection open until the client hangs up.
		_, _ = wire.ReadFrame(sock)
	})
	c, err := client.NewClient(client.WithServerAddr(addr), client.WithName("alice"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	require.Equal(t, "p1", c.PlayerID())
	require.NoError(t, c.Close())
}

func TestClientWaitForSkipsAndFailsOnError(t *testing.T) {
	addr := scriptedServer(t, func(sock net.Conn) {
		// An unrelated event first, then a typed error.
		started, _ := wire.NewEnvelope(wire.TypeRoomStarted, "", nil)
		_ = wire.WriteFrame(sock, started)
		failure, _ := wire.NewEnvelope(wire.TypeError, "", &wire.ErrorData{
			Code:    "NO_ROOM",
			Message: "no active game",
		})
		_ = wire.WriteFrame(sock, failure)
		_, _ = wire.ReadFrame(sock)
	})
	c, err := client.NewClient(client.WithServerAddr(addr))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	_, err = c.WaitFor(ctx, wire.TypeMoveAccepted)
	require.ErrorIs(t, err, client.ErrServerError)
	require.Contains(t, err.Error(), "NO_ROOM")
}

func TestClientEventsClosedOnServerDrop(t *testing.T) {
	addr := scriptedServer(t, func(sock net.Conn) {
		_ = sock.Close()
	})
	c, err := client.NewClient(client.WithServerAddr(addr))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	select {
	case _, ok := <-c.Events():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("events channel never closed")
	}

	_, err = c.WaitFor(ctx, wire.TypeRoomList)
	require.ErrorIs(t, err, client.ErrClientDisconnected)
}
