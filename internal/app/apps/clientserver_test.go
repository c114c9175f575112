package apps_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"morris/internal/app/apps"
	"morris/internal/app/cfg"
	"morris/internal/pkg/client"
	"morris/internal/pkg/wire"

	"github.com/stretchr/testify/require"
)

// startServer runs a ServerApp on the given port and blocks until it
// accepts connections.
func startServer(t *testing.T, port uint16) {
	t.Helper()
	app, err := apps.NewServerApp(cfg.NewPortCfg(port))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		if err := app.Run(ctx, nil); err != nil {
			t.Errorf("server stopped: %v", err)
		}
	}()

	addr := net.JoinHostPort("localhost", strconv.Itoa(int(port)))
	require.Eventually(t, func() bool {
		sock, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = sock.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

func connect(t *testing.T, ctx context.Context, port uint16, name string) *client.Client {
	t.Helper()
	c, err := client.NewClient(
		client.WithServerPort(port),
		client.WithName(name),
	)
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	require.NotEmpty(t, c.PlayerID())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientServerFullGame(t *testing.T) {
	const port = 43117
	startServer(t, port)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	alice := connect(t, ctx, port, "alice")
	bob := connect(t, ctx, port, "bob")

	// Alice opens R1 and is its only seated player.
	require.NoError(t, alice.CreateRoom("R1"))
	event, err := alice.WaitFor(ctx, wire.TypeRoomCreated)
	require.NoError(t, err)
	created := event.Payload.(*wire.RoomCreatedData)
	require.Equal(t, "R1", created.Room.Name)
	require.Equal(t, 1, created.Room.PlayerCount)
	require.Equal(t, wire.StatusWaiting, created.Room.Status)

	// The lobby lists the room for everyone.
	require.NoError(t, bob.ListRooms())
	event, err = bob.WaitFor(ctx, wire.TypeRoomList)
	require.NoError(t, err)
	listing := event.Payload.(*wire.RoomListData)
	require.Len(t, listing.Rooms, 1)
	require.Equal(t, created.Room.RoomID, listing.Rooms[0].RoomID)

	// Bob takes the second seat and the game starts.
	require.NoError(t, bob.JoinRoom(created.Room.RoomID))
	event, err = bob.WaitFor(ctx, wire.TypeRoomJoined)
	require.NoError(t, err)
	joined := event.Payload.(*wire.RoomJoinedData)
	require.Equal(t, wire.RolePlayer, joined.Role)
	require.Equal(t, 2, joined.Room.PlayerCount)

	event, err = alice.WaitFor(ctx, wire.TypePlayerJoined)
	require.NoError(t, err)
	require.Equal(t, "bob", event.Payload.(*wire.PlayerInfo).Name)
	_, err = alice.WaitFor(ctx, wire.TypeRoomStarted)
	require.NoError(t, err)
	_, err = bob.WaitFor(ctx, wire.TypeRoomStarted)
	require.NoError(t, err)

	// Both get the authoritative state with alice to open.
	event, err = bob.WaitFor(ctx, wire.TypeSyncState)
	require.NoError(t, err)
	sync := event.Payload.(*wire.SyncStateData)
	require.Equal(t, wire.StatusInProgress, sync.Status)
	require.Equal(t, alice.PlayerID(), sync.CurrentTurn)

	// Scripted round: alice takes the middle column.
	move(t, ctx, alice, bob, 4)
	move(t, ctx, bob, alice, 0)
	move(t, ctx, alice, bob, 1)
	move(t, ctx, bob, alice, 3)
	require.NoError(t, alice.MakeMove(7))

	event, err = alice.WaitFor(ctx, wire.TypeGameWon)
	require.NoError(t, err)
	result := event.Payload.(*wire.GameResultData)
	require.Equal(t, alice.PlayerID(), result.WinnerID)
	require.Equal(t, "alice", result.WinnerName)
	require.Equal(t, []int{1, 4, 7}, result.WinningPositions)

	_, err = bob.WaitFor(ctx, wire.TypeGameLost)
	require.NoError(t, err)
	_, err = alice.WaitFor(ctx, wire.TypeGameEnded)
	require.NoError(t, err)
	_, err = bob.WaitFor(ctx, wire.TypeGameEnded)
	require.NoError(t, err)

	// A late arrival spectates and can render the finished board from
	// the sync alone.
	carol := connect(t, ctx, port, "carol")
	require.NoError(t, carol.JoinRoom(created.Room.RoomID))
	event, err = carol.WaitFor(ctx, wire.TypeRoomJoined)
	require.NoError(t, err)
	require.Equal(t, wire.RoleSpectator, event.Payload.(*wire.RoomJoinedData).Role)
	event, err = carol.WaitFor(ctx, wire.TypeSyncState)
	require.NoError(t, err)
	sync = event.Payload.(*wire.SyncStateData)
	require.Equal(t, wire.StatusFinished, sync.Status)
	require.Equal(t, alice.PlayerID(), sync.WinnerID)
	require.Equal(t, 1, sync.Scores[alice.PlayerID()])

	// Drain the sync that carol's join fanned out to bob, so the next
	// sync bob sees is the rematch one.
	_, err = bob.WaitFor(ctx, wire.TypeSyncState)
	require.NoError(t, err)

	// Bob lost, so bob opens the rematch.
	require.NoError(t, bob.RequestRematch())
	_, err = alice.WaitFor(ctx, wire.TypeRematchOffered)
	require.NoError(t, err)
	_, err = bob.WaitFor(ctx, wire.TypeRematchOffered)
	require.NoError(t, err)
	event, err = bob.WaitFor(ctx, wire.TypeSyncState)
	require.NoError(t, err)
	sync = event.Payload.(*wire.SyncStateData)
	require.Equal(t, wire.StatusInProgress, sync.Status)
	require.Equal(t, bob.PlayerID(), sync.CurrentTurn)
	require.Empty(t, sync.WinnerID)

	// Out of turn: alice is rejected, the board is untouched.
	require.NoError(t, alice.MakeMove(0))
	event, err = alice.WaitFor(ctx, wire.TypeMoveRejected)
	require.NoError(t, err)
	rejected := event.Payload.(*wire.MoveRejectedData)
	require.Equal(t, 0, rejected.Position)
	require.Equal(t, "not your turn", rejected.Reason)

	move(t, ctx, bob, alice, 0)

	// Departure reaches the remaining occupants and voids the round:
	// bob cannot play the board out unopposed.
	require.NoError(t, alice.Disconnect())
	event, err = bob.WaitFor(ctx, wire.TypePlayerLeft)
	require.NoError(t, err)
	require.Equal(t, alice.PlayerID(), event.Payload.(*wire.PlayerInfo).PlayerID)

	event, err = bob.WaitFor(ctx, wire.TypeSyncState)
	require.NoError(t, err)
	sync = event.Payload.(*wire.SyncStateData)
	require.Equal(t, wire.StatusWaiting, sync.Status)
	require.Equal(t, []string{bob.PlayerID()}, sync.PlayerIDs)

	require.NoError(t, bob.MakeMove(1))
	event, err = bob.WaitFor(ctx, wire.TypeMoveRejected)
	require.NoError(t, err)
	require.Equal(t, "game is not in progress", event.Payload.(*wire.MoveRejectedData).Reason)
}

// move plays one accepted move and checks both sides observe it.
func move(t *testing.T, ctx context.Context, mover, other *client.Client, position int) {
	t.Helper()
	require.NoError(t, mover.MakeMove(position))

	event, err := mover.WaitFor(ctx, wire.TypeMoveAccepted)
	require.NoError(t, err)
	accepted := event.Payload.(*wire.MoveData)
	require.Equal(t, mover.PlayerID(), accepted.PlayerID)
	require.Equal(t, position, accepted.Position)

	event, err = other.WaitFor(ctx, wire.TypeMoveMade)
	require.NoError(t, err)
	made := event.Payload.(*wire.MoveData)
	require.Equal(t, mover.PlayerID(), made.PlayerID)
	require.Equal(t, position, made.Position)
}

func TestServerRejectsUnregisteredRequests(t *testing.T) {
	const port = 43118
	startServer(t, port)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.NewClient(client.WithServerPort(port), client.WithName("eve"))
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	// Moving with no room open is answered, not dropped.
	require.NoError(t, c.MakeMove(0))
	_, err = c.WaitFor(ctx, wire.TypeMoveAccepted)
	require.ErrorIs(t, err, client.ErrServerError)
	require.Contains(t, err.Error(), "NO_ROOM")
}

func TestServerClosesOnMalformedPayload(t *testing.T) {
	const port = 43119
	startServer(t, port)

	sock, err := net.Dial("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	require.NoError(t, err)
	defer sock.Close()

	// A move envelope whose payload is not a move record poisons the
	// stream: the server answers once, then hangs up.
	require.NoError(t, wire.WriteFrame(sock, &wire.Envelope{Type: wire.TypeMakeMove}))

	env, err := wire.ReadFrame(sock)
	require.NoError(t, err)
	require.Equal(t, wire.TypeError, env.Type)
	payload, err := wire.DecodePayload(env)
	require.NoError(t, err)
	require.Equal(t, "DESERIALIZATION_ERROR", payload.(*wire.ErrorData).Code)

	require.NoError(t, sock.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = wire.ReadFrame(sock)
	require.ErrorIs(t, err, wire.ErrConnectionClosed)
}
