// Package coordinator wires the session registry, the room directory
// and the game engine behind the server's envelope dispatch.
//
// Error taxonomy: protocol errors (frames or payloads that do not match
// their declared type) get a DESERIALIZATION_ERROR reply and the
// connection is closed, because the stream can no longer be trusted.
// Domain errors answer a typed envelope and keep the connection open.
// Anything that panics inside a handler is recovered at the dispatch
// boundary and answered with PROCESSING_ERROR.
package coordinator

import (
	"context"
	"fmt"

	"morris/internal/pkg/rooms"
	"morris/internal/pkg/server"
	"morris/internal/pkg/session"
	"morris/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Error codes carried by Error envelopes.
const (
	CodeInvalidData          = "INVALID_DATA"
	CodeNotConnected         = "NOT_CONNECTED"
	CodeGameNotFound         = "GAME_NOT_FOUND"
	CodeRoomNotFound         = "ROOM_NOT_FOUND"
	CodeNoRoom               = "NO_ROOM"
	CodeProcessingError      = "PROCESSING_ERROR"
	CodeDeserializationError = "DESERIALIZATION_ERROR"
	CodeRoomClosed           = "ROOM_CLOSED"
)

// Coordinator dispatches inbound envelopes to handlers and fans the
// resulting envelopes back out.
type Coordinator struct {
	registry session.Registry
	rooms    *rooms.Directory
}

// Cfg configures a Coordinator.
type Cfg func(*Coordinator) error

// WithRegistry sets the session registry.
func WithRegistry(registry session.Registry) Cfg {
	return func(c *Coordinator) error {
		c.registry = registry
		return nil
	}
}

// WithDirectory sets the room directory.
func WithDirectory(dir *rooms.Directory) Cfg {
	return func(c *Coordinator) error {
		c.rooms = dir
		return nil
	}
}

// NewCoordinator creates a new Coordinator with the given configuration.
func NewCoordinator(cfgs ...Cfg) (*Coordinator, error) {
	c := &Coordinator{}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Coordinator cfg failed")
		}
	}
	if c.registry == nil || c.rooms == nil {
		return nil, errors.New("coordinator requires a registry and a directory")
	}
	c.rooms.SetReapNotifier(c.roomReaped)
	return c, nil
}

// HandleEnvelope routes one decoded envelope. It runs on the
// connection's own goroutine, so handling is serialized per client.
func (c *Coordinator) HandleEnvelope(ctx context.Context, conn *server.Conn, env *wire.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"remote": conn.RemoteAddr(),
				"type":   env.Type.String(),
			}).Errorf("handler panic: %v", r)
			c.sendError(conn, CodeProcessingError, fmt.Sprintf("internal error handling %s", env.Type))
		}
	}()

	payload, err := wire.DecodePayload(env)
	if err != nil {
		// Protocol violation: answer, then drop the stream.
		c.sendError(conn, CodeDeserializationError, err.Error())
		_ = conn.Close()
		return
	}

	switch env.Type {
	case wire.TypeConnect:
		c.handleConnect(conn, payload.(*wire.ConnectRequest))
	case wire.TypeDisconnect:
		c.handleLeave(conn)
		_ = conn.Close()
	case wire.TypeCreateRoom:
		c.handleCreateRoom(conn, payload.(*wire.CreateRoomRequest))
	case wire.TypeListRooms:
		c.handleListRooms(conn)
	case wire.TypeJoinRoom:
		c.handleJoinRoom(conn, payload.(*wire.JoinRoomRequest))
	case wire.TypeMakeMove:
		c.handleMakeMove(conn, payload.(*wire.MakeMoveRequest))
	case wire.TypeRequestRematch:
		c.handleRematch(conn)
	case wire.TypeRequestSync:
		c.handleSync(conn)
	default:
		c.sendError(conn, CodeInvalidData, fmt.Sprintf("unexpected message type %s", env.Type))
	}
}

// HandleDisconnect is the cleanup path shared by socket close and
// explicit disconnect.
func (c *Coordinator) HandleDisconnect(ctx context.Context, conn *server.Conn) {
	c.handleLeave(conn)
}

func (c *Coordinator) handleConnect(conn *server.Conn, req *wire.ConnectRequest) {
	if req.Name == "" {
		c.sendError(conn, CodeInvalidData, "display name required")
		return
	}
	if conn.PlayerID() != "" {
		c.sendError(conn, CodeInvalidData, "already connected")
		return
	}
	playerID, err := c.registry.Connect(conn, req.Name)
	if err != nil {
		c.sendError(conn, CodeProcessingError, "register player failed")
		return
	}
	conn.SetPlayerID(playerID)
	logger.WithFields(logrus.Fields{"player": playerID, "name": req.Name}).Info("player connected")
	c.send(conn, wire.TypeWelcome, &wire.WelcomeData{PlayerID: playerID})
}

func (c *Coordinator) handleCreateRoom(conn *server.Conn, req *wire.CreateRoomRequest) {
	playerID, entry, ok := c.requirePlayer(conn)
	if !ok {
		return
	}
	summary, err := c.rooms.Create(playerID, entry.Name, req.Name)
	if err != nil {
		c.sendError(conn, CodeInvalidData, err.Error())
		return
	}
	c.send(conn, wire.TypeRoomCreated, &wire.RoomCreatedData{Room: summary})
}

func (c *Coordinator) handleListRooms(conn *server.Conn) {
	if _, _, ok := c.requirePlayer(conn); !ok {
		return
	}
	c.send(conn, wire.TypeRoomList, &wire.RoomListData{Rooms: c.rooms.List()})
}

func (c *Coordinator) handleJoinRoom(conn *server.Conn, req *wire.JoinRoomRequest) {
	playerID, entry, ok := c.requirePlayer(conn)
	if !ok {
		return
	}
	outcome, err := c.rooms.Join(playerID, entry.Name, req.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound):
			c.sendError(conn, CodeGameNotFound, "room not found")
		case errors.Is(err, rooms.ErrAlreadyInRoom):
			c.sendError(conn, CodeInvalidData, err.Error())
		default:
			c.sendError(conn, CodeProcessingError, err.Error())
		}
		return
	}

	c.send(conn, wire.TypeRoomJoined, &wire.RoomJoinedData{Room: outcome.Summary, Role: outcome.Role})
	c.sendToAll(outcome.Others, wire.TypePlayerJoined, &outcome.Joined)
	if outcome.Started {
		c.sendToAll(outcome.Occupants, wire.TypeRoomStarted, nil)
	}
	// Every occupant gets the authoritative state, so a fresh spectator
	// can render a board it has not been tracking move by move.
	c.sendToAll(outcome.Occupants, wire.TypeSyncState, &outcome.Sync)
}

func (c *Coordinator) handleMakeMove(conn *server.Conn, req *wire.MakeMoveRequest) {
	playerID, _, ok := c.requirePlayer(conn)
	if !ok {
		return
	}
	outcome, err := c.rooms.Move(playerID, req.Position)
	if err != nil {
		if errors.Is(err, rooms.ErrNoRoom) {
			c.sendError(conn, CodeNoRoom, "no active game")
			return
		}
		// Everything else is a per-move rejection.
		c.send(conn, wire.TypeMoveRejected, &wire.MoveRejectedData{
			Position: req.Position,
			Reason:   err.Error(),
		})
		return
	}

	// Three-tier fan-out: the mover already knows the move, other
	// occupants need the delta, spectators get the full state.
	c.send(conn, wire.TypeMoveAccepted, &outcome.Move)
	c.sendToAll(outcome.Others, wire.TypeMoveMade, &outcome.Move)
	c.sendToAll(outcome.Watchers, wire.TypeSyncState, &outcome.Sync)

	if outcome.Won {
		for _, id := range outcome.Players {
			if id == outcome.Result.WinnerID {
				c.sendTo(id, wire.TypeGameWon, &outcome.Result)
			} else {
				c.sendTo(id, wire.TypeGameLost, &outcome.Result)
			}
		}
		all := append(append([]string(nil), outcome.Others...), playerID)
		c.sendToAll(all, wire.TypeGameEnded, &outcome.Result)
	}
}

func (c *Coordinator) handleRematch(conn *server.Conn) {
	playerID, _, ok := c.requirePlayer(conn)
	if !ok {
		return
	}
	outcome, err := c.rooms.Rematch(playerID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrNoRoom):
			c.sendError(conn, CodeNoRoom, "no room to replay")
		case errors.Is(err, rooms.ErrRoomNotFound):
			c.sendError(conn, CodeRoomNotFound, "room not found")
		default:
			c.sendError(conn, CodeInvalidData, err.Error())
		}
		return
	}
	c.sendToAll(outcome.Occupants, wire.TypeRematchOffered, nil)
	c.sendToAll(outcome.Occupants, wire.TypeRoomStarted, nil)
	c.sendToAll(outcome.Occupants, wire.TypeSyncState, &outcome.Sync)
}

func (c *Coordinator) handleSync(conn *server.Conn) {
	playerID, _, ok := c.requirePlayer(conn)
	if !ok {
		return
	}
	sync, err := c.rooms.Sync(playerID)
	if err != nil {
		c.sendError(conn, CodeNoRoom, "no room to sync")
		return
	}
	c.send(conn, wire.TypeSyncState, &sync)
}

// handleLeave tears down whatever the connection's player occupied.
func (c *Coordinator) handleLeave(conn *server.Conn) {
	playerID := conn.PlayerID()
	if playerID == "" {
		return
	}
	if outcome, ok := c.rooms.Leave(playerID); ok {
		c.sendToAll(outcome.Remaining, wire.TypePlayerLeft, &outcome.Left)
		if outcome.Voided {
			// The departure ended the round; the cleared board tells
			// everyone left behind.
			c.sendToAll(outcome.Remaining, wire.TypeSyncState, &outcome.Sync)
		}
	}
	if c.registry.Remove(playerID) {
		logger.WithField("player", playerID).Info("player removed")
	}
	conn.SetPlayerID("")
}

// roomReaped tells every occupant still connected that the grace
// period expired and the room is gone.
func (c *Coordinator) roomReaped(roomID string, occupants []string) {
	logger.WithFields(logrus.Fields{"room": roomID, "occupants": len(occupants)}).Info("room closed")
	for _, id := range occupants {
		c.sendTo(id, wire.TypeError, &wire.ErrorData{
			Code:    CodeRoomClosed,
			Message: "room closed",
		})
	}
}

// requirePlayer resolves the connection's registered identity.
func (c *Coordinator) requirePlayer(conn *server.Conn) (string, session.Entry, bool) {
	playerID := conn.PlayerID()
	if playerID == "" {
		c.sendError(conn, CodeNotConnected, "connect first")
		return "", session.Entry{}, false
	}
	entry, ok := c.registry.Lookup(playerID)
	if !ok {
		c.sendError(conn, CodeNotConnected, "unknown player")
		return "", session.Entry{}, false
	}
	return playerID, entry, true
}

// send replies on the handling connection. Send failures are logged
// and swallowed; broadcast delivery is best effort by design.
func (c *Coordinator) send(conn *server.Conn, t wire.MessageType, payload interface{}) {
	env, err := wire.NewEnvelope(t, "", payload)
	if err != nil {
		logger.WithError(err).Error("build envelope failed")
		return
	}
	if err := conn.Send(env); err != nil {
		logger.WithField("type", t.String()).WithError(err).Debug("send failed")
	}
}

// sendTo delivers to a player by id, if still connected.
func (c *Coordinator) sendTo(playerID string, t wire.MessageType, payload interface{}) {
	entry, ok := c.registry.Lookup(playerID)
	if !ok {
		return
	}
	env, err := wire.NewEnvelope(t, "", payload)
	if err != nil {
		logger.WithError(err).Error("build envelope failed")
		return
	}
	if err := entry.Conn.Send(env); err != nil {
		logger.WithFields(logrus.Fields{"player": playerID, "type": t.String()}).WithError(err).Debug("send failed")
	}
}

func (c *Coordinator) sendToAll(playerIDs []string, t wire.MessageType, payload interface{}) {
	for _, id := range playerIDs {
		c.sendTo(id, t, payload)
	}
}

func (c *Coordinator) sendError(conn *server.Conn, code, message string) {
	c.send(conn, wire.TypeError, &wire.ErrorData{Code: code, Message: message})
}
