package wire

// Room status values carried in summaries and sync state.
const (
	StatusWaiting    = "WAITING"
	StatusInProgress = "IN_PROGRESS"
	StatusFinished   = "FINISHED"
)

// Occupant roles reported by RoomJoined.
const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// ConnectRequest introduces a player by display name.
// Names are self-asserted and not unique.
type ConnectRequest struct {
	Name string `msgpack:"name"`
}

// CreateRoomRequest asks the server to open a new room.
type CreateRoomRequest struct {
	Name string `msgpack:"name"`
}

// JoinRoomRequest asks to join an existing room by id.
type JoinRoomRequest struct {
	RoomID string `msgpack:"room_id"`
}

// MakeMoveRequest plays a cell on the 3x3 grid, indices 0 through 8.
type MakeMoveRequest struct {
	Position int `msgpack:"position"`
}

// WelcomeData acknowledges a connect with the server-assigned player id.
type WelcomeData struct {
	PlayerID string `msgpack:"player_id"`
}

// ErrorData is a typed error reply; the connection stays open for
// domain errors and is closed after protocol errors.
type ErrorData struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

// RoomSummary describes a room for the lobby list.
type RoomSummary struct {
	RoomID         string `msgpack:"room_id"`
	Name           string `msgpack:"name"`
	PlayerCount    int    `msgpack:"player_count"`
	MaxPlayers     int    `msgpack:"max_players"`
	SpectatorCount int    `msgpack:"spectator_count"`
	Status         string `msgpack:"status"`
}

// RoomCreatedData confirms room creation to the owner.
type RoomCreatedData struct {
	Room RoomSummary `msgpack:"room"`
}

// RoomListData is the lobby snapshot. All rooms are listed regardless
// of fill state; clients filter.
type RoomListData struct {
	Rooms []RoomSummary `msgpack:"rooms"`
}

// RoomJoinedData confirms a join and reports the assigned role.
type RoomJoinedData struct {
	Room RoomSummary `msgpack:"room"`
	Role string      `msgpack:"role"`
}

// PlayerInfo identifies a player in join/leave notifications.
type PlayerInfo struct {
	PlayerID string `msgpack:"player_id"`
	Name     string `msgpack:"name"`
}

// MoveData carries an accepted move, as the ack to the mover
// (MoveAccepted) and as the delta to other occupants (MoveMade).
type MoveData struct {
	PlayerID string `msgpack:"player_id"`
	Position int    `msgpack:"position"`
}

// MoveRejectedData explains why a move was refused.
type MoveRejectedData struct {
	Position int    `msgpack:"position"`
	Reason   string `msgpack:"reason"`
}

// SyncStateData is the authoritative full room state, sent to occupants
// on joins and to spectators after every accepted move.
type SyncStateData struct {
	PlayerIDs   []string          `msgpack:"player_ids"`
	Moves       map[string][]*int `msgpack:"moves"`
	Names       map[string]string `msgpack:"names"`
	Status      string            `msgpack:"status"`
	WinnerID    string            `msgpack:"winner_id,omitempty"`
	CurrentTurn string            `msgpack:"current_turn,omitempty"`
	Scores      map[string]int    `msgpack:"scores,omitempty"`
}

// GameResultData announces the end of a round. It is broadcast as
// GameEnded and sent individually as GameWon and GameLost.
type GameResultData struct {
	WinnerID         string `msgpack:"winner_id"`
	WinnerName       string `msgpack:"winner_name"`
	WinningPositions []int  `msgpack:"winning_positions"`
}
