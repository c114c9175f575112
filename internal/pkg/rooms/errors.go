package rooms

import "github.com/pkg/errors"

// ErrRoomNotFound indicates the requested room id does not exist.
var ErrRoomNotFound = errors.New("room not found")

// ErrNoRoom indicates the player is not in any room.
var ErrNoRoom = errors.New("no room")

// ErrAlreadyInRoom indicates the player already occupies a room.
var ErrAlreadyInRoom = errors.New("already in a room")

// ErrNotYourTurn is the room-level alternation rejection. The engine
// itself does not know about turns.
var ErrNotYourTurn = errors.New("not your turn")

// ErrRematchUnavailable indicates a rematch request on a round that is
// not finished.
var ErrRematchUnavailable = errors.New("no finished round to replay")
