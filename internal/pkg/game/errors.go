package game

import "github.com/pkg/errors"

// Move rejection reasons. Their messages travel to clients verbatim
// inside MoveRejected payloads.
var (
	ErrNotAPlayer    = errors.New("spectators cannot move")
	ErrNotInProgress = errors.New("game is not in progress")
	ErrOutOfRange    = errors.New("position outside the board")
	ErrCellOccupied  = errors.New("cell occupied")
)

// ErrMatchFull is returned when a third player tries to take a seat.
var ErrMatchFull = errors.New("match full")
