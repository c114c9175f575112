package game

// Board geometry and seating limits.
const (
	BoardCells = 9
	WindowSize = 3
	MaxPlayers = 2
)

// Status is the lifecycle of a match. It only ever moves forward:
// Waiting -> InProgress -> Finished.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

// WinningLines are the 8 index triples over the 3x3 grid: three rows,
// three columns, two diagonals.
var WinningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// History is one player's sliding window of moves, oldest first.
// Nil slots are moves not yet made.
type History [WindowSize]*int

// Positions returns the cells currently held by this history.
func (h History) Positions() []int {
	positions := make([]int, 0, WindowSize)
	for _, cell := range h {
		if cell != nil {
			positions = append(positions, *cell)
		}
	}
	return positions
}

// push slides the window left, discarding the oldest entry once the
// window is full.
func (h *History) push(position int) {
	for i := range h {
		if h[i] == nil {
			h[i] = &position
			return
		}
	}
	h[0], h[1] = h[1], h[2]
	h[2] = &position
}

// contains reports whether the window currently holds the cell.
func (h History) contains(position int) bool {
	for _, cell := range h {
		if cell != nil && *cell == position {
			return true
		}
	}
	return false
}
