package game

// Match is the pure state of one grid game. The board is never stored:
// occupancy is always recomputed from the per-player move windows, so a
// cell becomes vacant again when its owner's fourth move evicts it.
//
// Match does no locking and knows nothing about turns or transport;
// callers own both concerns.
type Match struct {
	PlayerIDs   []string
	Moves       map[string]*History
	Status      Status
	WinnerID    string
	WinningLine []int
}

// NewMatch creates an empty match waiting for players.
func NewMatch() *Match {
	return &Match{
		PlayerIDs: make([]string, 0, MaxPlayers),
		Moves:     make(map[string]*History),
		Status:    StatusWaiting,
	}
}

// AddPlayer seats a player. The second seat taken starts the match.
func (m *Match) AddPlayer(playerID string) error {
	if len(m.PlayerIDs) >= MaxPlayers {
		return ErrMatchFull
	}
	m.PlayerIDs = append(m.PlayerIDs, playerID)
	m.Moves[playerID] = &History{}
	if len(m.PlayerIDs) == MaxPlayers {
		m.Status = StatusInProgress
	}
	return nil
}

// IsPlayer reports whether the id holds a seat, as opposed to spectating.
func (m *Match) IsPlayer(playerID string) bool {
	for _, id := range m.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Occupied is the set of cells currently held by any player's window.
// It can shrink between calls; it is derived state, never cached.
func (m *Match) Occupied() map[int]struct{} {
	occupied := make(map[int]struct{}, MaxPlayers*WindowSize)
	for _, id := range m.PlayerIDs {
		for _, pos := range m.Moves[id].Positions() {
			occupied[pos] = struct{}{}
		}
	}
	return occupied
}

// Apply validates and records a move for the given player, sliding
// their window left once it is full. Rejections come back as the typed
// reasons in errors.go.
func (m *Match) Apply(playerID string, position int) error {
	if !m.IsPlayer(playerID) {
		return ErrNotAPlayer
	}
	if m.Status != StatusInProgress {
		return ErrNotInProgress
	}
	if position < 0 || position >= BoardCells {
		return ErrOutOfRange
	}
	if _, taken := m.Occupied()[position]; taken {
		return ErrCellOccupied
	}
	m.Moves[playerID].push(position)
	return nil
}

// CheckWinner scans players in seat order against the 8 winning lines
// and reports the first whose current window covers one. Seat order is
// the tie-break if a single state satisfies a line for both players.
func (m *Match) CheckWinner() (string, []int, bool) {
	for _, id := range m.PlayerIDs {
		held := make(map[int]struct{}, WindowSize)
		for _, pos := range m.Moves[id].Positions() {
			held[pos] = struct{}{}
		}
		for _, line := range WinningLines {
			if _, a := held[line[0]]; !a {
				continue
			}
			if _, b := held[line[1]]; !b {
				continue
			}
			if _, c := held[line[2]]; !c {
				continue
			}
			return id, []int{line[0], line[1], line[2]}, true
		}
	}
	return "", nil, false
}

// Finish marks the match won. Terminal: a finished match never resumes
// except through Reset.
func (m *Match) Finish(winnerID string, line []int) {
	m.Status = StatusFinished
	m.WinnerID = winnerID
	m.WinningLine = line
}

// RemovePlayer vacates a seat and discards that player's window.
// Vacating a seat mid-round voids the round: remaining windows are
// cleared, no winner is credited and the match goes back to waiting,
// so the survivor cannot play out the board unopposed.
func (m *Match) RemovePlayer(playerID string) {
	for i, id := range m.PlayerIDs {
		if id == playerID {
			m.PlayerIDs = append(m.PlayerIDs[:i], m.PlayerIDs[i+1:]...)
			break
		}
	}
	delete(m.Moves, playerID)
	if m.Status == StatusInProgress {
		m.Reset()
	}
}

// Reset clears all move windows for a rematch. Both seats stay taken
// and the match goes straight back to InProgress.
func (m *Match) Reset() {
	for _, id := range m.PlayerIDs {
		m.Moves[id] = &History{}
	}
	m.WinnerID = ""
	m.WinningLine = nil
	if len(m.PlayerIDs) == MaxPlayers {
		m.Status = StatusInProgress
	} else {
		m.Status = StatusWaiting
	}
}
