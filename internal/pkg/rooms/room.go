package rooms

import (
	"time"

	"morris/internal/pkg/game"
	"morris/internal/pkg/wire"
)

// Room is one matchmaking unit: up to two seated players plus any
// number of spectators. The directory owns every Room exclusively;
// nothing outside this package holds a Room across a lock release.
type Room struct {
	ID   string
	Name string

	Match      *game.Match
	Names      map[string]string
	Spectators map[string]struct{}
	Scores     map[string]int

	// CurrentTurn enforces alternation at the coordinator level; the
	// match itself only validates the move window.
	CurrentTurn string

	reaper *time.Timer
}

// Summary snapshots the room for the lobby list.
func (r *Room) Summary() wire.RoomSummary {
	return wire.RoomSummary{
		RoomID:         r.ID,
		Name:           r.Name,
		PlayerCount:    len(r.Match.PlayerIDs),
		MaxPlayers:     game.MaxPlayers,
		SpectatorCount: len(r.Spectators),
		Status:         string(r.Match.Status),
	}
}

// occupantIDs lists players then spectators.
func (r *Room) occupantIDs() []string {
	ids := make([]string, 0, len(r.Match.PlayerIDs)+len(r.Spectators))
	ids = append(ids, r.Match.PlayerIDs...)
	for id := range r.Spectators {
		ids = append(ids, id)
	}
	return ids
}

// occupantsExcept lists every occupant but the given one.
func (r *Room) occupantsExcept(playerID string) []string {
	ids := r.occupantIDs()
	others := ids[:0]
	for _, id := range ids {
		if id != playerID {
			others = append(others, id)
		}
	}
	return others
}

func (r *Room) spectatorIDs() []string {
	ids := make([]string, 0, len(r.Spectators))
	for id := range r.Spectators {
		ids = append(ids, id)
	}
	return ids
}

// syncState snapshots the authoritative full state for SyncState
// broadcasts. Everything is copied so the caller can serialize it
// after the directory lock is released.
func (r *Room) syncState() wire.SyncStateData {
	moves := make(map[string][]*int, len(r.Match.PlayerIDs))
	for _, id := range r.Match.PlayerIDs {
		window := make([]*int, game.WindowSize)
		for i, cell := range r.Match.Moves[id] {
			if cell != nil {
				pos := *cell
				window[i] = &pos
			}
		}
		moves[id] = window
	}
	names := make(map[string]string, len(r.Names))
	for id, name := range r.Names {
		names[id] = name
	}
	scores := make(map[string]int, len(r.Scores))
	for id, score := range r.Scores {
		scores[id] = score
	}
	return wire.SyncStateData{
		PlayerIDs:   append([]string(nil), r.Match.PlayerIDs...),
		Moves:       moves,
		Names:       names,
		Status:      string(r.Match.Status),
		WinnerID:    r.Match.WinnerID,
		CurrentTurn: r.CurrentTurn,
		Scores:      scores,
	}
}

func (r *Room) cancelReaper() {
	if r.reaper != nil {
		r.reaper.Stop()
		r.reaper = nil
	}
}
