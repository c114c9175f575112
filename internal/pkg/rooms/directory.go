// Package rooms implements the room directory: creation, lobby
// listing, joining, move application and occupancy bookkeeping for
// every room on the server.
//
// One lock guards the rooms map, the player index and all room state.
// No method sends anything: every operation returns a snapshot outcome
// holding copied ids and payloads, and the caller fans out after the
// lock is long gone.
package rooms

import (
	"strings"
	"sync"
	"time"

	"morris/internal/pkg/game"
	"morris/internal/pkg/wire"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultGracePeriod is how long a finished room stays addressable so
// spectators can still fetch the final state.
const DefaultGracePeriod = 30 * time.Second

// ReapNotifier observes rooms removed by the grace-period reaper, so
// lingering occupants can be told instead of discovering the closure
// through a later NO_ROOM error. It is called with no lock held.
type ReapNotifier func(roomID string, occupantIDs []string)

// Directory tracks every room on the server.
type Directory struct {
	rooms    map[string]*Room
	byPlayer map[string]string
	grace    time.Duration
	notify   ReapNotifier
	mu       sync.RWMutex
}

// Cfg configures a Directory.
type Cfg func(*Directory) error

// WithGracePeriod sets how long finished rooms linger before cleanup.
func WithGracePeriod(d time.Duration) Cfg {
	return func(dir *Directory) error {
		dir.grace = d
		return nil
	}
}

// SetReapNotifier installs the reaper observer. The coordinator wires
// itself in here after construction.
func (d *Directory) SetReapNotifier(fn ReapNotifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notify = fn
}

// NewDirectory creates an empty directory.
func NewDirectory(cfgs ...Cfg) (*Directory, error) {
	dir := &Directory{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		grace:    DefaultGracePeriod,
	}
	for _, cfg := range cfgs {
		if err := cfg(dir); err != nil {
			return nil, errors.Wrap(err, "apply Directory cfg failed")
		}
	}
	return dir, nil
}

// Create opens a room with the owner as its sole seated player.
func (d *Directory) Create(ownerID, ownerName, roomName string) (wire.RoomSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.byPlayer[ownerID]; busy {
		return wire.RoomSummary{}, ErrAlreadyInRoom
	}
	roomID := uuid.NewString()
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		roomName = "Room-" + roomID[:8]
	}
	room := &Room{
		ID:         roomID,
		Name:       roomName,
		Match:      game.NewMatch(),
		Names:      map[string]string{ownerID: ownerName},
		Spectators: make(map[string]struct{}),
		Scores:     make(map[string]int),
	}
	if err := room.Match.AddPlayer(ownerID); err != nil {
		return wire.RoomSummary{}, errors.Wrap(err, "seat owner failed")
	}
	room.CurrentTurn = ownerID
	d.rooms[roomID] = room
	d.byPlayer[ownerID] = roomID
	logger.WithFields(logrus.Fields{"room": roomID, "name": roomName, "owner": ownerID}).Info("room created")
	return room.Summary(), nil
}

// List snapshots every room regardless of fill state.
func (d *Directory) List() []wire.RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	summaries := make([]wire.RoomSummary, 0, len(d.rooms))
	for _, room := range d.rooms {
		summaries = append(summaries, room.Summary())
	}
	return summaries
}

// JoinOutcome is the snapshot a join produces.
type JoinOutcome struct {
	Summary wire.RoomSummary
	Role    string
	Started bool
	Joined  wire.PlayerInfo
	// Others are the occupants already present before the join.
	Others []string
	// Occupants is everyone in the room after the join.
	Occupants []string
	Sync      wire.SyncStateData
}

// Join seats the player if a seat is free, otherwise admits them as a
// spectator. Taking the second seat starts the game.
func (d *Directory) Join(playerID, playerName, roomID string) (JoinOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.byPlayer[playerID]; busy {
		return JoinOutcome{}, ErrAlreadyInRoom
	}
	room, ok := d.rooms[roomID]
	if !ok {
		return JoinOutcome{}, ErrRoomNotFound
	}

	others := room.occupantIDs()
	outcome := JoinOutcome{
		Role:   wire.RoleSpectator,
		Joined: wire.PlayerInfo{PlayerID: playerID, Name: playerName},
		Others: others,
	}
	if len(room.Match.PlayerIDs) < game.MaxPlayers {
		// A finished round with a vacated seat restarts clean for the
		// incoming pair instead of resuming stale windows.
		if room.Match.Status == game.StatusFinished {
			room.cancelReaper()
			room.Match.Reset()
		}
		wasWaiting := room.Match.Status == game.StatusWaiting
		if err := room.Match.AddPlayer(playerID); err != nil {
			return JoinOutcome{}, errors.Wrap(err, "seat player failed")
		}
		outcome.Role = wire.RolePlayer
		outcome.Started = wasWaiting && room.Match.Status == game.StatusInProgress
		if outcome.Started {
			room.CurrentTurn = room.Match.PlayerIDs[0]
		}
	} else {
		room.Spectators[playerID] = struct{}{}
	}
	room.Names[playerID] = playerName
	d.byPlayer[playerID] = roomID

	outcome.Summary = room.Summary()
	outcome.Occupants = room.occupantIDs()
	outcome.Sync = room.syncState()
	logger.WithFields(logrus.Fields{"room": roomID, "player": playerID, "role": outcome.Role}).Info("player joined room")
	return outcome, nil
}

// MoveOutcome is the snapshot an accepted move produces.
type MoveOutcome struct {
	RoomID   string
	Move     wire.MoveData
	Others   []string
	Watchers []string
	Sync     wire.SyncStateData

	Won     bool
	Result  wire.GameResultData
	Players []string
}

// Move validates alternation, applies the move to the room's match and,
// on a win, finishes the round, bumps the winner's score and schedules
// the grace-period reaper.
func (d *Directory) Move(playerID string, position int) (MoveOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, err := d.roomOf(playerID)
	if err != nil {
		return MoveOutcome{}, err
	}

	if room.Match.IsPlayer(playerID) &&
		room.Match.Status == game.StatusInProgress &&
		room.CurrentTurn != playerID {
		return MoveOutcome{}, ErrNotYourTurn
	}
	if err := room.Match.Apply(playerID, position); err != nil {
		return MoveOutcome{}, err
	}
	for _, id := range room.Match.PlayerIDs {
		if id != playerID {
			room.CurrentTurn = id
			break
		}
	}

	outcome := MoveOutcome{
		RoomID:   room.ID,
		Move:     wire.MoveData{PlayerID: playerID, Position: position},
		Others:   room.occupantsExcept(playerID),
		Watchers: room.spectatorIDs(),
		Players:  append([]string(nil), room.Match.PlayerIDs...),
	}
	if winnerID, line, won := room.Match.CheckWinner(); won {
		room.Match.Finish(winnerID, line)
		room.Scores[winnerID]++
		d.scheduleReap(room)
		outcome.Won = true
		outcome.Result = wire.GameResultData{
			WinnerID:         winnerID,
			WinnerName:       room.Names[winnerID],
			WinningPositions: line,
		}
		logger.WithFields(logrus.Fields{"room": room.ID, "winner": winnerID}).Info("round won")
	}
	outcome.Sync = room.syncState()
	return outcome, nil
}

// RematchOutcome is the snapshot a rematch produces.
type RematchOutcome struct {
	RoomID    string
	Occupants []string
	Sync      wire.SyncStateData
}

// Rematch resets a finished round in place. Move windows are cleared,
// win counters are kept, and the loser of the previous round opens.
func (d *Directory) Rematch(playerID string) (RematchOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, err := d.roomOf(playerID)
	if err != nil {
		return RematchOutcome{}, err
	}
	if room.Match.Status != game.StatusFinished {
		return RematchOutcome{}, ErrRematchUnavailable
	}

	opener := room.Match.PlayerIDs[0]
	for _, id := range room.Match.PlayerIDs {
		if id != room.Match.WinnerID {
			opener = id
		}
	}
	room.cancelReaper()
	room.Match.Reset()
	room.CurrentTurn = opener
	logger.WithFields(logrus.Fields{"room": room.ID, "opener": opener}).Info("rematch started")
	return RematchOutcome{
		RoomID:    room.ID,
		Occupants: room.occupantIDs(),
		Sync:      room.syncState(),
	}, nil
}

// Sync returns the full state of the player's current room.
func (d *Directory) Sync(playerID string) (wire.SyncStateData, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, err := d.roomOf(playerID)
	if err != nil {
		return wire.SyncStateData{}, err
	}
	return room.syncState(), nil
}

// LeaveOutcome is the snapshot a departure produces.
type LeaveOutcome struct {
	RoomID string
	Left   wire.PlayerInfo
	// Remaining occupants to notify; empty when the room was deleted.
	Remaining []string
	Deleted   bool
	// Voided is set when the departure interrupted a round in
	// progress; Sync then carries the cleared board.
	Voided bool
	Sync   wire.SyncStateData
}

// Leave removes the player from whatever room it occupies. A seated
// departure mid-round voids the round without crediting a win. A room
// with no occupants left is destroyed immediately.
func (d *Directory) Leave(playerID string) (LeaveOutcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	roomID, ok := d.byPlayer[playerID]
	if !ok {
		return LeaveOutcome{}, false
	}
	room := d.rooms[roomID]
	delete(d.byPlayer, playerID)

	outcome := LeaveOutcome{
		RoomID: roomID,
		Left:   wire.PlayerInfo{PlayerID: playerID, Name: room.Names[playerID]},
	}
	if room.Match.IsPlayer(playerID) {
		outcome.Voided = room.Match.Status == game.StatusInProgress
		room.Match.RemovePlayer(playerID)
		// The survivor opens the next round.
		if len(room.Match.PlayerIDs) > 0 {
			room.CurrentTurn = room.Match.PlayerIDs[0]
		}
	} else {
		delete(room.Spectators, playerID)
	}
	delete(room.Names, playerID)

	if len(room.occupantIDs()) == 0 {
		room.cancelReaper()
		delete(d.rooms, roomID)
		outcome.Deleted = true
		logger.WithField("room", roomID).Info("room deleted")
		return outcome, true
	}
	if outcome.Voided {
		logger.WithFields(logrus.Fields{"room": roomID, "player": playerID}).Info("round voided by departure")
	}
	outcome.Remaining = room.occupantIDs()
	outcome.Sync = room.syncState()
	return outcome, true
}

// Len is the number of live rooms.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// roomOf resolves a player's room. Callers hold the lock.
func (d *Directory) roomOf(playerID string) (*Room, error) {
	roomID, ok := d.byPlayer[playerID]
	if !ok {
		return nil, ErrNoRoom
	}
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// scheduleReap arms the grace-period cleanup for a finished room.
// A rematch disarms it. Callers hold the lock.
func (d *Directory) scheduleReap(room *Room) {
	room.cancelReaper()
	roomID := room.ID
	room.reaper = time.AfterFunc(d.grace, func() {
		d.reap(roomID)
	})
}

func (d *Directory) reap(roomID string) {
	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if !ok || room.Match.Status != game.StatusFinished {
		d.mu.Unlock()
		return
	}
	occupants := room.occupantIDs()
	for _, id := range occupants {
		delete(d.byPlayer, id)
	}
	delete(d.rooms, roomID)
	notify := d.notify
	d.mu.Unlock()

	logger.WithFields(logrus.Fields{"room": roomID, "occupants": len(occupants)}).Info("finished room reaped")
	if notify != nil {
		notify(roomID, occupants)
	}
}
