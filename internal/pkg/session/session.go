// Package session tracks which players are connected. The registry is
// the single source of truth for liveness: a player exists exactly as
// long as its entry does.
package session

import (
	"sync"

	"morris/internal/pkg/wire"

	"github.com/google/uuid"
)

// Sender is the write side of a player's connection.
type Sender interface {
	Send(env *wire.Envelope) error
	Close() error
}

// Entry binds a player id to its connection and display name.
type Entry struct {
	PlayerID string
	Name     string
	Conn     Sender
}

// Registry maps player ids to live connections.
type Registry interface {
	Connect(conn Sender, name string) (string, error)
	Lookup(playerID string) (Entry, bool)
	Remove(playerID string) bool
	Len() int
}

// MemoryRegistry is the in-process Registry. Safe for concurrent use
// from every connection goroutine.
type MemoryRegistry struct {
	players map[string]Entry
	mu      sync.RWMutex
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		players: make(map[string]Entry),
	}
}

// Connect registers the connection under a fresh player id. This is the
// only way a connection acquires an identity.
func (r *MemoryRegistry) Connect(conn Sender, name string) (string, error) {
	playerID := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[playerID] = Entry{
		PlayerID: playerID,
		Name:     name,
		Conn:     conn,
	}
	return playerID, nil
}

// Lookup returns the entry for a player id, if still connected.
func (r *MemoryRegistry) Lookup(playerID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.players[playerID]
	return entry, ok
}

// Remove drops the player and reports whether it was present.
func (r *MemoryRegistry) Remove(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[playerID]; !ok {
		return false
	}
	delete(r.players, playerID)
	return true
}

// Len is the number of connected players.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
