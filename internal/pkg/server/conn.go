package server

import (
	"net"
	"sync"
	"time"

	"morris/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize bounds the outbound envelopes a connection may have
// in flight before it is considered too slow to keep.
const DefaultQueueSize = 64

// flushTimeout caps how long a closing connection may spend writing out
// envelopes that were queued before Close.
const flushTimeout = time.Second

// Conn is one client connection. Reads happen on the owning connection
// goroutine; writes are funneled through a bounded queue drained by a
// single writer goroutine, so frames never interleave and a stalled
// client cannot block a room broadcast.
type Conn struct {
	sock net.Conn

	out       chan *wire.Envelope
	closeOnce sync.Once
	closed    chan struct{}

	playerID string
	mu       sync.RWMutex
}

func newConn(sock net.Conn, queueSize int) *Conn {
	c := &Conn{
		sock:   sock,
		out:    make(chan *wire.Envelope, queueSize),
		closed: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// SetPlayerID binds the identity acquired through the registry.
func (c *Conn) SetPlayerID(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// PlayerID returns the bound identity, or empty before connect.
func (c *Conn) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RemoteAddr identifies the peer for logs.
func (c *Conn) RemoteAddr() string {
	return c.sock.RemoteAddr().String()
}

// Send queues an envelope for delivery. A closed connection or a full
// queue fails the send; the full-queue case also drops the connection,
// because a client that cannot drain its queue would otherwise stall
// everyone sharing a room with it.
func (c *Conn) Send(env *wire.Envelope) error {
	select {
	case <-c.closed:
		return wire.ErrConnectionClosed
	default:
	}
	select {
	case c.out <- env:
		return nil
	default:
		logger.WithField("remote", c.RemoteAddr()).Warn("send queue full, dropping slow client")
		_ = c.Close()
		return errors.Wrap(ErrSlowClient, "send failed")
	}
}

// Receive blocks for the next inbound envelope.
func (c *Conn) Receive() (*wire.Envelope, error) {
	return wire.ReadFrame(c.sock)
}

// Close shuts the connection down. The write loop flushes envelopes
// queued before the close, then closes the socket, so an error reply
// queued just before Close still reaches the peer. Safe to call more
// than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		// Interrupts an in-flight write too, so a stalled peer cannot
		// hold the teardown up past the flush budget.
		_ = c.sock.SetWriteDeadline(time.Now().Add(flushTimeout))
		close(c.closed)
	})
	return nil
}

// writeLoop is the only goroutine that writes to or closes the socket.
func (c *Conn) writeLoop() {
	defer func() {
		_ = c.sock.Close()
	}()
	for {
		select {
		case <-c.closed:
			c.flush()
			return
		case env := <-c.out:
			if err := c.write(env); err != nil {
				// Best effort: a dead peer is cleaned up by its read loop.
				logger.WithFields(logrus.Fields{
					"remote": c.RemoteAddr(),
					"type":   env.Type.String(),
				}).WithError(err).Debug("write failed")
				_ = c.Close()
				return
			}
		}
	}
}

// flush drains envelopes already queued at close time. The write
// deadline set in Close bounds the whole drain.
func (c *Conn) flush() {
	for {
		select {
		case env := <-c.out:
			if err := c.write(env); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(env *wire.Envelope) error {
	env.Timestamp = time.Now().UnixMilli()
	return wire.WriteFrame(c.sock, env)
}
