package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"morris/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// DefaultEventBuffer is how many decoded server events may be pending
// before the read loop blocks.
const DefaultEventBuffer = 64

// Event is one decoded server message.
type Event struct {
	Type    wire.MessageType
	Payload interface{}
}

// Client speaks the morris protocol against one server connection.
type Client struct {
	serverAddr string
	name       string
	playerID   string

	conn    net.Conn
	events  chan Event
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServerPort sets the server port to connect to.
func WithServerPort(p uint16) Cfg {
	return func(c *Client) error {
		c.serverAddr = fmt.Sprintf("localhost:%d", p)
		return nil
	}
}

// WithServerAddr sets the full server address to connect to.
func WithServerAddr(addr string) Cfg {
	return func(c *Client) error {
		c.serverAddr = addr
		return nil
	}
}

// WithName sets the display name announced on connect.
func WithName(name string) Cfg {
	return func(c *Client) error {
		c.name = name
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	c := &Client{
		events: make(chan Event, DefaultEventBuffer),
		closed: make(chan struct{}),
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if c.name == "" {
		c.name = "anonymous"
	}
	return c, nil
}

// Connect dials the server, starts the read loop and performs the
// connect handshake, blocking until the Welcome arrives.
func (c *Client) Connect(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", c.serverAddr)
	if err != nil {
		return errors.Wrapf(err, "connect to %s failed", c.serverAddr)
	}
	c.conn = conn
	go c.readLoop()

	if err := c.send(wire.TypeConnect, &wire.ConnectRequest{Name: c.name}); err != nil {
		return errors.Wrap(err, "send connect failed")
	}
	event, err := c.WaitFor(ctx, wire.TypeWelcome)
	if err != nil {
		return errors.Wrap(err, "await welcome failed")
	}
	c.playerID = event.Payload.(*wire.WelcomeData).PlayerID
	logger.WithField("player", c.playerID).Debug("connected")
	return nil
}

// PlayerID returns the server-assigned identity, empty before Connect.
func (c *Client) PlayerID() string {
	return c.playerID
}

// Events exposes the stream of decoded server messages. The channel is
// closed when the connection drops.
func (c *Client) Events() <-chan Event {
	return c.events
}

// WaitFor consumes events until one of the wanted type arrives.
// Events of other types are discarded, which suits scripted flows;
// interactive callers should drain Events themselves.
func (c *Client) WaitFor(ctx context.Context, t wire.MessageType) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case event, ok := <-c.events:
			if !ok {
				return Event{}, ErrClientDisconnected
			}
			if event.Type == t {
				return event, nil
			}
			if event.Type == wire.TypeError {
				data := event.Payload.(*wire.ErrorData)
				return Event{}, errors.Wrapf(ErrServerError, "%s: %s", data.Code, data.Message)
			}
			logger.WithField("type", event.Type.String()).Debug("skipping event")
		}
	}
}

// CreateRoom asks the server to open a room.
func (c *Client) CreateRoom(name string) error {
	return c.send(wire.TypeCreateRoom, &wire.CreateRoomRequest{Name: name})
}

// ListRooms requests the lobby snapshot.
func (c *Client) ListRooms() error {
	return c.send(wire.TypeListRooms, nil)
}

// JoinRoom asks to join the given room.
func (c *Client) JoinRoom(roomID string) error {
	return c.send(wire.TypeJoinRoom, &wire.JoinRoomRequest{RoomID: roomID})
}

// MakeMove plays a cell.
func (c *Client) MakeMove(position int) error {
	return c.send(wire.TypeMakeMove, &wire.MakeMoveRequest{Position: position})
}

// RequestRematch asks for a fresh round in the current room.
func (c *Client) RequestRematch() error {
	return c.send(wire.TypeRequestRematch, nil)
}

// RequestSync asks for the authoritative state of the current room.
func (c *Client) RequestSync() error {
	return c.send(wire.TypeRequestSync, nil)
}

// Disconnect announces departure before closing.
func (c *Client) Disconnect() error {
	if err := c.send(wire.TypeDisconnect, nil); err != nil {
		return err
	}
	return c.Close()
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *Client) send(t wire.MessageType, payload interface{}) error {
	env, err := wire.NewEnvelope(t, c.playerID, payload)
	if err != nil {
		return errors.Wrap(err, "build envelope failed")
	}
	env.Timestamp = time.Now().UnixMilli()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return errors.Wrapf(wire.WriteFrame(c.conn, env), "send %s failed", t)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		env, err := wire.ReadFrame(c.conn)
		if err != nil {
			select {
			case <-c.closed:
			default:
				if !errors.Is(err, wire.ErrConnectionClosed) {
					logger.WithError(err).Warn("read failed")
				}
			}
			return
		}
		payload, err := wire.DecodePayload(env)
		if err != nil {
			logger.WithError(err).Warn("bad server payload")
			continue
		}
		c.events <- Event{Type: env.Type, Payload: payload}
	}
}
