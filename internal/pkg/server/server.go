package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"morris/internal/pkg/log"
	"morris/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Handler consumes decoded envelopes and connection lifecycle events.
type Handler interface {
	HandleEnvelope(ctx context.Context, conn *Conn, env *wire.Envelope)
	HandleDisconnect(ctx context.Context, conn *Conn)
}

// Server accepts TCP connections and runs one receive loop per client.
// Envelope handling executes on the connection's own goroutine, so
// handling is serialized per connection and parallel across them.
type Server struct {
	port      uint16
	queueSize int
	handler   Handler

	listener net.Listener
	conns    map[*Conn]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithPort sets the TCP port to listen on.
func WithPort(port uint16) Cfg {
	return func(s *Server) error {
		s.port = port
		return nil
	}
}

// WithHandler sets the envelope handler.
func WithHandler(h Handler) Cfg {
	return func(s *Server) error {
		s.handler = h
		return nil
	}
}

// WithQueueSize sets the per-connection outbound queue bound.
func WithQueueSize(n int) Cfg {
	return func(s *Server) error {
		s.queueSize = n
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	s := &Server{
		queueSize: DefaultQueueSize,
		conns:     make(map[*Conn]struct{}),
	}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	if s.handler == nil {
		return nil, errors.New("server requires a handler")
	}
	return s, nil
}

// Run listens and serves until the context is cancelled, then closes
// the listener and every live connection.
func (s *Server) Run(ctx context.Context) error {
	var err error
	s.listener, err = net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return errors.Wrapf(err, "listen on port %d failed", s.port)
	}
	logger.WithField("addr", s.listener.Addr().String()).Info("server listening")

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
	}()

	for {
		sock, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			logger.WithError(err).Warn("accept failed")
			continue
		}
		conn := newConn(sock, s.queueSize)
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}
}

// Addr returns the bound listen address, for tests using port 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serveConn(ctx context.Context, conn *Conn) {
	defer s.wg.Done()
	remote := conn.RemoteAddr()
	logger.WithField("remote", remote).Info("client connected")

	for {
		env, err := conn.Receive()
		if err != nil {
			if errors.Is(err, wire.ErrConnectionClosed) {
				logger.WithField("remote", remote).Info("client disconnected")
			} else {
				// Malformed frame or dead socket: the stream is no
				// longer trustworthy.
				logger.WithField("remote", remote).WithError(err).Warn("receive failed, closing connection")
			}
			break
		}
		logger.WithFields(log.EnvelopeToFields(env)).Debug("received envelope")
		s.handler.HandleEnvelope(ctx, conn, env)
	}

	s.handler.HandleDisconnect(ctx, conn)
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}
