package client

import "github.com/pkg/errors"

// ErrClientDisconnected indicates the server connection dropped.
var ErrClientDisconnected = errors.New("client disconnected")

// ErrServerError wraps a typed Error envelope received while waiting
// for another reply.
var ErrServerError = errors.New("server error")
