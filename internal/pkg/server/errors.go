package server

import "github.com/pkg/errors"

// ErrSlowClient indicates a connection was dropped because its
// outbound queue filled up.
var ErrSlowClient = errors.New("slow client")
