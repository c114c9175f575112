package wire

import "github.com/pkg/errors"

// ErrConnectionClosed indicates the peer closed the stream cleanly.
// It is a signal, not a failure.
var ErrConnectionClosed = errors.New("connection closed")

// ErrFrameTooLarge indicates a frame whose declared length exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// ErrBadPayload indicates an envelope whose data blob does not decode
// as the record its type declares.
var ErrBadPayload = errors.New("bad payload")

// ErrUnknownType indicates an envelope with an unrecognised message type.
var ErrUnknownType = errors.New("unknown message type")
