package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize bounds the memory a single frame may claim.
// The original protocol left this unbounded.
const MaxFrameSize = 1 << 20

const headerSize = 4

// WriteFrame serializes the envelope and writes it as a single
// length-prefixed frame: 4 bytes little-endian length, then the body.
// Header and body go out in one Write so a frame is never interleaved
// with another writer's partial frame on the same connection.
func WriteFrame(w io.Writer, env *Envelope) error {
	body, err := msgpack.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope failed")
	}
	if len(body) > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "%d bytes", len(body))
	}
	frame := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(frame[:headerSize], uint32(len(body)))
	copy(frame[headerSize:], body)
	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "write frame failed")
	}
	return nil
}

// ReadFrame blocks until a whole frame is available and returns the
// decoded envelope. A clean close of the stream before the first header
// byte surfaces as ErrConnectionClosed; a stream that dies mid-frame is
// an error.
func ReadFrame(r io.Reader) (*Envelope, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrConnectionClosed
		}
		return nil, errors.Wrap(err, "read frame header failed")
	}
	length := binary.LittleEndian.Uint32(header)
	if length > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "read frame body failed")
	}
	env := &Envelope{}
	if err := msgpack.Unmarshal(body, env); err != nil {
		return nil, errors.Wrapf(ErrBadPayload, "decode envelope: %v", err)
	}
	return env, nil
}
