// Package wire defines the binary protocol spoken between the morris
// server and its clients.
//
// Every exchange is one Envelope carried in one frame. A frame is a
// 4-byte little-endian length followed by the msgpack encoding of the
// envelope. The envelope's Data field holds the msgpack encoding of a
// payload struct implied by the envelope's Type; DecodePayload turns
// the blob into its typed form exactly once at the receive boundary so
// handlers never touch raw bytes.
//
// Reading zero bytes at a frame boundary means the peer hung up and is
// reported as ErrConnectionClosed rather than a failure. Frames above
// MaxFrameSize are refused on both paths.
package wire
