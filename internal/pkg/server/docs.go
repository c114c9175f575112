// Package server implements the TCP listener and per-client connection
// plumbing for the morris session server.
//
// The server performs the following steps:
//	1. Listens for TCP connections and wraps each accepted socket in a Conn.
//	2. Runs one receive loop per connection; each inbound frame is decoded
//	   into an envelope and handed to the Handler on that same goroutine.
//	3. Serializes all writes to a connection through a bounded outbound
//	   queue drained by a single writer goroutine.
//	4. Evicts clients whose queue fills up, so one stalled reader never
//	   blocks delivery to the rest of a room.
//	5. On shutdown, closes the listener first and then every live
//	   connection, which unwinds the receive loops.
//
// Closing the socket is the only cancellation mechanism a connection
// has; a dropped client takes the same cleanup path as an explicit
// disconnect message.
package server
