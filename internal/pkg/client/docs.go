// Package client implements the client side of the morris protocol.
//
// The client performs the following steps:
//	1. Dials the server over TCP and starts a read loop that decodes
//	   every inbound frame into a typed event.
//	2. Sends the Connect handshake with the display name and blocks
//	   until the Welcome reply carrying the assigned player id.
//	3. Issues lobby and game requests (create, list, join, move,
//	   rematch, sync) as fire-and-forget envelopes; replies and room
//	   broadcasts arrive interleaved on the event stream.
//
// Scripted callers use WaitFor to block on a particular reply type;
// interactive callers drain Events and render as messages arrive.
// When the connection drops the event channel closes and WaitFor
// returns ErrClientDisconnected.
package client
