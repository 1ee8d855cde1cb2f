// Package rpc serves expand and list over a REQ/REP socket pair for
// clients that speak neither HTTP nor GraphQL. Frames are single JSON
// documents; the socket library preserves message boundaries, so no
// length prefix is needed. Two transports hide behind build tags: mangos
// (tag nng) and ZeroMQ (tag zmq).
package rpc

import (
	"io"
	"time"
)

// Socket is one end of a REQ/REP conversation. It abstracts the
// underlying transport (mangos, ZeroMQ, or a channel pair in tests).
type Socket interface {
	io.Closer
	Send([]byte) error
	Recv() ([]byte, error)
	SetRecvDeadline(d time.Duration) error
	SetSendDeadline(d time.Duration) error
}

// ListenSocket is a socket that binds to an address.
type ListenSocket interface {
	Socket
	Listen(addr string) error
}

// DialSocket is a socket that connects to a remote address.
type DialSocket interface {
	Socket
	Dial(addr string) error
}

// SocketFactory creates the REP and REQ ends of the transport.
// Implementations provide real sockets or in-process pairs for testing.
type SocketFactory interface {
	NewRepSocket() (ListenSocket, error)
	NewReqSocket() (DialSocket, error)
}
