// Package transport provides connection-oriented byte streams carrying
// protocol frames between producers, relays, and consumers. Frames are
// self-delimiting via the header's payload length; no extra length prefix is
// added on the wire.
package transport

import (
	"context"
	"net"
)

// Kind identifies the link type for logging and policy decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnix
	KindTCP
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindUnix:
		return "unix"
	case KindTCP:
		return "tcp"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

// Conn is a framed bidirectional connection. One reader and one writer
// goroutine are expected; Send is internally serialized, Recv is not.
type Conn interface {
	// Send writes one complete frame (header + payload).
	Send(frame []byte) error
	// Recv reads the next complete frame. A framing error here means the
	// stream position is unrecoverable; the caller must close.
	Recv() ([]byte, error)
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	Close() error
}

// Listener accepts inbound connections.
type Listener interface {
	// Accept blocks until an inbound connection arrives or ctx is done.
	Accept(ctx context.Context) (Conn, error)
	Addr() net.Addr
	Close() error
}

// Transport provides dialing and listening for one link kind.
type Transport interface {
	Kind() Kind
	Listen(ctx context.Context, address string) (Listener, error)
	Dial(ctx context.Context, address string) (Conn, error)
}
