// Package unixsock is the local socket transport, the default link between
// co-located producers and a relay. Listening removes a stale socket file
// left by a previous run before binding.
package unixsock

import (
	"context"
	"errors"
	"net"
	"os"

	"tradewire/pkg/transport"
	"tradewire/pkg/transport/frame"
)

type Transport struct{}

func New() *Transport { return &Transport{} }

func (t *Transport) Kind() transport.Kind { return transport.KindUnix }

func (t *Transport) Listen(ctx context.Context, path string) (transport.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		// Stale socket from an unclean shutdown; a live listener would
		// rebind and fail below anyway.
		_ = os.Remove(path)
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	ul := &listener{l: l, path: path, newCh: make(chan transport.Conn, 8), closeCh: make(chan struct{})}
	go ul.acceptLoop()
	go func() { <-ctx.Done(); _ = ul.Close() }()
	return ul, nil
}

func (t *Transport) Dial(ctx context.Context, path string) (transport.Conn, error) {
	d := &net.Dialer{}
	c, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return frame.New(c), nil
}

type listener struct {
	l       net.Listener
	path    string
	newCh   chan transport.Conn
	closeCh chan struct{}
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closeCh:
		return nil, errors.New("unix listener closed")
	case c := <-l.newCh:
		return c, nil
	}
}

func (l *listener) Close() error {
	select {
	case <-l.closeCh:
	default:
		close(l.closeCh)
	}
	err := l.l.Close()
	_ = os.Remove(l.path)
	return err
}

func (l *listener) acceptLoop() {
	for {
		c, err := l.l.Accept()
		if err != nil {
			return
		}
		fc := frame.New(c)
		select {
		case l.newCh <- fc:
		default:
			_ = fc.Close()
		}
	}
}
