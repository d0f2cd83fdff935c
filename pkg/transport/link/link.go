// Package link resolves "scheme://address" strings to concrete transports.
// Supported schemes: unix:///path/to.sock, tcp://host:port, mem://name.
package link

import (
	"context"
	"fmt"
	"strings"

	"tradewire/pkg/transport"
	"tradewire/pkg/transport/mem"
	"tradewire/pkg/transport/tcp"
	"tradewire/pkg/transport/unixsock"
)

// sharedMem backs every mem:// address in the process, so a dialer reaches
// a listener without plumbing a Transport instance between them.
var sharedMem = mem.New()

// Resolve splits a listen/dial URL into its transport and the address the
// transport understands.
func Resolve(addr string) (transport.Transport, string, error) {
	scheme, rest, ok := strings.Cut(addr, "://")
	if !ok {
		return nil, "", fmt.Errorf("address %q needs a scheme (unix://, tcp://, mem://)", addr)
	}
	switch scheme {
	case "unix":
		return unixsock.New(), rest, nil
	case "tcp":
		return tcp.New(), rest, nil
	case "mem":
		return sharedMem, rest, nil
	default:
		return nil, "", fmt.Errorf("unknown transport scheme %q in %q", scheme, addr)
	}
}

// Listen binds a listener for a URL-style address.
func Listen(ctx context.Context, addr string) (transport.Listener, error) {
	t, rest, err := Resolve(addr)
	if err != nil {
		return nil, err
	}
	return t.Listen(ctx, rest)
}

// Dial connects to a URL-style address.
func Dial(ctx context.Context, addr string) (transport.Conn, error) {
	t, rest, err := Resolve(addr)
	if err != nil {
		return nil, err
	}
	return t.Dial(ctx, rest)
}
