// Package frame reads and writes protocol frames over any net.Conn. The
// header's payload length makes frames self-delimiting, so reading is a
// fixed 32-byte header pass followed by exactly payload_len bytes.
package frame

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"

	"tradewire/pkg/protocol"
)

// Conn wraps a net.Conn with buffered framed I/O.
type Conn struct {
	c   net.Conn
	br  *bufio.Reader
	bw  *bufio.Writer
	wmu sync.Mutex
}

// New wraps c. The wrapper owns the connection; Close closes it.
func New(c net.Conn) *Conn {
	return &Conn{c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c)}
}

// Send writes one complete frame and flushes. Safe for concurrent callers.
func (c *Conn) Send(fr []byte) error {
	if len(fr) < protocol.HeaderSize {
		return fmt.Errorf("frame: %w", protocol.ErrTruncatedHeader)
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.bw.Write(fr); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Recv reads the next frame. The returned buffer is freshly allocated and
// owned by the caller. Header validation failures (bad magic, version,
// domain) surface here because the declared payload length cannot be
// trusted afterwards.
func (c *Conn) Recv() ([]byte, error) {
	hdr := make([]byte, protocol.HeaderSize, protocol.HeaderSize+512)
	if _, err := io.ReadFull(c.br, hdr); err != nil {
		return nil, err
	}
	var h protocol.Header
	if err := h.UnmarshalBinary(hdr); err != nil {
		return nil, err
	}
	if h.PayloadLen > protocol.MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload %d bytes", protocol.ErrMessageTooLarge, h.PayloadLen)
	}
	if h.PayloadLen == 0 {
		return hdr, nil
	}
	fr := make([]byte, protocol.HeaderSize+int(h.PayloadLen))
	copy(fr, hdr)
	if _, err := io.ReadFull(c.br, fr[protocol.HeaderSize:]); err != nil {
		return nil, err
	}
	return fr, nil
}

func (c *Conn) LocalAddr() net.Addr  { return c.c.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }
func (c *Conn) Close() error         { return c.c.Close() }
