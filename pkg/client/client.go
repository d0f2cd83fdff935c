// Package client wraps a relay connection for the two roles services play:
// Producer stamps per-source sequence numbers and publishes frames, Consumer
// subscribes to topic patterns and receives the fan-out.
package client

import (
	"context"
	"fmt"
	"sync/atomic"

	"tradewire/pkg/protocol"
	"tradewire/pkg/transport"
	"tradewire/pkg/transport/link"
)

// Producer publishes frames for one source on one domain. Safe for
// concurrent use; sequence numbers are issued atomically.
type Producer struct {
	conn   transport.Conn
	domain protocol.Domain
	source protocol.SourceID
	seq    atomic.Uint64

	// SkipChecksum leaves checksums zero on every published frame. Set it
	// when the receiving relay runs the performance policy.
	SkipChecksum bool
}

// NewProducer binds an established connection to a domain and source.
func NewProducer(conn transport.Conn, domain protocol.Domain, source protocol.SourceID) *Producer {
	return &Producer{conn: conn, domain: domain, source: source}
}

// DialProducer connects to addr (unix://, tcp://, mem://) and returns a
// producer on it.
func DialProducer(ctx context.Context, addr string, domain protocol.Domain, source protocol.SourceID) (*Producer, error) {
	conn, err := link.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return NewProducer(conn, domain, source), nil
}

// Builder returns a message builder bound to the producer's domain and
// source. Pass the result to Publish.
func (p *Producer) Builder() *protocol.Builder {
	b := protocol.NewBuilder(p.domain, p.source)
	b.SkipChecksum = p.SkipChecksum
	return b
}

// Publish stamps the next sequence number, builds, and sends.
func (p *Producer) Publish(b *protocol.Builder) error {
	fr, err := b.Build(p.seq.Add(1))
	if err != nil {
		return err
	}
	return p.conn.Send(fr)
}

// PublishPayload sends one typed payload as a single-entry message.
func (p *Producer) PublishPayload(pl protocol.Payload) error {
	b := p.Builder()
	if err := b.Add(pl); err != nil {
		return err
	}
	return p.Publish(b)
}

// PublishOnTopic sends one typed payload with an explicit routing topic
// entry, overriding the relay's content-derived topic.
func (p *Producer) PublishOnTopic(topic string, pl protocol.Payload) error {
	b := p.Builder()
	if err := b.Add(pl); err != nil {
		return err
	}
	if err := b.AddTLV(protocol.TypeTopic, []byte(topic)); err != nil {
		return err
	}
	return p.Publish(b)
}

// Heartbeat sends an empty-value heartbeat entry. The relay records the
// frame but never routes it.
func (p *Producer) Heartbeat() error {
	b := p.Builder()
	if err := b.AddTLV(protocol.TypeHeartbeat, nil); err != nil {
		return err
	}
	return p.Publish(b)
}

// Sequence returns the last issued sequence number.
func (p *Producer) Sequence() uint64 { return p.seq.Load() }

func (p *Producer) Close() error { return p.conn.Close() }

// Consumer receives routed frames for subscribed topic patterns.
type Consumer struct {
	conn   transport.Conn
	domain protocol.Domain
	source protocol.SourceID
	seq    atomic.Uint64
}

// NewConsumer binds an established connection to a domain and source. The
// source identifies the consumer in the relay's logs and audit trail.
func NewConsumer(conn transport.Conn, domain protocol.Domain, source protocol.SourceID) *Consumer {
	return &Consumer{conn: conn, domain: domain, source: source}
}

// DialConsumer connects to addr and returns a consumer on it.
func DialConsumer(ctx context.Context, addr string, domain protocol.Domain, source protocol.SourceID) (*Consumer, error) {
	conn, err := link.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return NewConsumer(conn, domain, source), nil
}

// Subscribe registers topic patterns ("topic", "prefix.*", "*") with the
// relay. Calling it again replaces the previous set.
func (c *Consumer) Subscribe(name string, patterns ...string) error {
	if len(patterns) == 0 {
		return fmt.Errorf("subscribe needs at least one pattern")
	}
	b := protocol.NewBuilder(c.domain, c.source)
	if name != "" {
		if err := b.AddTLV(protocol.TypeHello, []byte(name)); err != nil {
			return err
		}
	}
	for _, p := range patterns {
		if err := b.AddTLV(protocol.TypeSubscribe, []byte(p)); err != nil {
			return err
		}
	}
	fr, err := b.Build(c.seq.Add(1))
	if err != nil {
		return err
	}
	return c.conn.Send(fr)
}

// Recv blocks for the next routed frame and splits it. The payload aliases
// the returned frame's buffer.
func (c *Consumer) Recv() (protocol.Header, []byte, error) {
	fr, err := c.conn.Recv()
	if err != nil {
		return protocol.Header{}, nil, err
	}
	return protocol.DecodeFrame(fr)
}

func (c *Consumer) Close() error { return c.conn.Close() }
