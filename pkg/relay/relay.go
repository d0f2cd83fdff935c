// Package relay implements the domain-partitioned message relay: it decodes
// inbound frames, applies the domain's validation policy, and fans accepted
// messages out to topic subscribers under the domain's backpressure rules.
//
// One Relay instance serves exactly one domain. The topic registry and all
// subscriber queues are owned by the instance and mutated only from its
// connection goroutines; there are no process-wide singletons, so the three
// domain relays run and test independently.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tradewire/pkg/protocol"
	"tradewire/pkg/transport"
)

// Relay is one domain relay instance.
type Relay struct {
	cfg     Config
	reg     *registry
	audit   *AuditLog
	metrics Metrics
	log     *zap.Logger

	nextSubID atomic.Uint64

	seqMu   sync.Mutex
	lastSeq map[protocol.SourceID]uint64

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a relay for cfg. Under PolicyAudit the audit log is opened
// here; construction fails rather than running unaudited.
func New(cfg Config) (*Relay, error) {
	r := &Relay{
		cfg:     cfg,
		reg:     newRegistry(),
		lastSeq: make(map[protocol.SourceID]uint64),
		log:     zap.L().With(zap.String("relay", cfg.Domain.String())),
	}
	r.metrics.startedAt = time.Now()
	if cfg.Policy == PolicyAudit {
		if cfg.AuditPath == "" {
			return nil, errors.New("relay: audit policy requires an audit path")
		}
		a, err := NewAuditLog(cfg.AuditPath, cfg.AuditMaxSizeMB, cfg.AuditMaxBackups)
		if err != nil {
			return nil, fmt.Errorf("relay: open audit log: %w", err)
		}
		r.audit = a
	}
	return r, nil
}

// newWithAudit is the test seam for injecting an audit sink.
func newWithAudit(cfg Config, audit *AuditLog) *Relay {
	r := &Relay{
		cfg:     cfg,
		reg:     newRegistry(),
		lastSeq: make(map[protocol.SourceID]uint64),
		audit:   audit,
		log:     zap.L().With(zap.String("relay", cfg.Domain.String())),
	}
	r.metrics.startedAt = time.Now()
	return r
}

// Domain returns the bound relay domain.
func (r *Relay) Domain() protocol.Domain { return r.cfg.Domain }

// Metrics returns a point-in-time counter snapshot.
func (r *Relay) Metrics() Snapshot { return r.metrics.snapshot(r.reg.count()) }

// Serve accepts connections on ln until ctx is done or the listener fails.
// Each connection gets its own reader goroutine; call Serve concurrently
// for multiple listeners.
func (r *Relay) Serve(ctx context.Context, ln transport.Listener) error {
	r.log.Info("serving", zap.String("addr", ln.Addr().String()),
		zap.String("policy", r.cfg.Policy.String()),
		zap.String("backpressure", r.cfg.Backpressure.String()))
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handleConn(ctx, conn)
		}()
	}
}

// Close waits for connection goroutines and releases the audit log.
func (r *Relay) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.wg.Wait()
		if r.audit != nil {
			err = r.audit.Close()
		}
	})
	return err
}

// handleConn is the per-connection reader loop. The connection may act as a
// producer, a subscriber (after a subscribe frame), or both.
func (r *Relay) handleConn(ctx context.Context, conn transport.Conn) {
	remote := addrString(conn.RemoteAddr())
	log := r.log.With(zap.String("remote", remote))
	r.metrics.Connections.Add(1)
	r.metrics.ActiveConnections.Add(1)
	defer r.metrics.ActiveConnections.Add(-1)

	var sub *subscriber
	defer func() {
		if sub != nil {
			r.evict(sub, "disconnect")
		}
		_ = conn.Close()
	}()

	// stop reading when the context ends
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var scratch []*subscriber
	for {
		fr, err := conn.Recv()
		if err != nil {
			switch {
			case fatalFraming(err):
				log.Warn("closing connection on framing error", zap.Error(err))
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), ctx.Err() != nil:
			default:
				log.Debug("read failed", zap.Error(err))
			}
			return
		}
		h, payload, err := protocol.DecodeFrame(fr)
		if err != nil {
			// Stream position is unrecoverable after a framing error.
			log.Warn("frame decode failed, closing", zap.Error(err))
			return
		}
		r.metrics.Received.Add(1)

		if h.Domain != r.cfg.Domain {
			r.metrics.DroppedWrongDomain.Add(1)
			r.recordAudit(h, Verdict{Reason: "wrong relay domain"}, "")
			log.Debug("dropped frame for foreign domain", zap.Uint8("domain", uint8(h.Domain)))
			continue
		}
		r.trackSequence(h)

		v := r.cfg.Policy.check(h, fr, payload)
		ctl := v.Accept && isControl(h.Domain, payload)

		topic := ""
		if v.Accept && !ctl {
			topic = extractTopic(r.cfg.Strategy, h, payload, r.cfg.DefaultTopic)
		}
		if ok := r.recordAudit(h, v, topic); !ok {
			// Audit is the contract under PolicyAudit: an unrecordable
			// message must not route.
			log.Error("audit write failed, dropping frame",
				zap.Uint64("seq", h.Sequence))
			continue
		}
		if !v.Accept {
			if v.Checksum {
				r.metrics.DroppedChecksum.Add(1)
			} else {
				r.metrics.DroppedInvalid.Add(1)
			}
			log.Debug("dropped frame", zap.String("reason", v.Reason),
				zap.Uint64("seq", h.Sequence))
			continue
		}
		if ctl {
			sub = r.handleControl(conn, sub, h, payload, log)
			continue
		}
		scratch = r.route(topic, fr, scratch[:0])
	}
}

// recordAudit persists the decision under PolicyAudit. Returns false when
// the record could not be written and the frame must not proceed.
func (r *Relay) recordAudit(h protocol.Header, v Verdict, topic string) bool {
	if r.audit == nil {
		return true
	}
	err := r.audit.Record(AuditRecord{
		TimestampNs: uint64(time.Now().UnixNano()),
		Domain:      uint8(h.Domain),
		Source:      uint8(h.Source),
		Sequence:    h.Sequence,
		PayloadLen:  h.PayloadLen,
		Checksum:    h.Checksum,
		Accepted:    v.Accept,
		Reason:      v.Reason,
		Topic:       topic,
	})
	if err != nil {
		r.metrics.AuditFailures.Add(1)
		return false
	}
	return true
}

// trackSequence counts gaps in each source's monotonic sequence. Gaps are
// diagnostic only; the relay does not reorder or retransmit.
func (r *Relay) trackSequence(h protocol.Header) {
	r.seqMu.Lock()
	last, seen := r.lastSeq[h.Source]
	r.lastSeq[h.Source] = h.Sequence
	r.seqMu.Unlock()
	if seen && h.Sequence != last+1 {
		r.metrics.SequenceGaps.Add(1)
	}
}

// isControl reports whether every entry sits in the system range, meaning
// the frame is relay plumbing and never routed.
func isControl(domain protocol.Domain, payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	d := protocol.NewDecoder(domain, payload)
	for d.Next() {
		t := d.Entry().Type
		if t < protocol.TypeRangeSystemLo || t > protocol.TypeRangeSystemHi {
			return false
		}
	}
	return d.Err() == nil
}

// handleControl applies subscribe/hello/heartbeat entries. The returned
// subscriber replaces the caller's current one (created on first
// subscribe).
func (r *Relay) handleControl(conn transport.Conn, sub *subscriber, h protocol.Header, payload []byte, log *zap.Logger) *subscriber {
	var patterns []string
	name := ""
	d := protocol.NewDecoder(h.Domain, payload)
	for d.Next() {
		e := d.Entry()
		switch e.Type {
		case protocol.TypeSubscribe:
			if validTopicPattern(e.Value) {
				patterns = append(patterns, string(e.Value))
			} else {
				log.Warn("ignoring malformed topic pattern", zap.ByteString("pattern", e.Value))
			}
		case protocol.TypeHello:
			name = string(e.Value)
		case protocol.TypeHeartbeat:
			// liveness only
		}
	}
	if len(patterns) == 0 {
		return sub
	}
	if sub == nil {
		sub = &subscriber{
			id:       r.nextSubID.Add(1),
			name:     name,
			conn:     conn,
			patterns: patterns,
			q:        newQueue(r.cfg.QueueSize),
		}
		r.reg.add(sub)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.writerLoop(sub)
		}()
		log.Info("subscriber registered", zap.Uint64("sub", sub.id),
			zap.String("name", name), zap.Strings("topics", patterns))
		return sub
	}
	r.reg.mu.Lock()
	sub.patterns = patterns
	r.reg.mu.Unlock()
	log.Info("subscription replaced", zap.Uint64("sub", sub.id), zap.Strings("topics", patterns))
	return sub
}

// route fans one accepted frame out to every matching subscriber under the
// domain's backpressure policy. The frame is shared read-only between
// queues; nothing downstream mutates it.
func (r *Relay) route(topic string, fr []byte, scratch []*subscriber) []*subscriber {
	matches := r.reg.match(topic, scratch)
	if len(matches) == 0 {
		r.metrics.NoSubscribers.Add(1)
		return matches
	}
	r.metrics.Routed.Add(1)
	for _, s := range matches {
		switch r.cfg.Backpressure {
		case DropOldest:
			if n := s.q.pushDropOldest(fr); n > 0 {
				r.metrics.DroppedBackpressure.Add(uint64(n))
			}
			r.metrics.Delivered.Add(1)
		case BlockWait:
			switch err := s.q.pushWait(fr, r.cfg.BlockTimeout); err {
			case nil:
				r.metrics.Delivered.Add(1)
			case errQueueTimeout:
				r.evict(s, "backpressure timeout")
			}
		case Block:
			if s.q.pushWait(fr, 0) == nil {
				r.metrics.Delivered.Add(1)
			}
		}
	}
	return matches
}

// writerLoop drains one subscriber's queue onto its connection. A write
// failure is the disconnect signal: deregister and close.
func (r *Relay) writerLoop(s *subscriber) {
	for {
		fr, ok := s.q.pop()
		if !ok {
			return
		}
		if err := s.conn.Send(fr); err != nil {
			r.evict(s, "write failure")
			return
		}
	}
}

// evict removes a subscriber, closes its queue, and closes the connection.
func (r *Relay) evict(s *subscriber, reason string) {
	s.gone.Do(func() {
		r.reg.remove(s.id)
		s.q.close()
		_ = s.conn.Close()
		if reason != "disconnect" {
			r.metrics.EvictedSubscribers.Add(1)
		}
		r.log.Info("subscriber removed", zap.Uint64("sub", s.id),
			zap.String("reason", reason),
			zap.Uint64("dropped", s.q.dropped.Load()))
	})
}

// subscriber is one registered consumer connection: its patterns, its
// bounded queue, and the writer draining it.
type subscriber struct {
	id       uint64
	name     string
	conn     transport.Conn
	patterns []string
	q        *queue
	gone     sync.Once
}

func addrString(a net.Addr) string {
	if a == nil {
		return "?"
	}
	return a.String()
}

// validTopicPattern accepts concrete topics plus "*" and "prefix.*".
func validTopicPattern(b []byte) bool {
	if len(b) == 1 && b[0] == '*' {
		return true
	}
	if len(b) > 2 && string(b[len(b)-2:]) == ".*" {
		return validTopic(b[:len(b)-2])
	}
	return validTopic(b)
}
