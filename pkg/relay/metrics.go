package relay

import (
	"sync/atomic"
	"time"
)

// Metrics counts relay activity. Counters only; exporting them in any
// particular format is the operator's concern, not the relay's.
type Metrics struct {
	Received            atomic.Uint64
	Routed              atomic.Uint64
	Delivered           atomic.Uint64
	NoSubscribers       atomic.Uint64
	DroppedInvalid      atomic.Uint64
	DroppedChecksum     atomic.Uint64
	DroppedWrongDomain  atomic.Uint64
	DroppedBackpressure atomic.Uint64
	EvictedSubscribers  atomic.Uint64
	Connections         atomic.Uint64
	ActiveConnections   atomic.Int64
	SequenceGaps        atomic.Uint64
	AuditFailures       atomic.Uint64

	startedAt time.Time
}

// Snapshot is a point-in-time copy for logging and inspection.
type Snapshot struct {
	Received            uint64
	Routed              uint64
	Delivered           uint64
	NoSubscribers       uint64
	DroppedInvalid      uint64
	DroppedChecksum     uint64
	DroppedWrongDomain  uint64
	DroppedBackpressure uint64
	EvictedSubscribers  uint64
	Connections         uint64
	ActiveConnections   int64
	Subscribers         int
	SequenceGaps        uint64
	AuditFailures       uint64
	Uptime              time.Duration
}

func (m *Metrics) snapshot(subscribers int) Snapshot {
	return Snapshot{
		Received:            m.Received.Load(),
		Routed:              m.Routed.Load(),
		Delivered:           m.Delivered.Load(),
		NoSubscribers:       m.NoSubscribers.Load(),
		DroppedInvalid:      m.DroppedInvalid.Load(),
		DroppedChecksum:     m.DroppedChecksum.Load(),
		DroppedWrongDomain:  m.DroppedWrongDomain.Load(),
		DroppedBackpressure: m.DroppedBackpressure.Load(),
		EvictedSubscribers:  m.EvictedSubscribers.Load(),
		Connections:         m.Connections.Load(),
		ActiveConnections:   m.ActiveConnections.Load(),
		Subscribers:         subscribers,
		SequenceGaps:        m.SequenceGaps.Load(),
		AuditFailures:       m.AuditFailures.Load(),
		Uptime:              time.Since(m.startedAt),
	}
}
