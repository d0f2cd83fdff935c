package relay

import (
	"time"

	"tradewire/pkg/protocol"
)

// Config fixes one relay instance's domain, validation policy, and queue
// tuning. All fields are read once at construction; a running relay never
// changes policy.
type Config struct {
	Domain       protocol.Domain
	Policy       Policy
	Backpressure BackpressureKind

	// QueueSize bounds each subscriber's delivery queue, in frames.
	QueueSize int
	// BlockTimeout bounds the producer wait under BlockWait. A subscriber
	// still full past the wait is evicted.
	BlockTimeout time.Duration

	Strategy     TopicStrategy
	DefaultTopic string

	// Audit log destination; required under PolicyAudit.
	AuditPath       string
	AuditMaxSizeMB  int
	AuditMaxBackups int
}

// MarketDataDefaults tunes for throughput: no checksums, drop-oldest,
// deep queues. A late quote is worthless.
func MarketDataDefaults() Config {
	return Config{
		Domain:       protocol.DomainMarketData,
		Policy:       PolicyPerformance,
		Backpressure: DropOldest,
		QueueSize:    4096,
		Strategy:     StrategyTLVFirst,
		DefaultTopic: "market_data.unknown",
	}
}

// SignalDefaults tunes for accuracy: checksums on, bounded producer wait.
// Signals are comparatively rare and must not be silently lost.
func SignalDefaults() Config {
	return Config{
		Domain:       protocol.DomainSignal,
		Policy:       PolicyReliability,
		Backpressure: BlockWait,
		QueueSize:    1024,
		BlockTimeout: 500 * time.Millisecond,
		Strategy:     StrategyTLVFirst,
		DefaultTopic: "signals.unknown",
	}
}

// ExecutionDefaults tunes for compliance: checksums, a persisted audit
// trail, and producers that block rather than ever dropping an order.
func ExecutionDefaults() Config {
	return Config{
		Domain:          protocol.DomainExecution,
		Policy:          PolicyAudit,
		Backpressure:    Block,
		QueueSize:       256,
		Strategy:        StrategyTLVFirst,
		DefaultTopic:    "execution.unknown",
		AuditPath:       "logs/execution_audit.cbor",
		AuditMaxSizeMB:  100,
		AuditMaxBackups: 10,
	}
}

// DefaultsForDomain returns the canonical tuning for a domain.
func DefaultsForDomain(d protocol.Domain) Config {
	switch d {
	case protocol.DomainSignal:
		return SignalDefaults()
	case protocol.DomainExecution:
		return ExecutionDefaults()
	default:
		return MarketDataDefaults()
	}
}
