package config

import (
	"fmt"
	"strings"
)

// RelayConfig describes one domain relay and its listeners.
// Example YAML:
//
//	relays:
//	  - domain: market_data
//	    listen: ["unix:///tmp/tradewire/market_data.sock", "tcp://127.0.0.1:9101"]
//	  - domain: execution
//	    listen: ["unix:///tmp/tradewire/execution.sock"]
//	    audit:
//	      path: "logs/execution_audit.cbor"
//	      max_size_mb: 100
//
// Policy, backpressure, and queue tuning default per domain; set them only
// to override.
type RelayConfig struct {
	// Domain: market_data, signal, or execution
	Domain string `mapstructure:"domain"`
	// Listen addresses: unix://path, tcp://host:port, mem://name
	Listen []string `mapstructure:"listen"`

	// Policy override: performance, reliability, or audit
	Policy string `mapstructure:"policy"`
	// Backpressure override: drop_oldest, block_wait, or block
	Backpressure string `mapstructure:"backpressure"`
	// QueueSize bounds each subscriber queue, in frames
	QueueSize int `mapstructure:"queue_size"`
	// BlockTimeoutMS bounds the producer wait under block_wait
	BlockTimeoutMS int `mapstructure:"block_timeout_ms"`

	// TopicStrategy: tlv_first, content, or source
	TopicStrategy string `mapstructure:"topic_strategy"`
	DefaultTopic  string `mapstructure:"default_topic"`

	Audit AuditConfig `mapstructure:"audit"`
}

// AuditConfig locates the relay's audit trail. Only meaningful under the
// audit policy.
type AuditConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func (r *RelayConfig) normalize() error {
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	switch r.Domain {
	case "market_data", "signal", "execution":
	case "":
		return fmt.Errorf("relay needs a domain")
	default:
		return fmt.Errorf("unknown domain %q", r.Domain)
	}
	if len(r.Listen) == 0 {
		return fmt.Errorf("relay %s needs at least one listen address", r.Domain)
	}
	for _, addr := range r.Listen {
		if !strings.Contains(addr, "://") {
			return fmt.Errorf("listen address %q needs a scheme (unix://, tcp://, mem://)", addr)
		}
	}
	r.Policy = strings.ToLower(strings.TrimSpace(r.Policy))
	r.Backpressure = strings.ToLower(strings.TrimSpace(r.Backpressure))
	r.TopicStrategy = strings.ToLower(strings.TrimSpace(r.TopicStrategy))
	return nil
}
