package relay

import (
	"fmt"
	"strings"
	"sync"

	"tradewire/pkg/instrument"
	"tradewire/pkg/protocol"
)

// MatchTopic reports whether a concrete topic matches a subscription
// pattern. Patterns are exact topics, "*" for everything, or "prefix.*"
// which matches any topic beginning with "prefix.".
func MatchTopic(pattern, topic string) bool {
	if pattern == "*" {
		return true
	}
	if p, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(topic, p+".")
	}
	return pattern == topic
}

// registry maps subscriber IDs to their patterns and queues. It is owned by
// one Relay instance: all mutation happens under mu from connection-handling
// goroutines, never from outside the relay.
type registry struct {
	mu   sync.RWMutex
	subs map[uint64]*subscriber
}

func newRegistry() *registry {
	return &registry{subs: make(map[uint64]*subscriber)}
}

func (r *registry) add(s *subscriber) {
	r.mu.Lock()
	r.subs[s.id] = s
	r.mu.Unlock()
}

func (r *registry) remove(id uint64) *subscriber {
	r.mu.Lock()
	s := r.subs[id]
	delete(r.subs, id)
	r.mu.Unlock()
	return s
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// match appends every subscriber with at least one matching pattern to dst
// and returns it. dst is reused across calls on the hot path.
func (r *registry) match(topic string, dst []*subscriber) []*subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		for _, p := range s.patterns {
			if MatchTopic(p, topic) {
				dst = append(dst, s)
				break
			}
		}
	}
	return dst
}

// TopicStrategy selects how a relay derives the routing topic from a
// decoded message.
type TopicStrategy uint8

const (
	// StrategyTLVFirst honors an explicit topic TLV (system type 103) and
	// falls back to content extraction. The default everywhere.
	StrategyTLVFirst TopicStrategy = iota
	// StrategyContent ignores topic TLVs and always derives from payload
	// content.
	StrategyContent
	// StrategySource routes purely on "<domain>.<source>".
	StrategySource
)

// ParseTopicStrategy maps a config string to a TopicStrategy.
func ParseTopicStrategy(s string) (TopicStrategy, error) {
	switch s {
	case "tlv_first":
		return StrategyTLVFirst, nil
	case "content":
		return StrategyContent, nil
	case "source":
		return StrategySource, nil
	default:
		return 0, fmt.Errorf("unknown topic strategy %q", s)
	}
}

// extractTopic derives the routing topic for one validated frame.
func extractTopic(strategy TopicStrategy, h protocol.Header, payload []byte, fallback string) string {
	switch strategy {
	case StrategySource:
		return sourceTopic(h)
	case StrategyTLVFirst:
		if e, ok, _ := protocol.FindFirst(h.Domain, payload, protocol.TypeTopic); ok && validTopic(e.Value) {
			return string(e.Value)
		}
	}
	if t := contentTopic(h, payload); t != "" {
		return t
	}
	if fallback != "" {
		return fallback
	}
	return sourceTopic(h)
}

func sourceTopic(h protocol.Header) string {
	return h.Domain.String() + "." + sourceSlug(h.Source)
}

func sourceSlug(s protocol.SourceID) string {
	switch s {
	case protocol.SourceBinanceCollector:
		return "binance"
	case protocol.SourceCoinbaseCollector:
		return "coinbase"
	case protocol.SourceKrakenCollector:
		return "kraken"
	case protocol.SourcePolygonCollector:
		return "polygon"
	case protocol.SourceGeminiCollector:
		return "gemini"
	case protocol.SourceArbitrageStrategy:
		return "arb"
	case protocol.SourceExecutionEngine:
		return "exec"
	default:
		return "src" + itoa(uint64(s))
	}
}

// contentTopic builds a topic from the first recognized TLV. Market data
// yields "trades.<venue>.<instrument>" style topics, signals
// "signals.arb.<venue>", execution "orders.<venue>" / "fills.<venue>".
func contentTopic(h protocol.Header, payload []byte) string {
	d := protocol.NewDecoder(h.Domain, payload)
	for d.Next() {
		e := d.Entry()
		switch e.Type {
		case protocol.TypeTrade:
			var t protocol.TradeTLV
			if t.UnmarshalBinary(e.Value) == nil {
				return "trades." + venueSlug(t.Instrument.Venue) + "." + instrumentSlug(t.Instrument)
			}
		case protocol.TypeQuote:
			var q protocol.QuoteTLV
			if q.UnmarshalBinary(e.Value) == nil {
				return "quotes." + venueSlug(q.Instrument.Venue) + "." + instrumentSlug(q.Instrument)
			}
		case protocol.TypeArbitrageSignal:
			var s protocol.ArbitrageSignalTLV
			if s.UnmarshalBinary(e.Value) == nil {
				return "signals.arb." + venueSlug(s.Instrument.Venue)
			}
		case protocol.TypeOrderRequest, protocol.TypeOrderCancel:
			var o protocol.OrderRequestTLV
			if o.UnmarshalBinary(e.Value) == nil {
				return "orders." + venueSlug(o.Instrument.Venue)
			}
		case protocol.TypeFill, protocol.TypeExecutionReport:
			var f protocol.FillTLV
			if f.UnmarshalBinary(e.Value) == nil {
				return "fills." + venueSlug(f.Instrument.Venue)
			}
		}
	}
	return ""
}

func venueSlug(v instrument.Venue) string { return v.String() }

// instrumentSlug renders an instrument as a topic segment: pairs become
// "base_quote", symbol assets the lowercased symbol, everything else a
// stable numeric form.
func instrumentSlug(id instrument.ID) string {
	switch id.Class {
	case instrument.AssetFxPair, instrument.AssetCoinPair:
		base, quote, err := id.PairFields()
		if err != nil {
			break
		}
		return strings.ToLower(base) + "_" + strings.ToLower(quote)
	case instrument.AssetCoin, instrument.AssetStock, instrument.AssetCurrency:
		sym, err := id.Symbol()
		if err != nil {
			break
		}
		return strings.ToLower(sym)
	}
	return "i" + itoa(id.Key())
}

func validTopic(b []byte) bool {
	if len(b) == 0 || len(b) > 256 {
		return false
	}
	for _, c := range b {
		ok := c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '.' || c == '_' || c == '-' || c == '/'
		if !ok {
			return false
		}
	}
	return true
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
