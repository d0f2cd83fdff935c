package protocol

import "fmt"

// Domain partitions the TLV type space and selects which relay carries a
// message. Each domain owns a contiguous numeric range; ranges never overlap.
type Domain uint8

const (
	DomainMarketData Domain = 1
	DomainSignal     Domain = 2
	DomainExecution  Domain = 3
)

// TLV type ranges per domain. The system range is shared: relay-internal
// frames (heartbeats, subscriptions) are legal on every domain.
const (
	TypeRangeMarketDataLo uint16 = 1
	TypeRangeMarketDataHi uint16 = 19
	TypeRangeSignalLo     uint16 = 20
	TypeRangeSignalHi     uint16 = 39
	TypeRangeExecutionLo  uint16 = 40
	TypeRangeExecutionHi  uint16 = 79
	TypeRangeSystemLo     uint16 = 100
	TypeRangeSystemHi     uint16 = 119
)

func (d Domain) String() string {
	switch d {
	case DomainMarketData:
		return "market_data"
	case DomainSignal:
		return "signal"
	case DomainExecution:
		return "execution"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// Valid reports whether d is a known relay domain.
func (d Domain) Valid() bool {
	return d >= DomainMarketData && d <= DomainExecution
}

// Contains reports whether a TLV type belongs to this domain's range.
// System types are accepted on all domains.
func (d Domain) Contains(typ uint16) bool {
	if typ >= TypeRangeSystemLo && typ <= TypeRangeSystemHi {
		return true
	}
	switch d {
	case DomainMarketData:
		return typ >= TypeRangeMarketDataLo && typ <= TypeRangeMarketDataHi
	case DomainSignal:
		return typ >= TypeRangeSignalLo && typ <= TypeRangeSignalHi
	case DomainExecution:
		return typ >= TypeRangeExecutionLo && typ <= TypeRangeExecutionHi
	default:
		return false
	}
}

// DomainForType returns the domain owning a TLV type, or false for system
// and unassigned types.
func DomainForType(typ uint16) (Domain, bool) {
	switch {
	case typ >= TypeRangeMarketDataLo && typ <= TypeRangeMarketDataHi:
		return DomainMarketData, true
	case typ >= TypeRangeSignalLo && typ <= TypeRangeSignalHi:
		return DomainSignal, true
	case typ >= TypeRangeExecutionLo && typ <= TypeRangeExecutionHi:
		return DomainExecution, true
	default:
		return 0, false
	}
}

// Well-known TLV types. Only the types this module constructs or inspects are
// named; the rest of each range is free for producers to extend.
const (
	TypeTrade           uint16 = 1
	TypeQuote           uint16 = 2
	TypeOrderBook       uint16 = 3
	TypeInstrumentMeta  uint16 = 4
	TypePoolSwap        uint16 = 11
	TypeGasPrice        uint16 = 18
	TypeSignalIdentity  uint16 = 20
	TypeEconomics       uint16 = 22
	TypeArbitrageSignal uint16 = 32
	TypeOrderRequest    uint16 = 40
	TypeOrderStatus     uint16 = 41
	TypeFill            uint16 = 42
	TypeOrderCancel     uint16 = 43
	TypeExecutionReport uint16 = 45

	// System range: relay plumbing.
	TypeHeartbeat uint16 = 100
	TypeSubscribe uint16 = 101
	TypeHello     uint16 = 102
	TypeTopic     uint16 = 103
)

// SourceID identifies the producing service in the header. Monotonic
// sequence numbers are scoped per source.
type SourceID uint8

const (
	SourceUnknown           SourceID = 0
	SourceBinanceCollector  SourceID = 1
	SourceCoinbaseCollector SourceID = 2
	SourceKrakenCollector   SourceID = 3
	SourcePolygonCollector  SourceID = 4
	SourceGeminiCollector   SourceID = 5
	SourceArbitrageStrategy SourceID = 10
	SourceStateManager      SourceID = 15
	SourceExecutionEngine   SourceID = 20
	SourceDashboard         SourceID = 30
	SourceRelay             SourceID = 60
	SourceTestClient        SourceID = 99
)
