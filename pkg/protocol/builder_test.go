package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"tradewire/pkg/instrument"
)

func TestBuildDecodeTrade(t *testing.T) {
	id, err := instrument.CoinPair(instrument.VenuePolygon, "WETH", "USDC")
	if err != nil {
		t.Fatalf("instrument: %v", err)
	}
	want := TradeTLV{
		Instrument:  id,
		Price:       4_500_000_000_000, // 45000.0 at 1e-8
		Volume:      1_000_000_000,     // 10.0 at 1e-8
		TimestampNs: uint64(time.Now().UnixNano()),
		Side:        SideSell,
	}

	b := NewBuilder(DomainMarketData, SourceID(7))
	if err := b.Add(want); err != nil {
		t.Fatalf("add: %v", err)
	}
	frame, err := b.Build(42)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	h, payload, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if h.Domain != DomainMarketData || h.Source != SourceID(7) || h.Sequence != 42 {
		t.Fatalf("header = %#v", h)
	}
	if int(h.PayloadLen) != len(payload) {
		t.Fatalf("payload len %d vs %d", h.PayloadLen, len(payload))
	}
	if err := VerifyChecksum(frame); err != nil {
		t.Fatalf("checksum: %v", err)
	}

	got, err := DecodeTrade(payload)
	if err != nil {
		t.Fatalf("decode trade: %v", err)
	}
	if got != want {
		t.Fatalf("trade differs: %#v vs %#v", got, want)
	}

	// The encode must be deterministic: same fields, same bytes.
	raw1, _ := want.MarshalBinary()
	raw2, _ := want.MarshalBinary()
	if !bytes.Equal(raw1, raw2) {
		t.Fatalf("non-deterministic trade encode")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewBuilder(DomainExecution, SourceExecutionEngine)
	if err := b.AddTLV(TypeOrderRequest, []byte("order")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := b.Build(1); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := b.Build(2); !errors.Is(err, ErrBuilderConsumed) {
		t.Fatalf("second build: %v", err)
	}
	if err := b.AddTLV(TypeFill, nil); !errors.Is(err, ErrBuilderConsumed) {
		t.Fatalf("add after build: %v", err)
	}
}

func TestBuilderRejectsAtAdd(t *testing.T) {
	b := NewBuilder(DomainMarketData, SourceTestClient)
	if err := b.AddTLV(TypeOrderRequest, nil); !errors.Is(err, ErrTypeOutOfDomainRange) {
		t.Fatalf("foreign type: %v", err)
	}
	if b.Count() != 0 {
		t.Fatalf("rejected entry counted")
	}

	// Filling past the message cap must fail on the offending add, not at
	// Build.
	big := make([]byte, 30_000)
	var n int
	for {
		if err := b.AddTLV(TypeOrderBook, big); err != nil {
			if !errors.Is(err, ErrMessageTooLarge) {
				t.Fatalf("cap error: %v", err)
			}
			break
		}
		n++
		if n > 2 {
			t.Fatalf("payload grew past the message cap")
		}
	}
	frame, err := b.Build(1)
	if err != nil {
		t.Fatalf("build after rejection: %v", err)
	}
	if len(frame) > MaxMessageSize {
		t.Fatalf("frame %d bytes", len(frame))
	}
}

func TestSkipChecksum(t *testing.T) {
	b := NewBuilder(DomainMarketData, SourceBinanceCollector)
	b.SkipChecksum = true
	if err := b.AddTLV(TypeTrade, []byte("t")); err != nil {
		t.Fatalf("add: %v", err)
	}
	frame, err := b.Build(1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	h, _, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Checksum != 0 {
		t.Fatalf("checksum stamped: %#08x", h.Checksum)
	}
	if err := VerifyChecksum(frame); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("verify of zero checksum: %v", err)
	}
}

func TestDecodeFrameLengthMismatch(t *testing.T) {
	b := NewBuilder(DomainSignal, SourceArbitrageStrategy)
	if err := b.AddTLV(TypeArbitrageSignal, []byte("sig")); err != nil {
		t.Fatalf("add: %v", err)
	}
	frame, err := b.Build(1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, _, err := DecodeFrame(frame[:len(frame)-1]); !errors.Is(err, ErrPayloadSizeMismatch) {
		t.Fatalf("short frame: %v", err)
	}
	if _, _, err := DecodeFrame(append(frame, 0)); !errors.Is(err, ErrPayloadSizeMismatch) {
		t.Fatalf("long frame: %v", err)
	}
}
