package protocol

import (
	"encoding/binary"
	"fmt"

	"tradewire/pkg/instrument"
)

// Payload is a typed TLV body that knows its own type code. Builder.Add and
// the Decode* helpers below convert between structs and wire bytes.
//
// Layouts keep 8-byte fields first, then 2-byte, then single bytes plus
// explicit padding, so every struct encodes with zero implicit padding.
// Prices and volumes are signed 8-decimal fixed point (pkg/fixedpoint).
type Payload interface {
	TLVType() uint16
	MarshalBinary() ([]byte, error)
}

// Trade sides.
const (
	SideBuy  uint8 = 0
	SideSell uint8 = 1
)

// TradeTLV is one executed trade (type 1, 40 bytes).
//
//	0 ..7   asset id    u64
//	8 ..15  price       i64 fixed-point 1e-8
//	16..23  volume      i64 fixed-point 1e-8
//	24..31  timestamp   u64 ns (exchange execution time)
//	32..33  venue       u16
//	34      asset class u8
//	35      reserved    u8
//	36      side        u8
//	37..39  padding
type TradeTLV struct {
	Instrument  instrument.ID
	Price       int64
	Volume      int64
	TimestampNs uint64
	Side        uint8
}

const tradeTLVSize = 40

func (TradeTLV) TLVType() uint16 { return TypeTrade }

func (t TradeTLV) MarshalBinary() ([]byte, error) {
	buf := make([]byte, tradeTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], t.Instrument.AssetID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(t.Price))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(t.Volume))
	binary.LittleEndian.PutUint64(buf[24:32], t.TimestampNs)
	binary.LittleEndian.PutUint16(buf[32:34], uint16(t.Instrument.Venue))
	buf[34] = uint8(t.Instrument.Class)
	buf[35] = t.Instrument.Reserved
	buf[36] = t.Side
	return buf, nil
}

func (t *TradeTLV) UnmarshalBinary(buf []byte) error {
	if len(buf) != tradeTLVSize {
		return fmt.Errorf("%w: trade tlv wants %d bytes, got %d", ErrInvalidPayloadLength, tradeTLVSize, len(buf))
	}
	t.Instrument = instrument.ID{
		AssetID:  binary.LittleEndian.Uint64(buf[0:8]),
		Venue:    instrument.Venue(binary.LittleEndian.Uint16(buf[32:34])),
		Class:    instrument.AssetClass(buf[34]),
		Reserved: buf[35],
	}
	t.Price = int64(binary.LittleEndian.Uint64(buf[8:16]))
	t.Volume = int64(binary.LittleEndian.Uint64(buf[16:24]))
	t.TimestampNs = binary.LittleEndian.Uint64(buf[24:32])
	t.Side = buf[36]
	return nil
}

// QuoteTLV is a best bid/ask update (type 2, 56 bytes).
type QuoteTLV struct {
	Instrument  instrument.ID
	BidPrice    int64
	BidSize     int64
	AskPrice    int64
	AskSize     int64
	TimestampNs uint64
}

const quoteTLVSize = 56

func (QuoteTLV) TLVType() uint16 { return TypeQuote }

func (q QuoteTLV) MarshalBinary() ([]byte, error) {
	buf := make([]byte, quoteTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], q.Instrument.AssetID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(q.BidPrice))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(q.BidSize))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(q.AskPrice))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(q.AskSize))
	binary.LittleEndian.PutUint64(buf[40:48], q.TimestampNs)
	binary.LittleEndian.PutUint16(buf[48:50], uint16(q.Instrument.Venue))
	buf[50] = uint8(q.Instrument.Class)
	buf[51] = q.Instrument.Reserved
	return buf, nil
}

func (q *QuoteTLV) UnmarshalBinary(buf []byte) error {
	if len(buf) != quoteTLVSize {
		return fmt.Errorf("%w: quote tlv wants %d bytes, got %d", ErrInvalidPayloadLength, quoteTLVSize, len(buf))
	}
	q.Instrument = instrument.ID{
		AssetID:  binary.LittleEndian.Uint64(buf[0:8]),
		Venue:    instrument.Venue(binary.LittleEndian.Uint16(buf[48:50])),
		Class:    instrument.AssetClass(buf[50]),
		Reserved: buf[51],
	}
	q.BidPrice = int64(binary.LittleEndian.Uint64(buf[8:16]))
	q.BidSize = int64(binary.LittleEndian.Uint64(buf[16:24]))
	q.AskPrice = int64(binary.LittleEndian.Uint64(buf[24:32]))
	q.AskSize = int64(binary.LittleEndian.Uint64(buf[32:40]))
	q.TimestampNs = binary.LittleEndian.Uint64(buf[40:48])
	return nil
}

// ArbitrageSignalTLV announces a detected opportunity (type 32, 48 bytes).
type ArbitrageSignalTLV struct {
	SignalID        uint64
	ExpectedProfit  int64 // fixed-point 1e-8, quote currency
	RequiredCapital int64 // fixed-point 1e-8
	TimestampNs     uint64
	Instrument      instrument.ID
	StrategyID      uint16
	Confidence      uint8 // 0-100
}

const arbitrageSignalTLVSize = 48

func (ArbitrageSignalTLV) TLVType() uint16 { return TypeArbitrageSignal }

func (s ArbitrageSignalTLV) MarshalBinary() ([]byte, error) {
	buf := make([]byte, arbitrageSignalTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], s.SignalID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(s.ExpectedProfit))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(s.RequiredCapital))
	binary.LittleEndian.PutUint64(buf[24:32], s.TimestampNs)
	s.Instrument.Put(buf[32:44])
	binary.LittleEndian.PutUint16(buf[44:46], s.StrategyID)
	buf[46] = s.Confidence
	return buf, nil
}

func (s *ArbitrageSignalTLV) UnmarshalBinary(buf []byte) error {
	if len(buf) != arbitrageSignalTLVSize {
		return fmt.Errorf("%w: signal tlv wants %d bytes, got %d", ErrInvalidPayloadLength, arbitrageSignalTLVSize, len(buf))
	}
	s.SignalID = binary.LittleEndian.Uint64(buf[0:8])
	s.ExpectedProfit = int64(binary.LittleEndian.Uint64(buf[8:16]))
	s.RequiredCapital = int64(binary.LittleEndian.Uint64(buf[16:24]))
	s.TimestampNs = binary.LittleEndian.Uint64(buf[24:32])
	if err := s.Instrument.UnmarshalBinary(buf[32:44]); err != nil {
		return err
	}
	s.StrategyID = binary.LittleEndian.Uint16(buf[44:46])
	s.Confidence = buf[46]
	return nil
}

// Order types for OrderRequestTLV.
const (
	OrderTypeLimit  uint8 = 0
	OrderTypeMarket uint8 = 1
)

// OrderRequestTLV asks the execution engine to place an order
// (type 40, 48 bytes).
type OrderRequestTLV struct {
	OrderID     uint64
	Price       int64 // fixed-point 1e-8; ignored for market orders
	Quantity    int64 // fixed-point 1e-8
	TimestampNs uint64
	Instrument  instrument.ID
	Side        uint8
	OrderType   uint8
}

const orderRequestTLVSize = 48

func (OrderRequestTLV) TLVType() uint16 { return TypeOrderRequest }

func (o OrderRequestTLV) MarshalBinary() ([]byte, error) {
	buf := make([]byte, orderRequestTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], o.OrderID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(o.Price))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(o.Quantity))
	binary.LittleEndian.PutUint64(buf[24:32], o.TimestampNs)
	o.Instrument.Put(buf[32:44])
	buf[44] = o.Side
	buf[45] = o.OrderType
	return buf, nil
}

func (o *OrderRequestTLV) UnmarshalBinary(buf []byte) error {
	if len(buf) != orderRequestTLVSize {
		return fmt.Errorf("%w: order request tlv wants %d bytes, got %d", ErrInvalidPayloadLength, orderRequestTLVSize, len(buf))
	}
	o.OrderID = binary.LittleEndian.Uint64(buf[0:8])
	o.Price = int64(binary.LittleEndian.Uint64(buf[8:16]))
	o.Quantity = int64(binary.LittleEndian.Uint64(buf[16:24]))
	o.TimestampNs = binary.LittleEndian.Uint64(buf[24:32])
	if err := o.Instrument.UnmarshalBinary(buf[32:44]); err != nil {
		return err
	}
	o.Side = buf[44]
	o.OrderType = buf[45]
	return nil
}

// FillTLV reports a (partial) execution (type 42, 48 bytes).
type FillTLV struct {
	OrderID     uint64
	FillPrice   int64
	FillQty     int64
	TimestampNs uint64
	Instrument  instrument.ID
	Side        uint8
}

const fillTLVSize = 48

func (FillTLV) TLVType() uint16 { return TypeFill }

func (f FillTLV) MarshalBinary() ([]byte, error) {
	buf := make([]byte, fillTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], f.OrderID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(f.FillPrice))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(f.FillQty))
	binary.LittleEndian.PutUint64(buf[24:32], f.TimestampNs)
	f.Instrument.Put(buf[32:44])
	buf[44] = f.Side
	return buf, nil
}

func (f *FillTLV) UnmarshalBinary(buf []byte) error {
	if len(buf) != fillTLVSize {
		return fmt.Errorf("%w: fill tlv wants %d bytes, got %d", ErrInvalidPayloadLength, fillTLVSize, len(buf))
	}
	f.OrderID = binary.LittleEndian.Uint64(buf[0:8])
	f.FillPrice = int64(binary.LittleEndian.Uint64(buf[8:16]))
	f.FillQty = int64(binary.LittleEndian.Uint64(buf[16:24]))
	f.TimestampNs = binary.LittleEndian.Uint64(buf[24:32])
	if err := f.Instrument.UnmarshalBinary(buf[32:44]); err != nil {
		return err
	}
	f.Side = buf[44]
	return nil
}

// DecodeTrade finds and decodes the first trade entry in a market data
// payload. Duplicates resolve first-wins.
func DecodeTrade(payload []byte) (TradeTLV, error) {
	var t TradeTLV
	e, ok, err := FindFirst(DomainMarketData, payload, TypeTrade)
	if err != nil {
		return t, err
	}
	if !ok {
		return t, fmt.Errorf("%w: no trade entry", ErrInvalidPayloadLength)
	}
	err = t.UnmarshalBinary(e.Value)
	return t, err
}
