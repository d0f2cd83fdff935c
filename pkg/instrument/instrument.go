// Package instrument implements bijective instrument identifiers: fixed
// 12-byte values that embed venue, asset class, and an asset-specific
// payload, recoverable by pure decoding with no side table.
//
// Per-class reversibility is explicit, not assumed. Symbol-based classes
// (stock, coin, fiat, fx pair, coin pair, future) round-trip exactly.
// Token IDs carry the first 8 bytes of the contract address and pool IDs a
// deterministic mixing hash of their constituents; both are documented
// truncations, and pkg/addrbook recovers the full value out of band. Option
// IDs recover strike, expiry, and call/put exactly but only an 11-bit hash
// of the underlying symbol.
package instrument

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInstrumentFields is returned when a constructor's inputs cannot
// be represented in the allotted bits.
var ErrInvalidInstrumentFields = errors.New("invalid instrument fields")

// ID is a self-describing instrument identifier.
//
// Wire layout (12 bytes, little-endian):
//
//	0 ..7   AssetID  u64 (interpretation depends on Class)
//	8 ..9   Venue    u16
//	10      Class    u8
//	11      Reserved u8
type ID struct {
	AssetID  uint64
	Venue    Venue
	Class    AssetClass
	Reserved uint8
}

// Size is the encoded width of an ID in bytes.
const Size = 12

// Zero is the invalid all-zero identifier.
var Zero ID

// MarshalBinary encodes the ID into a fresh 12-byte buffer.
func (id ID) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	id.Put(buf)
	return buf, nil
}

// Put writes the ID into buf, which must hold at least Size bytes.
func (id ID) Put(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], id.AssetID)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(id.Venue))
	buf[10] = uint8(id.Class)
	buf[11] = id.Reserved
}

// UnmarshalBinary decodes an ID from the first Size bytes of buf.
func (id *ID) UnmarshalBinary(buf []byte) error {
	if len(buf) < Size {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidInstrumentFields, Size, len(buf))
	}
	id.AssetID = binary.LittleEndian.Uint64(buf[0:8])
	id.Venue = Venue(binary.LittleEndian.Uint16(buf[8:10]))
	id.Class = AssetClass(buf[10])
	id.Reserved = buf[11]
	return nil
}

// Key folds the ID into a u64 map key. Lossy: only the low 40 bits of
// AssetID survive. Use the full ID as key where collisions matter.
func (id ID) Key() uint64 {
	return uint64(id.Venue)<<48 | uint64(id.Class)<<40 | id.AssetID&0xFF_FFFF_FFFF
}

// SameVenue reports whether two instruments share a venue.
func (id ID) SameVenue(other ID) bool { return id.Venue == other.Venue }

// CanPairWith reports whether the two instruments could form a pool pair:
// fungible, same venue, not the same asset.
func (id ID) CanPairWith(other ID) bool {
	return id.Class.Fungible() && other.Class.Fungible() &&
		id.Venue == other.Venue && id.AssetID != other.AssetID
}

// ---- constructors ----

// Coin builds an ID for a native chain coin or exchange-listed crypto asset.
func Coin(venue Venue, symbol string) (ID, error) {
	v, err := packSymbol64(symbol)
	if err != nil {
		return Zero, err
	}
	return ID{AssetID: v, Venue: venue, Class: AssetCoin}, nil
}

// Stock builds an ID for an exchange-listed equity.
func Stock(venue Venue, symbol string) (ID, error) {
	v, err := packSymbol64(symbol)
	if err != nil {
		return Zero, err
	}
	return ID{AssetID: v, Venue: venue, Class: AssetStock}, nil
}

// Fiat builds an ID for a fiat currency (ISO 4217 style code).
func Fiat(code string) (ID, error) {
	v, err := packSymbol64(code)
	if err != nil {
		return Zero, err
	}
	return ID{AssetID: v, Venue: VenueGeneric, Class: AssetCurrency}, nil
}

// Fx builds an ID for a currency pair. Base occupies the high 32 bits of
// the payload and quote the low 32, each a packed 1-4 char code.
func Fx(venue Venue, base, quote string) (ID, error) {
	b, err := packSymbol32(base)
	if err != nil {
		return Zero, err
	}
	q, err := packSymbol32(quote)
	if err != nil {
		return Zero, err
	}
	if base == quote {
		return Zero, fmt.Errorf("%w: fx pair %s/%s", ErrInvalidInstrumentFields, base, quote)
	}
	return ID{AssetID: uint64(b)<<32 | uint64(q), Venue: venue, Class: AssetFxPair}, nil
}

// CoinPair builds an ID for a crypto trading pair, packed like Fx.
func CoinPair(venue Venue, base, quote string) (ID, error) {
	b, err := packSymbol32(base)
	if err != nil {
		return Zero, err
	}
	q, err := packSymbol32(quote)
	if err != nil {
		return Zero, err
	}
	if base == quote {
		return Zero, fmt.Errorf("%w: pair %s/%s", ErrInvalidInstrumentFields, base, quote)
	}
	return ID{AssetID: uint64(b)<<32 | uint64(q), Venue: venue, Class: AssetCoinPair}, nil
}

// PairFields returns the base and quote symbols of an fx or coin pair.
func (id ID) PairFields() (base, quote string, err error) {
	if id.Class != AssetFxPair && id.Class != AssetCoinPair {
		return "", "", fmt.Errorf("%w: %s is not a pair", ErrInvalidInstrumentFields, id.Class)
	}
	return unpackSymbol32(uint32(id.AssetID >> 32)), unpackSymbol32(uint32(id.AssetID)), nil
}

// Symbol returns the packed symbol of a coin, stock, or fiat ID.
func (id ID) Symbol() (string, error) {
	switch id.Class {
	case AssetCoin, AssetStock, AssetBond, AssetETF, AssetCurrency:
		return unpackSymbol64(id.AssetID), nil
	default:
		return "", fmt.Errorf("%w: %s carries no symbol", ErrInvalidInstrumentFields, id.Class)
	}
}

// ---- options and futures ----

// expiryEpoch anchors the 20-bit expiry day counter.
var expiryEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const maxExpiryDays = 1<<20 - 1

// ExpiryDays converts a date to days since 2000-01-01, the unit stored in
// option and future payloads.
func ExpiryDays(t time.Time) (uint32, error) {
	d := int64(t.UTC().Sub(expiryEpoch) / (24 * time.Hour))
	if d < 0 || d > maxExpiryDays {
		return 0, fmt.Errorf("%w: expiry %s out of range", ErrInvalidInstrumentFields, t.Format("2006-01-02"))
	}
	return uint32(d), nil
}

// ExpiryDate reverses ExpiryDays.
func ExpiryDate(days uint32) time.Time {
	return expiryEpoch.AddDate(0, 0, int(days))
}

// Option builds an option ID. Payload layout:
// [strike:32][expiryDays:20][call:1][symbolHash:11]. Strike is in minor
// units (e.g. cents). The underlying survives only as an 11-bit hash.
func Option(venue Venue, underlying string, strike uint32, expiry time.Time, call bool) (ID, error) {
	if err := checkSymbol(underlying, 8); err != nil {
		return Zero, err
	}
	days, err := ExpiryDays(expiry)
	if err != nil {
		return Zero, err
	}
	var callBit uint64
	if call {
		callBit = 1
	}
	payload := uint64(strike)<<32 | uint64(days)<<12 | callBit<<11 | uint64(symbolHash11(underlying))
	return ID{AssetID: payload, Venue: venue, Class: AssetOption}, nil
}

// OptionFields is the decoded payload of an option ID.
type OptionFields struct {
	Strike     uint32
	Expiry     time.Time
	Call       bool
	SymbolHash uint16 // 11-bit hash of the underlying; not reversible
}

// OptionFields unpacks an option ID.
func (id ID) OptionFields() (OptionFields, error) {
	if id.Class != AssetOption {
		return OptionFields{}, fmt.Errorf("%w: %s is not an option", ErrInvalidInstrumentFields, id.Class)
	}
	return OptionFields{
		Strike:     uint32(id.AssetID >> 32),
		Expiry:     ExpiryDate(uint32(id.AssetID>>12) & 0xFFFFF),
		Call:       id.AssetID>>11&1 == 1,
		SymbolHash: uint16(id.AssetID & 0x7FF),
	}, nil
}

// Future builds a future ID. Payload layout: [symbol:40][expiryDays:20][0:4].
// The 5-char symbol limit keeps the class fully bijective.
func Future(venue Venue, underlying string, expiry time.Time) (ID, error) {
	sym, err := packSymbol40(underlying)
	if err != nil {
		return Zero, err
	}
	days, err := ExpiryDays(expiry)
	if err != nil {
		return Zero, err
	}
	return ID{AssetID: sym<<24 | uint64(days)<<4, Venue: venue, Class: AssetFuture}, nil
}

// FutureFields is the decoded payload of a future ID.
type FutureFields struct {
	Underlying string
	Expiry     time.Time
}

// FutureFields unpacks a future ID.
func (id ID) FutureFields() (FutureFields, error) {
	if id.Class != AssetFuture {
		return FutureFields{}, fmt.Errorf("%w: %s is not a future", ErrInvalidInstrumentFields, id.Class)
	}
	return FutureFields{
		Underlying: unpackSymbol40(id.AssetID >> 24),
		Expiry:     ExpiryDate(uint32(id.AssetID>>4) & 0xFFFFF),
	}, nil
}

// ---- on-chain assets ----

// Token builds an ID for an EVM contract token. The payload holds the first
// 8 bytes of the 20-byte address, big-endian: a documented truncation, not a
// bijection. Register the full address in an addrbook.Store to recover it.
func Token(venue Venue, address string) (ID, error) {
	raw, err := parseEVMAddress(address)
	if err != nil {
		return Zero, err
	}
	return ID{AssetID: binary.BigEndian.Uint64(raw[:8]), Venue: venue, Class: AssetToken}, nil
}

// TokenPrefix returns the embedded 8-byte address prefix of a token ID.
func (id ID) TokenPrefix() ([8]byte, error) {
	var out [8]byte
	if id.Class != AssetToken {
		return out, fmt.Errorf("%w: %s is not a token", ErrInvalidInstrumentFields, id.Class)
	}
	binary.BigEndian.PutUint64(out[:], id.AssetID)
	return out, nil
}

func parseEVMAddress(address string) ([20]byte, error) {
	var out [20]byte
	s := address
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 40 {
		return out, fmt.Errorf("%w: address %q is not 20 bytes", ErrInvalidInstrumentFields, address)
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("%w: address %q: %v", ErrInvalidInstrumentFields, address, err)
	}
	return out, nil
}

// Pool builds a deterministic ID for a two-token DEX pool. The payload is a
// mixing hash of the token payloads in canonical order: stable across both
// argument orders, but not reversible.
func Pool(dex Venue, token0, token1 ID) (ID, error) {
	if !token0.CanPairWith(token1) {
		return Zero, fmt.Errorf("%w: tokens cannot pair", ErrInvalidInstrumentFields)
	}
	a, b := token0.AssetID, token1.AssetID
	if a > b {
		a, b = b, a
	}
	return ID{AssetID: a*31 + b, Venue: dex, Class: AssetPool}, nil
}

// TriangularPool builds an ID for a three-token pool. Reserved is set to 1
// to distinguish the variant.
func TriangularPool(dex Venue, token0, token1, token2 ID) (ID, error) {
	ids := [3]uint64{token0.AssetID, token1.AssetID, token2.AssetID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	if ids[1] > ids[2] {
		ids[1], ids[2] = ids[2], ids[1]
	}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	if ids[0] == ids[1] || ids[1] == ids[2] {
		return Zero, fmt.Errorf("%w: duplicate pool tokens", ErrInvalidInstrumentFields)
	}
	return ID{AssetID: ids[0]*31 + ids[1]*17 + ids[2], Venue: dex, Class: AssetPool, Reserved: 1}, nil
}

// LPToken builds the LP token ID for a pool; it inherits the pool payload.
func LPToken(dex Venue, pool ID) (ID, error) {
	if pool.Class != AssetPool {
		return Zero, fmt.Errorf("%w: %s is not a pool", ErrInvalidInstrumentFields, pool.Class)
	}
	return ID{AssetID: pool.AssetID, Venue: dex, Class: AssetLPToken}, nil
}

// String renders a human-readable description for logs.
func (id ID) String() string {
	switch id.Class {
	case AssetCoin, AssetStock, AssetBond, AssetETF, AssetCurrency:
		sym, _ := id.Symbol()
		return fmt.Sprintf("%s %s %s", id.Venue, id.Class, sym)
	case AssetFxPair, AssetCoinPair:
		base, quote, _ := id.PairFields()
		return fmt.Sprintf("%s %s %s/%s", id.Venue, id.Class, base, quote)
	case AssetToken:
		return fmt.Sprintf("%s token 0x%016x…", id.Venue, id.AssetID)
	case AssetPool:
		if id.Reserved == 1 {
			return fmt.Sprintf("%s tri-pool #%d", id.Venue, id.AssetID)
		}
		return fmt.Sprintf("%s pool #%d", id.Venue, id.AssetID)
	case AssetOption:
		f, _ := id.OptionFields()
		kind := "put"
		if f.Call {
			kind = "call"
		}
		return fmt.Sprintf("%s %s strike=%d exp=%s sym=%#03x", id.Venue, kind, f.Strike, f.Expiry.Format("2006-01-02"), f.SymbolHash)
	case AssetFuture:
		f, _ := id.FutureFields()
		return fmt.Sprintf("%s future %s exp=%s", id.Venue, f.Underlying, f.Expiry.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%s %s #%d", id.Venue, id.Class, id.AssetID)
	}
}
