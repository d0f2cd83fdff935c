package instrument

import (
	"errors"
	"testing"
	"time"
)

func TestSymbolClassesRoundtrip(t *testing.T) {
	cases := []struct {
		name string
		id   func() (ID, error)
		sym  string
	}{
		{"coin", func() (ID, error) { return Coin(VenueKraken, "BTC") }, "BTC"},
		{"coin-long", func() (ID, error) { return Coin(VenueBinance, "MATIC") }, "MATIC"},
		{"stock", func() (ID, error) { return Stock(VenueNYSE, "BRK.A") }, "BRK.A"},
		{"fiat", func() (ID, error) { return Fiat("USD") }, "USD"},
	}
	for _, tc := range cases {
		id, err := tc.id()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		got, err := id.Symbol()
		if err != nil {
			t.Fatalf("%s symbol: %v", tc.name, err)
		}
		if got != tc.sym {
			t.Fatalf("%s roundtrip = %q", tc.name, got)
		}
	}
}

func TestPairRoundtrip(t *testing.T) {
	id, err := CoinPair(VenuePolygon, "WETH", "USDC")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	base, quote, err := id.PairFields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if base != "WETH" || quote != "USDC" {
		t.Fatalf("pair roundtrip = %s/%s", base, quote)
	}

	fx, err := Fx(VenueForexCom, "EUR", "USD")
	if err != nil {
		t.Fatalf("fx: %v", err)
	}
	base, quote, err = fx.PairFields()
	if err != nil || base != "EUR" || quote != "USD" {
		t.Fatalf("fx roundtrip = %s/%s err=%v", base, quote, err)
	}

	if _, err := CoinPair(VenueBinance, "BTC", "BTC"); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("self pair: %v", err)
	}
	// Direction matters: WETH/USDC and USDC/WETH are distinct instruments.
	rev, _ := CoinPair(VenuePolygon, "USDC", "WETH")
	if rev == id {
		t.Fatalf("reversed pair collides")
	}
}

func TestWireRoundtrip(t *testing.T) {
	id, err := CoinPair(VenueUniswapV3, "WETH", "DAI")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	buf, err := id.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(buf) != Size {
		t.Fatalf("encoded size = %d", len(buf))
	}
	var back ID
	if err := back.UnmarshalBinary(buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != id {
		t.Fatalf("wire roundtrip: %#v vs %#v", back, id)
	}
	if err := back.UnmarshalBinary(buf[:Size-1]); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("short buffer: %v", err)
	}
}

func TestOptionFields(t *testing.T) {
	expiry := time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC)
	id, err := Option(VenueDeribit, "BTC", 9_000_000, expiry, true)
	if err != nil {
		t.Fatalf("option: %v", err)
	}
	f, err := id.OptionFields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if f.Strike != 9_000_000 || !f.Call {
		t.Fatalf("fields = %#v", f)
	}
	if !f.Expiry.Equal(expiry) {
		t.Fatalf("expiry = %s", f.Expiry)
	}

	put, err := Option(VenueDeribit, "BTC", 9_000_000, expiry, false)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	pf, _ := put.OptionFields()
	if pf.Call {
		t.Fatalf("put decoded as call")
	}
	if put == id {
		t.Fatalf("call/put collide")
	}

	// The underlying survives only as a hash; same symbol, same hash.
	id2, _ := Option(VenueDeribit, "BTC", 5_000_000, expiry, true)
	f2, _ := id2.OptionFields()
	if f.SymbolHash != f2.SymbolHash {
		t.Fatalf("hash differs for same underlying")
	}

	if _, err := Option(VenueDeribit, "BTC", 1, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), true); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("pre-epoch expiry: %v", err)
	}
}

func TestFutureRoundtrip(t *testing.T) {
	expiry := time.Date(2027, 3, 26, 0, 0, 0, 0, time.UTC)
	id, err := Future(VenueCME, "ES", expiry)
	if err != nil {
		t.Fatalf("future: %v", err)
	}
	f, err := id.FutureFields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if f.Underlying != "ES" || !f.Expiry.Equal(expiry) {
		t.Fatalf("future roundtrip = %#v", f)
	}
	if _, err := Future(VenueCME, "TOOLONG", expiry); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("oversize symbol: %v", err)
	}
}

func TestTokenPrefix(t *testing.T) {
	const usdc = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	id, err := Token(VenuePolygon, usdc)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	p, err := id.TokenPrefix()
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	want := [8]byte{0x27, 0x91, 0xBc, 0xa1, 0xf2, 0xde, 0x46, 0x61}
	if p != want {
		t.Fatalf("prefix = %x", p)
	}
	// Case-insensitive hex, optional 0x prefix.
	id2, err := Token(VenuePolygon, "2791bca1f2de4661ed88a30c99a7a9449aa84174")
	if err != nil {
		t.Fatalf("bare token: %v", err)
	}
	if id2 != id {
		t.Fatalf("address forms diverge")
	}
	if _, err := Token(VenuePolygon, "0x1234"); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("short address: %v", err)
	}
}

func TestPoolCanonicalOrder(t *testing.T) {
	weth, err := Token(VenuePolygon, "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
	if err != nil {
		t.Fatalf("weth: %v", err)
	}
	usdc, err := Token(VenuePolygon, "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	if err != nil {
		t.Fatalf("usdc: %v", err)
	}
	p1, err := Pool(VenueQuickSwap, weth, usdc)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	p2, err := Pool(VenueQuickSwap, usdc, weth)
	if err != nil {
		t.Fatalf("pool rev: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("pool depends on argument order")
	}
	if _, err := Pool(VenueQuickSwap, weth, weth); !errors.Is(err, ErrInvalidInstrumentFields) {
		t.Fatalf("self pool: %v", err)
	}

	lp, err := LPToken(VenueQuickSwap, p1)
	if err != nil {
		t.Fatalf("lp: %v", err)
	}
	if lp.AssetID != p1.AssetID || lp.Class != AssetLPToken {
		t.Fatalf("lp = %#v", lp)
	}

	tri, err := TriangularPool(VenueQuickSwap, weth, usdc, lpPeer(t))
	if err != nil {
		t.Fatalf("tri: %v", err)
	}
	if tri.Reserved != 1 {
		t.Fatalf("tri reserved = %d", tri.Reserved)
	}
	if tri == p1 {
		t.Fatalf("tri collides with pair pool")
	}
}

func lpPeer(t *testing.T) ID {
	t.Helper()
	id, err := Token(VenuePolygon, "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063")
	if err != nil {
		t.Fatalf("dai: %v", err)
	}
	return id
}

func TestKeyAndString(t *testing.T) {
	a, _ := Coin(VenueKraken, "BTC")
	b, _ := Coin(VenueBinance, "BTC")
	if a.Key() == b.Key() {
		t.Fatalf("venue not mixed into key")
	}
	c, _ := Stock(VenueKraken, "BTC")
	if a.Key() == c.Key() {
		t.Fatalf("class not mixed into key")
	}

	// String must never panic, whatever the class.
	ids := []ID{a, Zero, {AssetID: 1, Venue: 9999, Class: 255}}
	pair, _ := CoinPair(VenuePolygon, "WETH", "USDC")
	ids = append(ids, pair)
	for _, id := range ids {
		if id.String() == "" {
			t.Fatalf("empty String for %#v", id)
		}
	}
}

func TestSymbolCharset(t *testing.T) {
	for _, bad := range []string{"", "toolongsym", "lower", "SP ACE", "BTC$"} {
		if _, err := Coin(VenueBinance, bad); !errors.Is(err, ErrInvalidInstrumentFields) {
			t.Fatalf("symbol %q accepted: %v", bad, err)
		}
	}
	for _, good := range []string{"A", "BRK.A", "BTC-PERP"[:7], "X2", "USD_T"} {
		if _, err := Coin(VenueBinance, good); err != nil {
			t.Fatalf("symbol %q rejected: %v", good, err)
		}
	}
}
