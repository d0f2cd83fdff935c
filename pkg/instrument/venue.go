package instrument

import "fmt"

// Venue identifies the exchange, blockchain, or DEX protocol an instrument
// trades on. Values are partitioned by category: traditional exchanges 1-99,
// centralized crypto 100-199, blockchains 200-299, Ethereum DEX 300-399,
// Polygon DEX 400-499, derivatives venues 700-799, commodity/FX 800-899.
type Venue uint16

const (
	VenueGeneric Venue = 0

	VenueNYSE   Venue = 1
	VenueNASDAQ Venue = 2
	VenueLSE    Venue = 3

	VenueBinance  Venue = 100
	VenueKraken   Venue = 101
	VenueCoinbase Venue = 102
	VenueGemini   Venue = 108

	VenueEthereum Venue = 200
	VenueBitcoin  Venue = 201
	VenuePolygon  Venue = 202
	VenueArbitrum Venue = 206

	VenueUniswapV2 Venue = 300
	VenueUniswapV3 Venue = 301
	VenueSushiSwap Venue = 302
	VenueQuickSwap Venue = 400

	VenueDeribit Venue = 700

	VenueCME      Venue = 801
	VenueForexCom Venue = 803

	VenueTest Venue = 65000
)

// ChainID returns the EVM chain id for on-chain venues, or false for
// off-chain ones.
func (v Venue) ChainID() (uint64, bool) {
	switch v {
	case VenueEthereum, VenueUniswapV2, VenueUniswapV3, VenueSushiSwap:
		return 1, true
	case VenuePolygon, VenueQuickSwap:
		return 137, true
	case VenueArbitrum:
		return 42161, true
	default:
		return 0, false
	}
}

// IsDeFi reports whether the venue is an on-chain protocol or blockchain.
func (v Venue) IsDeFi() bool {
	return v >= 200 && v < 700
}

func (v Venue) String() string {
	switch v {
	case VenueGeneric:
		return "generic"
	case VenueNYSE:
		return "nyse"
	case VenueNASDAQ:
		return "nasdaq"
	case VenueLSE:
		return "lse"
	case VenueBinance:
		return "binance"
	case VenueKraken:
		return "kraken"
	case VenueCoinbase:
		return "coinbase"
	case VenueGemini:
		return "gemini"
	case VenueEthereum:
		return "ethereum"
	case VenueBitcoin:
		return "bitcoin"
	case VenuePolygon:
		return "polygon"
	case VenueArbitrum:
		return "arbitrum"
	case VenueUniswapV2:
		return "uniswap_v2"
	case VenueUniswapV3:
		return "uniswap_v3"
	case VenueSushiSwap:
		return "sushiswap"
	case VenueQuickSwap:
		return "quickswap"
	case VenueDeribit:
		return "deribit"
	case VenueCME:
		return "cme"
	case VenueForexCom:
		return "forex_com"
	case VenueTest:
		return "test"
	default:
		return fmt.Sprintf("venue(%d)", uint16(v))
	}
}

// AssetClass tags how the asset_id payload of an ID is interpreted.
// Traditional 1-49, crypto 50-99, DeFi 100-149, derivatives 150-199.
type AssetClass uint8

const (
	AssetStock    AssetClass = 1
	AssetBond     AssetClass = 2
	AssetETF      AssetClass = 3
	AssetCurrency AssetClass = 5 // fiat
	AssetFxPair   AssetClass = 7

	AssetToken    AssetClass = 50 // ERC-20 style contract token
	AssetCoin     AssetClass = 51 // native chain coin
	AssetCoinPair AssetClass = 55

	AssetPool    AssetClass = 100
	AssetLPToken AssetClass = 101

	AssetOption AssetClass = 150
	AssetFuture AssetClass = 151
)

func (c AssetClass) String() string {
	switch c {
	case AssetStock:
		return "stock"
	case AssetBond:
		return "bond"
	case AssetETF:
		return "etf"
	case AssetCurrency:
		return "currency"
	case AssetFxPair:
		return "fx_pair"
	case AssetToken:
		return "token"
	case AssetCoin:
		return "coin"
	case AssetCoinPair:
		return "coin_pair"
	case AssetPool:
		return "pool"
	case AssetLPToken:
		return "lp_token"
	case AssetOption:
		return "option"
	case AssetFuture:
		return "future"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Fungible reports whether assets of this class can be pooled or paired.
func (c AssetClass) Fungible() bool {
	switch c {
	case AssetToken, AssetCoin, AssetCurrency, AssetLPToken:
		return true
	default:
		return false
	}
}

// Bijective reports whether decode(encode(x)) recovers the full semantic
// fields for this class. Token IDs embed a truncated contract address and
// pool IDs a mixing hash of their constituents; both are documented
// approximations resolvable through an out-of-band registry (pkg/addrbook).
// Option IDs recover strike, expiry, and call/put exactly but carry only an
// 11-bit hash of the underlying symbol.
func (c AssetClass) Bijective() bool {
	switch c {
	case AssetToken, AssetPool, AssetLPToken, AssetOption:
		return false
	default:
		return true
	}
}
