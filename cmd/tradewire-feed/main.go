// tradewire-feed publishes synthetic trades to a market data relay. A smoke
// and load tool, not a real collector.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"tradewire/pkg/client"
	"tradewire/pkg/fixedpoint"
	"tradewire/pkg/instrument"
	"tradewire/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "unix:///tmp/tradewire/market_data.sock", "relay address (unix://, tcp://, mem://)")
	base := flag.String("base", "WETH", "pair base symbol")
	quote := flag.String("quote", "USDC", "pair quote symbol")
	venue := flag.Uint("venue", uint(instrument.VenuePolygon), "venue id")
	price := flag.String("price", "45000", "trade price, decimal")
	count := flag.Int("count", 10, "trades to publish; 0 runs until killed")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between trades")
	skipCRC := flag.Bool("skip-checksum", true, "leave checksums zero (performance relays never verify)")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	p, err := client.DialProducer(ctx, *addr, protocol.DomainMarketData, protocol.SourceTestClient)
	cancel()
	if err != nil {
		fatalf("dial: %v", err)
	}
	defer p.Close()
	p.SkipChecksum = *skipCRC

	id, err := instrument.CoinPair(instrument.Venue(*venue), *base, *quote)
	if err != nil {
		fatalf("instrument: %v", err)
	}
	px, err := fixedpoint.Parse(*price)
	if err != nil {
		fatalf("price: %v", err)
	}

	for i := 0; *count == 0 || i < *count; i++ {
		t := protocol.TradeTLV{
			Instrument:  id,
			Price:       px + rand.Int63n(1_000_000) - 500_000,
			Volume:      fixedpoint.FromInt(1) + rand.Int63n(fixedpoint.FromInt(4)),
			TimestampNs: uint64(time.Now().UnixNano()),
			Side:        uint8(rand.Intn(2)),
		}
		if err := p.PublishPayload(t); err != nil {
			fatalf("publish: %v", err)
		}
		time.Sleep(*interval)
	}
	fmt.Println("published", p.Sequence(), "trades to", *addr)
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
