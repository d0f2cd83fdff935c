// tradewire-tap subscribes to a relay and prints every routed message it
// receives. The wire-level equivalent of tcpdump for one domain.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradewire/pkg/client"
	"tradewire/pkg/fixedpoint"
	"tradewire/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "unix:///tmp/tradewire/market_data.sock", "relay address (unix://, tcp://, mem://)")
	domainName := flag.String("domain", "market_data", "relay domain: market_data|signal|execution")
	topics := flag.String("topics", "*", "comma-separated topic patterns")
	name := flag.String("name", "tap", "subscriber name reported to the relay")
	count := flag.Int("count", 0, "messages to print before exiting; 0 runs until killed")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	var domain protocol.Domain
	switch *domainName {
	case "market_data":
		domain = protocol.DomainMarketData
	case "signal":
		domain = protocol.DomainSignal
	case "execution":
		domain = protocol.DomainExecution
	default:
		fatalf("unknown domain %q", *domainName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	c, err := client.DialConsumer(ctx, *addr, domain, protocol.SourceDashboard)
	cancel()
	if err != nil {
		fatalf("dial: %v", err)
	}
	defer c.Close()

	patterns := strings.Split(*topics, ",")
	if err := c.Subscribe(*name, patterns...); err != nil {
		fatalf("subscribe: %v", err)
	}
	fmt.Println("subscribed to", patterns, "on", *addr)

	for n := 0; *count == 0 || n < *count; n++ {
		h, payload, err := c.Recv()
		if err != nil {
			fatalf("recv: %v", err)
		}
		printFrame(h, payload)
	}
}

func printFrame(h protocol.Header, payload []byte) {
	fmt.Printf("%s seq=%d src=%d ts=%d len=%d",
		h.Domain, h.Sequence, h.Source, h.TimestampNs, h.PayloadLen)
	d := protocol.NewDecoder(h.Domain, payload)
	for d.Next() {
		e := d.Entry()
		switch e.Type {
		case protocol.TypeTrade:
			var t protocol.TradeTLV
			if t.UnmarshalBinary(e.Value) == nil {
				fmt.Printf(" trade{%s px=%s vol=%s side=%d}",
					t.Instrument, fixedpoint.Format(t.Price), fixedpoint.Format(t.Volume), t.Side)
				continue
			}
		case protocol.TypeQuote:
			var q protocol.QuoteTLV
			if q.UnmarshalBinary(e.Value) == nil {
				fmt.Printf(" quote{%s bid=%s ask=%s}",
					q.Instrument, fixedpoint.Format(q.BidPrice), fixedpoint.Format(q.AskPrice))
				continue
			}
		case protocol.TypeArbitrageSignal:
			var s protocol.ArbitrageSignalTLV
			if s.UnmarshalBinary(e.Value) == nil {
				fmt.Printf(" signal{id=%d profit=%s conf=%d}",
					s.SignalID, fixedpoint.Format(s.ExpectedProfit), s.Confidence)
				continue
			}
		case protocol.TypeFill:
			var f protocol.FillTLV
			if f.UnmarshalBinary(e.Value) == nil {
				fmt.Printf(" fill{order=%d px=%s qty=%s}",
					f.OrderID, fixedpoint.Format(f.FillPrice), fixedpoint.Format(f.FillQty))
				continue
			}
		}
		fmt.Printf(" tlv{type=%d len=%d}", e.Type, len(e.Value))
	}
	fmt.Println()
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
