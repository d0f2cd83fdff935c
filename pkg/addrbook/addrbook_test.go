package addrbook

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"tradewire/pkg/instrument"
)

func TestRegisterResolve(t *testing.T) {
	s := New()
	const addr = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	id, err := instrument.Token(instrument.VenuePolygon, addr)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if _, ok := s.Resolve(id); ok {
		t.Fatalf("resolve before register")
	}

	var full [20]byte
	copy(full[:], []byte{0x27, 0x91, 0xBc, 0xa1, 0xf2, 0xde, 0x46, 0x61, 0xED, 0x88,
		0xA3, 0x0C, 0x99, 0xA7, 0xa9, 0x44, 0x9A, 0xa8, 0x41, 0x74})
	s.RegisterAddress(id, full)

	got, ok := s.ResolveAddress(id)
	if !ok {
		t.Fatalf("resolve after register")
	}
	if got != full {
		t.Fatalf("address = %x", got)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}

	st := s.Stats()
	if st.Registered != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestRegisterSymbol(t *testing.T) {
	s := New()
	opt, err := instrument.Option(instrument.VenueDeribit, "BTC", 9_000_000,
		time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC), true)
	if err != nil {
		t.Fatalf("option: %v", err)
	}
	s.RegisterSymbol(opt, "BTC")
	v, ok := s.Resolve(opt)
	if !ok || string(v) != "BTC" {
		t.Fatalf("symbol = %q ok=%v", v, ok)
	}
}

func TestResolveCopies(t *testing.T) {
	s := New()
	id, _ := instrument.Coin(instrument.VenueBinance, "BTC")
	s.Register(id, []byte("payload"))
	v, _ := s.Resolve(id)
	v[0] = 'X'
	v2, _ := s.Resolve(id)
	if string(v2) != "payload" {
		t.Fatalf("resolve returned shared slice")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sym := fmt.Sprintf("S%d.%d", g, i%16)
				id, err := instrument.Coin(instrument.VenueTest, sym)
				if err != nil {
					t.Errorf("coin: %v", err)
					return
				}
				s.Register(id, []byte(sym))
				if v, ok := s.Resolve(id); !ok || string(v) != sym {
					t.Errorf("resolve %s = %q ok=%v", sym, v, ok)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	if s.Len() != 8*16 {
		t.Fatalf("len = %d", s.Len())
	}
}
