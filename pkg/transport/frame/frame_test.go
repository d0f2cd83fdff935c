package frame

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"tradewire/pkg/protocol"
)

func pipePair() (*Conn, *Conn) {
	a, b := net.Pipe()
	return New(a), New(b)
}

func buildFrame(t *testing.T, seq uint64, value []byte) []byte {
	t.Helper()
	b := protocol.NewBuilder(protocol.DomainMarketData, protocol.SourceTestClient)
	if err := b.AddTLV(protocol.TypeTrade, value); err != nil {
		t.Fatalf("add: %v", err)
	}
	fr, err := b.Build(seq)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return fr
}

func TestSendRecv(t *testing.T) {
	left, right := pipePair()
	defer left.Close()
	defer right.Close()

	frames := [][]byte{
		buildFrame(t, 1, []byte("one")),
		buildFrame(t, 2, nil),
		buildFrame(t, 3, bytes.Repeat([]byte{0xAB}, 10_000)),
	}
	go func() {
		for _, fr := range frames {
			if err := left.Send(fr); err != nil {
				return
			}
		}
	}()
	for i, want := range frames {
		got, err := right.Recv()
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d differs: %d vs %d bytes", i, len(got), len(want))
		}
	}
}

func TestRecvEmptyPayload(t *testing.T) {
	left, right := pipePair()
	defer left.Close()
	defer right.Close()

	b := protocol.NewBuilder(protocol.DomainExecution, protocol.SourceExecutionEngine)
	fr, err := b.Build(9)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	go func() { _ = left.Send(fr) }()
	got, err := right.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	h, payload, err := protocol.DecodeFrame(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Sequence != 9 || len(payload) != 0 {
		t.Fatalf("header=%#v payload=%d", h, len(payload))
	}
}

func TestRecvRejectsGarbageHeader(t *testing.T) {
	a, b := net.Pipe()
	right := New(b)
	defer a.Close()
	defer right.Close()

	go func() {
		garbage := bytes.Repeat([]byte{0x55}, protocol.HeaderSize)
		_, _ = a.Write(garbage)
	}()
	if _, err := right.Recv(); !errors.Is(err, protocol.ErrInvalidMagic) {
		t.Fatalf("garbage header: %v", err)
	}
}

func TestSendRejectsShortFrame(t *testing.T) {
	left, _ := pipePair()
	defer left.Close()
	if err := left.Send([]byte("tiny")); !errors.Is(err, protocol.ErrTruncatedHeader) {
		t.Fatalf("short frame: %v", err)
	}
}
