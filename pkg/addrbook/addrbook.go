// Package addrbook is the out-of-band registry backing the instrument
// classes that cannot pack their full identity into 64 bits (EVM token
// addresses, pool constituents, option underlyings). Producers register the
// full value when they first construct an ID; consumers resolve on demand.
// The store is sharded to keep registration off the hot decode path.
package addrbook

import (
	"sync"
	"sync/atomic"

	"tradewire/pkg/instrument"
)

const numShards = 64

// Store maps instrument IDs to the full identity bytes their packed payload
// truncates. Ephemeral: rebuilt from producer registrations after restart.
type Store struct {
	shards [numShards]shard

	mRegs    atomic.Uint64
	mHits    atomic.Uint64
	mMisses  atomic.Uint64
}

type shard struct {
	mu sync.RWMutex
	m  map[instrument.ID][]byte
}

// New returns an empty store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].m = make(map[instrument.ID][]byte, 64)
	}
	return s
}

func (s *Store) shardFor(id instrument.ID) *shard {
	return &s.shards[id.Key()%numShards]
}

// Register associates the full identity bytes with an ID. The value is
// copied. Re-registering the same ID overwrites.
func (s *Store) Register(id instrument.ID, full []byte) {
	sh := s.shardFor(id)
	v := append([]byte(nil), full...)
	sh.mu.Lock()
	sh.m[id] = v
	sh.mu.Unlock()
	s.mRegs.Add(1)
}

// RegisterAddress registers a 20-byte EVM address for a token ID.
func (s *Store) RegisterAddress(id instrument.ID, addr [20]byte) {
	s.Register(id, addr[:])
}

// RegisterSymbol registers the full underlying symbol of an option ID.
func (s *Store) RegisterSymbol(id instrument.ID, symbol string) {
	s.Register(id, []byte(symbol))
}

// Resolve returns a copy of the registered bytes for an ID.
func (s *Store) Resolve(id instrument.ID) ([]byte, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	v, ok := sh.m[id]
	sh.mu.RUnlock()
	if !ok {
		s.mMisses.Add(1)
		return nil, false
	}
	s.mHits.Add(1)
	return append([]byte(nil), v...), true
}

// ResolveAddress resolves a token ID back to its full 20-byte address.
func (s *Store) ResolveAddress(id instrument.ID) ([20]byte, bool) {
	var out [20]byte
	v, ok := s.Resolve(id)
	if !ok || len(v) != len(out) {
		return out, false
	}
	copy(out[:], v)
	return out, true
}

// Len returns the number of registered IDs.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Registered uint64
	Hits       uint64
	Misses     uint64
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	return Stats{
		Registered: s.mRegs.Load(),
		Hits:       s.mHits.Load(),
		Misses:     s.mMisses.Load(),
	}
}
