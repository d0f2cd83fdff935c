package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Builder accumulates TLV entries for one message and produces the final
// frame. A builder is bound to one domain and source at construction, rejects
// out-of-range types the moment they are added, and is single-use: after
// Build it refuses further work.
type Builder struct {
	domain Domain
	source SourceID
	flags  uint8

	// SkipChecksum leaves the checksum field zero. Producers feeding a
	// Performance-policy relay set this to avoid paying for a CRC nobody
	// verifies.
	SkipChecksum bool

	payload []byte
	count   int
	built   bool
}

// NewBuilder returns a builder for one message on the given domain.
func NewBuilder(domain Domain, source SourceID) *Builder {
	return &Builder{domain: domain, source: source}
}

// AddTLV appends one raw entry. The type must belong to the builder's domain
// and the running payload size must stay under the message cap.
func (b *Builder) AddTLV(typ uint16, value []byte) error {
	if b.built {
		return ErrBuilderConsumed
	}
	if !b.domain.Contains(typ) {
		return fmt.Errorf("%w: type %d not in %s range", ErrTypeOutOfDomainRange, typ, b.domain)
	}
	if len(value) > 0xFFFF {
		return fmt.Errorf("%w: tlv value %d bytes", ErrMessageTooLarge, len(value))
	}
	if len(b.payload)+tlvHeaderSize+len(value) > MaxPayloadSize {
		return fmt.Errorf("%w: payload would reach %d bytes", ErrMessageTooLarge, len(b.payload)+tlvHeaderSize+len(value))
	}
	b.payload = appendEntry(b.payload, Entry{Type: typ, Value: value})
	b.count++
	return nil
}

// Add appends a typed payload (TradeTLV, QuoteTLV, ...).
func (b *Builder) Add(p Payload) error {
	raw, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return b.AddTLV(p.TLVType(), raw)
}

// Count returns the number of entries added so far.
func (b *Builder) Count() int { return b.count }

// Build stamps header fields (sequence, timestamp, payload length, checksum)
// and returns the complete frame. The builder holds nothing useful
// afterwards.
func (b *Builder) Build(seq uint64) ([]byte, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}
	b.built = true
	h := Header{
		Domain:      b.domain,
		Version:     Version,
		Source:      b.source,
		Flags:       b.flags,
		Sequence:    seq,
		TimestampNs: uint64(time.Now().UnixNano()),
		PayloadLen:  uint32(len(b.payload)),
	}
	frame := make([]byte, HeaderSize+len(b.payload))
	h.marshalTo(frame)
	copy(frame[HeaderSize:], b.payload)
	if !b.SkipChecksum {
		binary.LittleEndian.PutUint32(frame[checksumOffset:checksumOffset+4], FrameChecksum(frame))
	}
	b.payload = nil
	return frame, nil
}

// DecodeFrame splits a raw frame into header and payload view. The payload
// aliases frame; the header's declared length must exactly cover the
// remaining bytes.
func DecodeFrame(frame []byte) (Header, []byte, error) {
	var h Header
	if err := h.UnmarshalBinary(frame); err != nil {
		return Header{}, nil, err
	}
	if int(h.PayloadLen) != len(frame)-HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: header says %d, frame carries %d",
			ErrPayloadSizeMismatch, h.PayloadLen, len(frame)-HeaderSize)
	}
	return h, frame[HeaderSize:], nil
}
