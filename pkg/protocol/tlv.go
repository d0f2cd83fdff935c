package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// TLV wire form: type u16 LE, length u16 LE, value bytes. Entries are
// concatenated back to back with no alignment padding.
const tlvHeaderSize = 4

// Entry is a single decoded TLV field. Value aliases the source buffer when
// produced by a Decoder; copy it if it must outlive the frame.
type Entry struct {
	Type  uint16
	Value []byte
}

// EncodeTLV concatenates entries in declaration order. Every type must fall
// inside the domain's range and the total must stay under MaxPayloadSize.
func EncodeTLV(domain Domain, entries []Entry) ([]byte, error) {
	total := 0
	for _, e := range entries {
		if !domain.Contains(e.Type) {
			return nil, fmt.Errorf("%w: type %d not in %s range", ErrTypeOutOfDomainRange, e.Type, domain)
		}
		if len(e.Value) > 0xFFFF {
			return nil, fmt.Errorf("%w: tlv value %d bytes", ErrMessageTooLarge, len(e.Value))
		}
		total += tlvHeaderSize + len(e.Value)
		if total > MaxPayloadSize {
			return nil, fmt.Errorf("%w: payload %d bytes", ErrMessageTooLarge, total)
		}
	}
	out := make([]byte, 0, total)
	for _, e := range entries {
		out = appendEntry(out, e)
	}
	return out, nil
}

func appendEntry(buf []byte, e Entry) []byte {
	var hdr [tlvHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], e.Type)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(e.Value)))
	buf = append(buf, hdr[:]...)
	return append(buf, e.Value...)
}

// Decoder walks a TLV payload lazily, one entry per Next call, without
// copying value bytes. Decoding the same buffer twice (via Reset or a second
// Decoder) yields the same sequence.
type Decoder struct {
	domain Domain
	buf    []byte
	off    int
	cur    Entry
	err    error
}

// NewDecoder returns a decoder over payload, validating each entry's type
// against the domain's range as it is visited.
func NewDecoder(domain Domain, payload []byte) *Decoder {
	return &Decoder{domain: domain, buf: payload}
}

// Next advances to the next entry. It returns false at end of payload or on
// the first malformed entry; Err distinguishes the two.
func (d *Decoder) Next() bool {
	if d.err != nil || d.off >= len(d.buf) {
		return false
	}
	rem := d.buf[d.off:]
	if len(rem) < tlvHeaderSize {
		d.err = fmt.Errorf("%w: %d trailing bytes", ErrTruncatedMessage, len(rem))
		return false
	}
	typ := binary.LittleEndian.Uint16(rem[0:2])
	vlen := int(binary.LittleEndian.Uint16(rem[2:4]))
	if !d.domain.Contains(typ) {
		d.err = fmt.Errorf("%w: type %d at offset %d not in %s range", ErrTypeOutOfDomainRange, typ, d.off, d.domain)
		return false
	}
	if vlen > len(rem)-tlvHeaderSize {
		d.err = fmt.Errorf("%w: type %d claims %d bytes, %d remain", ErrTruncatedMessage, typ, vlen, len(rem)-tlvHeaderSize)
		return false
	}
	d.cur = Entry{Type: typ, Value: rem[tlvHeaderSize : tlvHeaderSize+vlen]}
	d.off += tlvHeaderSize + vlen
	return true
}

// Entry returns the entry produced by the last successful Next.
func (d *Decoder) Entry() Entry { return d.cur }

// Err returns the first decode error, or nil after a clean walk.
func (d *Decoder) Err() error { return d.err }

// Reset rewinds the decoder to the start of the payload.
func (d *Decoder) Reset() {
	d.off = 0
	d.err = nil
	d.cur = Entry{}
}

// Validate walks the whole payload and checks that it is exactly consumed.
// It is the relay's pre-routing pass: cheap, allocation-free, and it leaves
// the payload untouched.
func Validate(domain Domain, payload []byte) error {
	d := NewDecoder(domain, payload)
	for d.Next() {
	}
	return d.Err()
}

// FindFirst returns the first entry of the given type. Duplicate types are
// legal on the wire; consumers of this package resolve them first-wins, so
// this is the lookup every typed accessor goes through.
func FindFirst(domain Domain, payload []byte, typ uint16) (Entry, bool, error) {
	d := NewDecoder(domain, payload)
	for d.Next() {
		if e := d.Entry(); e.Type == typ {
			return e, true, nil
		}
	}
	return Entry{}, false, d.Err()
}

// EqualEntries reports deep equality of two entry sequences.
func EqualEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || !bytes.Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}
