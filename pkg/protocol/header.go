package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Fixed header layout (32 bytes) shared by every message on every domain.
// All integer fields are little-endian.
//
//	0  ..3   Magic       u32 0xDEADBEEF
//	4        Domain      u8
//	5        Version     u8
//	6        Source      u8
//	7        Flags       u8
//	8  ..15  Sequence    u64 (monotonic per source)
//	16 ..23  TimestampNs u64 (nanoseconds since epoch)
//	24 ..27  PayloadLen  u32 (TLV bytes following the header)
//	28 ..31  Checksum    u32 (CRC-32/IEEE of the frame, checksum field zeroed)
const (
	HeaderSize     = 32
	Magic          = uint32(0xDEADBEEF)
	Version        = uint8(1)
	MaxMessageSize = 64 * 1024
	MaxPayloadSize = MaxMessageSize - HeaderSize

	checksumOffset = 28
)

// Header carries routing and validation metadata for one frame.
type Header struct {
	Domain      Domain
	Version     uint8
	Source      SourceID
	Flags       uint8
	Sequence    uint64
	TimestampNs uint64
	PayloadLen  uint32
	Checksum    uint32
}

// MarshalBinary encodes the header into a fresh 32-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.marshalTo(buf)
	return buf, nil
}

func (h *Header) marshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = uint8(h.Domain)
	buf[5] = h.Version
	buf[6] = uint8(h.Source)
	buf[7] = h.Flags
	binary.LittleEndian.PutUint64(buf[8:16], h.Sequence)
	binary.LittleEndian.PutUint64(buf[16:24], h.TimestampNs)
	binary.LittleEndian.PutUint32(buf[24:28], h.PayloadLen)
	binary.LittleEndian.PutUint32(buf[28:32], h.Checksum)
}

// UnmarshalBinary decodes a header from buf in a single bounds-checked pass.
// Nothing beyond the fixed 32 bytes is read.
func (h *Header) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedHeader, HeaderSize, len(buf))
	}
	if m := binary.LittleEndian.Uint32(buf[0:4]); m != Magic {
		return fmt.Errorf("%w: %#08x", ErrInvalidMagic, m)
	}
	if v := buf[5]; v != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	if d := Domain(buf[4]); !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDomain, buf[4])
	}
	h.Domain = Domain(buf[4])
	h.Version = buf[5]
	h.Source = SourceID(buf[6])
	h.Flags = buf[7]
	h.Sequence = binary.LittleEndian.Uint64(buf[8:16])
	h.TimestampNs = binary.LittleEndian.Uint64(buf[16:24])
	h.PayloadLen = binary.LittleEndian.Uint32(buf[24:28])
	h.Checksum = binary.LittleEndian.Uint32(buf[28:32])
	return nil
}

// FrameChecksum computes the CRC-32 (IEEE) of a full frame with the checksum
// field treated as zero. The frame must be at least HeaderSize bytes.
func FrameChecksum(frame []byte) uint32 {
	crc := crc32.ChecksumIEEE(frame[:checksumOffset])
	var zero [4]byte
	crc = crc32.Update(crc, crc32.IEEETable, zero[:])
	return crc32.Update(crc, crc32.IEEETable, frame[checksumOffset+4:])
}

// VerifyChecksum recomputes the frame checksum and compares it with the
// stored header field.
func VerifyChecksum(frame []byte) error {
	if len(frame) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedHeader, HeaderSize, len(frame))
	}
	stored := binary.LittleEndian.Uint32(frame[checksumOffset : checksumOffset+4])
	if got := FrameChecksum(frame); got != stored {
		return fmt.Errorf("%w: stored %#08x computed %#08x", ErrChecksumMismatch, stored, got)
	}
	return nil
}
