package relay

import (
	"io"
	"sync"

	cbor "github.com/fxamacker/cbor/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditRecord is one persisted accept/reject decision. Records are written
// before routing so a crash cannot leave a routed-but-unrecorded message.
type AuditRecord struct {
	TimestampNs uint64 `cbor:"ts"`
	Domain      uint8  `cbor:"dom"`
	Source      uint8  `cbor:"src"`
	Sequence    uint64 `cbor:"seq"`
	PayloadLen  uint32 `cbor:"len"`
	Checksum    uint32 `cbor:"crc"`
	Accepted    bool   `cbor:"ok"`
	Reason      string `cbor:"reason,omitempty"`
	Topic       string `cbor:"topic,omitempty"`
}

// AuditLog appends deterministic CBOR records to a size-rotated file.
type AuditLog struct {
	mu  sync.Mutex
	enc cbor.EncMode
	w   io.WriteCloser
}

// NewAuditLog opens (creating if needed) the audit file at path.
func NewAuditLog(path string, maxSizeMB, maxBackups int) (*AuditLog, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if maxBackups <= 0 {
		maxBackups = 10
	}
	return &AuditLog{
		enc: em,
		w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}, nil
}

// newAuditLogWriter is the test seam: any writer instead of a file.
func newAuditLogWriter(w io.WriteCloser) (*AuditLog, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return &AuditLog{enc: em, w: w}, nil
}

// Record appends one record. The write is synchronous: when Record returns
// nil the decision is durable in the OS buffer.
func (a *AuditLog) Record(rec AuditRecord) error {
	b, err := a.enc.Marshal(rec)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.w.Write(b)
	return err
}

func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Close()
}

// ReadAuditRecords decodes every record from a raw audit stream. Intended
// for offline inspection and tests.
func ReadAuditRecords(r io.Reader) ([]AuditRecord, error) {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	dec := dm.NewDecoder(r)
	var out []AuditRecord
	for {
		var rec AuditRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, rec)
	}
}
