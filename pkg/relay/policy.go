package relay

import (
	"errors"
	"fmt"

	"tradewire/pkg/protocol"
)

// Policy is the validation level a relay applies to every inbound frame.
// It is a closed set bound per domain at construction and immutable for the
// relay's lifetime.
type Policy uint8

const (
	// PolicyPerformance skips checksums entirely. Throughput over
	// integrity: the market data setting.
	PolicyPerformance Policy = iota
	// PolicyReliability verifies the frame CRC and drops mismatches while
	// keeping the connection open.
	PolicyReliability
	// PolicyAudit verifies the CRC and persists an accept/reject record
	// for every frame before it is routed.
	PolicyAudit
)

func (p Policy) String() string {
	switch p {
	case PolicyPerformance:
		return "performance"
	case PolicyReliability:
		return "reliability"
	case PolicyAudit:
		return "audit"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "performance":
		return PolicyPerformance, nil
	case "reliability":
		return PolicyReliability, nil
	case "audit":
		return PolicyAudit, nil
	default:
		return 0, fmt.Errorf("unknown validation policy %q", s)
	}
}

// Verdict is the outcome of a policy check: either the frame routes, or it
// is dropped for Reason with the connection kept open. Framing-level errors
// never reach the policy; they close the connection upstream.
type Verdict struct {
	Accept   bool
	Checksum bool // the rejection was a checksum mismatch
	Reason   string
}

// check runs the pure validation pass for one decoded frame. payload is a
// view into frame; neither is mutated.
func (p Policy) check(h protocol.Header, frame, payload []byte) Verdict {
	if err := protocol.Validate(h.Domain, payload); err != nil {
		return Verdict{Reason: err.Error()}
	}
	if p != PolicyPerformance {
		if err := protocol.VerifyChecksum(frame); err != nil {
			return Verdict{Checksum: true, Reason: err.Error()}
		}
	}
	return Verdict{Accept: true}
}

// fatalFraming reports whether a Recv/decode error poisons the stream
// position, requiring the connection to be closed.
func fatalFraming(err error) bool {
	return errors.Is(err, protocol.ErrInvalidMagic) ||
		errors.Is(err, protocol.ErrUnsupportedVersion) ||
		errors.Is(err, protocol.ErrInvalidDomain) ||
		errors.Is(err, protocol.ErrTruncatedHeader) ||
		errors.Is(err, protocol.ErrPayloadSizeMismatch) ||
		errors.Is(err, protocol.ErrMessageTooLarge)
}
