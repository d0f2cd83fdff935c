package protocol

import "errors"

// Codec errors. All decode paths return one of these (possibly wrapped with
// detail); callers match with errors.Is. A failed decode never leaves
// partially written output in caller state.
var (
	ErrInvalidMagic          = errors.New("invalid magic")
	ErrUnsupportedVersion    = errors.New("unsupported protocol version")
	ErrInvalidDomain         = errors.New("invalid relay domain")
	ErrTruncatedHeader       = errors.New("truncated header")
	ErrTruncatedMessage      = errors.New("truncated message")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrTypeOutOfDomainRange  = errors.New("tlv type outside domain range")
	ErrMessageTooLarge       = errors.New("message exceeds maximum size")
	ErrPayloadSizeMismatch   = errors.New("payload length disagrees with header")
	ErrBuilderConsumed       = errors.New("builder already consumed by Build")
	ErrInvalidPayloadLength  = errors.New("payload has wrong length for tlv type")
)
