package events

import "encoding/json"

const (
	// KindProtocolError identifies a server-reported error.
	KindProtocolError Kind = "protocol.error"
	// KindUnknown identifies a frame with an unrecognized type discriminator.
	KindUnknown Kind = "protocol.unknown"
	// KindViolation identifies a frame that breaks the protocol contract.
	KindViolation Kind = "protocol.violation"
)

// ProtocolError carries a server-reported error. It never mutates the
// reconstructed session; it is republished verbatim.
type ProtocolError struct {
	Base
	Code    string
	Message string
}

// NewProtocolError creates a protocol error event.
func NewProtocolError(code, message string) ProtocolError {
	return ProtocolError{Base: NewBase(KindProtocolError), Code: code, Message: message}
}

// Unknown carries a frame whose type discriminator is not recognized. Kept
// rather than rejected so protocol evolution does not break older clients.
type Unknown struct {
	Base
	Type string
	Raw  json.RawMessage
}

// NewUnknown creates an unknown frame event.
func NewUnknown(frameType string, raw json.RawMessage) Unknown {
	return Unknown{Base: NewBase(KindUnknown), Type: frameType, Raw: raw}
}

// Violation surfaces a well-formed frame that breaks the protocol contract,
// such as a tool result with no matching call. Reconstruction continues
// best-effort after emitting it.
type Violation struct {
	Base
	Reason string
	Detail string
}

// NewViolation creates a protocol violation event.
func NewViolation(reason, detail string) Violation {
	return Violation{Base: NewBase(KindViolation), Reason: reason, Detail: detail}
}
