package events

import "time"

const (
	// KindConnected identifies server acknowledgement of the connection.
	KindConnected Kind = "connection.established"
	// KindDisconnected identifies socket closure.
	KindDisconnected Kind = "connection.closed"
	// KindReconnecting identifies a scheduled reconnection attempt.
	KindReconnecting Kind = "connection.reconnecting"
	// KindConnectionError identifies a transport-level error.
	KindConnectionError Kind = "connection.error"
	// KindConnectionFailed identifies reconnection exhaustion.
	KindConnectionFailed Kind = "connection.failed"
)

// Connected marks server acknowledgement and names the live session.
type Connected struct {
	Base
	SessionID string
	Metadata  map[string]any
}

// NewConnected creates a connection established event.
func NewConnected(sessionID string, metadata map[string]any) Connected {
	return Connected{Base: NewBase(KindConnected), SessionID: sessionID, Metadata: metadata}
}

// Disconnected marks socket closure with its close code and reason.
type Disconnected struct {
	Base
	Code   int
	Reason string
}

// NewDisconnected creates a connection closed event.
func NewDisconnected(code int, reason string) Disconnected {
	return Disconnected{Base: NewBase(KindDisconnected), Code: code, Reason: reason}
}

// Reconnecting marks a scheduled reconnection attempt.
type Reconnecting struct {
	Base
	Attempt int
	Delay   time.Duration
}

// NewReconnecting creates a reconnecting event.
func NewReconnecting(attempt int, delay time.Duration) Reconnecting {
	return Reconnecting{Base: NewBase(KindReconnecting), Attempt: attempt, Delay: delay}
}

// ConnectionError marks a transport-level error.
type ConnectionError struct {
	Base
	Err string
}

// NewConnectionError creates a connection error event.
func NewConnectionError(err string) ConnectionError {
	return ConnectionError{Base: NewBase(KindConnectionError), Err: err}
}

// ConnectionFailed marks reconnection exhaustion. Terminal: no further
// automatic attempts happen until the caller connects again.
type ConnectionFailed struct {
	Base
	Reason string
}

// NewConnectionFailed creates a connection failed event.
func NewConnectionFailed(reason string) ConnectionFailed {
	return ConnectionFailed{Base: NewBase(KindConnectionFailed), Reason: reason}
}
