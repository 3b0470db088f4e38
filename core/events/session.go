package events

const (
	// KindSessionUpdated identifies a server-side session metadata change.
	KindSessionUpdated Kind = "session.updated"
	// KindTokenUsage identifies token accounting for the session.
	KindTokenUsage Kind = "session.token_usage"
	// KindMessageUpdated identifies a reconstructed conversation change.
	KindMessageUpdated Kind = "session.message_updated"
)

// SessionUpdated carries a session metadata change. Metadata keys merge into
// the live session; the session itself is only replaced on a new session id.
type SessionUpdated struct {
	Base
	SessionID string
	Metadata  map[string]any
}

// NewSessionUpdated creates a session updated event.
func NewSessionUpdated(sessionID string, metadata map[string]any) SessionUpdated {
	return SessionUpdated{Base: NewBase(KindSessionUpdated), SessionID: sessionID, Metadata: metadata}
}

// TokenUsage carries token accounting deltas for the session.
type TokenUsage struct {
	Base
	InputTokens  int
	OutputTokens int
}

// NewTokenUsage creates a token usage event.
func NewTokenUsage(inputTokens, outputTokens int) TokenUsage {
	return TokenUsage{Base: NewBase(KindTokenUsage), InputTokens: inputTokens, OutputTokens: outputTokens}
}

// MessageUpdated signals that the reconstructed conversation changed. It is
// emitted by the session reconstructor after every mutation and never decoded
// from the wire.
type MessageUpdated struct {
	Base
	SessionID string
	MessageID string
}

// NewMessageUpdated creates a message updated event.
func NewMessageUpdated(sessionID, messageID string) MessageUpdated {
	return MessageUpdated{Base: NewBase(KindMessageUpdated), SessionID: sessionID, MessageID: messageID}
}
