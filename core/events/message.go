package events

const (
	// KindTextDelta identifies streamed message text.
	KindTextDelta Kind = "message.text_delta"
	// KindThoughtDelta identifies streamed internal reasoning text.
	KindThoughtDelta Kind = "message.thought_delta"
	// KindTextDone identifies message text stream completion.
	KindTextDone Kind = "message.text_done"
)

// TextDelta carries a streamed message text piece.
type TextDelta struct {
	Base
	TurnID    string
	Role      Role
	MessageID string
	Text      string
}

// NewTextDelta creates a text delta event.
func NewTextDelta(turnID string, role Role, messageID, text string) TextDelta {
	return TextDelta{Base: NewBase(KindTextDelta), TurnID: turnID, Role: role, MessageID: messageID, Text: text}
}

// ThoughtDelta carries a streamed internal reasoning text piece. Thought
// messages are tracked in conversation order but are never tool attachment
// targets.
type ThoughtDelta struct {
	Base
	TurnID    string
	MessageID string
	Text      string
}

// NewThoughtDelta creates a thought delta event.
func NewThoughtDelta(turnID, messageID, text string) ThoughtDelta {
	return ThoughtDelta{Base: NewBase(KindThoughtDelta), TurnID: turnID, MessageID: messageID, Text: text}
}

// TextDone marks message text stream completion for a turn.
type TextDone struct {
	Base
	TurnID string
	Role   Role
}

// NewTextDone creates a text done event.
func NewTextDone(turnID string, role Role) TextDone {
	return TextDone{Base: NewBase(KindTextDone), TurnID: turnID, Role: role}
}
