package events

const (
	// KindTurnStarted identifies a turn boundary opening.
	KindTurnStarted Kind = "turn.started"
	// KindTurnEnded identifies a turn boundary closing.
	KindTurnEnded Kind = "turn.ended"
)

// TurnStarted marks a turn boundary opening for a role.
type TurnStarted struct {
	Base
	TurnID string
	Role   Role
}

// NewTurnStarted creates a turn started event.
func NewTurnStarted(turnID string, role Role) TurnStarted {
	return TurnStarted{Base: NewBase(KindTurnStarted), TurnID: turnID, Role: role}
}

// TurnEnded marks a turn boundary closing. Message content for the turn
// freezes; tool attachments may still arrive afterwards.
type TurnEnded struct {
	Base
	TurnID string
}

// NewTurnEnded creates a turn ended event.
func NewTurnEnded(turnID string) TurnEnded {
	return TurnEnded{Base: NewBase(KindTurnEnded), TurnID: turnID}
}
