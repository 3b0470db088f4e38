package events

import (
	"sync/atomic"
	"time"
)

type Kind string

// Role identifies the author of a turn or message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Event interface {
	Kind() Kind
	Seq() uint64
	Timestamp() time.Time
}

// arrival numbers events in construction order. The inbound pipeline decodes
// frames serially, so sequence numbers are non-decreasing in arrival order.
var arrival atomic.Uint64

type Base struct {
	kind      Kind
	seq       uint64
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, seq: arrival.Add(1), timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Seq() uint64 {
	return b.seq
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
