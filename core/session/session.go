// Package session reconstructs conversation state from the inbound protocol
// event stream. The reconstructed ChatSession is always a valid prefix of the
// true server-side session.
package session

import (
	"encoding/json"

	"github.com/ebooth1202/agent-c-framework-sub007/core/events"
)

// MessageKind separates normal messages from internal reasoning.
type MessageKind string

const (
	KindNormal  MessageKind = "normal"
	KindThought MessageKind = "thought"
)

// InvocationStatus tracks a tool invocation's lifecycle.
type InvocationStatus string

const (
	StatusPending  InvocationStatus = "pending"
	StatusAttached InvocationStatus = "attached"
	StatusErrored  InvocationStatus = "errored"
)

// ToolResult is a tool's eventual output.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInvocation is one tool call and its optional result, tracked as a unit
// attached to the message that issued it. Completion is keyed strictly by id.
type ToolInvocation struct {
	ID     string
	Name   string
	Input  json.RawMessage
	Result *ToolResult
	Status InvocationStatus

	owner *Message
}

// Message is one entry of the ordered conversation. Content only grows via
// deltas until frozen; it is never rewritten.
type Message struct {
	ID          string
	Role        events.Role
	Kind        MessageKind
	Content     string
	Frozen      bool
	Complete    bool
	TurnID      string
	TurnIndex   int
	Invocations []*ToolInvocation
}

// ChatSession is the reconstructed ordered conversation state for one logical
// connection. Message order is insertion order and is never reordered.
type ChatSession struct {
	ID           string
	Messages     []*Message
	InputTokens  int
	OutputTokens int
	Metadata     map[string]any
}

// OrphanResult records a tool result that arrived without a matching call.
type OrphanResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}
