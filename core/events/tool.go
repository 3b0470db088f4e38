package events

import "encoding/json"

const (
	// KindToolCall identifies a tool invocation by the assistant.
	KindToolCall Kind = "tool.call"
	// KindToolResponse identifies a tool result, matched to its call by id.
	KindToolResponse Kind = "tool.response"
)

// ToolCall marks a tool invocation issued within an assistant turn.
type ToolCall struct {
	Base
	ID     string
	Name   string
	Input  json.RawMessage
	TurnID string
}

// NewToolCall creates a tool call event.
func NewToolCall(id, name string, input json.RawMessage, turnID string) ToolCall {
	return ToolCall{Base: NewBase(KindToolCall), ID: id, Name: name, Input: input, TurnID: turnID}
}

// ToolResponse carries a tool result. ToolUseID keys the match against the
// originating call; attachment never falls back to recency.
type ToolResponse struct {
	Base
	ToolUseID string
	Content   string
	IsError   bool
}

// NewToolResponse creates a tool response event.
func NewToolResponse(toolUseID, content string, isError bool) ToolResponse {
	return ToolResponse{Base: NewBase(KindToolResponse), ToolUseID: toolUseID, Content: content, IsError: isError}
}
