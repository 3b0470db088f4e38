// Package protocol translates between wire frames and typed events. Inbound
// text frames are JSON objects tagged by a "type" discriminator; binary
// frames are opaque audio and pass through untouched.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ebooth1202/agent-c-framework-sub007/core/events"
)

var ErrMissingType = errors.New("frame has no type discriminator")

// frame types recognized on the inbound stream.
const (
	typeConnected     = "connected"
	typeDisconnected  = "disconnected"
	typeTurnStart     = "turn_start"
	typeTurnEnd       = "turn_end"
	typeTextDelta     = "text_delta"
	typeThoughtDelta  = "thought_delta"
	typeTextDone      = "text_done"
	typeAudioDelta    = "audio_delta"
	typeAudioDone     = "audio_done"
	typeToolCall      = "tool_call"
	typeToolResponse  = "tool_response"
	typeError         = "error"
	typeSessionUpdate = "session_update"
	typeTokenUsage    = "token_usage"
)

// Decode parses one inbound text frame into a typed event. A missing type
// discriminator is a decode failure; an unrecognized one is tolerated and
// surfaced as an Unknown event so protocol evolution never breaks the
// pipeline.
func Decode(data []byte) (events.Event, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse frame: %w", err)
	}
	if probe.Type == "" {
		return nil, ErrMissingType
	}

	switch probe.Type {
	case typeConnected:
		var payload struct {
			SessionID string         `json:"session_id"`
			Metadata  map[string]any `json:"metadata"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewConnected(payload.SessionID, payload.Metadata), nil

	case typeDisconnected:
		var payload struct {
			Code   int    `json:"code"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewDisconnected(payload.Code, payload.Reason), nil

	case typeTurnStart:
		var payload struct {
			TurnID string `json:"turn_id"`
			Role   string `json:"role"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewTurnStarted(payload.TurnID, events.Role(payload.Role)), nil

	case typeTurnEnd:
		var payload struct {
			TurnID string `json:"turn_id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewTurnEnded(payload.TurnID), nil

	case typeTextDelta:
		var payload struct {
			TurnID    string `json:"turn_id"`
			Role      string `json:"role"`
			MessageID string `json:"message_id"`
			Content   string `json:"content"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewTextDelta(payload.TurnID, events.Role(payload.Role), payload.MessageID, payload.Content), nil

	case typeThoughtDelta:
		var payload struct {
			TurnID    string `json:"turn_id"`
			MessageID string `json:"message_id"`
			Content   string `json:"content"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewThoughtDelta(payload.TurnID, payload.MessageID, payload.Content), nil

	case typeTextDone:
		var payload struct {
			TurnID string `json:"turn_id"`
			Role   string `json:"role"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewTextDone(payload.TurnID, events.Role(payload.Role)), nil

	case typeAudioDelta:
		// Audio normally arrives as binary frames; the JSON form carries
		// base64-encoded samples.
		var payload struct {
			Audio []byte `json:"audio"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewAudioDelta(payload.Audio), nil

	case typeAudioDone:
		var payload struct {
			TurnID string `json:"turn_id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewAudioDone(payload.TurnID), nil

	case typeToolCall:
		var payload struct {
			ID     string          `json:"id"`
			Name   string          `json:"name"`
			Input  json.RawMessage `json:"input"`
			TurnID string          `json:"turn_id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewToolCall(payload.ID, payload.Name, payload.Input, payload.TurnID), nil

	case typeToolResponse:
		var payload struct {
			ToolUseID string `json:"tool_use_id"`
			Content   string `json:"content"`
			IsError   bool   `json:"is_error"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewToolResponse(payload.ToolUseID, payload.Content, payload.IsError), nil

	case typeError:
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewProtocolError(payload.Code, payload.Message), nil

	case typeSessionUpdate:
		var payload struct {
			SessionID string         `json:"session_id"`
			Metadata  map[string]any `json:"metadata"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewSessionUpdated(payload.SessionID, payload.Metadata), nil

	case typeTokenUsage:
		var payload struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, decodeErr(probe.Type, err)
		}
		return events.NewTokenUsage(payload.InputTokens, payload.OutputTokens), nil

	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return events.NewUnknown(probe.Type, raw), nil
	}
}

func decodeErr(frameType string, err error) error {
	return fmt.Errorf("failed to parse %q frame: %w", frameType, err)
}

// DecodeBinary wraps one binary frame as an opaque audio delta. The payload
// is never inspected.
func DecodeBinary(data []byte) events.Event {
	return events.NewAudioDelta(data)
}

// textInputCommand is the outbound wrapper for plain text.
type textInputCommand struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EncodeTextInput wraps plain text into the text_input command.
func EncodeTextInput(text string) ([]byte, error) {
	data, err := json.Marshal(textInputCommand{Type: "text_input", Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode text input: %w", err)
	}
	return data, nil
}

// EncodeCommand serializes an arbitrary caller-constructed command.
func EncodeCommand(command any) ([]byte, error) {
	data, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return data, nil
}
