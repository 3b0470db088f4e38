// Package events defines the typed protocol event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - connection.*
//   - turn.*
//   - message.*
//   - audio.*
//   - tool.*
//   - session.*
//   - protocol.*
//
// Semantics used across the package:
//
//   - Delta: append-only piece emitted in stream order.
//   - Done: terminal marker for the current stream phase.
//   - Frame: binary audio payload, opaque to this layer.
//
// connection events
//
//   - Connected (connection.established): the server acknowledged the
//     connection and named the live session.
//   - Disconnected (connection.closed): the socket closed; carries the close
//     code and reason.
//   - Reconnecting (connection.reconnecting): an automatic reconnection
//     attempt was scheduled; carries attempt number and delay.
//   - ConnectionError (connection.error): a transport-level error occurred.
//   - ConnectionFailed (connection.failed): reconnection attempts are
//     exhausted; terminal until the caller reconnects explicitly.
//
// turn events
//
//   - TurnStarted (turn.started): a turn boundary opened for a role.
//   - TurnEnded (turn.ended): the turn closed; message content freezes.
//
// message events
//
//   - TextDelta (message.text_delta): streamed message text.
//   - ThoughtDelta (message.thought_delta): streamed internal reasoning text.
//   - TextDone (message.text_done): the message text stream completed.
//
// audio events
//
//   - AudioDelta (audio.delta): one opaque binary audio frame.
//   - AudioDone (audio.done): the audio stream for the turn completed.
//
// tool events
//
//   - ToolCall (tool.call): the assistant invoked a tool.
//   - ToolResponse (tool.response): a tool produced a result, matched to its
//     call strictly by id.
//
// session events
//
//   - SessionUpdated (session.updated): server-side session metadata changed.
//   - TokenUsage (session.token_usage): token accounting for the session.
//   - MessageUpdated (session.message_updated): the reconstructed
//     conversation changed; emitted by the session reconstructor, never
//     decoded from the wire.
//
// protocol events
//
//   - ProtocolError (protocol.error): a server-reported error.
//   - Unknown (protocol.unknown): a frame with an unrecognized type
//     discriminator, kept for protocol evolution.
//   - Violation (protocol.violation): a well-formed frame that breaks the
//     protocol contract (orphaned tool result, delta after freeze).
package events
