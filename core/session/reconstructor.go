package session

import (
	"fmt"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/ebooth1202/agent-c-framework-sub007/core/events"
)

type messageKey struct {
	turnID string
	role   events.Role
	kind   MessageKind
}

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

// Reconstructor folds the inbound event stream into a ChatSession. Events
// must be applied in arrival order; given the same ordered sequence a fresh
// Reconstructor always produces an identical session, which is what makes
// replay after reconnection-driven redelivery safe.
type Reconstructor struct {
	mu sync.Mutex

	emit eventEmitter

	session *ChatSession

	turnIndex     int
	currentTurnID string
	currentRole   events.Role

	messagesByKey map[messageKey]*Message
	invocations   map[string]*ToolInvocation

	// pendingCalls buffers tool calls that arrived before any eligible
	// message existed in their turn.
	pendingCalls  []*ToolInvocation
	pendingTurnID string

	orphans []OrphanResult
}

func NewReconstructor() *Reconstructor {
	return &Reconstructor{
		emit:          noopEventEmitter,
		messagesByKey: map[messageKey]*Message{},
		invocations:   map[string]*ToolInvocation{},
	}
}

// SetEventEmitter wires derived-event delivery (message updates, protocol
// violations). Emission happens outside the reconstructor's lock, so handlers
// may read Session() freely.
func (r *Reconstructor) SetEventEmitter(emit func(events.Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if emit == nil {
		r.emit = noopEventEmitter
		return
	}
	r.emit = emit
}

// Apply folds one event into the session.
func (r *Reconstructor) Apply(event events.Event) {
	r.mu.Lock()
	var emitted []events.Event
	queue := func(derived events.Event) { emitted = append(emitted, derived) }

	switch typedEvent := event.(type) {
	case events.Connected:
		r.applyConnected(typedEvent)
	case events.TurnStarted:
		r.applyTurnStarted(typedEvent, queue)
	case events.TurnEnded:
		r.applyTurnEnded(typedEvent, queue)
	case events.TextDelta:
		r.applyDelta(typedEvent.TurnID, typedEvent.Role, KindNormal, typedEvent.MessageID, typedEvent.Text, queue)
	case events.ThoughtDelta:
		r.applyDelta(typedEvent.TurnID, events.RoleAssistant, KindThought, typedEvent.MessageID, typedEvent.Text, queue)
	case events.TextDone:
		r.applyTextDone(typedEvent, queue)
	case events.ToolCall:
		r.applyToolCall(typedEvent, queue)
	case events.ToolResponse:
		r.applyToolResponse(typedEvent, queue)
	case events.SessionUpdated:
		r.applySessionUpdated(typedEvent)
	case events.TokenUsage:
		r.ensureSession("")
		r.session.InputTokens += typedEvent.InputTokens
		r.session.OutputTokens += typedEvent.OutputTokens
	default:
		// Error, audio and connection lifecycle events never mutate the
		// session; the facade republishes them verbatim.
	}

	emit := r.emit
	r.mu.Unlock()

	for _, derived := range emitted {
		emit(derived)
	}
}

// Session returns a deep-copied point-in-time snapshot.
func (r *Reconstructor) Session() ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return ChatSession{}
	}

	var snapshot ChatSession
	_ = copier.CopyWithOption(&snapshot, r.session, copier.Option{DeepCopy: true})
	return snapshot
}

// Orphans returns tool results that arrived with no matching call.
func (r *Reconstructor) Orphans() []OrphanResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	orphans := make([]OrphanResult, len(r.orphans))
	copy(orphans, r.orphans)
	return orphans
}

// Reset discards all reconstructed state.
func (r *Reconstructor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	r.resetFold()
	r.orphans = nil
}

func (r *Reconstructor) resetFold() {
	r.turnIndex = 0
	r.currentTurnID = ""
	r.currentRole = ""
	r.messagesByKey = map[messageKey]*Message{}
	r.invocations = map[string]*ToolInvocation{}
	r.pendingCalls = nil
	r.pendingTurnID = ""
}

func (r *Reconstructor) applyConnected(event events.Connected) {
	if r.session != nil && (event.SessionID == "" || event.SessionID == r.session.ID) {
		// Same logical session resumed across a transient reconnect.
		mergeMetadata(r.session, event.Metadata)
		return
	}

	r.session = &ChatSession{ID: event.SessionID, Metadata: map[string]any{}}
	mergeMetadata(r.session, event.Metadata)
	r.resetFold()
}

// ensureSession lazily creates a session so that event streams observed
// before (or without) a connected frame still reconstruct.
func (r *Reconstructor) ensureSession(id string) {
	if r.session == nil {
		r.session = &ChatSession{ID: id, Metadata: map[string]any{}}
		r.resetFold()
		return
	}
	if id != "" && id != r.session.ID {
		r.session = &ChatSession{ID: id, Metadata: map[string]any{}}
		r.resetFold()
	}
}

func (r *Reconstructor) applyTurnStarted(event events.TurnStarted, queue eventEmitter) {
	r.ensureSession("")

	if len(r.pendingCalls) > 0 && r.pendingTurnID != event.TurnID {
		queue(events.NewViolation("tool call with no eligible message",
			fmt.Sprintf("turn %s ended with %d unattached tool calls", r.pendingTurnID, len(r.pendingCalls))))
		r.pendingCalls = nil
		r.pendingTurnID = ""
	}

	r.turnIndex++
	r.currentTurnID = event.TurnID
	r.currentRole = event.Role
}

func (r *Reconstructor) applyTurnEnded(event events.TurnEnded, queue eventEmitter) {
	r.ensureSession("")

	turnID := event.TurnID
	if turnID == "" {
		turnID = r.currentTurnID
	}

	for _, message := range r.session.Messages {
		if message.TurnID != turnID {
			continue
		}
		message.Frozen = true
		message.Complete = true
		queue(events.NewMessageUpdated(r.session.ID, message.ID))
	}

	if len(r.pendingCalls) > 0 && r.pendingTurnID == turnID {
		queue(events.NewViolation("tool call with no eligible message",
			fmt.Sprintf("turn %s ended with %d unattached tool calls", turnID, len(r.pendingCalls))))
		r.pendingCalls = nil
		r.pendingTurnID = ""
	}

	if turnID == r.currentTurnID {
		r.currentTurnID = ""
		r.currentRole = ""
	}
}

func (r *Reconstructor) applyDelta(turnID string, role events.Role, kind MessageKind, messageID, text string, queue eventEmitter) {
	r.ensureSession("")

	if turnID == "" {
		turnID = r.currentTurnID
	}
	if role == "" {
		role = r.currentRole
	}
	if role == "" {
		role = events.RoleAssistant
	}

	key := messageKey{turnID: turnID, role: role, kind: kind}
	message := r.messagesByKey[key]
	if message == nil {
		if messageID == "" {
			messageID = fmt.Sprintf("msg_%d", len(r.session.Messages)+1)
		}
		message = &Message{
			ID:        messageID,
			Role:      role,
			Kind:      kind,
			Content:   text,
			TurnID:    turnID,
			TurnIndex: r.turnIndex,
		}
		r.session.Messages = append(r.session.Messages, message)
		r.messagesByKey[key] = message
		r.flushPendingCalls(message, queue)
		queue(events.NewMessageUpdated(r.session.ID, message.ID))
		return
	}

	if message.Frozen {
		queue(events.NewViolation("text delta after freeze",
			fmt.Sprintf("message %s received a delta after its content was frozen", message.ID)))
		return
	}

	message.Content += text
	queue(events.NewMessageUpdated(r.session.ID, message.ID))
}

func (r *Reconstructor) applyTextDone(event events.TextDone, queue eventEmitter) {
	r.ensureSession("")

	turnID := event.TurnID
	if turnID == "" {
		turnID = r.currentTurnID
	}
	role := event.Role
	if role == "" {
		role = r.currentRole
	}

	for _, kind := range []MessageKind{KindNormal, KindThought} {
		if message := r.messagesByKey[messageKey{turnID: turnID, role: role, kind: kind}]; message != nil && !message.Frozen {
			message.Frozen = true
			queue(events.NewMessageUpdated(r.session.ID, message.ID))
		}
	}
}

func (r *Reconstructor) applyToolCall(event events.ToolCall, queue eventEmitter) {
	r.ensureSession("")

	if _, exists := r.invocations[event.ID]; exists {
		queue(events.NewViolation("duplicate tool call id", event.ID))
		return
	}

	invocation := &ToolInvocation{
		ID:     event.ID,
		Name:   event.Name,
		Input:  append([]byte(nil), event.Input...),
		Status: StatusPending,
	}
	r.invocations[event.ID] = invocation

	turnID := event.TurnID
	if turnID == "" {
		turnID = r.currentTurnID
	}

	// A message already streaming in the call's own turn is the target.
	if message := r.messagesByKey[messageKey{turnID: turnID, role: events.RoleAssistant, kind: KindNormal}]; message != nil {
		r.attach(message, invocation, queue)
		return
	}

	// The call's turn is the open assistant turn but has produced no text
	// yet: buffer and attach retroactively to the first eligible message
	// created in that turn.
	if turnID == r.currentTurnID && r.currentRole == events.RoleAssistant {
		r.pendingCalls = append(r.pendingCalls, invocation)
		r.pendingTurnID = turnID
		return
	}

	// Fall back to the eligible message with the highest turn-order index:
	// backward scan over insertion order, skipping thoughts.
	if message := r.lastEligibleMessage(); message != nil {
		r.attach(message, invocation, queue)
		return
	}

	r.pendingCalls = append(r.pendingCalls, invocation)
	r.pendingTurnID = turnID
}

func (r *Reconstructor) lastEligibleMessage() *Message {
	for i := len(r.session.Messages) - 1; i >= 0; i-- {
		message := r.session.Messages[i]
		if message.Role == events.RoleAssistant && message.Kind == KindNormal {
			return message
		}
	}
	return nil
}

func (r *Reconstructor) attach(message *Message, invocation *ToolInvocation, queue eventEmitter) {
	invocation.owner = message
	message.Invocations = append(message.Invocations, invocation)
	queue(events.NewMessageUpdated(r.session.ID, message.ID))
}

func (r *Reconstructor) flushPendingCalls(message *Message, queue eventEmitter) {
	if message.Role != events.RoleAssistant || message.Kind != KindNormal {
		return
	}
	if len(r.pendingCalls) == 0 || r.pendingTurnID != message.TurnID {
		return
	}

	for _, invocation := range r.pendingCalls {
		invocation.owner = message
		message.Invocations = append(message.Invocations, invocation)
	}
	r.pendingCalls = nil
	r.pendingTurnID = ""
}

func (r *Reconstructor) applyToolResponse(event events.ToolResponse, queue eventEmitter) {
	r.ensureSession("")

	invocation := r.invocations[event.ToolUseID]
	if invocation == nil {
		// A result with no prior call is a protocol violation; it is never
		// attached by recency.
		r.orphans = append(r.orphans, OrphanResult{
			ToolUseID: event.ToolUseID,
			Content:   event.Content,
			IsError:   event.IsError,
		})
		queue(events.NewViolation("orphaned tool result", event.ToolUseID))
		return
	}

	invocation.Result = &ToolResult{Content: event.Content, IsError: event.IsError}
	if event.IsError {
		invocation.Status = StatusErrored
	} else {
		invocation.Status = StatusAttached
	}

	if invocation.owner != nil {
		queue(events.NewMessageUpdated(r.session.ID, invocation.owner.ID))
	}
}

func (r *Reconstructor) applySessionUpdated(event events.SessionUpdated) {
	r.ensureSession(event.SessionID)
	mergeMetadata(r.session, event.Metadata)
}

func mergeMetadata(session *ChatSession, metadata map[string]any) {
	if session.Metadata == nil {
		session.Metadata = map[string]any{}
	}
	for key, value := range metadata {
		session.Metadata[key] = value
	}
}
