// Package realtime is the client facade for the event-streamed chat/voice
// protocol. Callers never see raw protocol frames; they see a reconnecting
// connection, a typed publish/subscribe surface, and a continuously
// reconstructed conversation.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/ebooth1202/agent-c-framework-sub007/core/events"
	"github.com/ebooth1202/agent-c-framework-sub007/core/protocol"
	"github.com/ebooth1202/agent-c-framework-sub007/core/session"
	"github.com/ebooth1202/agent-c-framework-sub007/core/transport"
)

const defaultChatPath = "/ws/chat"

var (
	ErrDestroyed     = errors.New("client destroyed")
	ErrConnectFailed = errors.New("connection failed")
)

// Client composes the connection manager, wire codec, session reconstructor
// and event bus. It is the only object external collaborators touch.
//
// All inbound frame handling, decoding, session folding and bus dispatch
// happen on one logical timeline: no two frames are processed concurrently.
type Client struct {
	id string

	bus           *Bus
	conn          *transport.Conn
	reconstructor *session.Reconstructor

	// pipelineMu serializes the inbound pipeline.
	pipelineMu sync.Mutex

	mu            sync.Mutex
	destroyed     bool
	connectResult chan error

	autoReconnect bool
	reconnection  transport.ReconnectPolicy
	dialer        transport.Dialer
	path          string
}

// New builds a client targeting <apiURL><path>?token=<authToken>.
func New(apiURL, authToken string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		id:            uuid.NewString(),
		bus:           NewBus(),
		reconstructor: session.NewReconstructor(),
		autoReconnect: true,
		path:          defaultChatPath,
	}
	for _, opt := range opts {
		opt(c)
	}

	target, err := buildTargetURL(apiURL, c.path, authToken)
	if err != nil {
		return nil, err
	}

	if c.dialer == nil {
		c.dialer = &transport.WebsocketDialer{}
	}

	c.conn = transport.NewConn(c.dialer, transport.ConnConfig{
		URL:           target,
		AutoReconnect: c.autoReconnect,
		Reconnection:  c.reconnection,
	}, transport.ConnCallbacks{
		OnOpen:   func() { logger.Debug("socket open", "client_id", c.id) },
		OnText:   c.handleText,
		OnBinary: c.handleBinary,
		OnClose: func(code int, reason string) {
			c.dispatch(events.NewDisconnected(code, reason))
		},
		OnError: func(err error) {
			c.dispatch(events.NewConnectionError(err.Error()))
		},
		OnReconnecting: func(attempt int, delay time.Duration) {
			c.dispatch(events.NewReconnecting(attempt, delay))
		},
		OnGiveUp: func() {
			c.dispatch(events.NewConnectionFailed("reconnection attempts exhausted"))
		},
	})

	c.reconstructor.SetEventEmitter(c.bus.Emit)

	return c, nil
}

func buildTargetURL(apiURL, path, authToken string) (string, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse api url: %w", err)
	}

	urlValues := url.Values{}
	urlValues.Set("token", authToken)

	target := *base
	target.Path, err = url.JoinPath(base.Path, path)
	if err != nil {
		return "", fmt.Errorf("failed to join connection path: %w", err)
	}
	target.RawQuery = urlValues.Encode()
	return target.String(), nil
}

// Connect opens the connection and completes when the server acknowledges it
// with a connected event, or fails on first-attempt dial error, closure
// before acknowledgement, or context cancellation.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	result := make(chan error, 1)
	c.connectResult = result
	c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "realtime.connect")
	defer span.End()

	if err := c.conn.Connect(ctx); err != nil {
		c.clearConnectWaiter()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	select {
	case err := <-result:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	case <-ctx.Done():
		c.clearConnectWaiter()
		return ctx.Err()
	}
}

func (c *Client) resolveConnect(err error) {
	c.mu.Lock()
	result := c.connectResult
	c.connectResult = nil
	c.mu.Unlock()

	if result != nil {
		result <- err
	}
}

func (c *Client) clearConnectWaiter() {
	c.mu.Lock()
	c.connectResult = nil
	c.mu.Unlock()
}

func (c *Client) handleText(data []byte) {
	event, err := protocol.Decode(data)
	if err != nil {
		// Decode failures never stop the pipeline.
		logger.Warn("dropping undecodable frame", "client_id", c.id, "error", err)
		return
	}
	c.dispatch(event)
}

func (c *Client) handleBinary(data []byte) {
	c.dispatch(protocol.DecodeBinary(data))
}

// dispatch drives the session reconstructor and republishes the event on the
// bus under its own kind. Derived events (message updates, violations) are
// emitted by the reconstructor before the raw event republish. Frames that
// straggle in after Destroy are dropped.
func (c *Client) dispatch(event events.Event) {
	if c.isDestroyed() {
		return
	}

	c.pipelineMu.Lock()
	defer c.pipelineMu.Unlock()

	c.reconstructor.Apply(event)

	switch typedEvent := event.(type) {
	case events.Connected:
		c.resolveConnect(nil)
	case events.Disconnected:
		c.resolveConnect(fmt.Errorf("%w: socket closed with code %d before acknowledgement",
			ErrConnectFailed, typedEvent.Code))
	}

	c.bus.Emit(event)
}

// Disconnect requests a clean close and cancels pending reconnection.
func (c *Client) Disconnect() error {
	return c.conn.Disconnect()
}

// Destroy disconnects, releases every subscription and discards the
// reconstructed session. The client is unusable afterwards.
func (c *Client) Destroy() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	c.mu.Unlock()

	c.resolveConnect(ErrDestroyed)
	err := c.conn.Disconnect()
	c.bus.Reset()
	c.reconstructor.Reset()
	return err
}

func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// State exposes the connection-lifecycle state.
func (c *Client) State() transport.ConnState {
	return c.conn.State()
}

// SendText wraps plain text into a text_input command.
func (c *Client) SendText(text string) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	data, err := protocol.EncodeTextInput(text)
	if err != nil {
		return err
	}
	return c.conn.SendText(data)
}

// SendBinaryFrame sends one raw audio buffer unmodified.
func (c *Client) SendBinaryFrame(buffer []byte) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	return c.conn.SendBinary(buffer)
}

// SendEvent serializes and sends an arbitrary pre-built command.
func (c *Client) SendEvent(command any) error {
	if c.isDestroyed() {
		return ErrDestroyed
	}
	data, err := protocol.EncodeCommand(command)
	if err != nil {
		return err
	}
	return c.conn.SendText(data)
}

// Session returns a deep-copied snapshot of the reconstructed conversation.
func (c *Client) Session() session.ChatSession {
	return c.reconstructor.Session()
}

// On registers a handler for one event kind.
func (c *Client) On(kind events.Kind, handler Handler) Subscription {
	return c.bus.On(kind, handler)
}

// Once registers a handler invoked for at most one matching event.
func (c *Client) Once(kind events.Kind, handler Handler) Subscription {
	return c.bus.Once(kind, handler)
}

// OnAny registers a handler for every event.
func (c *Client) OnAny(handler Handler) Subscription {
	return c.bus.OnAny(handler)
}

// Off removes one subscription.
func (c *Client) Off(sub Subscription) {
	c.bus.Off(sub)
}

func (c *Client) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
