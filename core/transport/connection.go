package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("connection already live or in progress")
	ErrSocketClosed     = errors.New("socket closed")
)

// ConnState is the connection-lifecycle state. Exactly one state is active;
// transitions happen only inside Conn.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnCallbacks receive normalized connection notifications. They fire
// identically regardless of which reconnection attempt produced them.
type ConnCallbacks struct {
	OnOpen         func()
	OnText         func(data []byte)
	OnBinary       func(data []byte)
	OnClose        func(code int, reason string)
	OnError        func(err error)
	OnReconnecting func(attempt int, delay time.Duration)
	OnGiveUp       func()
}

func (cb ConnCallbacks) withDefaults() ConnCallbacks {
	if cb.OnOpen == nil {
		cb.OnOpen = func() {}
	}
	if cb.OnText == nil {
		cb.OnText = func([]byte) {}
	}
	if cb.OnBinary == nil {
		cb.OnBinary = func([]byte) {}
	}
	if cb.OnClose == nil {
		cb.OnClose = func(int, string) {}
	}
	if cb.OnError == nil {
		cb.OnError = func(error) {}
	}
	if cb.OnReconnecting == nil {
		cb.OnReconnecting = func(int, time.Duration) {}
	}
	if cb.OnGiveUp == nil {
		cb.OnGiveUp = func() {}
	}
	return cb
}

// ConnConfig configures one Conn.
type ConnConfig struct {
	URL           string
	AutoReconnect bool
	Reconnection  ReconnectPolicy
}

// Conn composes a Socket with the reconnection controller and exposes the
// connect/disconnect/send contract. It is the exclusive owner of the physical
// socket handle; at most one socket is live at a time.
type Conn struct {
	mu sync.Mutex

	state  ConnState
	socket Socket

	dialer    Dialer
	cfg       ConnConfig
	callbacks ConnCallbacks
	recon     *reconnector

	sawError     bool
	disconnected bool
}

func NewConn(dialer Dialer, cfg ConnConfig, callbacks ConnCallbacks) *Conn {
	return &Conn{
		state:     StateIdle,
		dialer:    dialer,
		cfg:       cfg,
		callbacks: callbacks.withDefaults(),
		recon:     newReconnector(cfg.Reconnection),
	}
}

// Connect opens a new socket. It fails fast unless the state is Idle or
// Closed, and closes any leftover socket before dialing.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateOpen, StateClosing:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}

	leftover := c.socket
	c.socket = nil
	c.state = StateConnecting
	c.disconnected = false
	c.sawError = false
	c.mu.Unlock()

	if leftover != nil {
		_ = leftover.Close(CloseNormal, "superseded")
	}

	return c.dial(ctx)
}

func (c *Conn) dial(ctx context.Context) error {
	socket, err := c.dialer.Dial(ctx, c.cfg.URL, SocketCallbacks{
		OnOpen:   c.handleOpen,
		OnText:   func(data []byte) { c.callbacks.OnText(data) },
		OnBinary: func(data []byte) { c.callbacks.OnBinary(data) },
		OnClose:  c.handleClose,
		OnError:  c.handleError,
	})
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return fmt.Errorf("failed to open connection: %w", err)
	}

	c.mu.Lock()
	// Disconnect may have landed while the dial was in flight; the late
	// socket must never survive it.
	if c.disconnected {
		c.state = StateClosed
		c.mu.Unlock()
		logger.Debug("discarding socket opened after disconnect")
		_ = socket.Close(CloseNormal, "normal closure")
		return nil
	}
	c.socket = socket
	c.mu.Unlock()
	return nil
}

func (c *Conn) handleOpen() {
	c.mu.Lock()
	c.state = StateOpen
	c.sawError = false
	c.mu.Unlock()

	logger.Debug("connection open")
	c.recon.Reset()
	c.callbacks.OnOpen()
}

func (c *Conn) handleClose(code int, reason string) {
	c.mu.Lock()
	c.socket = nil
	requested := c.disconnected || c.state == StateClosing
	abnormal := code != CloseNormal || c.sawError
	c.state = StateClosed
	c.sawError = false
	c.mu.Unlock()

	logger.Debug("connection closed", "code", code, "reason", reason, "requested", requested)
	c.callbacks.OnClose(code, reason)

	if abnormal && !requested && c.cfg.AutoReconnect {
		c.scheduleReconnect()
	}
}

func (c *Conn) handleError(err error) {
	c.mu.Lock()
	c.sawError = true
	c.mu.Unlock()

	c.callbacks.OnError(err)
}

func (c *Conn) scheduleReconnect() {
	attempt, delay, ok := c.recon.Next()
	if !ok {
		logger.Warn("reconnection attempts exhausted")
		c.callbacks.OnGiveUp()
		return
	}

	logger.Info("scheduling reconnect", "attempt", attempt, "delay", delay)
	c.callbacks.OnReconnecting(attempt, delay)
	c.recon.Schedule(delay, c.redial)
}

// redial is the internal reconnect path. It bypasses Connect's idempotency
// gate but honors an explicit disconnect requested while the timer was
// pending. It never reuses the original connect context: that context is
// scoped to the caller's Connect and may already be cancelled.
func (c *Conn) redial() {
	c.mu.Lock()
	if c.disconnected || c.socket != nil {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	ctx, span := tracer.Start(context.Background(), "transport.redial")
	defer span.End()

	if err := c.dial(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.callbacks.OnError(err)
		c.scheduleReconnect()
	}
}

// Disconnect requests a clean close and cancels any pending reconnection.
// Safe to call at any time, in any state.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	c.disconnected = true
	socket := c.socket
	if socket != nil {
		c.state = StateClosing
	} else if c.state != StateIdle {
		c.state = StateClosed
	}
	c.mu.Unlock()

	c.recon.Reset()

	if socket == nil {
		return nil
	}
	return socket.Close(CloseNormal, "normal closure")
}

func (c *Conn) SendText(data []byte) error {
	return c.send(func(s Socket) error { return s.SendText(data) })
}

func (c *Conn) SendBinary(data []byte) error {
	return c.send(func(s Socket) error { return s.SendBinary(data) })
}

func (c *Conn) send(write func(Socket) error) error {
	c.mu.Lock()
	if c.state != StateOpen || c.socket == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	socket := c.socket
	c.mu.Unlock()

	return write(socket)
}

func (c *Conn) IsConnected() bool {
	return c.State() == StateOpen
}

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
