package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSocket struct {
	mu        sync.Mutex
	callbacks SocketCallbacks

	sentText   [][]byte
	sentBinary [][]byte

	closed      bool
	closeCode   int
	closeReason string
}

func (s *fakeSocket) SendText(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSocketClosed
	}
	s.sentText = append(s.sentText, data)
	return nil
}

func (s *fakeSocket) SendBinary(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSocketClosed
	}
	s.sentBinary = append(s.sentBinary, data)
	return nil
}

// Close acknowledges immediately, as if the peer echoed the close frame.
func (s *fakeSocket) Close(code int, reason string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.closeCode = code
	s.closeReason = reason
	callbacks := s.callbacks
	s.mu.Unlock()

	callbacks.OnClose(code, reason)
	return nil
}

// peerClose simulates a server-initiated close.
func (s *fakeSocket) peerClose(code int, reason string) {
	s.mu.Lock()
	s.closed = true
	callbacks := s.callbacks
	s.mu.Unlock()

	callbacks.OnClose(code, reason)
}

type fakeDialer struct {
	mu        sync.Mutex
	sockets   []*fakeSocket
	failures  int
	dialCount int
	urls      []string
}

func (d *fakeDialer) Dial(_ context.Context, rawURL string, callbacks SocketCallbacks) (Socket, error) {
	d.mu.Lock()
	d.dialCount++
	d.urls = append(d.urls, rawURL)
	if d.failures > 0 {
		d.failures--
		d.mu.Unlock()
		return nil, errors.New("dial refused")
	}
	socket := &fakeSocket{callbacks: callbacks.withDefaults()}
	d.sockets = append(d.sockets, socket)
	d.mu.Unlock()

	callbacks.OnOpen()
	return socket, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialCount
}

func (d *fakeDialer) socket(i int) *fakeSocket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sockets[i]
}

// gatedDialer holds every dial until released, exposing the window between
// a dial starting and its socket coming back.
type gatedDialer struct {
	fakeDialer
	started chan struct{}
	release chan struct{}
}

func (d *gatedDialer) Dial(ctx context.Context, rawURL string, callbacks SocketCallbacks) (Socket, error) {
	d.started <- struct{}{}
	<-d.release
	return d.fakeDialer.Dial(ctx, rawURL, callbacks)
}

// ctxCheckingDialer refuses dials whose context is already done.
type ctxCheckingDialer struct {
	fakeDialer
}

func (d *ctxCheckingDialer) Dial(ctx context.Context, rawURL string, callbacks SocketCallbacks) (Socket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.fakeDialer.Dial(ctx, rawURL, callbacks)
}

func TestConnectTransitionsToOpen(t *testing.T) {
	dialer := &fakeDialer{}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws?token=secret"}, ConnCallbacks{})

	if conn.State() != StateIdle {
		t.Fatalf("expected initial state idle, got %v", conn.State())
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	if !conn.IsConnected() || conn.State() != StateOpen {
		t.Fatalf("expected open state after connect, got %v", conn.State())
	}
	if dialer.dials() != 1 {
		t.Fatalf("expected exactly one dial, got %d", dialer.dials())
	}
	if dialer.urls[0] != "wss://example.test/ws?token=secret" {
		t.Fatalf("expected dial against configured URL, got %q", dialer.urls[0])
	}
}

func TestConnectFailsFastWhenAlreadyOpen(t *testing.T) {
	dialer := &fakeDialer{}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws"}, ConnCallbacks{})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	if err := conn.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
	if dialer.dials() != 1 {
		t.Fatalf("expected no second dial, got %d", dialer.dials())
	}
}

func TestConnectSurfacesDialFailure(t *testing.T) {
	dialer := &fakeDialer{failures: 1}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws"}, ConnCallbacks{})

	if err := conn.Connect(context.Background()); err == nil {
		t.Fatalf("expected dial failure to surface")
	}
	if conn.State() != StateClosed {
		t.Fatalf("expected closed state after dial failure, got %v", conn.State())
	}
}

func TestSendRequiresOpenState(t *testing.T) {
	dialer := &fakeDialer{}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws"}, ConnCallbacks{})

	if err := conn.SendText([]byte("hello")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected before connect, got %v", err)
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	if err := conn.SendText([]byte("hello")); err != nil {
		t.Fatalf("expected send to succeed while open, got %v", err)
	}
	if err := conn.SendBinary([]byte{1, 2, 3}); err != nil {
		t.Fatalf("expected binary send to succeed while open, got %v", err)
	}

	socket := dialer.socket(0)
	if len(socket.sentText) != 1 || string(socket.sentText[0]) != "hello" {
		t.Fatalf("expected text frame forwarded verbatim, got %v", socket.sentText)
	}
	if len(socket.sentBinary) != 1 || len(socket.sentBinary[0]) != 3 {
		t.Fatalf("expected binary frame forwarded verbatim, got %v", socket.sentBinary)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	dialer := &fakeDialer{}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws"}, ConnCallbacks{})

	if err := conn.Disconnect(); err != nil {
		t.Fatalf("expected disconnect before connect to be safe, got %v", err)
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if err := conn.Disconnect(); err != nil {
		t.Fatalf("expected disconnect to succeed, got %v", err)
	}
	if err := conn.Disconnect(); err != nil {
		t.Fatalf("expected repeated disconnect to be safe, got %v", err)
	}

	if conn.State() != StateClosed {
		t.Fatalf("expected closed state after disconnect, got %v", conn.State())
	}
	if dialer.socket(0).closeCode != CloseNormal {
		t.Fatalf("expected normal close code, got %d", dialer.socket(0).closeCode)
	}
}

func TestCleanCloseDoesNotReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	reconnecting := make(chan int, 1)
	conn := NewConn(dialer, ConnConfig{
		URL:           "wss://example.test/ws",
		AutoReconnect: true,
		Reconnection:  ReconnectPolicy{MaxAttempts: 3, Delay: time.Millisecond},
	}, ConnCallbacks{
		OnReconnecting: func(attempt int, _ time.Duration) { reconnecting <- attempt },
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	dialer.socket(0).peerClose(CloseNormal, "bye")

	select {
	case attempt := <-reconnecting:
		t.Fatalf("expected no reconnection after clean close, got attempt %d", attempt)
	case <-time.After(30 * time.Millisecond):
	}
	if dialer.dials() != 1 {
		t.Fatalf("expected no redial after clean close, got %d dials", dialer.dials())
	}
}

func TestAbnormalCloseReconnects(t *testing.T) {
	dialer := &fakeDialer{}
	reconnecting := make(chan int, 4)
	opened := make(chan struct{}, 4)
	conn := NewConn(dialer, ConnConfig{
		URL:           "wss://example.test/ws",
		AutoReconnect: true,
		Reconnection:  ReconnectPolicy{MaxAttempts: 3, Delay: time.Millisecond, Multiplier: 2},
	}, ConnCallbacks{
		OnOpen:         func() { opened <- struct{}{} },
		OnReconnecting: func(attempt int, _ time.Duration) { reconnecting <- attempt },
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	<-opened

	dialer.socket(0).peerClose(1006, "going away")

	select {
	case attempt := <-reconnecting:
		if attempt != 1 {
			t.Fatalf("expected first reconnect attempt, got %d", attempt)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a reconnecting notification")
	}

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatalf("expected the connection to reopen")
	}

	if !conn.IsConnected() {
		t.Fatalf("expected open state after reconnect, got %v", conn.State())
	}
	if dialer.dials() != 2 {
		t.Fatalf("expected exactly one redial, got %d dials", dialer.dials())
	}
}

func TestReconnectGivesUpAfterBudget(t *testing.T) {
	dialer := &fakeDialer{}
	gaveUp := make(chan struct{}, 1)
	var mu sync.Mutex
	var delays []time.Duration
	conn := NewConn(dialer, ConnConfig{
		URL:           "wss://example.test/ws",
		AutoReconnect: true,
		Reconnection:  ReconnectPolicy{MaxAttempts: 3, Delay: time.Millisecond, MaxDelay: 4 * time.Millisecond, Multiplier: 2},
	}, ConnCallbacks{
		OnReconnecting: func(_ int, delay time.Duration) {
			mu.Lock()
			delays = append(delays, delay)
			mu.Unlock()
		},
		OnGiveUp: func() { gaveUp <- struct{}{} },
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	// All further dials are refused, so every attempt burns budget.
	dialer.mu.Lock()
	dialer.failures = 10
	dialer.mu.Unlock()

	dialer.socket(0).peerClose(1006, "going away")

	select {
	case <-gaveUp:
	case <-time.After(time.Second):
		t.Fatalf("expected give-up after exhausting the budget")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delays) != 3 {
		t.Fatalf("expected 3 reconnect attempts, got %d", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] < delays[i-1] {
			t.Fatalf("expected non-decreasing delays, got %v", delays)
		}
	}
}

func TestDisconnectDuringDialDiscardsTheLateSocket(t *testing.T) {
	dialer := &gatedDialer{started: make(chan struct{}, 1), release: make(chan struct{})}
	conn := NewConn(dialer, ConnConfig{URL: "wss://example.test/ws"}, ConnCallbacks{})

	done := make(chan error, 1)
	go func() { done <- conn.Connect(context.Background()) }()

	<-dialer.started
	if err := conn.Disconnect(); err != nil {
		t.Fatalf("expected disconnect during dial to succeed, got %v", err)
	}
	close(dialer.release)

	if err := <-done; err != nil {
		t.Fatalf("expected connect to finish cleanly, got %v", err)
	}

	if conn.IsConnected() {
		t.Fatalf("expected the connection to stay down after disconnect")
	}
	if conn.State() != StateClosed {
		t.Fatalf("expected closed state, got %v", conn.State())
	}

	socket := dialer.socket(0)
	socket.mu.Lock()
	closed := socket.closed
	socket.mu.Unlock()
	if !closed {
		t.Fatalf("expected the late socket to be closed")
	}
	if err := conn.SendText([]byte("late")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after disconnect, got %v", err)
	}
}

func TestRedialOutlivesTheConnectContext(t *testing.T) {
	dialer := &ctxCheckingDialer{}
	opened := make(chan struct{}, 2)
	conn := NewConn(dialer, ConnConfig{
		URL:           "wss://example.test/ws",
		AutoReconnect: true,
		Reconnection:  ReconnectPolicy{MaxAttempts: 3, Delay: time.Millisecond},
	}, ConnCallbacks{
		OnOpen: func() { opened <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := conn.Connect(ctx); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	<-opened
	cancel()

	dialer.socket(0).peerClose(1006, "going away")

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatalf("expected the redial to succeed after the connect context was cancelled")
	}
	if dialer.dials() != 2 {
		t.Fatalf("expected exactly one redial, got %d dials", dialer.dials())
	}
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	reconnecting := make(chan struct{}, 1)
	conn := NewConn(dialer, ConnConfig{
		URL:           "wss://example.test/ws",
		AutoReconnect: true,
		Reconnection:  ReconnectPolicy{MaxAttempts: 3, Delay: 50 * time.Millisecond},
	}, ConnCallbacks{
		OnReconnecting: func(int, time.Duration) { reconnecting <- struct{}{} },
	})

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	dialer.socket(0).peerClose(1006, "going away")
	<-reconnecting

	if err := conn.Disconnect(); err != nil {
		t.Fatalf("expected disconnect to succeed, got %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if dialer.dials() != 1 {
		t.Fatalf("expected cancelled timer to never dial, got %d dials", dialer.dials())
	}
}
