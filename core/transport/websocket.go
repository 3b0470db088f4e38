package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CloseNormal is the clean close code; any other code is abnormal closure.
const CloseNormal = websocket.CloseNormalClosure

const closeWriteTimeout = time.Second

// WebsocketDialer opens gorilla/websocket connections.
type WebsocketDialer struct {
	// Dialer overrides the underlying dialer, nil means the default.
	Dialer *websocket.Dialer
}

func (d *WebsocketDialer) Dial(ctx context.Context, rawURL string, callbacks SocketCallbacks) (Socket, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection: %w", err)
	}

	socket := &websocketSocket{conn: conn, callbacks: callbacks.withDefaults()}
	socket.callbacks.OnOpen()
	go socket.readPump()

	return socket, nil
}

type websocketSocket struct {
	conn      *websocket.Conn
	callbacks SocketCallbacks

	writeMu sync.Mutex
	closed  bool
}

func (s *websocketSocket) readPump() {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			code, reason := closeDetails(err)
			if code != CloseNormal && !s.wasClosed() {
				s.callbacks.OnError(err)
			}
			_ = s.conn.Close()
			s.callbacks.OnClose(code, reason)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.callbacks.OnText(msg)
		case websocket.BinaryMessage:
			s.callbacks.OnBinary(msg)
		}
	}
}

// closeDetails extracts the close code and reason from a read error. Errors
// that are not close frames map to abnormal closure (1006).
func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}

func (s *websocketSocket) SendText(data []byte) error {
	return s.write(websocket.TextMessage, data)
}

func (s *websocketSocket) SendBinary(data []byte) error {
	return s.write(websocket.BinaryMessage, data)
}

func (s *websocketSocket) write(msgType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return ErrSocketClosed
	}
	if err := s.conn.WriteMessage(msgType, data); err != nil {
		return fmt.Errorf("failed to write to socket: %w", err)
	}
	return nil
}

func (s *websocketSocket) Close(code int, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	message := websocket.FormatCloseMessage(code, reason)
	if err := s.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeWriteTimeout)); err != nil {
		if closeErr := s.conn.Close(); closeErr != nil {
			return fmt.Errorf("failed to close socket: %w", errors.Join(err, closeErr))
		}
	}
	return nil
}

func (s *websocketSocket) wasClosed() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.closed
}
