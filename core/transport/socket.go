// Package transport owns the physical duplex socket: the adapter around one
// websocket connection, the connection-lifecycle state machine, and the
// reconnection policy that drives it after abnormal closure.
package transport

import "context"

// SocketCallbacks receive raw frame and lifecycle notifications from a
// Socket. All callbacks must be non-nil when passed to a Dialer.
type SocketCallbacks struct {
	OnOpen   func()
	OnText   func(data []byte)
	OnBinary func(data []byte)
	OnClose  func(code int, reason string)
	OnError  func(err error)
}

func (cb SocketCallbacks) withDefaults() SocketCallbacks {
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
	return cb
}

// Socket is one physical duplex connection. It carries no policy: open,
// close, send, nothing else.
type Socket interface {
	SendText(data []byte) error
	SendBinary(data []byte) error
	Close(code int, reason string) error
}

// Dialer produces live Sockets. It is the injection seam for per-test fakes;
// production code uses WebsocketDialer.
type Dialer interface {
	Dial(ctx context.Context, rawURL string, callbacks SocketCallbacks) (Socket, error)
}
