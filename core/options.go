package realtime

import (
	"github.com/ebooth1202/agent-c-framework-sub007/core/transport"
)

type ClientOption func(*Client)

// WithAutoReconnect toggles automatic reconnection after abnormal closure.
// Enabled by default.
func WithAutoReconnect(enabled bool) ClientOption {
	return func(c *Client) { c.autoReconnect = enabled }
}

// WithReconnection tunes the backoff schedule. Zero fields keep defaults.
func WithReconnection(policy transport.ReconnectPolicy) ClientOption {
	return func(c *Client) { c.reconnection = policy }
}

// WithDialer injects the socket dialer. Tests use this to substitute
// per-instance fakes; production code keeps the websocket dialer.
func WithDialer(dialer transport.Dialer) ClientOption {
	return func(c *Client) { c.dialer = dialer }
}

// WithPath overrides the fixed connection path appended to the base URL.
func WithPath(path string) ClientOption {
	return func(c *Client) { c.path = path }
}
