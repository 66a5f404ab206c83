// Package transport defines the wire protocol of a live tutoring
// session and the contract a session runtime uses to talk to the
// server: typed inbound and outbound frames, a per-kind dispatcher,
// and the Transport interface implemented by the websocket client in
// the ws subpackage.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send and SendAudio after Close.
var ErrClosed = errors.New("transport is closed")

// Transport carries frames between the session runtime and the
// tutoring server. Implementations deliver inbound frames through
// the dispatcher registered with On.
type Transport interface {
	// Connect establishes the session. With an empty sessionID a new
	// session is started; with a previous one the server replays the
	// session's history after the socket opens. Returns the session
	// id in effect.
	Connect(ctx context.Context, sessionID string) (string, error)

	// Send writes one typed frame. Returns ErrClosed once the
	// transport has been closed.
	Send(msg Outbound) error

	// SendAudio writes one binary frame of raw voice audio.
	SendAudio(chunk []byte) error

	// On subscribes to inbound frames of the given kind and returns
	// an unsubscribe function.
	On(kind Kind, handler Handler) func()

	// Close tears the connection down. Safe to call more than once.
	Close() error
}
