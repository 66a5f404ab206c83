package events

const (
	// KindConnected identifies session channel establishment.
	KindConnected Kind = "connection.connected"
	// KindDisconnected identifies loss of the session channel.
	KindDisconnected Kind = "connection.disconnected"
	// KindReconnecting identifies an automatic reconnect attempt in progress.
	KindReconnecting Kind = "connection.reconnecting"
	// KindReconnectFailed identifies exhaustion of the bounded reconnect retry.
	KindReconnectFailed Kind = "connection.reconnect_failed"
	// KindSessionError identifies a server-reported session error.
	KindSessionError Kind = "connection.session_error"
)

// Connected marks establishment of the session channel.
type Connected struct {
	Base
	SessionID string
}

// NewConnected creates a connected event.
func NewConnected(sessionID string) Connected {
	return Connected{Base: NewBase(KindConnected), SessionID: sessionID}
}

// Disconnected marks loss of the session channel.
type Disconnected struct {
	Base
	Reason string
}

// NewDisconnected creates a disconnected event.
func NewDisconnected(reason string) Disconnected {
	return Disconnected{Base: NewBase(KindDisconnected), Reason: reason}
}

// Reconnecting marks an automatic reconnect attempt.
type Reconnecting struct {
	Base
	Attempt int
}

// NewReconnecting creates a reconnecting event.
func NewReconnecting(attempt int) Reconnecting {
	return Reconnecting{Base: NewBase(KindReconnecting), Attempt: attempt}
}

// ReconnectFailed marks exhaustion of the bounded reconnect retry.
type ReconnectFailed struct{ Base }

// NewReconnectFailed creates a reconnect failed event.
func NewReconnectFailed() ReconnectFailed {
	return ReconnectFailed{Base: NewBase(KindReconnectFailed)}
}

// SessionError carries a server-reported error code and message.
type SessionError struct {
	Base
	Code    string
	Message string
}

// NewSessionError creates a session error event.
func NewSessionError(code, message string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Code: code, Message: message}
}
