// Package ws implements the websocket transport for a live tutoring
// session: it starts the session over HTTP, keeps the socket alive
// with bounded reconnects, and feeds decoded frames into a
// transport.Dispatcher.
package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/calehall/tutor-core/core/transport"
)

const (
	startSessionPath = "/learn/session/start"
	socketPathPrefix = "/learn/ws/"

	// closeCodeSessionNotFound is sent by the server when the socket
	// path names a session it does not know.
	closeCodeSessionNotFound = 4004
)

// Client is a transport.Transport over a single websocket connection.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer

	lessonID          string
	userID            string
	initialDifficulty int
	language          string
	authToken         string

	reconnectAttempts int
	reconnectBase     time.Duration
	reconnectCap      time.Duration

	dispatcher *transport.Dispatcher

	conn      *websocket.Conn
	writeMu   sync.Mutex
	sessionID string

	closed    atomic.Bool
	closeOnce sync.Once
}

type Option func(*Client)

// WithLesson sets the lesson and user the session is started for.
func WithLesson(lessonID, userID string) Option {
	return func(c *Client) {
		c.lessonID = lessonID
		c.userID = userID
	}
}

// WithInitialDifficulty sets the difficulty level (1 to 5) requested
// when the session starts.
func WithInitialDifficulty(level int) Option {
	return func(c *Client) { c.initialDifficulty = level }
}

// WithLanguage sets the tutoring language requested when the session
// starts.
func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

// WithHTTPClient overrides the client used for the session start
// request.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithAuthToken sends the given bearer token with the session start
// request and the socket handshake. The token is opaque to the
// client.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithReconnectPolicy bounds the reconnect loop: at most attempts
// tries, starting at base delay and doubling up to cap.
func WithReconnectPolicy(attempts int, base, cap time.Duration) Option {
	return func(c *Client) {
		c.reconnectAttempts = attempts
		c.reconnectBase = base
		c.reconnectCap = cap
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	client := &Client{
		baseURL: parsed,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
		dialer:            websocket.DefaultDialer,
		initialDifficulty: 3,
		language:          "en",
		reconnectAttempts: 5,
		reconnectBase:     500 * time.Millisecond,
		reconnectCap:      8 * time.Second,
		dispatcher:        transport.NewDispatcher(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Connect starts (or resumes) the session and opens the socket. With
// an empty sessionID a new session is requested first; otherwise the
// given session is re-attached and the server replays its history.
func (c *Client) Connect(ctx context.Context, sessionID string) (string, error) {
	ctx, span := tracer.Start(ctx, "connect session")
	defer span.End()

	if c.closed.Load() {
		return "", transport.ErrClosed
	}

	if sessionID == "" {
		var err error
		if sessionID, err = c.startSession(ctx); err != nil {
			err = fmt.Errorf("failed to start session: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	conn, err := c.dial(ctx, sessionID)
	if err != nil {
		err = fmt.Errorf("failed to open socket connection: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	c.writeMu.Lock()
	c.conn = conn
	c.sessionID = sessionID
	c.writeMu.Unlock()

	go c.readPump(conn)

	c.dispatcher.Dispatch(&transport.Connected{SessionID: sessionID})
	return sessionID, nil
}

func (c *Client) startSession(ctx context.Context) (string, error) {
	body, err := json.Marshal(struct {
		LessonID          string `json:"lesson_id"`
		UserID            string `json:"user_id"`
		InitialDifficulty int    `json:"initial_difficulty"`
		Language          string `json:"language"`
	}{
		LessonID:          c.lessonID,
		UserID:            c.userID,
		InitialDifficulty: c.initialDifficulty,
		Language:          c.language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL.JoinPath(startSessionPath).String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var parsed struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.SessionID == "" {
		return "", fmt.Errorf("response carried no session id")
	}

	return parsed.SessionID, nil
}

func (c *Client) dial(ctx context.Context, sessionID string) (*websocket.Conn, error) {
	socketURL := *c.baseURL
	switch socketURL.Scheme {
	case "https":
		socketURL.Scheme = "wss"
	default:
		socketURL.Scheme = "ws"
	}
	socketURL.Path = socketPathPrefix + sessionID

	var header http.Header
	if c.authToken != "" {
		header = http.Header{"Authorization": {"Bearer " + c.authToken}}
	}

	conn, _, err := c.dialer.DialContext(ctx, socketURL.String(), header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Send writes one typed frame to the socket.
func (c *Client) Send(msg transport.Outbound) error {
	if c.closed.Load() {
		return transport.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("socket connection not open")
	}

	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to socket: %w", err)
	}
	return nil
}

// SendAudio writes one binary frame of raw voice audio.
func (c *Client) SendAudio(chunk []byte) error {
	if c.closed.Load() {
		return transport.ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("socket connection not open")
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("failed to write audio to socket: %w", err)
	}
	return nil
}

// On subscribes to inbound frames of the given kind.
func (c *Client) On(kind transport.Kind, handler transport.Handler) func() {
	return c.dispatcher.On(kind, handler)
}

// Close tears the connection down and stops any reconnecting.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.writeMu.Lock()
		conn := c.conn
		c.conn = nil
		c.writeMu.Unlock()

		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	return nil
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) > 0 {
				c.dispatcher.Dispatch(&transport.AudioClip{Audio: msg})
			}
		case websocket.TextMessage:
			parsed, err := transport.Decode(msg)
			if err != nil {
				logger.Warn("Dropped undecodable frame", "error", err)
				continue
			}
			c.dispatcher.Dispatch(parsed)
		}
	}
}

func (c *Client) handleReadError(err error) {
	if c.closed.Load() {
		return
	}

	if websocket.IsCloseError(err, closeCodeSessionNotFound) {
		logger.Warn("Session not found, not reconnecting", "error", err)
		c.dispatcher.Dispatch(&transport.Disconnected{Reason: "session not found"})
		return
	}

	logger.Warn("Socket read failed, reconnecting", "error", err)
	c.dispatcher.Dispatch(&transport.Disconnected{Reason: err.Error()})
	c.reconnect()
}

// reconnect retries the socket with exponential backoff. The session
// id is kept, so the server replays history once the socket is back.
func (c *Client) reconnect() {
	delay := c.reconnectBase
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		if c.closed.Load() {
			return
		}

		c.dispatcher.Dispatch(&transport.Reconnecting{Attempt: attempt})
		time.Sleep(delay)
		if delay *= 2; delay > c.reconnectCap {
			delay = c.reconnectCap
		}

		conn, err := c.dial(context.Background(), c.sessionID)
		if err != nil {
			if websocket.IsCloseError(err, closeCodeSessionNotFound) {
				logger.Warn("Session not found on reconnect, giving up", "error", err)
				c.dispatcher.Dispatch(&transport.Disconnected{Reason: "session not found"})
				return
			}
			if strings.Contains(err.Error(), "bad handshake") {
				logger.Warn("Session rejected on reconnect", "error", err)
				break
			}
			logger.Warn("Reconnect attempt failed", "attempt", attempt, "error", err)
			continue
		}

		c.writeMu.Lock()
		c.conn = conn
		c.writeMu.Unlock()

		go c.readPump(conn)
		c.dispatcher.Dispatch(&transport.Connected{SessionID: c.sessionID})
		return
	}

	c.dispatcher.Dispatch(&transport.ReconnectFailed{})
}
