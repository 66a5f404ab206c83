// Package gate holds the single-flight guard around interactive
// blocks (quizzes and flashcard decks). At most one block is open at
// a time; while one is open, narration and board progression are
// suppressed by the owning session.
package gate

import (
	"encoding/json"
	"errors"
	"sync"
)

type Kind string

const (
	KindQuiz       Kind = "quiz"
	KindFlashcards Kind = "flashcards"
)

// ErrAlreadyOpen is returned when a second block tries to open while
// one is held. This happens by protocol: the same gating action can
// be delivered twice, once streamed in realtime and once embedded in
// the turn's closing payload. Callers log it and move on.
var ErrAlreadyOpen = errors.New("an interactive block is already open")

// Resolution is handed to the resolved callback when a block closes.
type Resolution struct {
	Kind Kind

	// Quiz carries the evaluation when Kind is KindQuiz; zero
	// otherwise.
	Quiz QuizResult

	// Dismissed is true when the block was closed without being
	// completed.
	Dismissed bool
}

// Gate is the single-flight guard. All methods are safe for
// concurrent use.
type Gate struct {
	mu      sync.Mutex
	held    bool
	kind    Kind
	payload json.RawMessage

	onResolved func(Resolution)
}

type Option func(*Gate)

// WithResolvedCallback is invoked synchronously as a block closes,
// before Close returns.
func WithResolvedCallback(callback func(Resolution)) Option {
	return func(g *Gate) { g.onResolved = callback }
}

func New(opts ...Option) *Gate {
	gate := &Gate{onResolved: func(Resolution) {}}
	for _, opt := range opts {
		opt(gate)
	}
	return gate
}

// Open claims the gate for one block. Returns ErrAlreadyOpen if a
// block is already held, leaving the held block untouched.
func (g *Gate) Open(kind Kind, payload json.RawMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return ErrAlreadyOpen
	}

	g.held = true
	g.kind = kind
	g.payload = payload
	return nil
}

// Close releases the gate and reports the resolution. Closing an
// unheld gate is a no-op.
func (g *Gate) Close(resolution Resolution) {
	g.mu.Lock()
	if !g.held {
		g.mu.Unlock()
		return
	}
	resolution.Kind = g.kind
	g.held = false
	g.kind = ""
	g.payload = nil
	g.mu.Unlock()

	g.onResolved(resolution)
}

// IsOpen reports whether a block is currently held.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}

// Current returns the held block's kind and raw payload.
func (g *Gate) Current() (Kind, json.RawMessage, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.kind, g.payload, g.held
}
