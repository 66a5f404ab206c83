// Package board maintains the whiteboard of a tutoring session: a
// bounded, ordered list of rendering actions and a reveal cursor
// that presents them one at a time, the way a teacher writes while
// talking.
package board

import "encoding/json"

type Kind string

const (
	KindWriteTitle     Kind = "WRITE_TITLE"
	KindWriteBullet    Kind = "WRITE_BULLET"
	KindWriteStep      Kind = "WRITE_STEP"
	KindHighlight      Kind = "HIGHLIGHT"
	KindShowImage      Kind = "SHOW_IMAGE"
	KindDrawDiagram    Kind = "DRAW_DIAGRAM"
	KindShowQuiz       Kind = "SHOW_QUIZ"
	KindShowFlashcards Kind = "SHOW_FLASHCARDS"
	KindShowReward     Kind = "SHOW_REWARD"
	KindClear          Kind = "CLEAR"
)

// Action is one whiteboard instruction. The payload shape depends on
// the kind.
type Action struct {
	Kind    Kind
	Payload json.RawMessage
}

// textual reports whether the action's reveal completes through its
// own rendering (typewriter text) rather than after a dwell.
func (a Action) textual() bool {
	switch a.Kind {
	case KindWriteTitle, KindWriteBullet, KindWriteStep:
		return true
	}
	return false
}

// Disposition says what Push did with an action.
type Disposition int

const (
	// DispositionStored means the action joined the visible sequence.
	DispositionStored Disposition = iota
	// DispositionCleared means the action wiped the board.
	DispositionCleared
	// DispositionGating means the action must be routed to the
	// interaction gate instead of the board.
	DispositionGating
	// DispositionReward means the action is a one-shot level-up
	// notification, not board content.
	DispositionReward
)
