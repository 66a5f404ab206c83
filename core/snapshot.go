package session

import (
	"github.com/jinzhu/copier"

	"github.com/calehall/tutor-core/core/board"
	"github.com/calehall/tutor-core/core/narration"
	"github.com/calehall/tutor-core/core/transcript"
)

// Snapshot is a point-in-time copy of everything a renderer needs to
// redraw the session from scratch. Mutating it does not touch the
// live session.
type Snapshot struct {
	SessionID string
	Lifecycle Lifecycle

	Turn       TurnState
	Playback   narration.State
	Generating bool

	Difficulty     Difficulty
	Progress       float64
	Status         string
	LastCheckpoint int

	Transcript []transcript.Entry

	Board       []board.Action
	BoardCursor int

	GateOpen bool
	GateKind string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snapshot := Snapshot{
		SessionID:      s.sessionID,
		Lifecycle:      s.lifecycle,
		Turn:           s.turn,
		Generating:     s.generating,
		Difficulty:     s.difficulty,
		Progress:       s.progress,
		Status:         s.status,
		LastCheckpoint: s.lastCheckpoint,
	}
	s.mu.RUnlock()

	snapshot.Playback = s.narration.State()

	copier.Copy(&snapshot.Transcript, s.assembler.Entries())
	copier.Copy(&snapshot.Board, s.board.Actions())
	snapshot.BoardCursor = s.board.Cursor()

	if kind, _, held := s.gate.Current(); held {
		snapshot.GateOpen = true
		snapshot.GateKind = string(kind)
	}

	return snapshot
}
