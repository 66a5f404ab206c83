package session

import (
	"context"
	"strings"
	"time"

	"github.com/calehall/tutor-core/core/board"
	"github.com/calehall/tutor-core/core/events"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/transcript"
	"github.com/calehall/tutor-core/core/transport"
)

func (s *Session) handleFrame(ctx context.Context, msg transport.Message) {
	switch frame := msg.(type) {
	case *transport.Status:
		s.handleStatus(frame)
	case *transport.TeacherTextDelta:
		s.handleTeacherDelta(frame)
	case *transport.TeacherTextFinal:
		s.handleTeacherFinal(frame)
	case *transport.BoardAction:
		s.applyBoardAction(frame.Action)
	case *transport.History:
		s.handleHistory(frame)
	case *transport.VoiceTranscription:
		s.handleVoiceTranscription(frame)
	case *transport.Checkpoint:
		s.handleCheckpoint(frame)
	case *transport.Error:
		s.handleSessionError(frame)
	case *transport.AudioClip:
		s.handleAudioClip(frame)
	case *transport.Connected:
		s.handleConnected(frame)
	case *transport.Disconnected:
		s.handleDisconnected(frame)
	case *transport.Reconnecting:
		s.handleReconnecting(frame)
	case *transport.ReconnectFailed:
		s.handleReconnectFailed(frame)
	default:
		logger.Warn("Unhandled frame", "kind", msg.WireKind())
	}
}

func (s *Session) handleStatus(frame *transport.Status) {
	difficulty, err := DifficultyForLevel(frame.DifficultyLevel)
	if err != nil {
		logger.Warn("Status carried unknown difficulty level, keeping current", "level", frame.DifficultyLevel)
		difficulty = s.Difficulty()
	}
	if frame.DifficultyTitle != "" {
		difficulty.Title = frame.DifficultyTitle
	}

	s.mu.Lock()
	s.status = frame.Status
	s.difficulty = difficulty
	s.progress = frame.Progress
	s.mu.Unlock()

	s.emit(events.NewStatusUpdated(frame.Status, difficulty.Level, difficulty.Title, frame.Progress, frame.Message))
}

func (s *Session) handleTeacherDelta(frame *transport.TeacherTextDelta) {
	if frame.Delta == "" {
		return
	}

	s.mu.Lock()
	s.generating = true
	s.mu.Unlock()

	entry := s.assembler.OnDelta(frame.Delta)
	s.emit(events.NewTeacherSegment(frame.Delta))
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, false))
}

func (s *Session) handleTeacherFinal(frame *transport.TeacherTextFinal) {
	streamed := ""
	if inFlight, ok := s.assembler.InFlight(); ok {
		streamed = inFlight.Text
	}

	sealed, starved := s.assembler.OnFinal(frame.Text)
	if starved {
		logger.Warn("Delta stream starved, narration will use sealed text",
			"streamed_runes", len([]rune(streamed)), "sealed_runes", len([]rune(sealed.Text)))
	}

	s.mu.Lock()
	s.generating = false
	s.mu.Unlock()

	s.emit(events.NewTeacherSealed(sealed.Text))
	s.emit(events.NewTranscriptEntryAdded(string(sealed.Role), sealed.Text, true))

	for _, action := range frame.BoardActions {
		s.applyBoardAction(action)
	}

	s.armNarrationFallback(sealed.Text, streamed, starved)
}

// armNarrationFallback holds a sealed turn until either its server
// narration clip arrives or the fallback timer fires and the turn is
// voiced locally.
func (s *Session) armNarrationFallback(text, streamed string, starved bool) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	if s.pendingNarration != nil && s.pendingNarration.timer != nil {
		s.pendingNarration.timer.Stop()
	}
	pending := &pendingNarration{text: text, streamed: streamed, starved: starved}
	pending.timer = time.AfterFunc(narrationFallbackDelay, func() { s.narrationFallback(pending) })
	s.pendingNarration = pending
	s.mu.Unlock()
}

func (s *Session) narrationFallback(pending *pendingNarration) {
	s.mu.Lock()
	if s.pendingNarration != pending {
		s.mu.Unlock()
		return
	}
	s.pendingNarration = nil
	s.mu.Unlock()

	if pending.starved || strings.TrimSpace(pending.streamed) == "" {
		s.narration.Speak(s.baseContext, pending.text)
		return
	}
	s.narration.FinalizeFromStream(s.baseContext, pending.streamed)
}

func (s *Session) handleAudioClip(frame *transport.AudioClip) {
	transcriptText := ""

	s.mu.Lock()
	if s.pendingNarration != nil {
		if s.pendingNarration.timer != nil {
			s.pendingNarration.timer.Stop()
		}
		transcriptText = s.pendingNarration.text
		s.pendingNarration = nil
	}
	s.mu.Unlock()

	s.narration.OnServerAudio(frame.Audio, transcriptText)
}

func (s *Session) applyBoardAction(wireAction transport.Action) {
	action := board.Action{Kind: board.Kind(wireAction.Kind), Payload: wireAction.Payload}

	switch s.board.Push(action) {
	case board.DispositionStored:
		s.emit(events.NewBoardActionQueued(string(action.Kind)))
	case board.DispositionCleared:
		s.emit(events.NewBoardCleared())
	case board.DispositionReward:
		s.emit(events.NewRewardUnlocked())
	case board.DispositionGating:
		s.openGate(action)
	}
}

func (s *Session) openGate(action board.Action) {
	kind := gate.KindQuiz
	if action.Kind == board.KindShowFlashcards {
		kind = gate.KindFlashcards
	}

	var quiz gate.QuizPayload
	var deck gate.FlashcardPayload
	var err error
	switch kind {
	case gate.KindQuiz:
		quiz, err = gate.ParseQuizPayload(action.Payload)
	case gate.KindFlashcards:
		deck, err = gate.ParseFlashcardPayload(action.Payload)
	}
	if err != nil {
		logger.Warn("Dropping malformed interactive block", "kind", kind, "error", err)
		return
	}

	if err := s.gate.Open(kind, action.Payload); err != nil {
		// Duplicate gating actions arrive when the server retries;
		// the first one holds.
		logger.Info("Interactive block already open, dropping duplicate", "kind", kind)
		return
	}

	s.narration.Stop()
	s.emit(events.NewGateOpened(string(kind)))

	switch kind {
	case gate.KindQuiz:
		if s.runOptions.onQuizOpened != nil {
			s.runOptions.onQuizOpened(quiz)
		}
	case gate.KindFlashcards:
		if s.runOptions.onFlashcardsOpened != nil {
			s.runOptions.onFlashcardsOpened(deck)
		}
	}
}

func (s *Session) onGateResolved(resolution gate.Resolution) {
	summary := "dismissed"
	if resolution.Kind == gate.KindQuiz && !resolution.Dismissed {
		summary = resolution.Quiz.Marker()
	}
	s.emit(events.NewGateResolved(string(resolution.Kind), summary))

	if resolution.Kind == gate.KindQuiz && !resolution.Dismissed {
		if err := s.submitUserMessage(resolution.Quiz.Marker()); err != nil {
			logger.Warn("Failed to report quiz result", "error", err)
		}
	}

	// Reveals held back while the block was open resume now.
	s.board.Advance()
}

func (s *Session) handleHistory(frame *transport.History) {
	turns := make([]transcript.Turn, 0, len(frame.History))
	for _, entry := range frame.History {
		turns = append(turns, transcript.Turn{Role: entry.Role, Text: entry.Content})
	}

	entries := s.assembler.OnHistory(turns)
	s.emit(events.NewTranscriptReplaced(len(entries)))
}

func (s *Session) handleVoiceTranscription(frame *transport.VoiceTranscription) {
	s.emit(events.NewVoiceTranscriptReceived(frame.Text))

	s.mu.Lock()
	awaiting := s.awaitingVoice
	s.awaitingVoice = false
	previousTurn := s.turnBeforeVoice
	s.mu.Unlock()

	if !awaiting {
		return
	}

	if strings.TrimSpace(frame.Text) == "" {
		s.assembler.AddSystem("Voice input could not be transcribed. Try again or type your question.")
		s.emit(events.NewVoiceCaptureFailed("empty transcription"))
		s.setTurn(previousTurn)
		return
	}

	if err := s.submitUserMessage(frame.Text); err != nil {
		logger.Warn("Failed to submit voice transcription", "error", err)
		s.emit(events.NewVoiceCaptureFailed(err.Error()))
		s.setTurn(previousTurn)
	}
}

func (s *Session) handleCheckpoint(frame *transport.Checkpoint) {
	s.mu.Lock()
	s.lastCheckpoint = frame.StepID
	s.mu.Unlock()

	s.emit(events.NewCheckpointRecorded(frame.StepID, frame.ShortSummary))
}

func (s *Session) handleSessionError(frame *transport.Error) {
	s.emit(events.NewSessionError(frame.ErrorCode, frame.Message))

	if isSessionGone(frame.ErrorCode, frame.Message) {
		s.forgetSession()
		return
	}

	entry := s.assembler.AddSystem(frame.Message)
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))
}

func isSessionGone(errorCode, message string) bool {
	if strings.EqualFold(errorCode, "SESSION_NOT_FOUND") {
		return true
	}
	return strings.Contains(strings.ToLower(message), "session not found")
}

// forgetSession drops the stored session id so a session the server
// declared gone is never auto-resumed.
func (s *Session) forgetSession() {
	s.mu.Lock()
	s.sessionID = ""
	s.lifecycle = LifecycleAbsent
	s.mu.Unlock()

	entry := s.assembler.AddSystem("The session no longer exists on the server. Start a new one to continue.")
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))
}

func (s *Session) handleConnected(frame *transport.Connected) {
	s.mu.Lock()
	if frame.SessionID != "" {
		s.sessionID = frame.SessionID
	}
	sessionID := s.sessionID
	s.lifecycle = LifecycleConnected
	s.mu.Unlock()

	s.emit(events.NewConnected(sessionID))
}

func (s *Session) handleDisconnected(frame *transport.Disconnected) {
	s.abortVoiceCapture("connection lost")

	// A disconnect because the server no longer knows the session is
	// terminal; the transport will not reconnect it, and resuming the
	// stored id would only hit the same close again.
	if isSessionGone("", frame.Reason) {
		s.forgetSession()
		s.emit(events.NewDisconnected(frame.Reason))
		return
	}

	s.setLifecycle(LifecycleReconnecting)

	entry := s.assembler.AddSystem("Connection lost. Trying to reconnect...")
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))
	s.emit(events.NewDisconnected(frame.Reason))
}

// abortVoiceCapture releases the microphone mid-window, as when the
// transport drops while recording. No transcription will come back
// for the aborted window.
func (s *Session) abortVoiceCapture(reason string) {
	if s.Turn() != TurnStateCapturingVoice {
		return
	}

	if s.voice != nil {
		if err := s.voice.Stop(); err != nil {
			logger.Warn("Failed to release voice capture", "error", err)
		}
	}
	if s.transcriber != nil {
		if err := s.transcriber.StopStream(); err != nil {
			logger.Warn("Failed to close transcription stream", "error", err)
		}
	}

	s.mu.Lock()
	s.awaitingVoice = false
	previousTurn := s.turnBeforeVoice
	s.mu.Unlock()

	s.setTurn(previousTurn)
	s.emit(events.NewVoiceCaptureFailed(reason))
}

func (s *Session) handleReconnecting(frame *transport.Reconnecting) {
	s.setLifecycle(LifecycleReconnecting)
	s.emit(events.NewReconnecting(frame.Attempt))
}

func (s *Session) handleReconnectFailed(*transport.ReconnectFailed) {
	s.setLifecycle(LifecycleEnded)

	entry := s.assembler.AddSystem("Could not reach the server. Your session is saved; reconnect to pick up where you left off.")
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))
	s.emit(events.NewReconnectFailed())
}
