package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/calehall/tutor-core/core/board"
	"github.com/calehall/tutor-core/core/events"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/narration"
	"github.com/calehall/tutor-core/core/speechtotext"
	"github.com/calehall/tutor-core/core/transport"
)

// localVoiceFlushDelay bounds how long a closed voice window waits
// for the transcriber's final utterance.
const localVoiceFlushDelay = 2 * time.Second

// SendMessage submits a typed user turn. A message sent while the
// teacher is still speaking or generating counts as an interruption:
// local playback stops immediately and the server is told to abandon
// the in-flight turn. While a voice window is open the call is
// rejected; the microphone owns the user's turn until the window
// closes.
func (s *Session) SendMessage(text string) error {
	if s.Turn() == TurnStateCapturingVoice {
		return fmt.Errorf("voice capture in progress")
	}
	return s.submitUserMessage(text)
}

func (s *Session) submitUserMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	speaking := s.narration.State() == narration.StateSpeaking

	s.mu.Lock()
	isInterruption := speaking || s.generating
	sessionID := s.sessionID
	s.mu.Unlock()

	if speaking {
		s.narration.Stop()
	}

	if err := s.transport.Send(transport.NewUserMessage(sessionID, text, isInterruption)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	entry := s.assembler.AddUser(text)
	s.emit(events.NewUserMessageSent(text, isInterruption))
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))

	s.setTurn(TurnStateTeaching)
	return nil
}

// Pause halts the lesson: narration stops and the server holds the
// teaching flow until Resume.
func (s *Session) Pause() error {
	s.narration.Stop()

	if err := s.transport.Send(transport.NewInterrupt(s.SessionID(), "user_pause", "")); err != nil {
		return fmt.Errorf("failed to pause session: %w", err)
	}

	s.setTurn(TurnStatePaused)
	return nil
}

// Resume continues the lesson from the last checkpoint the server
// reported.
func (s *Session) Resume() error {
	s.mu.RLock()
	stepID := s.lastCheckpoint
	sessionID := s.sessionID
	s.mu.RUnlock()

	if err := s.transport.Send(transport.NewResume(sessionID, stepID)); err != nil {
		return fmt.Errorf("failed to resume session: %w", err)
	}

	s.setTurn(TurnStateTeaching)
	return nil
}

// ChangeDifficulty asks the server to reshape the remaining lesson
// at the given level. The session's own difficulty updates when the
// server confirms through a status frame.
func (s *Session) ChangeDifficulty(level int) error {
	if _, err := DifficultyForLevel(level); err != nil {
		return err
	}

	if err := s.transport.Send(transport.NewChangeDifficulty(s.SessionID(), level)); err != nil {
		return fmt.Errorf("failed to change difficulty: %w", err)
	}
	return nil
}

// RequestQuiz asks for an ad-hoc quiz over the material covered so
// far; the quiz arrives as a board action and opens the gate.
func (s *Session) RequestQuiz() error {
	if err := s.transport.Send(transport.NewRequestQuiz(s.SessionID())); err != nil {
		return fmt.Errorf("failed to request quiz: %w", err)
	}
	return nil
}

// RequestFlashcards asks for a flashcard deck over the material
// covered so far.
func (s *Session) RequestFlashcards() error {
	if err := s.transport.Send(transport.NewRequestFlashcards(s.SessionID())); err != nil {
		return fmt.Errorf("failed to request flashcards: %w", err)
	}
	return nil
}

// RestoreBoardAction replays a previously evicted action back onto
// the server-side board state, as when the user scrolls back to it.
func (s *Session) RestoreBoardAction(action board.Action) error {
	wireAction := transport.Action{Kind: string(action.Kind), Payload: action.Payload}
	if err := s.transport.Send(transport.NewRestoreBoardAction(s.SessionID(), wireAction)); err != nil {
		return fmt.Errorf("failed to restore board action: %w", err)
	}
	return nil
}

// FinishBoardReveal tells the board the renderer finished animating
// the current text action, releasing the next reveal.
func (s *Session) FinishBoardReveal() {
	s.board.FinishReveal()
}

// StartVoiceCapture opens a microphone window. If the teacher is
// speaking the lesson is paused first; chunks stream to the server
// until StopVoiceCapture.
func (s *Session) StartVoiceCapture() error {
	if s.voice == nil {
		return fmt.Errorf("no voice capturer configured")
	}

	if s.Turn() == TurnStateCapturingVoice {
		return nil
	}

	if s.narration.State() == narration.StateSpeaking {
		if err := s.Pause(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.turnBeforeVoice = s.turn
	s.mu.Unlock()

	if err := s.openVoiceChannel(); err != nil {
		return err
	}

	if err := s.voice.Start(s.baseContext); err != nil {
		s.surfaceVoiceFailure(fmt.Sprintf("microphone unavailable: %v", err))
		return err
	}

	s.setTurn(TurnStateCapturingVoice)
	s.emit(events.NewVoiceCaptureStarted())
	return nil
}

// StopVoiceCapture closes the microphone window and waits for the
// server's transcription of it. The recorded speech becomes a user
// turn once the transcription frame lands.
func (s *Session) StopVoiceCapture() error {
	if s.Turn() != TurnStateCapturingVoice {
		return nil
	}

	if err := s.voice.Stop(); err != nil {
		logger.Warn("Failed to release voice capture", "error", err)
	}

	s.mu.Lock()
	s.awaitingVoice = true
	s.mu.Unlock()

	if err := s.closeVoiceChannel(); err != nil {
		s.mu.Lock()
		s.awaitingVoice = false
		s.mu.Unlock()
		return err
	}

	s.emit(events.NewVoiceCaptureEnded())
	return nil
}

// openVoiceChannel starts whichever voice pipeline is configured:
// the server's, via a toggle frame, or the local transcriber.
func (s *Session) openVoiceChannel() error {
	if s.transcriber == nil {
		if err := s.transport.Send(transport.NewToggleVoice(s.SessionID(), true)); err != nil {
			return fmt.Errorf("failed to open voice channel: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.voiceParts = nil
	s.mu.Unlock()

	err := s.transcriber.Transcribe(s.baseContext,
		speechtotext.WithTranscriptionCallback(s.onLocalTranscript))
	if err != nil {
		return fmt.Errorf("failed to open transcription stream: %w", err)
	}
	return nil
}

func (s *Session) closeVoiceChannel() error {
	if s.transcriber == nil {
		if err := s.transport.Send(transport.NewToggleVoice(s.SessionID(), false)); err != nil {
			return fmt.Errorf("failed to close voice channel: %w", err)
		}
		return nil
	}

	if err := s.transcriber.StopStream(); err != nil {
		logger.Warn("Failed to close transcription stream", "error", err)
	}

	// The stream flushes its last utterance asynchronously; if none
	// lands in time, the window resolves as empty.
	time.AfterFunc(localVoiceFlushDelay, func() {
		s.mu.Lock()
		awaiting := s.awaitingVoice
		text := strings.Join(s.voiceParts, " ")
		s.voiceParts = nil
		s.mu.Unlock()

		if awaiting {
			s.runtime.enqueue(&transport.VoiceTranscription{Text: text})
		}
	})
	return nil
}

// onLocalTranscript collects finished utterances of the open voice
// window. Once the window is closed, the joined text takes the same
// path a server transcription frame would.
func (s *Session) onLocalTranscript(text string) {
	s.mu.Lock()
	s.voiceParts = append(s.voiceParts, text)
	if !s.awaitingVoice {
		s.mu.Unlock()
		return
	}
	full := strings.Join(s.voiceParts, " ")
	s.voiceParts = nil
	s.mu.Unlock()

	s.runtime.enqueue(&transport.VoiceTranscription{Text: full})
}

// onVoiceCaptureError fires when streaming a chunk fails; the
// capture session has already released the microphone.
func (s *Session) onVoiceCaptureError(err error) {
	logger.Warn("Voice capture aborted", "error", err)
	s.surfaceVoiceFailure(err.Error())
}

func (s *Session) surfaceVoiceFailure(reason string) {
	s.mu.Lock()
	s.awaitingVoice = false
	previousTurn := s.turnBeforeVoice
	s.mu.Unlock()

	entry := s.assembler.AddSystem("Voice input failed. Check your microphone or type your question instead.")
	s.emit(events.NewTranscriptEntryAdded(string(entry.Role), entry.Text, true))
	s.emit(events.NewVoiceCaptureFailed(reason))
	s.setTurn(previousTurn)
}

// SubmitQuizAnswers grades the open quiz against the given option
// indexes, one per question, and closes the gate. The verdict is
// reported back to the server so the lesson can adapt.
func (s *Session) SubmitQuizAnswers(answers []int) (gate.QuizResult, error) {
	kind, payload, held := s.gate.Current()
	if !held || kind != gate.KindQuiz {
		return gate.QuizResult{}, fmt.Errorf("no quiz is open")
	}

	quiz, err := gate.ParseQuizPayload(payload)
	if err != nil {
		return gate.QuizResult{}, fmt.Errorf("failed to grade quiz: %w", err)
	}

	result := quiz.Evaluate(answers)
	s.gate.Close(gate.Resolution{Quiz: result})
	return result, nil
}

// DismissGate closes the open interactive block without an answer.
// Dismissing a quiz sends nothing upstream.
func (s *Session) DismissGate() error {
	if !s.gate.IsOpen() {
		return fmt.Errorf("no interactive block is open")
	}

	s.gate.Close(gate.Resolution{Dismissed: true})
	return nil
}
