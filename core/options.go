package session

import (
	"context"
	"time"

	"github.com/calehall/tutor-core/core/board"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/narration"
	"github.com/calehall/tutor-core/core/speechtotext"
	"github.com/calehall/tutor-core/core/transcript"
	"github.com/calehall/tutor-core/core/transport"
	"github.com/calehall/tutor-core/core/voice"
)

type SessionOption func(*Session)

// WithTransport sets the wire transport the session runs over.
// Required; the websocket client in core/transport/ws is the usual
// choice.
func WithTransport(t transport.Transport) SessionOption {
	return func(s *Session) { s.transport = t }
}

// WithAudioOutput sets the speaker narration plays through. Without
// one, narration state still transitions but no audio is produced.
func WithAudioOutput(out narration.Output) SessionOption {
	return func(s *Session) { s.audioOut = out }
}

// WithSynthesizer sets the local text-to-speech fallback used when a
// teacher turn arrives without a server narration clip.
func WithSynthesizer(synth narration.Synthesizer) SessionOption {
	return func(s *Session) { s.synthesizer = synth }
}

// WithVoiceCapturer sets the microphone source for voice input.
// Without one, StartVoiceCapture returns an error.
func WithVoiceCapturer(capturer voice.Capturer) SessionOption {
	return func(s *Session) { s.capturer = capturer }
}

// Transcriber is the realtime transcription stream used when the
// server does not transcribe voice windows itself. The deepgram
// client in core/speechtotext satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

// WithLocalTranscriber routes voice windows through a local
// transcription stream instead of the server's voice pipeline:
// captured chunks go to the transcriber, and its transcript becomes
// the user turn.
func WithLocalTranscriber(transcriber Transcriber) SessionOption {
	return func(s *Session) { s.transcriber = transcriber }
}

// WithDeltaFallbackThreshold tunes how short the streamed text of a
// turn may be (in runes) before delta delivery is considered to have
// failed and narration falls back to the full sealed text.
func WithDeltaFallbackThreshold(runes int) SessionOption {
	return func(s *Session) {
		s.assemblerOpts = append(s.assemblerOpts, transcript.WithFallbackThreshold(runes))
	}
}

// WithBoardDwell tunes how long non-text board actions hold the
// reveal cursor before the next action is shown.
func WithBoardDwell(dwell time.Duration) SessionOption {
	return func(s *Session) {
		s.boardOpts = append(s.boardOpts, board.WithDwell(dwell))
	}
}

type RunOptions struct {
	resumeSessionID string

	onConnected       func(sessionID string)
	onDisconnected    func(reason string)
	onReconnecting    func(attempt int)
	onReconnectFailed func()
	onSessionError    func(code, message string)

	onStatus     func(status string, level int, title string, progress float64, message string)
	onCheckpoint func(stepID int, summary string)

	onTeacherSegment     func(segment string)
	onTeacherSealed      func(text string)
	onTranscriptEntry    func(role, text string, final bool)
	onTranscriptReplaced func(entries int)

	onBoardActionQueued   func(kind string)
	onBoardActionRevealed func(index int, kind string)
	onBoardCleared        func()
	onReward              func()

	onPlaybackStarted func(source string)
	onPlaybackEnded   func(transcript string)

	onGateOpened       func(kind string)
	onGateResolved     func(kind, summary string)
	onQuizOpened       func(quiz gate.QuizPayload)
	onFlashcardsOpened func(deck gate.FlashcardPayload)

	onTurnStateChanged func(state string)
	onUserMessageSent  func(text string, isInterruption bool)

	onVoiceCaptureStarted func()
	onVoiceCaptureEnded   func()
	onVoiceTranscript     func(transcript string)
	onVoiceCaptureFailed  func(reason string)
}

type RunOption func(*RunOptions)

// WithResumeSession reattaches to a previous session instead of
// starting a new one; the server replays its transcript after the
// socket opens.
func WithResumeSession(sessionID string) RunOption {
	return func(o *RunOptions) { o.resumeSessionID = sessionID }
}

func WithConnectedCallback(callback func(sessionID string)) RunOption {
	return func(o *RunOptions) { o.onConnected = callback }
}

func WithDisconnectedCallback(callback func(reason string)) RunOption {
	return func(o *RunOptions) { o.onDisconnected = callback }
}

func WithReconnectingCallback(callback func(attempt int)) RunOption {
	return func(o *RunOptions) { o.onReconnecting = callback }
}

func WithReconnectFailedCallback(callback func()) RunOption {
	return func(o *RunOptions) { o.onReconnectFailed = callback }
}

func WithSessionErrorCallback(callback func(code, message string)) RunOption {
	return func(o *RunOptions) { o.onSessionError = callback }
}

// WithStatusCallback registers a callback for lesson status frames:
// overall status, current difficulty, and progress through the
// lesson plan.
func WithStatusCallback(callback func(status string, level int, title string, progress float64, message string)) RunOption {
	return func(o *RunOptions) { o.onStatus = callback }
}

func WithCheckpointCallback(callback func(stepID int, summary string)) RunOption {
	return func(o *RunOptions) { o.onCheckpoint = callback }
}

// WithTeacherSegmentCallback registers a callback for each streamed
// fragment of the in-flight teacher turn.
func WithTeacherSegmentCallback(callback func(segment string)) RunOption {
	return func(o *RunOptions) { o.onTeacherSegment = callback }
}

// WithTeacherSealedCallback registers a callback for the
// authoritative text of a teacher turn once it closes.
func WithTeacherSealedCallback(callback func(text string)) RunOption {
	return func(o *RunOptions) { o.onTeacherSealed = callback }
}

func WithTranscriptEntryCallback(callback func(role, text string, final bool)) RunOption {
	return func(o *RunOptions) { o.onTranscriptEntry = callback }
}

// WithTranscriptReplacedCallback fires when a session resume swaps
// the local transcript for the server's replayed history.
func WithTranscriptReplacedCallback(callback func(entries int)) RunOption {
	return func(o *RunOptions) { o.onTranscriptReplaced = callback }
}

func WithBoardActionQueuedCallback(callback func(kind string)) RunOption {
	return func(o *RunOptions) { o.onBoardActionQueued = callback }
}

func WithBoardActionRevealedCallback(callback func(index int, kind string)) RunOption {
	return func(o *RunOptions) { o.onBoardActionRevealed = callback }
}

func WithBoardClearedCallback(callback func()) RunOption {
	return func(o *RunOptions) { o.onBoardCleared = callback }
}

func WithRewardCallback(callback func()) RunOption {
	return func(o *RunOptions) { o.onReward = callback }
}

func WithPlaybackStartedCallback(callback func(source string)) RunOption {
	return func(o *RunOptions) { o.onPlaybackStarted = callback }
}

func WithPlaybackEndedCallback(callback func(transcript string)) RunOption {
	return func(o *RunOptions) { o.onPlaybackEnded = callback }
}

func WithGateOpenedCallback(callback func(kind string)) RunOption {
	return func(o *RunOptions) { o.onGateOpened = callback }
}

func WithGateResolvedCallback(callback func(kind, summary string)) RunOption {
	return func(o *RunOptions) { o.onGateResolved = callback }
}

// WithQuizOpenedCallback hands over the quiz content when a quiz
// block opens; answers come back through
// [Session.SubmitQuizAnswers].
func WithQuizOpenedCallback(callback func(quiz gate.QuizPayload)) RunOption {
	return func(o *RunOptions) { o.onQuizOpened = callback }
}

func WithFlashcardsOpenedCallback(callback func(deck gate.FlashcardPayload)) RunOption {
	return func(o *RunOptions) { o.onFlashcardsOpened = callback }
}

func WithTurnStateChangedCallback(callback func(state string)) RunOption {
	return func(o *RunOptions) { o.onTurnStateChanged = callback }
}

func WithUserMessageSentCallback(callback func(text string, isInterruption bool)) RunOption {
	return func(o *RunOptions) { o.onUserMessageSent = callback }
}

func WithVoiceCaptureStartedCallback(callback func()) RunOption {
	return func(o *RunOptions) { o.onVoiceCaptureStarted = callback }
}

func WithVoiceCaptureEndedCallback(callback func()) RunOption {
	return func(o *RunOptions) { o.onVoiceCaptureEnded = callback }
}

func WithVoiceTranscriptCallback(callback func(transcript string)) RunOption {
	return func(o *RunOptions) { o.onVoiceTranscript = callback }
}

func WithVoiceCaptureFailedCallback(callback func(reason string)) RunOption {
	return func(o *RunOptions) { o.onVoiceCaptureFailed = callback }
}
