// Package session orchestrates a live tutoring session on the
// client side. It owns the event loop that folds server frames into
// the transcript, the whiteboard, narration playback, and the
// interactive-block gate, and it routes every user intent back
// through the transport.
//
// All inbound frames are processed one at a time on a single
// runtime goroutine; handlers run to completion before the next
// frame is taken off the queue.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/calehall/tutor-core/core/audio"
	"github.com/calehall/tutor-core/core/board"
	"github.com/calehall/tutor-core/core/events"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/narration"
	"github.com/calehall/tutor-core/core/transcript"
	"github.com/calehall/tutor-core/core/transport"
	"github.com/calehall/tutor-core/core/voice"
)

// Lifecycle is where the session stands relative to the server.
type Lifecycle string

const (
	LifecycleAbsent       Lifecycle = "absent"
	LifecycleConnecting   Lifecycle = "connecting"
	LifecycleConnected    Lifecycle = "connected"
	LifecycleReconnecting Lifecycle = "reconnecting"
	LifecycleEnded        Lifecycle = "ended"
)

// TurnState says who holds the floor.
type TurnState string

const (
	TurnStateTeaching       TurnState = "teaching"
	TurnStatePaused         TurnState = "paused"
	TurnStateCapturingVoice TurnState = "capturing-voice"
)

type Session struct {
	transport transport.Transport
	assembler *transcript.Assembler
	board     *board.Reducer
	gate      *gate.Gate
	narration *narration.Controller
	voice     *voice.CaptureSession

	runtime    *sessionRuntime
	emit       eventEmitter
	runOptions RunOptions

	baseContext context.Context
	closeOnce   sync.Once

	mu        sync.RWMutex
	sessionID string
	lifecycle Lifecycle

	turn            TurnState
	turnBeforeVoice TurnState
	generating      bool
	awaitingVoice   bool

	difficulty Difficulty
	progress   float64
	status     string

	lastCheckpoint int

	// pendingNarration tracks a sealed turn still waiting for its
	// server clip; the fallback timer fires if none arrives.
	pendingNarration *pendingNarration

	assemblerOpts []transcript.AssemblerOption
	boardOpts     []board.ReducerOption
	audioOut      narration.Output
	synthesizer   narration.Synthesizer
	capturer      voice.Capturer
	transcriber   Transcriber

	// voiceParts accumulates locally transcribed utterances of the
	// open voice window until the window closes.
	voiceParts []string

	unsubscribes []func()
}

type pendingNarration struct {
	text     string
	streamed string
	starved  bool
	timer    *time.Timer
}

// narrationFallbackDelay is how long a sealed turn waits for its
// server clip before narration falls back to local synthesis.
const narrationFallbackDelay = 1500 * time.Millisecond

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		runtime:     newSessionRuntime(),
		emit:        noopEventEmitter,
		baseContext: context.Background(),
		lifecycle:   LifecycleAbsent,
		turn:        TurnStateTeaching,
		difficulty:  Difficulty{Level: 3, Title: difficultyTitles[3]},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.assembler = transcript.NewAssembler(s.assemblerOpts...)
	s.gate = gate.New(gate.WithResolvedCallback(s.onGateResolved))

	boardOpts := append([]board.ReducerOption{
		board.WithRevealGuard(s.gate.IsOpen),
		board.WithRevealCallback(func(index int, action board.Action) {
			s.emit(events.NewBoardActionRevealed(index, string(action.Kind)))
		}),
	}, s.boardOpts...)
	s.board = board.NewReducer(boardOpts...)

	if s.audioOut == nil {
		s.audioOut = noopOutput{}
	}
	narrationOpts := []narration.Option{
		narration.WithSuppressionGuard(s.gate.IsOpen),
		narration.WithPlaybackBeganCallback(func(source narration.Source) {
			s.emit(events.NewPlaybackStarted(events.PlaybackSource(source)))
		}),
		narration.WithPlaybackEndedCallback(func(spoken string) {
			s.emit(events.NewPlaybackEnded(spoken))
		}),
	}
	if s.synthesizer != nil {
		narrationOpts = append(narrationOpts, narration.WithSynthesizer(s.synthesizer))
	}
	s.narration = narration.NewController(s.audioOut, narrationOpts...)

	if s.capturer != nil {
		sink := func(chunk []byte) error { return s.transport.SendAudio(chunk) }
		if s.transcriber != nil {
			sink = func(chunk []byte) error { return s.transcriber.SendAudio(chunk) }
		}
		s.voice = voice.NewCaptureSession(s.capturer, sink,
			voice.WithErrorCallback(s.onVoiceCaptureError),
		)
	}

	return s
}

// Start connects the session and begins processing frames. With a
// previous session id the server replays the session's history;
// otherwise a fresh session is started. Call Start at most once per
// Session instance.
func (s *Session) Start(ctx context.Context, opts ...RunOption) (string, error) {
	if s.runtime.isClosed() {
		logger.Warn("Session already closed, skipping start")
		return "", fmt.Errorf("session is closed")
	}

	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	s.runOptions = RunOptions{}
	for _, opt := range opts {
		opt(&s.runOptions)
	}
	s.emit = newCallbackEventEmitter(s.runOptions)
	s.baseContext = ctx

	s.subscribe()

	s.setLifecycle(LifecycleConnecting)

	sessionID, err := s.transport.Connect(ctx, s.runOptions.resumeSessionID)
	if err != nil {
		err = fmt.Errorf("failed to connect session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.setLifecycle(LifecycleAbsent)
		return "", err
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.mu.Unlock()

	if started := s.runtime.start(s); started {
		go func() {
			<-ctx.Done()
			s.Close()
		}()
	}

	return sessionID, nil
}

func (s *Session) subscribe() {
	kinds := []transport.Kind{
		transport.KindStatus,
		transport.KindTeacherTextDelta,
		transport.KindTeacherTextFinal,
		transport.KindBoardAction,
		transport.KindHistory,
		transport.KindVoiceTranscription,
		transport.KindCheckpoint,
		transport.KindError,
		transport.KindAudioClip,
		transport.KindConnected,
		transport.KindDisconnected,
		transport.KindReconnecting,
		transport.KindReconnectFailed,
	}
	for _, kind := range kinds {
		s.unsubscribes = append(s.unsubscribes, s.transport.On(kind, func(msg transport.Message) {
			if !s.runtime.enqueue(msg) {
				logger.Warn("Dropped frame, session runtime not accepting", "kind", msg.WireKind())
			}
		}))
	}
}

// Close tears the session down: narration stops, voice capture is
// released, the transport is closed, and the runtime drains.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.narration.Stop()

		if s.voice != nil {
			if err := s.voice.Stop(); err != nil {
				recordedErr := fmt.Errorf("failed to release voice capture: %w", err)
				span := trace.SpanFromContext(s.baseContext)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
			}
		}

		for _, unsubscribe := range s.unsubscribes {
			unsubscribe()
		}

		if err := s.transport.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close transport: %w", err)
			span := trace.SpanFromContext(s.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		s.runtime.end()
		s.runtime.waitUntilEnded()
		s.setLifecycle(LifecycleEnded)
	})
}

// SessionID returns the id in effect, empty before Start and after
// the server reports the session gone.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *Session) Lifecycle() Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lifecycle
}

func (s *Session) setLifecycle(lifecycle Lifecycle) {
	s.mu.Lock()
	s.lifecycle = lifecycle
	s.mu.Unlock()
}

// Turn returns the current turn state.
func (s *Session) Turn() TurnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turn
}

func (s *Session) setTurn(turn TurnState) {
	s.mu.Lock()
	changed := s.turn != turn
	s.turn = turn
	s.mu.Unlock()

	if changed {
		s.emit(events.NewTurnStateChanged(string(turn)))
	}
}

// Playback returns the narration state.
func (s *Session) Playback() narration.State {
	return s.narration.State()
}

// Difficulty returns the last difficulty the server reported.
func (s *Session) Difficulty() Difficulty {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.difficulty
}

// Transcript returns a copy of the transcript in turn order.
func (s *Session) Transcript() []transcript.Entry {
	return s.assembler.Entries()
}

// Board returns a copy of the visible whiteboard sequence.
func (s *Session) Board() []board.Action {
	return s.board.Actions()
}

// noopOutput keeps the narration controller safe to construct
// without a speaker, as in tests and headless use.
type noopOutput struct{}

func (noopOutput) SendAudio([]byte) error { return nil }
func (noopOutput) ClearBuffer()           {}
func (noopOutput) AwaitMark() error       { return nil }
func (noopOutput) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncodingInfo()
}
