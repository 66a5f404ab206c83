package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/calehall/tutor-core/core/audio"
	"github.com/calehall/tutor-core/core/gate"
	"github.com/calehall/tutor-core/core/narration"
	"github.com/calehall/tutor-core/core/transport"
)

type fakeTransport struct {
	dispatcher *transport.Dispatcher

	mu     sync.Mutex
	sent   []transport.Outbound
	audio  [][]byte
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{dispatcher: transport.NewDispatcher()}
}

func (t *fakeTransport) Connect(_ context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = "sess-1"
	}
	t.dispatcher.Dispatch(&transport.Connected{SessionID: sessionID})
	return sessionID, nil
}

func (t *fakeTransport) Send(msg transport.Outbound) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) SendAudio(chunk []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.audio = append(t.audio, chunk)
	return nil
}

func (t *fakeTransport) On(kind transport.Kind, handler transport.Handler) func() {
	return t.dispatcher.On(kind, handler)
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) deliver(msg transport.Message) {
	t.dispatcher.Dispatch(msg)
}

func (t *fakeTransport) sentMessages() []transport.Outbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	sent := make([]transport.Outbound, len(t.sent))
	copy(sent, t.sent)
	return sent
}

type fakeCapturer struct {
	mu      sync.Mutex
	active  bool
	onAudio func([]byte)
	onStart func()
}

func (c *fakeCapturer) StartCapture(_ context.Context, onAudio func([]byte)) error {
	if c.onStart != nil {
		c.onStart()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	c.onAudio = onAudio
	return nil
}

// fakeSpeaker holds playback open until finishPlayback, mirroring a
// real audio device that confirms the mark only once the buffer
// drained.
type fakeSpeaker struct {
	mu       sync.Mutex
	sent     [][]byte
	markGate chan struct{}
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{markGate: make(chan struct{}, 8)}
}

func (o *fakeSpeaker) SendAudio(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, pcm)
	return nil
}

func (o *fakeSpeaker) ClearBuffer() {}

func (o *fakeSpeaker) AwaitMark() error {
	<-o.markGate
	return nil
}

func (o *fakeSpeaker) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncodingInfo()
}

func (c *fakeCapturer) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	return nil
}

func awaitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSessionAssemblesStreamedTurn(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	sealed := make(chan string, 1)
	if _, err := sess.Start(context.Background(),
		WithTeacherSealedCallback(func(text string) { sealed <- text }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	fake.deliver(&transport.TeacherTextDelta{Delta: "Evaporation "})
	fake.deliver(&transport.TeacherTextDelta{Delta: "lifts water"})
	fake.deliver(&transport.TeacherTextFinal{Text: "Evaporation lifts water into the air."})

	select {
	case text := <-sealed:
		if text != "Evaporation lifts water into the air." {
			t.Fatalf("unexpected sealed text %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the turn to seal")
	}

	entries := sess.Transcript()
	if len(entries) != 1 || !entries[0].Final {
		t.Fatalf("expected one sealed entry, got %+v", entries)
	}
}

func TestSendMessageWhileGeneratingFlagsInterruption(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	segment := make(chan struct{}, 4)
	if _, err := sess.Start(context.Background(),
		WithTeacherSegmentCallback(func(string) { segment <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	fake.deliver(&transport.TeacherTextDelta{Delta: "Let me explain"})
	awaitSignal(t, segment, "the delta to be processed")

	if err := sess.SendMessage("wait, go back"); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	var userMsg transport.UserMessage
	found := false
	for _, sent := range fake.sentMessages() {
		if msg, ok := sent.(transport.UserMessage); ok {
			userMsg = msg
			found = true
		}
	}
	if !found {
		t.Fatal("expected a user message on the wire")
	}
	if !userMsg.IsInterruption {
		t.Fatal("expected the message to be flagged as an interruption while generating")
	}
	if userMsg.SessionID != "sess-1" {
		t.Fatalf("expected the session id on the wire, got %q", userMsg.SessionID)
	}
}

func TestSessionNotFoundClearsStoredID(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	errored := make(chan struct{}, 1)
	if _, err := sess.Start(context.Background(),
		WithSessionErrorCallback(func(string, string) { errored <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if sess.SessionID() != "sess-1" {
		t.Fatalf("expected the started session id, got %q", sess.SessionID())
	}

	fake.deliver(&transport.Error{ErrorCode: "SESSION_NOT_FOUND", Message: "Session not found"})
	awaitSignal(t, errored, "the session error to be processed")

	if got := sess.SessionID(); got != "" {
		t.Fatalf("expected the stored id cleared, got %q", got)
	}
	if got := sess.Lifecycle(); got != LifecycleAbsent {
		t.Fatalf("expected lifecycle absent, got %s", got)
	}
}

func TestSessionGoneDisconnectClearsStoredID(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	disconnected := make(chan struct{}, 1)
	if _, err := sess.Start(context.Background(),
		WithDisconnectedCallback(func(string) { disconnected <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	fake.deliver(&transport.Disconnected{Reason: "session not found"})
	awaitSignal(t, disconnected, "the disconnect to be processed")

	if got := sess.SessionID(); got != "" {
		t.Fatalf("expected the stored session id cleared after the server said the session is gone, got %q", got)
	}
	if got := sess.Lifecycle(); got != LifecycleAbsent {
		t.Fatalf("expected lifecycle absent instead of reconnecting, got %s", got)
	}
}

func TestQuizOpensGateAndSubmissionReportsMarker(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	quizCh := make(chan gate.QuizPayload, 1)
	resolved := make(chan string, 1)
	if _, err := sess.Start(context.Background(),
		WithQuizOpenedCallback(func(quiz gate.QuizPayload) { quizCh <- quiz }),
		WithGateResolvedCallback(func(_, summary string) { resolved <- summary }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	quizPayload := json.RawMessage(`{"questions":[
		{"question":"2+2?","options":["3","4"],"correct_index":1,"explanation":""},
		{"question":"3-1?","options":["2","1"],"correct_index":0,"explanation":""}
	]}`)
	fake.deliver(&transport.BoardAction{Action: transport.Action{Kind: "SHOW_QUIZ", Payload: quizPayload}})

	select {
	case quiz := <-quizCh:
		if len(quiz.Questions) != 2 {
			t.Fatalf("expected two questions, got %d", len(quiz.Questions))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the quiz to open")
	}

	// A second identical action must not displace the held block.
	fake.deliver(&transport.BoardAction{Action: transport.Action{Kind: "SHOW_QUIZ", Payload: quizPayload}})

	result, err := sess.SubmitQuizAnswers([]int{1, 0})
	if err != nil {
		t.Fatalf("failed to submit quiz answers: %v", err)
	}
	if result.Correct != 2 {
		t.Fatalf("expected a perfect score, got %d/%d", result.Correct, result.Total)
	}

	select {
	case summary := <-resolved:
		if summary != "[QUIZ_RESULT: CORRECT 2/2]" {
			t.Fatalf("unexpected resolution summary %q", summary)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the gate to resolve")
	}

	markerSent := false
	for _, sent := range fake.sentMessages() {
		if msg, ok := sent.(transport.UserMessage); ok && strings.Contains(msg.Text, "[QUIZ_RESULT: CORRECT 2/2]") {
			markerSent = true
		}
	}
	if !markerSent {
		t.Fatal("expected the quiz verdict reported upstream")
	}
}

func TestBoardRevealsHeldWhileQuizOpen(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	revealed := make(chan int, 4)
	queued := make(chan struct{}, 4)
	if _, err := sess.Start(context.Background(),
		WithBoardActionRevealedCallback(func(index int, _ string) { revealed <- index }),
		WithBoardActionQueuedCallback(func(string) { queued <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	quizPayload := json.RawMessage(`{"questions":[{"question":"q","options":["a"],"correct_index":0,"explanation":""}]}`)
	fake.deliver(&transport.BoardAction{Action: transport.Action{Kind: "SHOW_QUIZ", Payload: quizPayload}})
	fake.deliver(&transport.BoardAction{Action: transport.Action{Kind: "WRITE_BULLET", Payload: json.RawMessage(`{"text":"held back"}`)}})
	awaitSignal(t, queued, "the bullet to be queued")

	select {
	case index := <-revealed:
		t.Fatalf("expected no reveal while the quiz holds the session, got index %d", index)
	case <-time.After(50 * time.Millisecond):
	}

	if err := sess.DismissGate(); err != nil {
		t.Fatalf("failed to dismiss the quiz: %v", err)
	}

	select {
	case index := <-revealed:
		if index != 0 {
			t.Fatalf("expected the held bullet to reveal first, got index %d", index)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the reveal after dismissal")
	}
}

func TestVoiceCaptureRoundTrip(t *testing.T) {
	fake := newFakeTransport()
	capturer := &fakeCapturer{}
	sess := NewSession(WithTransport(fake), WithVoiceCapturer(capturer))
	defer sess.Close()

	if _, err := sess.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if err := sess.StartVoiceCapture(); err != nil {
		t.Fatalf("failed to start voice capture: %v", err)
	}
	if got := sess.Turn(); got != TurnStateCapturingVoice {
		t.Fatalf("expected capturing-voice turn state, got %s", got)
	}

	capturer.onAudio([]byte{1, 2, 3})
	fake.mu.Lock()
	chunks := len(fake.audio)
	fake.mu.Unlock()
	if chunks != 1 {
		t.Fatalf("expected one voice chunk on the wire, got %d", chunks)
	}

	if err := sess.StopVoiceCapture(); err != nil {
		t.Fatalf("failed to stop voice capture: %v", err)
	}

	toggles := 0
	for _, sent := range fake.sentMessages() {
		if _, ok := sent.(transport.ToggleVoice); ok {
			toggles++
		}
	}
	if toggles != 2 {
		t.Fatalf("expected start and stop voice toggles, got %d", toggles)
	}
}

func TestSendMessageRejectedWhileCapturingVoice(t *testing.T) {
	fake := newFakeTransport()
	capturer := &fakeCapturer{}
	sess := NewSession(WithTransport(fake), WithVoiceCapturer(capturer))
	defer sess.Close()

	if _, err := sess.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if err := sess.StartVoiceCapture(); err != nil {
		t.Fatalf("failed to start voice capture: %v", err)
	}

	if err := sess.SendMessage("typed while recording"); err == nil {
		t.Fatalf("expected a typed send to be rejected while the voice window is open")
	}

	for _, sent := range fake.sentMessages() {
		if _, ok := sent.(transport.UserMessage); ok {
			t.Fatalf("expected no user message on the wire while capturing voice")
		}
	}
	if got := sess.Turn(); got != TurnStateCapturingVoice {
		t.Fatalf("expected the voice window to stay open, got turn state %s", got)
	}
	capturer.mu.Lock()
	active := capturer.active
	capturer.mu.Unlock()
	if !active {
		t.Fatalf("expected the microphone still captured")
	}
}

func TestStartVoiceCaptureStopsActiveNarrationFirst(t *testing.T) {
	fake := newFakeTransport()
	capturer := &fakeCapturer{}
	speaker := newFakeSpeaker()
	sess := NewSession(WithTransport(fake),
		WithVoiceCapturer(capturer),
		WithAudioOutput(speaker),
	)
	defer sess.Close()

	speaking := make(chan struct{}, 1)
	if _, err := sess.Start(context.Background(),
		WithPlaybackStartedCallback(func(string) { speaking <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	clip := audio.EncodeWAV([]byte{0, 1, 0, 1}, audio.DefaultEncodingInfo())
	fake.deliver(&transport.AudioClip{Audio: clip})
	awaitSignal(t, speaking, "narration playback to begin")

	playbackAtCaptureStart := make(chan narration.State, 1)
	capturer.onStart = func() { playbackAtCaptureStart <- sess.Playback() }

	if err := sess.StartVoiceCapture(); err != nil {
		t.Fatalf("failed to start voice capture: %v", err)
	}

	select {
	case state := <-playbackAtCaptureStart:
		if state != narration.StateIdle {
			t.Fatalf("expected playback idle before capture begins, got %s", state)
		}
	default:
		t.Fatalf("expected the capturer to have been started")
	}

	interrupted := false
	for _, sent := range fake.sentMessages() {
		if _, ok := sent.(transport.Interrupt); ok {
			interrupted = true
		}
	}
	if !interrupted {
		t.Fatalf("expected an interrupt on the wire when capture preempted narration")
	}
}

func TestEmptyVoiceTranscriptionRollsBackWithoutSending(t *testing.T) {
	fake := newFakeTransport()
	capturer := &fakeCapturer{}
	sess := NewSession(WithTransport(fake), WithVoiceCapturer(capturer))
	defer sess.Close()

	failed := make(chan string, 1)
	if _, err := sess.Start(context.Background(),
		WithVoiceCaptureFailedCallback(func(reason string) { failed <- reason }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if err := sess.StartVoiceCapture(); err != nil {
		t.Fatalf("failed to start voice capture: %v", err)
	}
	if err := sess.StopVoiceCapture(); err != nil {
		t.Fatalf("failed to stop voice capture: %v", err)
	}

	fake.deliver(&transport.VoiceTranscription{Text: "   "})

	select {
	case <-failed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the capture failure")
	}

	for _, sent := range fake.sentMessages() {
		if _, ok := sent.(transport.UserMessage); ok {
			t.Fatal("expected no user message for an empty transcription")
		}
	}
	if got := sess.Turn(); got == TurnStateCapturingVoice {
		t.Fatal("expected the turn state rolled back after the failed capture")
	}
}

func TestStartVoiceCaptureWithoutCapturerFails(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	if _, err := sess.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if err := sess.StartVoiceCapture(); err == nil {
		t.Fatal("expected voice capture to fail without a capturer")
	}
}

func TestHistoryReplacesTranscriptOnResume(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	replaced := make(chan int, 1)
	sessionID, err := sess.Start(context.Background(),
		WithResumeSession("sess-42"),
		WithTranscriptReplacedCallback(func(entries int) { replaced <- entries }),
	)
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	if sessionID != "sess-42" {
		t.Fatalf("expected the resumed session id, got %q", sessionID)
	}

	fake.deliver(&transport.History{History: []transport.HistoryEntry{
		{Role: "user", Content: "What is osmosis?"},
		{Role: "assistant", Content: "Osmosis moves water across membranes."},
	}})

	select {
	case entries := <-replaced:
		if entries != 2 {
			t.Fatalf("expected two replayed entries, got %d", entries)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the history replay")
	}

	if got := len(sess.Transcript()); got != 2 {
		t.Fatalf("expected the transcript replaced, got %d entries", got)
	}
}

func TestStatusUpdatesDifficulty(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	status := make(chan struct{}, 1)
	if _, err := sess.Start(context.Background(),
		WithStatusCallback(func(string, int, string, float64, string) { status <- struct{}{} }),
	); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	fake.deliver(&transport.Status{Status: "teaching", DifficultyLevel: 5, Progress: 0.4})
	awaitSignal(t, status, "the status frame to be processed")

	difficulty := sess.Difficulty()
	if difficulty.Level != 5 || difficulty.Title != "Expert" {
		t.Fatalf("unexpected difficulty %+v", difficulty)
	}
}

func TestChangeDifficultyRejectsOutOfRangeLevels(t *testing.T) {
	fake := newFakeTransport()
	sess := NewSession(WithTransport(fake))
	defer sess.Close()

	if _, err := sess.Start(context.Background()); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	if err := sess.ChangeDifficulty(0); err == nil {
		t.Fatal("expected level 0 to be rejected")
	}
	if err := sess.ChangeDifficulty(6); err == nil {
		t.Fatal("expected level 6 to be rejected")
	}
	if err := sess.ChangeDifficulty(2); err != nil {
		t.Fatalf("expected level 2 to be accepted, got %v", err)
	}
}
