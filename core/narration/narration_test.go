package narration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/calehall/tutor-core/core/audio"
)

type fakeOutput struct {
	mu       sync.Mutex
	sent     [][]byte
	cleared  int
	markGate chan struct{}
	sendErr  error
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{markGate: make(chan struct{}, 8)}
}

func (o *fakeOutput) SendAudio(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendErr != nil {
		return o.sendErr
	}
	o.sent = append(o.sent, pcm)
	return nil
}

func (o *fakeOutput) ClearBuffer() {
	o.mu.Lock()
	o.cleared++
	o.mu.Unlock()
}

func (o *fakeOutput) AwaitMark() error {
	<-o.markGate
	return nil
}

func (o *fakeOutput) EncodingInfo() audio.EncodingInfo {
	return audio.DefaultEncodingInfo()
}

func (o *fakeOutput) finishPlayback() {
	o.markGate <- struct{}{}
}

type fakeSynth struct {
	calls int
	err   error
}

func (s *fakeSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte(text), nil
}

func TestSpeakPlaysSynthesizedAudio(t *testing.T) {
	out := newFakeOutput()
	ended := make(chan string, 1)
	c := NewController(out,
		WithSynthesizer(&fakeSynth{}),
		WithPlaybackEndedCallback(func(transcript string) { ended <- transcript }),
	)

	c.Speak(context.Background(), "hello class")

	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected speaking state, got %s", got)
	}
	if len(out.sent) != 1 || string(out.sent[0]) != "hello class" {
		t.Fatalf("expected synthesized audio queued, got %v", out.sent)
	}

	out.finishPlayback()
	select {
	case transcript := <-ended:
		if transcript != "hello class" {
			t.Fatalf("expected ended callback with the transcript, got %q", transcript)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for playback to end")
	}
	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle after playback, got %s", got)
	}
}

func TestNewPlaybackPreemptsActiveOne(t *testing.T) {
	out := newFakeOutput()
	ended := make(chan string, 2)
	c := NewController(out,
		WithSynthesizer(&fakeSynth{}),
		WithPlaybackEndedCallback(func(transcript string) { ended <- transcript }),
	)

	c.Speak(context.Background(), "first turn")
	c.Speak(context.Background(), "second turn")

	out.mu.Lock()
	cleared := out.cleared
	out.mu.Unlock()
	if cleared != 1 {
		t.Fatalf("expected the first playback's buffer cleared once, got %d", cleared)
	}

	// The first playback's mark resolving late must not end the
	// second playback.
	out.finishPlayback()
	out.finishPlayback()

	select {
	case transcript := <-ended:
		if transcript != "second turn" {
			t.Fatalf("expected only the active playback to report ending, got %q", transcript)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for playback to end")
	}

	select {
	case transcript := <-ended:
		t.Fatalf("expected no ended callback for the preempted playback, got %q", transcript)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSpeakSuppressedWhileBlockOpen(t *testing.T) {
	out := newFakeOutput()
	synth := &fakeSynth{}
	c := NewController(out,
		WithSynthesizer(synth),
		WithSuppressionGuard(func() bool { return true }),
	)

	c.Speak(context.Background(), "should stay silent")

	if synth.calls != 0 {
		t.Fatalf("expected no synthesis while suppressed, got %d calls", synth.calls)
	}
	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle while suppressed, got %s", got)
	}
}

func TestStopResetsStateSynchronously(t *testing.T) {
	out := newFakeOutput()
	c := NewController(out, WithSynthesizer(&fakeSynth{}))

	c.Speak(context.Background(), "a long explanation")
	c.Stop()

	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle immediately after stop, got %s", got)
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.cleared != 1 {
		t.Fatalf("expected the speaker buffer cleared on stop, got %d", out.cleared)
	}
}

func TestOnServerAudioPlaysDecodedClip(t *testing.T) {
	out := newFakeOutput()
	c := NewController(out)

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	clip := audio.EncodeWAV(pcm, audio.EncodingInfo{SampleRate: 16000, Encoding: audio.FormatLinear16, Channels: 1})
	c.OnServerAudio(clip, "spoken text")

	if got := c.State(); got != StateSpeaking {
		t.Fatalf("expected speaking after a server clip, got %s", got)
	}
	if len(out.sent) != 1 || len(out.sent[0]) != len(pcm) {
		t.Fatalf("expected the decoded payload queued, got %v", out.sent)
	}
}

func TestOnServerAudioMalformedClipLeavesIdle(t *testing.T) {
	out := newFakeOutput()
	c := NewController(out)

	c.OnServerAudio([]byte("definitely not a wav"), "spoken text")

	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle after a malformed clip, got %s", got)
	}
}

func TestPlaybackFaultSettlesToIdle(t *testing.T) {
	out := newFakeOutput()
	out.sendErr = fmt.Errorf("device gone")
	c := NewController(out, WithSynthesizer(&fakeSynth{}))

	c.Speak(context.Background(), "hello")

	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle after a queueing fault, got %s", got)
	}
}

func TestSynthesisFailureIsSilent(t *testing.T) {
	out := newFakeOutput()
	c := NewController(out, WithSynthesizer(&fakeSynth{err: fmt.Errorf("tts down")}))

	c.Speak(context.Background(), "hello")

	if got := c.State(); got != StateIdle {
		t.Fatalf("expected idle after synthesis failure, got %s", got)
	}
	if len(out.sent) != 0 {
		t.Fatalf("expected nothing queued, got %v", out.sent)
	}
}
