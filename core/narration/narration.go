// Package narration owns the teacher's voice: exactly one playback
// at a time, preemptible at any moment, and silenced entirely while
// an interactive block holds the session.
package narration

import (
	"context"
	"sync"

	"github.com/calehall/tutor-core/core/audio"
)

type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
)

// Source says where a playback's audio came from.
type Source string

const (
	// SourceServerClip is a complete narration clip synthesized by
	// the server, the preferred path.
	SourceServerClip Source = "server_clip"
	// SourceSynthesized is locally synthesized speech.
	SourceSynthesized Source = "synthesized"
	// SourceStreamFallback is locally synthesized speech built from
	// the streamed turn text when no server clip arrived.
	SourceStreamFallback Source = "stream_fallback"
)

// Output is the speaker the controller feeds raw PCM into. The
// miniaudio client in core/audio/miniaudio satisfies it.
type Output interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
	EncodingInfo() audio.EncodingInfo
}

// Synthesizer turns text into raw PCM matching the output's
// encoding. Optional; without one Speak is a logged no-op.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Controller holds at most one active playback handle. Stop is
// always permitted and releases the speaker before returning; state
// changes are reported synchronously through the callbacks.
type Controller struct {
	out   Output
	synth Synthesizer

	// suppressed is consulted before starting any playback; while it
	// returns true, Speak and FinalizeFromStream do nothing.
	suppressed func() bool

	onStateChanged  func(State)
	onPlaybackBegan func(Source)
	onPlaybackEnded func(transcript string)

	mu         sync.Mutex
	state      State
	generation int
}

type Option func(*Controller)

// WithSynthesizer installs the local text-to-speech fallback.
func WithSynthesizer(synth Synthesizer) Option {
	return func(c *Controller) { c.synth = synth }
}

// WithSuppressionGuard installs the predicate that silences new
// playbacks, typically the interaction gate's IsOpen.
func WithSuppressionGuard(guard func() bool) Option {
	return func(c *Controller) { c.suppressed = guard }
}

func WithStateCallback(callback func(State)) Option {
	return func(c *Controller) { c.onStateChanged = callback }
}

func WithPlaybackBeganCallback(callback func(Source)) Option {
	return func(c *Controller) { c.onPlaybackBegan = callback }
}

func WithPlaybackEndedCallback(callback func(transcript string)) Option {
	return func(c *Controller) { c.onPlaybackEnded = callback }
}

func NewController(out Output, opts ...Option) *Controller {
	controller := &Controller{
		out:             out,
		suppressed:      func() bool { return false },
		onStateChanged:  func(State) {},
		onPlaybackBegan: func(Source) {},
		onPlaybackEnded: func(string) {},
		state:           StateIdle,
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Speak synthesizes the text locally and plays it. A no-op while an
// interactive block is open, and a logged no-op without a
// synthesizer.
func (c *Controller) Speak(ctx context.Context, text string) {
	c.speak(ctx, text, SourceSynthesized)
}

// FinalizeFromStream narrates the accumulated streamed text of a
// turn. Used when no server clip arrived for the turn, so whatever
// was streamed is all there is to say.
func (c *Controller) FinalizeFromStream(ctx context.Context, streamed string) {
	c.speak(ctx, streamed, SourceStreamFallback)
}

func (c *Controller) speak(ctx context.Context, text string, source Source) {
	if c == nil || text == "" {
		return
	}
	if c.suppressed() {
		logger.Debug("Narration suppressed by open interactive block")
		return
	}
	if c.synth == nil {
		logger.Debug("No synthesizer configured, skipping narration")
		return
	}

	ctx, span := tracer.Start(ctx, "synthesize narration")
	pcm, err := c.synth.Synthesize(ctx, text)
	span.End()
	if err != nil {
		logger.Warn("Failed to synthesize narration", "error", err)
		return
	}

	c.play(pcm, text, source)
}

// OnServerAudio decodes a server-provided narration clip and plays
// it. Decode failures are logged and leave the state idle; they
// never block the next turn.
func (c *Controller) OnServerAudio(clip []byte, transcript string) {
	if c == nil || len(clip) == 0 {
		return
	}
	if c.suppressed() {
		logger.Debug("Narration suppressed by open interactive block")
		return
	}

	pcm, _, err := audio.DecodeWAV(clip)
	if err != nil {
		logger.Warn("Failed to decode narration clip", "error", err)
		c.Stop()
		return
	}

	c.play(pcm, transcript, SourceServerClip)
}

func (c *Controller) play(pcm []byte, transcript string, source Source) {
	c.Stop()

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.state = StateSpeaking
	c.mu.Unlock()
	c.onStateChanged(StateSpeaking)
	c.onPlaybackBegan(source)

	if err := c.out.SendAudio(pcm); err != nil {
		logger.Warn("Failed to queue narration audio", "error", err)
		c.settle(generation, transcript)
		return
	}

	go func() {
		if err := c.out.AwaitMark(); err != nil {
			logger.Warn("Failed to await narration end", "error", err)
		}
		c.settle(generation, transcript)
	}()
}

// settle moves back to idle unless a newer playback took over.
func (c *Controller) settle(generation int, transcript string) {
	c.mu.Lock()
	if c.generation != generation || c.state != StateSpeaking {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.onStateChanged(StateIdle)
	c.onPlaybackEnded(transcript)
}

// Stop preempts the active playback, releasing the speaker before
// returning. Always permitted, also while a block is open. Stopping
// with nothing playing is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateSpeaking {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.state = StateIdle
	c.mu.Unlock()

	c.out.ClearBuffer()
	c.onStateChanged(StateIdle)
}
