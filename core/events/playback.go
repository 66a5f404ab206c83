package events

const (
	// KindPlaybackStarted identifies the start of narration playback.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the end of narration playback.
	KindPlaybackEnded Kind = "playback.ended"
)

// PlaybackSource names where narration audio came from.
type PlaybackSource string

const (
	// PlaybackSourceServerClip is a server-synthesized narration clip.
	PlaybackSourceServerClip PlaybackSource = "server_clip"
	// PlaybackSourceSynthesized is locally synthesized speech.
	PlaybackSourceSynthesized PlaybackSource = "synthesized"
	// PlaybackSourceStreamFallback treats accumulated delta text as spoken.
	PlaybackSourceStreamFallback PlaybackSource = "stream_fallback"
)

// PlaybackStarted marks the start of narration playback.
type PlaybackStarted struct {
	Base
	Source PlaybackSource
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(source PlaybackSource) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Source: source}
}

// PlaybackEnded marks the end of narration playback.
type PlaybackEnded struct {
	Base
	Transcript string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(transcript string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Transcript: transcript}
}
