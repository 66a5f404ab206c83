package events

const (
	// KindVoiceCaptureStarted identifies opening of the recording window.
	KindVoiceCaptureStarted Kind = "voice.capture_started"
	// KindVoiceCaptureEnded identifies closing of the recording window.
	KindVoiceCaptureEnded Kind = "voice.capture_ended"
	// KindVoiceTranscriptReceived identifies arrival of a capture transcription.
	KindVoiceTranscriptReceived Kind = "voice.transcript_received"
	// KindVoiceCaptureFailed identifies an aborted or empty capture.
	KindVoiceCaptureFailed Kind = "voice.capture_failed"
)

// VoiceCaptureStarted marks opening of the recording window.
type VoiceCaptureStarted struct{ Base }

// NewVoiceCaptureStarted creates a voice capture started event.
func NewVoiceCaptureStarted() VoiceCaptureStarted {
	return VoiceCaptureStarted{Base: NewBase(KindVoiceCaptureStarted)}
}

// VoiceCaptureEnded marks closing of the recording window.
type VoiceCaptureEnded struct{ Base }

// NewVoiceCaptureEnded creates a voice capture ended event.
func NewVoiceCaptureEnded() VoiceCaptureEnded {
	return VoiceCaptureEnded{Base: NewBase(KindVoiceCaptureEnded)}
}

// VoiceTranscriptReceived carries the transcription of the captured audio.
type VoiceTranscriptReceived struct {
	Base
	Transcript string
}

// NewVoiceTranscriptReceived creates a voice transcript received event.
func NewVoiceTranscriptReceived(transcript string) VoiceTranscriptReceived {
	return VoiceTranscriptReceived{Base: NewBase(KindVoiceTranscriptReceived), Transcript: transcript}
}

// VoiceCaptureFailed marks an aborted capture or one with no usable transcript.
type VoiceCaptureFailed struct {
	Base
	Reason string
}

// NewVoiceCaptureFailed creates a voice capture failed event.
func NewVoiceCaptureFailed(reason string) VoiceCaptureFailed {
	return VoiceCaptureFailed{Base: NewBase(KindVoiceCaptureFailed), Reason: reason}
}
