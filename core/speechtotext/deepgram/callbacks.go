package deepgram

import "github.com/calehall/tutor-core/core/speechtotext"

// callbackConfig normalizes the optional transcription callbacks to
// non-nil functions and remembers which ones the caller actually
// provided, since that drives what the websocket is asked to send.
type callbackConfig struct {
	partialInterimTranscriptionCallback func(transcript string)
	interimTranscriptionCallback        func(transcript string)
	partialTranscriptionCallback        func(transcript string)
	transcriptionCallback               func(transcript string)
	startSpeechCallback                 func()
	endSpeechCallback                   func()

	wantsFullTranscript   bool
	wantsInterim          bool
	wantsPartialInterim   bool
	wantsPartial          bool
	wantsSpeechBoundaries bool
}

type websocketConfig struct {
	shouldDetectSpeechStart            bool
	shouldEnhanceSpeechEndingDetection bool
	shouldRequestInterimResults        bool
}

func newCallbackConfig(options speechtotext.TranscriptionOptions) (callbackConfig, websocketConfig) {
	callbacks := callbackConfig{
		partialInterimTranscriptionCallback: options.PartialInterimTranscriptionCallback,
		interimTranscriptionCallback:        options.InterimTranscriptionCallback,
		partialTranscriptionCallback:        options.PartialTranscriptionCallback,
		transcriptionCallback:               options.TranscriptionCallback,
		startSpeechCallback:                 options.SpeechStartedCallback,
		endSpeechCallback:                   options.SpeechEndedCallback,

		wantsFullTranscript:   options.TranscriptionCallback != nil,
		wantsInterim:          options.InterimTranscriptionCallback != nil,
		wantsPartialInterim:   options.PartialInterimTranscriptionCallback != nil,
		wantsPartial:          options.PartialTranscriptionCallback != nil,
		wantsSpeechBoundaries: options.SpeechEndedCallback != nil,
	}

	if callbacks.partialInterimTranscriptionCallback == nil {
		callbacks.partialInterimTranscriptionCallback = func(string) {}
	}
	if callbacks.interimTranscriptionCallback == nil {
		callbacks.interimTranscriptionCallback = func(string) {}
	}
	if callbacks.partialTranscriptionCallback == nil {
		callbacks.partialTranscriptionCallback = func(string) {}
	}
	if callbacks.transcriptionCallback == nil {
		callbacks.transcriptionCallback = func(string) {}
	}
	if callbacks.startSpeechCallback == nil {
		callbacks.startSpeechCallback = func() {}
	}
	if callbacks.endSpeechCallback == nil {
		callbacks.endSpeechCallback = func() {}
	}

	wsConfig := websocketConfig{
		shouldDetectSpeechStart: options.SpeechStartedCallback != nil,
		shouldEnhanceSpeechEndingDetection: options.TranscriptionCallback != nil ||
			options.SpeechEndedCallback != nil,
		shouldRequestInterimResults: options.InterimTranscriptionCallback != nil ||
			options.PartialInterimTranscriptionCallback != nil,
	}

	return callbacks, wsConfig
}
