package deepgram

import (
	"context"
	"sync/atomic"
	"testing"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"

	"github.com/calehall/tutor-core/core/speechtotext"
)

func TestCallbackConfigWithoutCallbacksRequestsNothingExtra(t *testing.T) {
	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{})

	// The noop callbacks must be safe to invoke.
	callbacks.partialInterimTranscriptionCallback("what")
	callbacks.interimTranscriptionCallback("what is")
	callbacks.partialTranscriptionCallback("what is")
	callbacks.transcriptionCallback("what is a fraction")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	if wsConfig.shouldDetectSpeechStart || wsConfig.shouldEnhanceSpeechEndingDetection || wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected no stream features requested without callbacks, got %+v", wsConfig)
	}
}

func TestCallbackConfigEnablesStreamFeaturesPerCallback(t *testing.T) {
	var calls [6]atomic.Int32

	callbacks, wsConfig := newCallbackConfig(speechtotext.TranscriptionOptions{
		PartialInterimTranscriptionCallback: func(string) { calls[0].Add(1) },
		InterimTranscriptionCallback:        func(string) { calls[1].Add(1) },
		PartialTranscriptionCallback:        func(string) { calls[2].Add(1) },
		TranscriptionCallback:               func(string) { calls[3].Add(1) },
		SpeechStartedCallback:               func() { calls[4].Add(1) },
		SpeechEndedCallback:                 func() { calls[5].Add(1) },
	})

	if !wsConfig.shouldDetectSpeechStart {
		t.Fatalf("expected speech-start detection requested")
	}
	if !wsConfig.shouldEnhanceSpeechEndingDetection {
		t.Fatalf("expected speech-end enhancement requested")
	}
	if !wsConfig.shouldRequestInterimResults {
		t.Fatalf("expected interim results requested")
	}

	callbacks.partialInterimTranscriptionCallback("what")
	callbacks.interimTranscriptionCallback("what is")
	callbacks.partialTranscriptionCallback("what is")
	callbacks.transcriptionCallback("what is a fraction")
	callbacks.startSpeechCallback()
	callbacks.endSpeechCallback()

	for i := range calls {
		if got := calls[i].Load(); got != 1 {
			t.Fatalf("expected callback %d invoked once, got %d", i, got)
		}
	}
}

func TestProcessMessageAccumulatesFinalSegmentsUntilSpeechEnds(t *testing.T) {
	client := NewTranscriptionClient()

	var full atomic.Value
	callbacks, _ := newCallbackConfig(speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { full.Store(transcript) },
	})

	segment := func(transcript string, speechFinal bool) []byte {
		msg := `{"type":"` + string(api.TypeMessageResponse) + `","is_final":true,"speech_final":`
		if speechFinal {
			msg += "true"
		} else {
			msg += "false"
		}
		return []byte(msg + `,"channel":{"alternatives":[{"transcript":"` + transcript + `"}]}}`)
	}

	client.processMessage(context.Background(), segment("what is", false), callbacks)
	if full.Load() != nil {
		t.Fatalf("expected no full transcript before speech ends, got %q", full.Load())
	}

	client.processMessage(context.Background(), segment("a fraction", true), callbacks)
	if got := full.Load(); got != "what is a fraction" {
		t.Fatalf("expected the accumulated window transcript, got %q", got)
	}
}
