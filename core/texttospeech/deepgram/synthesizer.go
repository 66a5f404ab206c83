package deepgram

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/calehall/tutor-core/core/texttospeech"
)

// Synthesizer adapts the streaming client to a one-shot call: one
// utterance in, the complete audio out. The narration controller
// plugs it in as its local fallback.
type Synthesizer struct {
	client *TextToSpeechClient
}

func NewSynthesizer(client *TextToSpeechClient) *Synthesizer {
	return &Synthesizer{client: client}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize utterance")
	defer span.End()

	var (
		buf   bytes.Buffer
		bufMu sync.Mutex
	)
	done := make(chan error, 1)

	generator, err := s.client.NewSpeechGenerator(ctx,
		texttospeech.WithSpeechAudioCallback(func(audio []byte) {
			bufMu.Lock()
			defer bufMu.Unlock()
			buf.Write(audio)
		}),
		texttospeech.WithSpeechEndedCallback(func(texttospeech.SpeechEndedReport) {
			done <- nil
		}),
		texttospeech.WithErrorCallback(func(err error) {
			select {
			case done <- err:
			default:
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open speech generator: %w", err)
	}

	if err := generator.SendText(text); err != nil {
		_ = generator.Cancel()
		return nil, fmt.Errorf("failed to send text: %w", err)
	}
	if err := generator.Mark(); err != nil {
		_ = generator.Cancel()
		return nil, fmt.Errorf("failed to mark end of utterance: %w", err)
	}
	if err := generator.EndOfText(); err != nil {
		_ = generator.Cancel()
		return nil, fmt.Errorf("failed to end text: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = generator.Cancel()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("speech generation failed: %w", err)
		}
	}

	bufMu.Lock()
	defer bufMu.Unlock()
	return buf.Bytes(), nil
}
