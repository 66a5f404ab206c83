// Package deepgram synthesizes teacher speech through Deepgram's
// streaming TTS API. The narration controller uses it when a turn
// ends without a server-provided clip.
package deepgram

import (
	"context"
	"fmt"
	"slices"

	"github.com/calehall/tutor-core/core/audio"
	"github.com/calehall/tutor-core/core/texttospeech"
)

type TextToSpeechClient struct {
	options texttospeech.TextToSpeechOptions

	voice deepgramVoice
}

func NewTextToSpeechClient(_ context.Context, voice deepgramVoice, opts ...texttospeech.TextToSpeechOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{voice: defaultVoice}

	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	client.voice = voice
	client.options.EncodingInfo = audio.DefaultEncodingInfo()
	for _, opt := range opts {
		opt(&client.options)
	}

	return client, nil
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}
