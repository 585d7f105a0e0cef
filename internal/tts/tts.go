// Package tts synthesizes speech from text via the OpenAI audio API.
package tts

import (
	"context"
	"fmt"
	"io"
	"time"

	openai "github.com/openai/openai-go/v3"
)

// Synthesizer converts text into playable MP3 audio.
type Synthesizer struct {
	api     openai.Client
	model   string
	voice   string
	timeout time.Duration
}

// New returns a synthesizer. Empty model/voice select tts-1/alloy.
func New(client openai.Client, model, voice string, timeout time.Duration) *Synthesizer {
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}
	if voice == "" {
		voice = "alloy"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{api: client, model: model, voice: voice, timeout: timeout}
}

// Synthesize returns MP3 bytes for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.api.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return data, nil
}
