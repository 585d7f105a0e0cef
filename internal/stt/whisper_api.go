package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
)

// Whisper transcribes through the OpenAI audio transcription API.
// This is the primary backend.
type Whisper struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// NewWhisper returns an API-backed transcriber. An empty model selects
// whisper-1; timeout bounds each call.
func NewWhisper(client openai.Client, model string, timeout time.Duration) *Whisper {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Whisper{api: client, model: model, timeout: timeout}
}

func (w *Whisper) Name() string { return "whisper_api" }

// Transcribe uploads the recording as WAV and returns the transcript.
func (w *Whisper) Transcribe(ctx context.Context, buf *audio.Buffer) (string, error) {
	wavData, err := buf.WAV()
	if err != nil {
		return "", fmt.Errorf("encode recording: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(w.model),
		File:  openai.File(bytes.NewReader(wavData), "recording.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("whisper api: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
