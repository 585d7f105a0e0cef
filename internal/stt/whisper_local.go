package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
	"github.com/salah-saleh/AuraSpeak/pkg/audioenc"
)

// Local transcribes on-device with whisper.cpp. It runs alongside the
// API backend for comparison; its output is never authoritative.
type Local struct {
	model    whisper.Model
	language string
}

// NewLocal loads a ggml model from modelPath.
func NewLocal(modelPath, language string) (*Local, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	if language == "" {
		language = "auto"
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Local{model: m, language: language}, nil
}

func (l *Local) Name() string { return "whisper_local" }

// Close releases the model.
func (l *Local) Close() error {
	if l.model == nil {
		return nil
	}
	return l.model.Close()
}

// Transcribe runs inference on the recording, resampled to the 16 kHz
// mono float32 whisper.cpp expects.
func (l *Local) Transcribe(ctx context.Context, buf *audio.Buffer) (string, error) {
	if l.model == nil {
		return "", errors.New("nil model")
	}

	pcm := audioenc.Float32Mono16k(buf.Samples, buf.SampleRate)
	if len(pcm) == 0 {
		return "", errors.New("no audio samples provided")
	}

	wctx, err := l.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}
	if err := wctx.SetLanguage(l.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
	}

	return strings.Join(parts, " "), nil
}
