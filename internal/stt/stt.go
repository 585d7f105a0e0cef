// Package stt provides the transcription backends. Several backends
// may run on the same recording; the session treats one of them as
// authoritative.
package stt

import (
	"context"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
)

// Transcriber converts a finished recording to text.
type Transcriber interface {
	// Name identifies the backend in logs and benchmarks.
	Name() string
	// Transcribe blocks until text is available or the context ends.
	Transcribe(ctx context.Context, buf *audio.Buffer) (string, error)
}
