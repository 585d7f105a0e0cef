// Package notify gives the user audible and desktop feedback. All of
// it is best-effort: a missing notification daemon or busy speaker
// must never interfere with the recording session.
package notify

import (
	log "log/slog"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/speaker"
	"github.com/gen2brain/beeep"
)

const (
	cueRate     = beep.SampleRate(44100)
	cueFreq     = 880
	cueDuration = 120 * time.Millisecond
)

// Cue plays a short tone marking the start of a recording.
func Cue() {
	tone, err := generators.SinTone(cueRate, cueFreq)
	if err != nil {
		log.Debug("cue tone unavailable", "err", err)
		return
	}
	if err := speaker.Init(cueRate, cueRate.N(time.Second/10)); err != nil {
		log.Debug("speaker init failed", "err", err)
		return
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(beep.Take(cueRate.N(cueDuration), tone), beep.Callback(func() {
		close(done)
	})))
	<-done
}

// Alert shows a desktop notification for a user-visible failure.
func Alert(title, body string) {
	if err := beeep.Notify(title, body, ""); err != nil {
		log.Debug("desktop notification failed", "err", err)
	}
}
