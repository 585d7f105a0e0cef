package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays synthesized speech through the default output device.
// At most one playback is active per process; callers stop the current
// one before starting another.
type Player struct {
	mu   sync.Mutex
	stop chan struct{} // non-nil while playing
}

// NewPlayer returns an idle player.
func NewPlayer() *Player {
	return &Player{}
}

// Play decodes data (MP3 or WAV) and blocks until playback finishes,
// ctx is cancelled, or Stop is called. Cancellation clears the speaker
// immediately.
func (p *Player) Play(ctx context.Context, data []byte) error {
	streamer, format, err := decode(data)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	stop := make(chan struct{})
	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.stop == stop {
			p.stop = nil
		}
		p.mu.Unlock()
	}()

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	case <-stop:
		speaker.Clear()
		return nil
	}
}

// Stop halts the active playback. No-op when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		return wav.Decode(bytes.NewReader(data))
	}
	return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
}
