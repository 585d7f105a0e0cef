// Package session coordinates the hold-to-talk lifecycle: hotkey edges
// drive microphone capture, each finished recording spawns one
// processing pipeline, and a new recording preempts whatever is still
// in flight.
package session

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
	"github.com/salah-saleh/AuraSpeak/internal/nlu"
	"github.com/salah-saleh/AuraSpeak/internal/search"
)

// State is the session's position in the record/process cycle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Recorder is the microphone capture the session drives.
type Recorder interface {
	Start() error
	Stop() (*audio.Buffer, error)
}

// Playback is the speech output the session can preempt.
type Playback interface {
	Play(ctx context.Context, data []byte) error
	Stop()
}

// Classifier maps a transcript to an intent.
type Classifier interface {
	Classify(ctx context.Context, transcript string) nlu.Result
}

// Searcher answers a query from the web.
type Searcher interface {
	Search(ctx context.Context, query string, length nlu.ResultLength) (*search.Result, error)
}

// Synthesizer renders text as playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ClipboardWriter is the clipboard action target.
type ClipboardWriter interface {
	Write(text string) error
}

// Config wires a Session.
type Config struct {
	Recorder Recorder
	Playback Playback
	// Run processes one finished recording; it must observe ctx.
	Run func(ctx context.Context, buf *audio.Buffer) error
	// PreemptTimeout bounds the wait for a cancelled pipeline to
	// acknowledge before a new recording starts anyway.
	PreemptTimeout time.Duration
	// Notify surfaces user-visible failures; may be nil.
	Notify func(title, body string)
}

// Session is the per-process recording state machine. Exactly one
// capture stream and at most one pipeline are active at any time.
type Session struct {
	rec      Recorder
	playback Playback
	run      func(ctx context.Context, buf *audio.Buffer) error
	preempt  time.Duration
	notify   func(title, body string)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an idle session.
func New(cfg Config) *Session {
	if cfg.PreemptTimeout <= 0 {
		cfg.PreemptTimeout = 2 * time.Second
	}
	return &Session{
		rec:      cfg.Recorder,
		playback: cfg.Playback,
		run:      cfg.Run,
		preempt:  cfg.PreemptTimeout,
		notify:   cfg.Notify,
	}
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Engage starts a recording. A pipeline still in flight is cancelled
// first: playback stops immediately and the session waits a bounded
// time for acknowledgment, then proceeds regardless so the hotkey
// never feels stuck.
func (s *Session) Engage() {
	s.mu.Lock()
	if s.state == StateRecording {
		s.mu.Unlock()
		return
	}
	if s.state == StateProcessing {
		cancel, done := s.cancel, s.done
		s.mu.Unlock()

		log.Info("preempting in-flight pipeline")
		cancel()
		s.playback.Stop()
		select {
		case <-done:
		case <-time.After(s.preempt):
			log.Warn("pipeline did not acknowledge cancellation", "timeout", s.preempt)
		}

		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
			s.state = StateIdle
		}
	}

	if err := s.rec.Start(); err != nil {
		if errors.Is(err, audio.ErrAlreadyCapturing) {
			s.state = StateRecording
			s.mu.Unlock()
			return
		}
		s.state = StateIdle
		s.mu.Unlock()
		log.Error("failed to start capture", "err", err)
		s.alert("Recording failed", err.Error())
		return
	}
	s.state = StateRecording
	s.mu.Unlock()
	log.Info("recording")
}

// Release stops the recording and spawns the processing pipeline.
// An empty recording returns straight to idle.
func (s *Session) Release() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}

	buf, err := s.rec.Stop()
	if err != nil {
		s.state = StateIdle
		s.mu.Unlock()
		if errors.Is(err, audio.ErrNoAudio) {
			log.Info("no audio captured")
		} else {
			log.Error("failed to stop capture", "err", err)
			s.alert("Recording failed", err.Error())
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.state = StateProcessing
	s.mu.Unlock()

	log.Info("processing", "duration", buf.Duration(), "samples", len(buf.Samples))

	go func() {
		defer close(done)
		err := s.run(ctx, buf)
		switch {
		case err == nil:
			log.Info("pipeline done")
		case errors.Is(err, context.Canceled):
			log.Info("pipeline cancelled")
		default:
			log.Error("pipeline failed", "err", err)
		}
		cancel()

		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
			s.state = StateIdle
		}
		s.mu.Unlock()
	}()
}

// Cancel aborts the in-flight pipeline and playback without starting
// a new recording.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.playback.Stop()
}

// Shutdown cancels whatever is in flight and waits for acknowledgment
// as for preemption. The capture device is released if recording.
func (s *Session) Shutdown() {
	s.mu.Lock()
	state := s.state
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if state == StateRecording {
		if _, err := s.rec.Stop(); err != nil && !errors.Is(err, audio.ErrNoAudio) {
			log.Warn("failed to release capture device", "err", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	s.playback.Stop()
	if done != nil {
		select {
		case <-done:
		case <-time.After(s.preempt):
			log.Warn("pipeline still running at shutdown")
		}
	}
}

func (s *Session) alert(title, body string) {
	if s.notify != nil {
		s.notify(title, body)
	}
}
