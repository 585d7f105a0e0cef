package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
)

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	stopBuf  *audio.Buffer
	stopErr  error
	starts   int
	stops    int
}

func (f *fakeRecorder) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeRecorder) Stop() (*audio.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.stopBuf, f.stopErr
}

type fakePlayback struct {
	mu    sync.Mutex
	stops int
}

func (f *fakePlayback) Play(context.Context, []byte) error { return nil }

func (f *fakePlayback) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakePlayback) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", s.State(), want)
}

func testBuffer() *audio.Buffer {
	return &audio.Buffer{Samples: make([]int16, 4410), SampleRate: 44100}
}

func TestReleaseWithoutEngageIsNoOp(t *testing.T) {
	rec := &fakeRecorder{}
	s := New(Config{
		Recorder: rec,
		Playback: &fakePlayback{},
		Run:      func(context.Context, *audio.Buffer) error { return nil },
	})

	s.Release()
	if rec.stops != 0 {
		t.Fatal("release while idle touched the recorder")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
}

func TestNoAudioSpawnsNoPipeline(t *testing.T) {
	rec := &fakeRecorder{stopErr: audio.ErrNoAudio}
	var ran int
	s := New(Config{
		Recorder: rec,
		Playback: &fakePlayback{},
		Run: func(context.Context, *audio.Buffer) error {
			ran++
			return nil
		},
	})

	s.Engage()
	if s.State() != StateRecording {
		t.Fatalf("state after engage = %s, want recording", s.State())
	}
	s.Release()

	if ran != 0 {
		t.Fatal("pipeline ran despite ErrNoAudio")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
}

func TestCaptureStartFailureReturnsToIdle(t *testing.T) {
	rec := &fakeRecorder{startErr: audio.ErrDeviceUnavailable}
	var alerted string
	s := New(Config{
		Recorder: rec,
		Playback: &fakePlayback{},
		Run:      func(context.Context, *audio.Buffer) error { return nil },
		Notify:   func(title, _ string) { alerted = title },
	})

	s.Engage()
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
	if alerted == "" {
		t.Fatal("device failure was not surfaced to the user")
	}
}

func TestPipelineRunsAndSessionReturnsToIdle(t *testing.T) {
	rec := &fakeRecorder{stopBuf: testBuffer()}
	got := make(chan *audio.Buffer, 1)
	s := New(Config{
		Recorder: rec,
		Playback: &fakePlayback{},
		Run: func(_ context.Context, buf *audio.Buffer) error {
			got <- buf
			return nil
		},
	})

	s.Engage()
	s.Release()

	select {
	case buf := <-got:
		if len(buf.Samples) != 4410 {
			t.Fatalf("pipeline got %d samples, want 4410", len(buf.Samples))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never ran")
	}
	waitState(t, s, StateIdle)
}

func TestEngagePreemptsRunningPipeline(t *testing.T) {
	rec := &fakeRecorder{stopBuf: testBuffer()}
	playback := &fakePlayback{}
	started := make(chan struct{})
	cancelled := make(chan struct{})

	s := New(Config{
		Recorder:       rec,
		Playback:       playback,
		PreemptTimeout: time.Second,
		Run: func(ctx context.Context, _ *audio.Buffer) error {
			close(started)
			<-ctx.Done() // a well-behaved pipeline acknowledges promptly
			close(cancelled)
			return ctx.Err()
		},
	})

	s.Engage()
	s.Release()
	<-started

	begin := time.Now()
	s.Engage()
	elapsed := time.Since(begin)

	select {
	case <-cancelled:
	default:
		t.Fatal("prior pipeline was not cancelled")
	}
	if playback.stopCount() == 0 {
		t.Fatal("playback was not stopped on preemption")
	}
	if s.State() != StateRecording {
		t.Fatalf("state after preempting engage = %s, want recording", s.State())
	}
	if elapsed > time.Second {
		t.Fatalf("preemption took %v, want well under the timeout", elapsed)
	}
	if rec.starts != 2 {
		t.Fatalf("capture starts = %d, want 2", rec.starts)
	}
}

func TestPreemptionProceedsAfterTimeout(t *testing.T) {
	rec := &fakeRecorder{stopBuf: testBuffer()}
	started := make(chan struct{})
	release := make(chan struct{})

	s := New(Config{
		Recorder:       rec,
		Playback:       &fakePlayback{},
		PreemptTimeout: 20 * time.Millisecond,
		Run: func(ctx context.Context, _ *audio.Buffer) error {
			close(started)
			<-release // ignores cancellation
			return ctx.Err()
		},
	})

	s.Engage()
	s.Release()
	<-started

	s.Engage() // must not hang on the stuck pipeline
	if s.State() != StateRecording {
		t.Fatalf("state = %s, want recording despite stuck pipeline", s.State())
	}

	close(release)
	time.Sleep(20 * time.Millisecond)
	if s.State() != StateRecording {
		t.Fatalf("late pipeline completion flipped state to %s", s.State())
	}
}

func TestCancelStopsPipelineAndPlayback(t *testing.T) {
	rec := &fakeRecorder{stopBuf: testBuffer()}
	playback := &fakePlayback{}
	started := make(chan struct{})

	s := New(Config{
		Recorder: rec,
		Playback: playback,
		Run: func(ctx context.Context, _ *audio.Buffer) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	})

	s.Engage()
	s.Release()
	<-started

	s.Cancel()
	waitState(t, s, StateIdle)
	if playback.stopCount() == 0 {
		t.Fatal("playback was not stopped")
	}
}

func TestShutdownReleasesCaptureDevice(t *testing.T) {
	rec := &fakeRecorder{stopErr: audio.ErrNoAudio}
	s := New(Config{
		Recorder: rec,
		Playback: &fakePlayback{},
		Run:      func(context.Context, *audio.Buffer) error { return nil },
	})

	s.Engage()
	s.Shutdown()
	if rec.stops != 1 {
		t.Fatalf("capture stops = %d, want 1", rec.stops)
	}
}
