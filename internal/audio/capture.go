// Package audio owns the microphone and speaker devices: hold-to-talk
// capture of the mic stream and cancellable playback of synthesized
// speech.
package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/salah-saleh/AuraSpeak/pkg/audioenc"
)

var (
	// ErrDeviceUnavailable wraps portaudio failures to open the input device.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrNoAudio is returned by Stop when nothing was captured.
	ErrNoAudio = errors.New("no audio captured")
	// ErrAlreadyCapturing is returned by Start while a stream is open.
	ErrAlreadyCapturing = errors.New("already capturing")
)

// framesPerChunk keeps callback chunks around 23 ms at 44.1 kHz.
const framesPerChunk = 1024

// Init initializes portaudio. Call once at startup, paired with Terminate.
func Init() error {
	return portaudio.Initialize()
}

// Terminate releases portaudio.
func Terminate() {
	portaudio.Terminate()
}

// Buffer is one finished recording: mono 16-bit samples plus the rate
// they were captured at. Immutable once handed out by Capture.Stop.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

// Duration reports the captured audio length.
func (b *Buffer) Duration() time.Duration {
	return audioenc.Duration(len(b.Samples), b.SampleRate)
}

// WAV encodes the buffer as a 16-bit PCM WAV file.
func (b *Buffer) WAV() ([]byte, error) {
	return audioenc.WAV(b.Samples, b.SampleRate)
}

// Capture accumulates microphone chunks between Start and Stop.
//
// The portaudio callback appends into a chunk list guarded by its own
// mutex so the audio thread never contends with Start/Stop stream
// management.
type Capture struct {
	sampleRate int

	mu     sync.Mutex // stream lifecycle
	stream *portaudio.Stream

	bufMu  sync.Mutex // callback-path append
	chunks [][]int16
}

// NewCapture returns a capture bound to the default input device.
func NewCapture(sampleRate int) *Capture {
	return &Capture{sampleRate: sampleRate}
}

// Start opens the input stream and begins buffering chunks.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrAlreadyCapturing
	}

	c.bufMu.Lock()
	c.chunks = nil
	c.bufMu.Unlock()

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), framesPerChunk, c.onChunk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.stream = stream
	return nil
}

// Stop closes the stream and returns the concatenated recording.
// Safe to call when not started; returns ErrNoAudio then, and also
// when the device delivered zero chunks.
func (c *Capture) Stop() (*Buffer, error) {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			stream.Close()
			return nil, fmt.Errorf("stop stream: %w", err)
		}
		if err := stream.Close(); err != nil {
			return nil, fmt.Errorf("close stream: %w", err)
		}
	}

	c.bufMu.Lock()
	chunks := c.chunks
	c.chunks = nil
	c.bufMu.Unlock()

	if len(chunks) == 0 {
		return nil, ErrNoAudio
	}

	total := 0
	for _, ch := range chunks {
		total += len(ch)
	}
	samples := make([]int16, 0, total)
	for _, ch := range chunks {
		samples = append(samples, ch...)
	}

	return &Buffer{Samples: samples, SampleRate: c.sampleRate}, nil
}

// onChunk runs on the portaudio callback path.
func (c *Capture) onChunk(in []int16) {
	chunk := make([]int16, len(in))
	copy(chunk, in)

	c.bufMu.Lock()
	c.chunks = append(c.chunks, chunk)
	c.bufMu.Unlock()
}
