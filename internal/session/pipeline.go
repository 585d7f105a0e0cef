package session

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/salah-saleh/AuraSpeak/internal/audio"
	"github.com/salah-saleh/AuraSpeak/internal/bench"
	"github.com/salah-saleh/AuraSpeak/internal/nlu"
	"github.com/salah-saleh/AuraSpeak/internal/stt"
)

// Pipeline processes one finished recording: transcription fan-out,
// intent classification, then the selected action. The context is
// checked before each stage and again before playback; in-flight
// collaborator calls are never force-terminated.
type Pipeline struct {
	// Primary is the authoritative transcription backend. Comparisons
	// run concurrently on the same buffer; their output is only logged.
	Primary     stt.Transcriber
	Comparisons []stt.Transcriber

	Classifier Classifier
	Searcher   Searcher
	Synth      Synthesizer
	Clipboard  ClipboardWriter
	Player     Playback

	Bench  *bench.Registry
	Notify func(title, body string)
}

// Run executes the pipeline for buf. It returns nil on success,
// context.Canceled when preempted, or the stage error otherwise.
func (p *Pipeline) Run(ctx context.Context, buf *audio.Buffer) error {
	defer p.track("total_processing")()

	if err := ctx.Err(); err != nil {
		return err
	}
	transcript, err := p.transcribe(ctx, buf)
	if err != nil {
		p.alert("Transcription failed", err.Error())
		return fmt.Errorf("transcription: %w", err)
	}
	if transcript == "" {
		log.Info("empty transcript, nothing to do")
		return nil
	}
	log.Info("transcript", "text", transcript)

	if err := ctx.Err(); err != nil {
		return err
	}
	res := p.Classifier.Classify(ctx, transcript)
	log.Info("intent", "intent", res.Intent, "query", res.Query, "length", res.ResultLength)

	if err := ctx.Err(); err != nil {
		return err
	}
	return p.act(ctx, res)
}

// transcribe runs every backend concurrently and waits for all of
// them. Only the primary's failure fails the stage; a comparison
// backend's text is never substituted for the primary's.
func (p *Pipeline) transcribe(ctx context.Context, buf *audio.Buffer) (string, error) {
	backends := append([]stt.Transcriber{p.Primary}, p.Comparisons...)

	type outcome struct {
		text string
		err  error
	}
	results := make([]outcome, len(backends))

	var wg sync.WaitGroup
	for i, backend := range backends {
		wg.Add(1)
		go func(i int, b stt.Transcriber) {
			defer wg.Done()
			defer p.track(b.Name())()
			text, err := b.Transcribe(ctx, buf)
			results[i] = outcome{text: text, err: err}
		}(i, backend)
	}
	wg.Wait()

	for i, backend := range backends[1:] {
		r := results[i+1]
		if r.err != nil {
			log.Warn("comparison backend failed", "backend", backend.Name(), "err", r.err)
			continue
		}
		log.Info("comparison transcript", "backend", backend.Name(), "text", r.text)
	}

	if results[0].err != nil {
		return "", fmt.Errorf("%s: %w", p.Primary.Name(), results[0].err)
	}
	return results[0].text, nil
}

func (p *Pipeline) act(ctx context.Context, res nlu.Result) error {
	switch res.Intent {
	case nlu.IntentClipboard:
		defer p.track("clipboard_write")()
		if err := p.Clipboard.Write(res.Query); err != nil {
			p.alert("Clipboard failed", err.Error())
			return fmt.Errorf("clipboard: %w", err)
		}
		log.Info("copied to clipboard", "chars", len(res.Query))
		return nil

	case nlu.IntentSpeak:
		return p.speak(ctx, res.Query)

	case nlu.IntentSearch:
		stop := p.track("web_search")
		result, err := p.Searcher.Search(ctx, res.Query, res.ResultLength)
		stop()
		if err != nil {
			p.alert("Search failed", err.Error())
			return fmt.Errorf("search: %w", err)
		}

		log.Info("search answer", "answer", result.Answer)
		for i, cit := range result.Citations {
			log.Info("citation", "rank", i+1, "title", cit.Title, "link", cit.Link)
		}
		if result.ArtifactPath != "" {
			log.Info("saved search results", "path", result.ArtifactPath)
		}
		return p.speak(ctx, result.Answer)

	default:
		return fmt.Errorf("unknown intent %q", res.Intent)
	}
}

func (p *Pipeline) speak(ctx context.Context, text string) error {
	stop := p.track("speech_synthesis")
	data, err := p.Synth.Synthesize(ctx, text)
	stop()
	if err != nil {
		p.alert("Speech synthesis failed", err.Error())
		return fmt.Errorf("synthesize: %w", err)
	}

	// Last checkpoint before the speaker starts.
	if err := ctx.Err(); err != nil {
		return err
	}

	defer p.track("playback")()
	if err := p.Player.Play(ctx, data); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		p.alert("Playback failed", err.Error())
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}

func (p *Pipeline) track(name string) func() {
	if p.Bench == nil {
		return func() {}
	}
	return p.Bench.Track(name)
}

func (p *Pipeline) alert(title, body string) {
	if p.Notify != nil {
		p.Notify(title, body)
	}
}
