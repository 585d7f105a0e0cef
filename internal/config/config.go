// Package config assembles runtime configuration from the environment.
// Values come from the process environment (optionally preloaded from
// a .env file by the caller); flags on the daemon override a few of
// them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the daemon needs to wire its collaborators.
type Config struct {
	// APIKey authenticates every OpenAI call. Required.
	APIKey string

	// SampleRate for microphone capture, Hz.
	SampleRate int

	// RecordKeys is the hold-to-talk combination, by key name.
	RecordKeys []string

	// LocalModel is a ggml whisper.cpp model path; empty disables the
	// local comparison backend.
	LocalModel string

	// ChatModel serves intent classification and search summaries.
	ChatModel string

	// TTSModel and TTSVoice select the synthesis output.
	TTSModel string
	TTSVoice string

	// BenchDir and SearchDir receive shutdown benchmarks and saved
	// search results.
	BenchDir  string
	SearchDir string

	// PreemptTimeout bounds the wait for a cancelled pipeline before a
	// new recording starts anyway.
	PreemptTimeout time.Duration

	// CallTimeout bounds each collaborator call.
	CallTimeout time.Duration
}

// Load reads configuration from the environment. A missing API key is
// an error: credentials are startup-fatal, never a runtime surprise.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		SampleRate:     44100,
		RecordKeys:     []string{"rshift", "ralt"},
		LocalModel:     os.Getenv("AURA_WHISPER_MODEL"),
		ChatModel:      os.Getenv("AURA_CHAT_MODEL"),
		TTSModel:       os.Getenv("AURA_TTS_MODEL"),
		TTSVoice:       os.Getenv("AURA_TTS_VOICE"),
		BenchDir:       "benchmarks",
		SearchDir:      "searches",
		PreemptTimeout: 2 * time.Second,
		CallTimeout:    60 * time.Second,
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	if v := os.Getenv("AURA_SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid AURA_SAMPLE_RATE %q", v)
		}
		cfg.SampleRate = rate
	}

	if v := os.Getenv("AURA_RECORD_KEYS"); v != "" {
		keys := splitKeys(v)
		if len(keys) == 0 {
			return nil, fmt.Errorf("invalid AURA_RECORD_KEYS %q", v)
		}
		cfg.RecordKeys = keys
	}

	if v := os.Getenv("AURA_BENCH_DIR"); v != "" {
		cfg.BenchDir = v
	}
	if v := os.Getenv("AURA_SEARCH_DIR"); v != "" {
		cfg.SearchDir = v
	}

	var err error
	if cfg.PreemptTimeout, err = envDuration("AURA_PREEMPT_TIMEOUT", cfg.PreemptTimeout); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = envDuration("AURA_CALL_TIMEOUT", cfg.CallTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return d, nil
}

func splitKeys(v string) []string {
	var keys []string
	for _, k := range strings.FieldsFunc(v, func(r rune) bool { return r == '+' || r == ',' }) {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
