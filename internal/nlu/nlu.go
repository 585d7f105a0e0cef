// Package nlu classifies a transcript into one of three intents:
// copy to clipboard, speak aloud, or web search. Classification is
// best-effort; any failure falls back to a usable default instead of
// surfacing an error.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

// Intent selects the pipeline action.
type Intent string

const (
	IntentClipboard Intent = "clipboard"
	IntentSpeak     Intent = "speak"
	IntentSearch    Intent = "search"
)

// ResultLength sizes a spoken search answer.
type ResultLength string

const (
	LengthShort    ResultLength = "short"
	LengthDetailed ResultLength = "detailed"
	LengthDefault  ResultLength = "default"
)

// Result is the classifier output. Immutable once produced.
type Result struct {
	Intent       Intent       `json:"intent"`
	Query        string       `json:"query"`
	ResultLength ResultLength `json:"result_length"`
}

const systemPrompt = `
You are the intent classifier for a voice assistant.
Your ONLY job is to convert the user's utterance into a minimal structured JSON.

GENERAL RULES:
1. Do NOT converse.
2. Do NOT answer the question.
3. Do NOT add explanations.
4. Output ONLY JSON. No markdown.

OUTPUT FORMAT:
{
  "intent": "<clipboard|speak|search>",
  "query": "<string>",
  "result_length": "<short|detailed|default>"
}

INTENTS:
- "search": the user wants information from the web ("search for",
  "look up", "what is", "what time is it in", ...). query is the thing
  to search for, with the trigger phrase stripped.
- "speak": the user wants text read aloud ("read this aloud", "speak",
  "say", ...). query is the text to speak.
- "clipboard": everything else. query is the full utterance, verbatim.

RESULT LENGTH (search only, otherwise "default"):
- "short" when the user asks for a quick/brief answer.
- "detailed" when the user asks for depth or detail.
- "default" otherwise.

If the meaning is unclear, use "clipboard" with the full utterance.
Be strict and minimal.
`

// Classifier turns transcripts into Results via a chat completion.
type Classifier struct {
	api   openai.Client
	model string
}

// NewClassifier returns a classifier using model for completions.
func NewClassifier(client openai.Client, model string) *Classifier {
	if model == "" {
		model = string(openai.ChatModelGPT5Nano)
	}
	return &Classifier{api: client, model: model}
}

// Classify never fails outward: API errors, malformed JSON, and
// out-of-range values all resolve to the keyword fallback.
func (c *Classifier) Classify(ctx context.Context, transcript string) Result {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		log.Warn("intent classification failed, using fallback", "err", err)
		return fallback(transcript)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Warn("empty classifier response, using fallback")
		return fallback(transcript)
	}

	out, err := decode(resp.Choices[0].Message.Content)
	if err != nil {
		log.Warn("undecodable classifier response, using fallback", "err", err)
		return fallback(transcript)
	}
	if out.Query == "" {
		out.Query = transcript
	}
	return out
}

// decode parses the model output into a validated Result.
func decode(content string) (Result, error) {
	content = stripFences(content)

	var out Result
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Result{}, fmt.Errorf("unmarshal intent result: %w (raw: %s)", err, content)
	}

	switch out.Intent {
	case IntentClipboard, IntentSpeak, IntentSearch:
	default:
		return Result{}, fmt.Errorf("unknown intent %q", out.Intent)
	}

	switch out.ResultLength {
	case LengthShort, LengthDetailed, LengthDefault:
	case "":
		out.ResultLength = LengthDefault
	default:
		return Result{}, fmt.Errorf("unknown result length %q", out.ResultLength)
	}

	return out, nil
}

// stripFences removes a ```json ... ``` wrapper some models insist on.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallback routes by trigger phrases, defaulting to clipboard with the
// untouched transcript.
func fallback(transcript string) Result {
	lowered := strings.ToLower(transcript)
	switch {
	case strings.HasPrefix(lowered, "search the web about"),
		strings.HasPrefix(lowered, "search for"),
		strings.Contains(lowered, "search the web"):
		return Result{Intent: IntentSearch, Query: transcript, ResultLength: LengthDefault}
	case strings.HasPrefix(lowered, "read this aloud"),
		strings.HasPrefix(lowered, "speak"),
		strings.Contains(lowered, "read aloud"):
		return Result{Intent: IntentSpeak, Query: transcript, ResultLength: LengthDefault}
	default:
		return Result{Intent: IntentClipboard, Query: transcript, ResultLength: LengthDefault}
	}
}
