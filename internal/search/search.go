// Package search answers a query from the web: DuckDuckGo results,
// scraped page text, and an LLM summary sized to the requested length.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"golang.org/x/net/html"

	"github.com/salah-saleh/AuraSpeak/internal/nlu"
)

// ErrNoResults is returned when the search yields nothing usable.
var ErrNoResults = errors.New("no search results")

const (
	searchEndpoint = "https://html.duckduckgo.com/html/"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AuraSpeak/1.0"

	maxCitations   = 3
	maxScrapeTotal = 20000 // combined characters of scraped page text
	scrapeTimeout  = 10 * time.Second
)

// Citation is one search hit, in result order.
type Citation struct {
	Title   string
	Link    string
	Snippet string
}

// Result is a finished search: the spoken answer, the saved artifact
// (empty when saving is disabled or failed), and the citations.
type Result struct {
	Answer       string
	ArtifactPath string
	Citations    []Citation
}

// Client runs searches. The HTTP client is shared with the other
// collaborators so proxy configuration applies here too.
type Client struct {
	http  *http.Client
	api   openai.Client
	model string
	dir   string // artifact directory; empty disables saving
}

// New returns a search client writing artifacts under dir.
func New(httpClient *http.Client, api openai.Client, model, dir string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if model == "" {
		model = string(openai.ChatModelGPT5Nano)
	}
	return &Client{http: httpClient, api: api, model: model, dir: dir}
}

// Search fetches results, scrapes the top pages, and summarizes them.
func (c *Client) Search(ctx context.Context, query string, length nlu.ResultLength) (*Result, error) {
	citations, err := c.fetchResults(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(citations) == 0 {
		return nil, ErrNoResults
	}
	if len(citations) > maxCitations {
		citations = citations[:maxCitations]
	}

	pages := c.scrape(ctx, citations)

	answer, err := c.summarize(ctx, query, citations, pages, length)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}

	res := &Result{Answer: answer, Citations: citations}
	if c.dir != "" {
		path, err := saveArtifact(c.dir, query, answer, citations, pages)
		if err != nil {
			log.Warn("failed to save search artifact", "err", err)
		} else {
			res.ArtifactPath = path
		}
	}
	return res, nil
}

func (c *Client) fetchResults(ctx context.Context, query string) ([]Citation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		searchEndpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned %s", ErrNoResults, resp.Status)
	}
	return parseResults(resp.Body)
}

// parseResults extracts result anchors and snippets from the DuckDuckGo
// HTML endpoint markup.
func parseResults(r io.Reader) ([]Citation, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var citations []Citation
	var snippets []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				citations = append(citations, Citation{
					Title: strings.TrimSpace(textContent(n)),
					Link:  resolveRedirect(attr(n, "href")),
				})
			case hasClass(n, "result__snippet"):
				snippets = append(snippets, strings.TrimSpace(textContent(n)))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	for i := range citations {
		if i < len(snippets) {
			citations[i].Snippet = snippets[i]
		}
	}
	return citations, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// scrape fetches each cited page and extracts its visible text, bounded
// by a combined budget. Failures skip the page.
func (c *Client) scrape(ctx context.Context, citations []Citation) map[string]string {
	pages := make(map[string]string, len(citations))
	budget := maxScrapeTotal

	for _, cit := range citations {
		if budget <= 0 {
			break
		}
		text, err := c.scrapeOne(ctx, cit.Link)
		if err != nil {
			log.Debug("scrape failed", "url", cit.Link, "err", err)
			continue
		}
		if len(text) > budget {
			text = text[:budget]
		}
		if text != "" {
			pages[cit.Link] = text
			budget -= len(text)
		}
	}
	return pages
}

func (c *Client) scrapeOne(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", errors.New("empty url")
	}
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %s", resp.Status)
	}
	return extractText(resp.Body)
}

// extractText collapses a page into whitespace-normalized visible text.
func extractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " "), nil
}

func (c *Client) summarize(ctx context.Context, query string, citations []Citation, pages map[string]string, length nlu.ResultLength) (string, error) {
	prompt := buildSummaryPrompt(query, citations, pages)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt(length)),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty summary response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func summarySystemPrompt(length nlu.ResultLength) string {
	base := "You are a research assistant for a voice interface. " +
		"Answer the user's query using only the provided search results. " +
		"Plain prose, no markup, suitable for reading aloud. "
	switch length {
	case nlu.LengthShort:
		return base + "Answer in one or two sentences."
	case nlu.LengthDetailed:
		return base + "Give a thorough answer covering the relevant details."
	default:
		return base + "Answer concisely."
	}
}

func buildSummaryPrompt(query string, citations []Citation, pages map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nSearch results:\n", query)
	for i, cit := range citations {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, cit.Title, cit.Link, cit.Snippet)
	}
	if len(pages) > 0 {
		b.WriteString("Page excerpts:\n")
		for _, cit := range citations {
			if text, ok := pages[cit.Link]; ok {
				fmt.Fprintf(&b, "[%s]\n%s\n\n", cit.Link, text)
			}
		}
	}
	return b.String()
}

func saveArtifact(dir, query, answer string, citations []Citation, pages map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nAnswer:\n%s\n\nResults:\n", query, answer)
	for i, cit := range citations {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, cit.Title, cit.Link, cit.Snippet)
	}
	for _, cit := range citations {
		if text, ok := pages[cit.Link]; ok {
			fmt.Fprintf(&b, "--- %s ---\n%s\n\n", cit.Link, text)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("search_%s.txt", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(textContent(child))
	}
	return b.String()
}
