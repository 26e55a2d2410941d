// Package enrich rewrites generated worklog summaries into prose.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fakeyudi/autopilot/internal/logging"
	"github.com/fakeyudi/autopilot/internal/session"
)

// DefaultModel is a small, fast model suited to one-line descriptions.
const DefaultModel = "claude-haiku-4-5-20251001"

const (
	maxTokens   = 150
	maxFiles    = 10
	maxCommands = 5
)

// Enricher turns raw facts into a short worklog description.
type Enricher interface {
	Enrich(ctx context.Context, facts session.RawFacts, language string) (string, error)
}

// Anthropic enriches summaries through the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
	log    *logging.Logger
}

// NewAnthropic creates an Enricher. Extra request options (base URL, retries)
// are passed to the SDK client.
func NewAnthropic(apiKey string, log *logging.Logger, opts ...option.RequestOption) *Anthropic {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	if log == nil {
		log = logging.Discard()
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(DefaultModel),
		log:    log,
	}
}

func (a *Anthropic) Enrich(ctx context.Context, facts session.RawFacts, language string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(facts, language))),
		},
	})
	if err != nil {
		a.log.Warn("enrich failed", "err", err)
		return "", fmt.Errorf("enrich summary: %w", err)
	}

	var parts []string
	for _, content := range resp.Content {
		if content.Type == "text" {
			parts = append(parts, content.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	a.log.Info("enrich", "model", a.model, "chars", len(text))
	if text == "" {
		return "", errors.New("enrich summary: empty response")
	}
	return text, nil
}

// Prompt builds the request text from at most ten file names and five
// commands.
func Prompt(facts session.RawFacts, language string) string {
	if language == "" {
		language = "English"
	}
	files := make([]string, 0, maxFiles)
	for _, f := range facts.Files[:min(len(facts.Files), maxFiles)] {
		files = append(files, path.Base(strings.ReplaceAll(f, `\`, "/")))
	}
	commands := facts.Commands[:min(len(facts.Commands), maxCommands)]

	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise Jira worklog description (1-2 sentences, max 120 chars) in %s ", language)
	b.WriteString("summarizing this work. Reply with the description only.\n\n")
	if len(files) > 0 {
		fmt.Fprintf(&b, "Files: %s\n", strings.Join(files, ", "))
	}
	if len(commands) > 0 {
		fmt.Fprintf(&b, "Commands: %s\n", strings.Join(commands, "; "))
	}
	fmt.Fprintf(&b, "Activities: %d\n", facts.ActivityCount)
	return b.String()
}

// Summary returns the enriched summary, or fallback when e is nil, the call
// fails or it returns nothing.
func Summary(ctx context.Context, e Enricher, facts session.RawFacts, language, fallback string) string {
	if e == nil {
		return fallback
	}
	text, err := e.Enrich(ctx, facts, language)
	if err != nil || text == "" {
		return fallback
	}
	return text
}
