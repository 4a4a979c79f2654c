// Package annotate attaches a market-influence estimate to news articles.
package annotate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/dedup"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

const (
	defaultModel     = "claude-haiku-4-5"
	defaultMaxTokens = 16
	defaultTimeout   = 30 * time.Second
	cacheLimit       = 2048
)

const promptTemplate = `You rate how a news article is likely to move the markets it mentions.
Reply with a single number between 0 and 1: the probability that the influence is positive.
Reply with the number only.

Title: %s
Summary: %s`

var probabilityPattern = regexp.MustCompile(`(?:^|\s)(0(?:\.\d+)?|1(?:\.0+)?)(?:\s|$)`)

// Config for the Claude annotator
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// Options are extra client options (base URL, retries)
	Options []option.RequestOption
}

// ClaudeAnnotator implements interfaces.Annotator with the Anthropic Messages API.
// Results are cached per article so several users holding the same
// article cost one request.
type ClaudeAnnotator struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    arbor.ILogger

	mu    sync.Mutex
	cache map[dedup.ArticleKey]string
}

var _ interfaces.Annotator = (*ClaudeAnnotator)(nil)

// NewClaudeAnnotator creates an annotator; the API key is required
func NewClaudeAnnotator(config Config, logger arbor.ILogger) (*ClaudeAnnotator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key not configured", interfaces.ErrConfiguration)
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	opts := append([]option.RequestOption{option.WithAPIKey(config.APIKey)}, config.Options...)
	client := anthropic.NewClient(opts...)

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", config.Timeout).
		Int("max_tokens", config.MaxTokens).
		Msg("Claude annotator initialized")

	return &ClaudeAnnotator{
		client:    client,
		model:     config.Model,
		maxTokens: config.MaxTokens,
		timeout:   config.Timeout,
		logger:    logger,
		cache:     make(map[dedup.ArticleKey]string),
	}, nil
}

// Annotate returns e.g. "Positive Influence (Probability: 0.7)"
func (a *ClaudeAnnotator) Annotate(ctx context.Context, article models.Article) (string, error) {
	key := dedup.KeyFor(article)
	if cached, ok := a.cached(key); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(promptTemplate, article.Title, article.Summary))),
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: Claude API call failed: %w", interfaces.ErrTransientFetch, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	probability, err := parseProbability(text.String())
	if err != nil {
		return "", err
	}

	annotation := FormatInfluence(probability)
	a.store(key, annotation)
	return annotation, nil
}

func (a *ClaudeAnnotator) cached(key dedup.ArticleKey) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.cache[key]
	return v, ok
}

func (a *ClaudeAnnotator) store(key dedup.ArticleKey, annotation string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.cache) >= cacheLimit {
		a.cache = make(map[dedup.ArticleKey]string)
	}
	a.cache[key] = annotation
}

// FormatInfluence renders a positive-influence probability
func FormatInfluence(probability float64) string {
	influence := "Negative Influence"
	if probability > 0.5 {
		influence = "Positive Influence"
	}
	return fmt.Sprintf("%s (Probability: %.1f)", influence, probability)
}

func parseProbability(text string) (float64, error) {
	match := probabilityPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, fmt.Errorf("%w: no probability in model reply %q", interfaces.ErrDataFormat, text)
	}
	p, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", interfaces.ErrDataFormat, err)
	}
	return p, nil
}
