// Package news fetches articles for the news watchers. Sources are routed to
// the first registered provider that supports them.
package news

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// SourceProvider fetches articles for the sources it supports
type SourceProvider interface {
	// Name returns the provider name (e.g., "investing", "eodhd")
	Name() string

	// Supports returns true if this provider can fetch source
	Supports(source string) bool

	// FetchArticles retrieves the current articles of source
	FetchArticles(ctx context.Context, source string) ([]models.Article, error)
}

// Service routes sources to providers and implements interfaces.NewsProvider
type Service struct {
	providers []SourceProvider
	logger    arbor.ILogger
}

var _ interfaces.NewsProvider = (*Service)(nil)

// NewService creates a Service with providers in priority order
func NewService(logger arbor.ILogger, providers ...SourceProvider) *Service {
	s := &Service{logger: logger}
	for _, p := range providers {
		s.RegisterProvider(p)
	}
	return s
}

// RegisterProvider adds a provider. Providers are tried in registration order.
func (s *Service) RegisterProvider(provider SourceProvider) {
	s.providers = append(s.providers, provider)
	s.logger.Debug().
		Str("provider", provider.Name()).
		Msg("Registered news provider")
}

// FetchArticles fetches source with the first provider that supports it
func (s *Service) FetchArticles(ctx context.Context, source string) ([]models.Article, error) {
	for _, provider := range s.providers {
		if !provider.Supports(source) {
			continue
		}

		articles, err := provider.FetchArticles(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", provider.Name(), err)
		}

		s.logger.Debug().
			Str("provider", provider.Name()).
			Str("source", source).
			Int("articles", len(articles)).
			Msg("Fetched news")
		return articles, nil
	}

	return nil, fmt.Errorf("%w: no news provider supports source %q", interfaces.ErrConfiguration, source)
}
