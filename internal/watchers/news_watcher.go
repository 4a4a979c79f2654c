package watchers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/dedup"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/retry"
	"github.com/ternarybob/ipsa/internal/timewindow"
)

// DefaultNewsWindow applies when the user has no window or an unparsable one
const DefaultNewsWindow = "1 days"

// Defaults applied when NewsConfig leaves timing unset
const (
	DefaultNewsInterval   = 60 * time.Second
	DefaultNewsMaxBackoff = 15 * time.Minute
)

// NewsConfig holds NewsWatcher settings
type NewsConfig struct {
	Interval      time.Duration
	MaxBackoff    time.Duration
	Sources       []string
	DefaultWindow string
	// RelevanceFilter drops articles that mention none of the user's symbols
	RelevanceFilter bool
}

// NewsWatcher polls news sources for one user and delivers unseen in-window articles.
// The dedup set is owned by the Run goroutine.
type NewsWatcher struct {
	user      models.UserID
	news      interfaces.NewsProvider
	settings  interfaces.UserSettingsProvider
	portfolio interfaces.PortfolioProvider
	annotator interfaces.Annotator
	sink      interfaces.NotificationSink
	policy    *retry.Policy
	window    *timewindow.Window
	config    NewsConfig
	logger    arbor.ILogger

	state         stateCell
	seen          *dedup.Set[dedup.ArticleKey]
	defaultPeriod timewindow.Period
}

// NewNewsWatcher creates a NewsWatcher for user. portfolio is only consulted
// when the relevance filter is enabled; annotator may be nil.
func NewNewsWatcher(
	user models.UserID,
	news interfaces.NewsProvider,
	settings interfaces.UserSettingsProvider,
	portfolio interfaces.PortfolioProvider,
	annotator interfaces.Annotator,
	sink interfaces.NotificationSink,
	policy *retry.Policy,
	window *timewindow.Window,
	config NewsConfig,
	logger arbor.ILogger,
) *NewsWatcher {
	defaultPeriod, err := timewindow.ParsePeriod(config.DefaultWindow)
	if err != nil {
		if config.DefaultWindow != "" {
			logger.Warn().Err(err).Str("window", config.DefaultWindow).Msg("Invalid default news window, using " + DefaultNewsWindow)
		}
		defaultPeriod = timewindow.MustParsePeriod(DefaultNewsWindow)
	}
	if config.Interval <= 0 {
		config.Interval = DefaultNewsInterval
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultNewsMaxBackoff
	}

	return &NewsWatcher{
		user:          user,
		news:          news,
		settings:      settings,
		portfolio:     portfolio,
		annotator:     annotator,
		sink:          sink,
		policy:        policy,
		window:        window,
		config:        config,
		logger:        logger,
		seen:          dedup.New[dedup.ArticleKey](),
		defaultPeriod: defaultPeriod,
	}
}

// State returns the current loop state
func (w *NewsWatcher) State() State {
	return w.state.get()
}

// Run polls until ctx is cancelled
func (w *NewsWatcher) Run(ctx context.Context) {
	l := newLoop(string(KindNews), w.config.Interval, w.config.MaxBackoff, &w.state, w.logger)
	l.run(ctx, w.cycle)
}

// cycle runs Fetching, Filtering and Notifying once.
// It fails only when every source failed.
func (w *NewsWatcher) cycle(ctx context.Context) error {
	w.state.set(StateFetching)

	tz, period := w.userSettings(ctx)
	articles, failed := w.fetch(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	w.state.set(StateFiltering)
	relevant := w.relevanceMatcher(ctx)
	queued := w.filter(articles, period, tz, relevant)

	w.state.set(StateNotifying)
	w.notify(ctx, queued, tz)

	if len(w.config.Sources) > 0 && failed == len(w.config.Sources) {
		return fmt.Errorf("%w: all %d news sources failed", interfaces.ErrTransientFetch, failed)
	}

	w.logger.Debug().
		Int("fetched", len(articles)).
		Int("delivered", len(queued)).
		Int("seen", w.seen.Len()).
		Str("window", period.String()).
		Msg("News cycle complete")

	return nil
}

// userSettings resolves the timezone and news window for this cycle,
// falling back to defaults on any configuration error
func (w *NewsWatcher) userSettings(ctx context.Context) (string, timewindow.Period) {
	tz, err := w.settings.GetTimezone(ctx, w.user)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to read user timezone, using default")
		tz = ""
	}
	if tz == "" {
		tz = timewindow.DefaultTimezone
	}
	// Resolved once per cycle so an unknown zone warns once
	tz = w.window.Location(tz).String()

	period := w.defaultPeriod
	raw, err := w.settings.GetNewsWindow(ctx, w.user)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to read user news window, using default")
		return tz, period
	}
	if strings.TrimSpace(raw) == "" {
		return tz, period
	}

	parsed, err := timewindow.ParsePeriod(raw)
	if err != nil {
		w.logger.Warn().Err(err).Str("window", raw).Str("fallback", period.String()).Msg("Invalid user news window, using default")
		return tz, period
	}
	return tz, parsed
}

func (w *NewsWatcher) fetch(ctx context.Context) ([]models.Article, int) {
	var articles []models.Article
	failed := 0

	for _, source := range w.config.Sources {
		if ctx.Err() != nil {
			break
		}

		batch, err := retry.Do(ctx, w.policy, "news", func(ctx context.Context) ([]models.Article, error) {
			return w.news.FetchArticles(ctx, source)
		})
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn().Str("source", source).Err(err).Msg("News source failed, skipping")
			}
			failed++
			continue
		}

		articles = append(articles, batch...)
	}

	return articles, failed
}

// filter applies dedup, window and relevance checks. Only articles that
// pass every check are marked seen.
func (w *NewsWatcher) filter(articles []models.Article, period timewindow.Period, tz string, relevant *regexp.Regexp) []models.Article {
	var queued []models.Article

	for _, a := range articles {
		if err := validateArticle(a); err != nil {
			w.logger.Debug().Str("url", a.URL).Err(err).Msg("Skipping malformed article")
			continue
		}

		key := dedup.KeyFor(a)
		if w.seen.Seen(key) {
			continue
		}
		if !w.window.IsWithin(a.PublishedAt, period, tz) {
			continue
		}
		if relevant != nil && !relevant.MatchString(a.Title+" "+a.Summary) {
			continue
		}

		w.seen.Mark(key)
		queued = append(queued, a)
	}

	return queued
}

// relevanceMatcher compiles the user's symbols once per cycle when the
// relevance filter is on. A nil matcher means no filtering: filter off,
// empty portfolio, or a failed lookup.
func (w *NewsWatcher) relevanceMatcher(ctx context.Context) *regexp.Regexp {
	if !w.config.RelevanceFilter || w.portfolio == nil {
		return nil
	}
	symbols, err := w.portfolio.GetSymbols(ctx, w.user)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Portfolio lookup failed, relevance filter disabled for this cycle")
		return nil
	}
	return symbolMatcher(symbols)
}

func (w *NewsWatcher) notify(ctx context.Context, queued []models.Article, tz string) {
	for _, a := range queued {
		if ctx.Err() != nil {
			return
		}

		text := FormatArticle(a, w.window.Local(a.PublishedAt, tz), w.window.Elapsed(a.PublishedAt, tz), w.annotate(ctx, a))
		if ctx.Err() != nil {
			return
		}

		if err := w.sink.Deliver(ctx, w.user, text); err != nil {
			w.logger.Warn().
				Str("url", a.URL).
				Err(fmt.Errorf("%w: %w", interfaces.ErrDelivery, err)).
				Msg("Failed to deliver news notification")
			continue
		}

		w.logger.Info().Str("title", a.Title).Str("source", a.Source).Msg("News notification delivered")
	}
}

func (w *NewsWatcher) annotate(ctx context.Context, a models.Article) string {
	if w.annotator == nil {
		return ""
	}
	annotation, err := w.annotator.Annotate(ctx, a)
	if err != nil {
		w.logger.Warn().Str("title", a.Title).Err(err).Msg("Annotation failed, omitting")
		return ""
	}
	return strings.TrimSpace(annotation)
}

func validateArticle(a models.Article) error {
	switch {
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: article without title", interfaces.ErrDataFormat)
	case strings.TrimSpace(a.URL) == "":
		return fmt.Errorf("%w: article without url", interfaces.ErrDataFormat)
	case a.PublishedAt.IsZero():
		return fmt.Errorf("%w: article without publish time", interfaces.ErrDataFormat)
	}
	return nil
}

// symbolMatcher builds one case-insensitive whole-word pattern for symbols.
// Exchange suffixes are ignored (AAPL.US matches AAPL). Returns nil when no
// symbol is usable.
func symbolMatcher(symbols []string) *regexp.Regexp {
	var codes []string
	for _, symbol := range symbols {
		code := strings.TrimSpace(symbol)
		if i := strings.IndexByte(code, '.'); i > 0 {
			code = code[:i]
		}
		if code == "" {
			continue
		}
		codes = append(codes, regexp.QuoteMeta(code))
	}
	if len(codes) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(codes, "|") + `)\b`)
}
