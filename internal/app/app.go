package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/eodhd"
	"github.com/ternarybob/ipsa/internal/httpclient"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/retry"
	"github.com/ternarybob/ipsa/internal/services/annotate"
	"github.com/ternarybob/ipsa/internal/services/monitor"
	"github.com/ternarybob/ipsa/internal/services/news"
	"github.com/ternarybob/ipsa/internal/services/notify"
	"github.com/ternarybob/ipsa/internal/services/portfolio"
	"github.com/ternarybob/ipsa/internal/services/quotes"
	"github.com/ternarybob/ipsa/internal/storage/badger"
	"github.com/ternarybob/ipsa/internal/timewindow"
	"github.com/ternarybob/ipsa/internal/watchers"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB    *badger.BadgerDB
	Users interfaces.UserStorage

	// Providers
	EODHD     *eodhd.Client
	Quotes    interfaces.QuoteProvider
	News      *news.Service
	Sink      interfaces.NotificationSink
	Annotator interfaces.Annotator

	// Domain services
	Portfolio *portfolio.Service
	Registry  *watchers.Registry
	Monitor   *monitor.Service

	closed bool
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.Monitor.Enabled {
		app.Monitor = monitor.NewService(app.Registry, cfg.Monitor.Schedule, logger)
		app.Monitor.SetStorage(app.DB)
		if err := app.Monitor.Start(); err != nil {
			app.DB.Close()
			return nil, fmt.Errorf("failed to start resource monitor: %w", err)
		}
	}

	logger.Info().
		Bool("telegram", cfg.Telegram.BotToken != "").
		Bool("annotations", app.Annotator != nil).
		Int("news_sources", len(cfg.News.Sources)).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.Users = badger.NewUserStorage(db, a.Logger)
	return nil
}

func (a *App) initServices() error {
	cfg := a.Config

	// Quotes and EODHD news share one rate-limited client
	a.EODHD = eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithTimeout(common.ParseDurationOr(cfg.EODHD.Timeout, 30*time.Second)),
		eodhd.WithRateLimit(cfg.EODHD.RateLimit),
		eodhd.WithLogger(a.Logger),
	)
	if cfg.EODHD.APIKey == "" {
		a.Logger.Warn().Msg("EODHD API key not configured - price watchers will fail every cycle")
	}
	a.Quotes = quotes.NewEODHDProvider(a.EODHD, cfg.EODHD.Exchange, a.Logger)

	scraper, err := httpclient.NewScraperClient(common.ParseDurationOr(cfg.News.Timeout, 30*time.Second))
	if err != nil {
		return err
	}
	a.News = news.NewService(a.Logger,
		news.NewEODHDProvider(a.Logger, a.EODHD, cfg.EODHD.Exchange),
		news.NewInvestingProvider(a.Logger, scraper, cfg.News.UserAgent, common.ParseDurationOr(cfg.News.RateLimit, time.Second)),
	)

	if cfg.Telegram.BotToken != "" {
		sink, err := notify.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.Debug, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create telegram sink: %w", err)
		}
		a.Sink = sink
	} else {
		a.Logger.Warn().Msg("Telegram bot token not configured - notifications will be logged only")
		a.Sink = notify.NewLogSink(a.Logger)
	}

	// Annotator stays a nil interface when disabled
	if cfg.Claude.APIKey != "" {
		annotator, err := annotate.NewClaudeAnnotator(annotate.Config{
			APIKey:    cfg.Claude.APIKey,
			Model:     cfg.Claude.Model,
			MaxTokens: cfg.Claude.MaxTokens,
			Timeout:   common.ParseDurationOr(cfg.Claude.Timeout, 30*time.Second),
		}, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create annotator: %w", err)
		}
		a.Annotator = annotator
	}

	a.Portfolio = portfolio.NewService(a.Users, a.Logger)

	policy := retry.NewPolicy(retry.Config{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      common.ParseDurationOr(cfg.Retry.BaseDelay, retry.DefaultBaseDelay),
		MaxDelay:       common.ParseDurationOr(cfg.Retry.MaxDelay, retry.DefaultMaxDelay),
		AttemptTimeout: common.ParseDurationOr(cfg.Retry.AttemptTimeout, retry.DefaultAttemptTimeout),
	}, a.Logger)

	window := timewindow.NewWindow(common.SystemClock{}, cfg.Defaults.Timezone, a.Logger)

	factory := watchers.NewFactory(watchers.Dependencies{
		Portfolio: a.Users,
		Quotes:    a.Quotes,
		News:      a.News,
		Settings:  a.Users,
		Sink:      a.Sink,
		Annotator: a.Annotator,
		Policy:    policy,
		Window:    window,
		Price: watchers.PriceConfig{
			Interval:   common.ParseDurationOr(cfg.Watchers.Price.Interval, 30*time.Second),
			MaxBackoff: common.ParseDurationOr(cfg.Watchers.Price.MaxBackoff, 10*time.Minute),
		},
		NewsCfg: watchers.NewsConfig{
			Interval:        common.ParseDurationOr(cfg.Watchers.News.Interval, 60*time.Second),
			MaxBackoff:      common.ParseDurationOr(cfg.Watchers.News.MaxBackoff, 15*time.Minute),
			Sources:         cfg.News.Sources,
			DefaultWindow:   cfg.Defaults.NewsWindow,
			RelevanceFilter: cfg.Watchers.News.RelevanceFilter,
		},
	})
	a.Registry = watchers.NewRegistry(factory, a.Logger)

	return nil
}

// Seed registers user, adds assets when non-blank and starts monitoring.
// Registering an existing user keeps its stored data.
func (a *App) Seed(ctx context.Context, user models.UserID, username, assets string) error {
	if _, err := a.Portfolio.Register(ctx, user, username); err != nil {
		return err
	}
	if strings.TrimSpace(assets) != "" {
		if _, err := a.Portfolio.AddAssets(ctx, user, assets); err != nil {
			return fmt.Errorf("add assets for user %s: %w", user, err)
		}
	}
	if err := a.StartMonitoring(ctx, user); err != nil {
		return err
	}

	a.Logger.Info().Str("user", user.String()).Msg("Seeded user from command line")
	return nil
}

// ParseUserArg parses an "ID[:username]" command-line value
func ParseUserArg(value string) (models.UserID, string, error) {
	idPart, username, _ := strings.Cut(value, ":")
	id, err := models.ParseUserID(idPart)
	if err != nil {
		return 0, "", fmt.Errorf("invalid user %q: %w", value, err)
	}
	return id, strings.TrimSpace(username), nil
}

// StartMonitoring marks the user active and starts both watchers
func (a *App) StartMonitoring(ctx context.Context, user models.UserID) error {
	if err := a.Users.SetActive(ctx, user, true); err != nil {
		return err
	}
	return a.Registry.StartMonitoring(user)
}

// StopMonitoring marks the user inactive and stops its watchers.
// Returns the number of watchers stopped.
func (a *App) StopMonitoring(ctx context.Context, user models.UserID) (int, error) {
	stopped := a.Registry.StopMonitoring(user)
	if err := a.Users.SetActive(ctx, user, false); err != nil && !errors.Is(err, interfaces.ErrUserNotFound) {
		return stopped, err
	}
	return stopped, nil
}

// ResumeActive starts monitoring for every stored user flagged active.
// Returns the number of users resumed.
func (a *App) ResumeActive(ctx context.Context) (int, error) {
	users, err := a.Users.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	resumed := 0
	for _, user := range users {
		if err := a.Registry.StartMonitoring(user.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		resumed++
	}

	a.Logger.Info().Int("users", resumed).Msg("Resumed monitoring for active users")
	return resumed, errors.Join(errs...)
}

// Close stops all watchers and closes application resources
func (a *App) Close(ctx context.Context) error {
	if a.closed {
		return nil
	}
	a.closed = true

	if a.Monitor != nil {
		a.Monitor.Stop()
	}

	var shutdownErr error
	if a.Registry != nil {
		if err := a.Registry.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Watchers did not stop before shutdown deadline")
			shutdownErr = err
		} else {
			a.Logger.Info().Msg("All watchers stopped")
		}
	}

	if a.Users != nil {
		if err := a.Users.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return shutdownErr
}
