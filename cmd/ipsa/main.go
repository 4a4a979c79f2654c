package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/app"
	"github.com/ternarybob/ipsa/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	addUser      = flag.String("add-user", "", "Register ID[:username] and start monitoring it")
	addAssets    = flag.String("assets", "", "Assets to add for -add-user, e.g. \"AAPL, 10 | MSFT, 5\"")
	noResume     = flag.Bool("no-resume", false, "Do not restart watchers for users that were active at shutdown")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

const shutdownTimeout = 15 * time.Second

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("IPSA version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if len(configFiles) == 0 {
		if _, err := os.Stat("ipsa.toml"); err == nil {
			configFiles = append(configFiles, "ipsa.toml")
		} else if _, err := os.Stat("deployments/local/ipsa.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/ipsa.toml")
		}
	}

	// Startup order: config (defaults -> files -> env) -> flags -> logger -> banner
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *logLevel)
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid command-line overrides")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("price_interval", config.Watchers.Price.Interval).
		Str("news_interval", config.Watchers.News.Interval).
		Msg("Resolved configuration (sanitized)")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	if *addUser != "" {
		user, username, err := app.ParseUserArg(*addUser)
		if err == nil {
			err = application.Seed(context.Background(), user, username, *addAssets)
		}
		if err != nil {
			logger.Fatal().Str("add_user", *addUser).Err(err).Msg("Failed to seed user")
			os.Exit(1)
		}
	} else if *addAssets != "" {
		logger.Warn().Msg("-assets ignored without -add-user")
	}

	if !*noResume {
		if _, err := application.ResumeActive(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Some users could not be resumed")
		}
	}

	logger.Info().Msg("IPSA running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := application.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
		os.Exit(1)
	}

	logger.Info().Msg("Stopped")
}
