package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("IPSA", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Badger.Path).
		Str("price_interval", config.Watchers.Price.Interval).
		Str("news_interval", config.Watchers.News.Interval).
		Int("news_sources", len(config.News.Sources)).
		Bool("telegram", config.Telegram.BotToken != "").
		Bool("annotation", config.Claude.APIKey != "").
		Msg("Investing assistant starting")
}
