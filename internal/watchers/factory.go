package watchers

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/retry"
	"github.com/ternarybob/ipsa/internal/timewindow"
)

// Dependencies are the collaborators shared by every watcher.
// Annotator is optional.
type Dependencies struct {
	Portfolio interfaces.PortfolioProvider
	Quotes    interfaces.QuoteProvider
	News      interfaces.NewsProvider
	Settings  interfaces.UserSettingsProvider
	Sink      interfaces.NotificationSink
	Annotator interfaces.Annotator
	Policy    *retry.Policy
	Window    *timewindow.Window
	Price     PriceConfig
	NewsCfg   NewsConfig
}

// NewFactory returns a Factory that builds fresh watchers from deps
func NewFactory(deps Dependencies) Factory {
	return func(user models.UserID, kind Kind, logger arbor.ILogger) (Watcher, error) {
		switch kind {
		case KindPrice:
			return NewPriceWatcher(user, deps.Portfolio, deps.Quotes, deps.Sink, deps.Policy, deps.Price, logger), nil
		case KindNews:
			return NewNewsWatcher(user, deps.News, deps.Settings, deps.Portfolio, deps.Annotator, deps.Sink, deps.Policy, deps.Window, deps.NewsCfg, logger), nil
		default:
			return nil, fmt.Errorf("unknown watcher kind %q", kind)
		}
	}
}
