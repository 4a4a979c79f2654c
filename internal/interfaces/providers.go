// -----------------------------------------------------------------------
// Collaborator interfaces consumed by the monitoring core
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/ipsa/internal/models"
)

// PortfolioProvider supplies the symbols a user currently holds.
type PortfolioProvider interface {
	GetSymbols(ctx context.Context, userID models.UserID) ([]string, error)
}

// QuoteProvider returns the current price for a symbol.
// A symbol without a usable price yields an error wrapping ErrDataFormat;
// network and upstream failures wrap ErrTransientFetch.
type QuoteProvider interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// NewsProvider returns the articles currently published at a source URL.
type NewsProvider interface {
	FetchArticles(ctx context.Context, sourceURL string) ([]models.Article, error)
}

// UserSettingsProvider supplies per-user timezone and news window strings.
type UserSettingsProvider interface {
	GetTimezone(ctx context.Context, userID models.UserID) (string, error)
	GetNewsWindow(ctx context.Context, userID models.UserID) (string, error)
}

// NotificationSink delivers a text message to a user.
type NotificationSink interface {
	Deliver(ctx context.Context, userID models.UserID, text string) error
}

// Annotator produces an opaque relevance or sentiment annotation for an article.
type Annotator interface {
	Annotate(ctx context.Context, article models.Article) (string, error)
}

// Clock supplies the current wall-clock time
type Clock interface {
	Now() time.Time
}
