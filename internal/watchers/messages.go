package watchers

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ipsa/internal/models"
)

// FormatPriceChange renders the notification for one triggered symbol
func FormatPriceChange(c PriceChange) string {
	return fmt.Sprintf("%s Update stock price: %s (%s %s%%)\nOld: %s\nNew: %s",
		c.Direction.Label(),
		c.Symbol,
		c.Direction,
		c.Percent().Abs().StringFixed(2),
		c.Old.String(),
		c.New.String(),
	)
}

// FormatArticle renders the notification for one news article.
// localTime is already converted to the user's timezone; annotation may be empty.
func FormatArticle(a models.Article, localTime, elapsed, annotation string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🔥 *%s*\n", strings.TrimSpace(a.Title))
	if summary := strings.TrimSpace(a.Summary); summary != "" {
		fmt.Fprintf(&sb, "\n🌊 %s\n", summary)
	}
	fmt.Fprintf(&sb, "\n✨ %s\n", a.URL)
	fmt.Fprintf(&sb, "\n📆 %s (%s)\n", localTime, elapsed)
	if provider := strings.TrimSpace(a.Provider); provider != "" {
		fmt.Fprintf(&sb, "\n🏢 %s\n", provider)
	}
	if annotation != "" {
		fmt.Fprintf(&sb, "\n📊 %s\n", annotation)
	}

	return strings.TrimRight(sb.String(), "\n")
}
