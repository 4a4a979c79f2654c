package dedup

import (
	"net/url"
	"strings"

	"github.com/ternarybob/ipsa/internal/models"
)

// ArticleKey identifies a news item already delivered to a watcher
type ArticleKey struct {
	Title string
	URL   string
}

// KeyFor builds the dedup key of an article
func KeyFor(a models.Article) ArticleKey {
	return ArticleKey{
		Title: strings.Join(strings.Fields(a.Title), " "),
		URL:   CanonicalURL(a.URL),
	}
}

// CanonicalURL normalises a link so trivially different spellings of the same
// article collapse: lower-case scheme and host, no fragment, no trailing slash,
// no utm_* tracking parameters. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if strings.HasPrefix(strings.ToLower(k), "utm_") {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	return u.String()
}
