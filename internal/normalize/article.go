// Package normalize turns provider payloads into the dashboard's canonical
// records and enforces the list invariants (required fields, dedup, order).
// Everything here is pure.
package normalize

import (
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"PulseDesk/internal/domain/models"
	"PulseDesk/pkg/util"
)

var (
	tagRE   = regexp.MustCompile(`<[^>]*>`)
	spaceRE = regexp.MustCompile(`\s+`)
)

// NormalizeArticle builds an Article from raw provider fields. It returns nil
// when the title or URL is blank or the URL is not absolute http(s).
func NormalizeArticle(title, rawURL, source, summary, ts string, now time.Time) *models.Article {
	title = cleanText(title)
	rawURL = strings.TrimSpace(rawURL)
	if title == "" || rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = HostSource(u)
	}

	return &models.Article{
		Title:       title,
		URL:         u.String(),
		Description: cleanText(summary),
		PublishedAt: util.ParseTimeDefault(ts, now).UTC(),
		Source:      source,
	}
}

// HostSource derives a source label from the URL host, minus a leading "www.".
func HostSource(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SanitizeArticles drops records without title or URL, orders newest first,
// keeps one record per fragment-less URL and truncates to limit (0 keeps all).
// Running it on its own output is a no-op.
func SanitizeArticles(items []models.Article, limit int) []models.Article {
	out := make([]models.Article, 0, len(items))
	for _, a := range items {
		if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.URL) == "" {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, a := range out {
		k := dedupKey(a.URL)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, a)
	}

	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}

func dedupKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func cleanText(s string) string {
	s = tagRE.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}
