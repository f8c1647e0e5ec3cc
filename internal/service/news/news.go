// Package news holds the article provider adapters. Each adapter maps one
// upstream API onto models.ArticleSet; sanitizing happens in the chain.
package news

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

const defaultPageSize = 30

// Source configures a keyed aggregator API.
type Source struct {
	APIKey   string
	BaseURL  string
	Country  string
	Language string
}

func (s Source) ready(name string) error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("%s: api key: %w", name, drepo.ErrNotConfigured)
	}
	if _, err := url.ParseRequestURI(s.BaseURL); err != nil {
		return fmt.Errorf("%s: base url: %w", name, drepo.ErrNotConfigured)
	}
	return nil
}

// topic maps a dashboard section to the provider's category name,
// falling back to the "" entry.
func topic(m map[string]string, section string) string {
	if t, ok := m[section]; ok {
		return t
	}
	return m[""]
}

func pageSize(limit, max int) string {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if max > 0 && limit > max {
		limit = max
	}
	return strconv.Itoa(limit)
}

// apiError reports an error carried inside a 200 OK body.
func apiError(provider, code, message string) error {
	return &pkghttp.UpstreamError{
		Provider: provider,
		Status:   200,
		Body:     strings.TrimSpace(code + ": " + message),
	}
}

type articleFields struct {
	title, url, source, summary, published string
}

func collect(items []articleFields, now time.Time) models.ArticleSet {
	out := models.ArticleSet{Articles: make([]models.Article, 0, len(items))}
	for _, it := range items {
		if a := normalize.NormalizeArticle(it.title, it.url, it.source, it.summary, it.published, now); a != nil {
			out.Articles = append(out.Articles, *a)
		}
	}
	return out
}

func decodeJSON(body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", pkghttp.ErrDecode, err)
	}
	return nil
}
