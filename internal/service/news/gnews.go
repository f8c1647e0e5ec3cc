package news

import (
	"context"
	"strings"
	"time"

	"PulseDesk/internal/domain/models"
	pkghttp "PulseDesk/pkg/http"
)

var gnewsTopics = map[string]string{
	"":        "general",
	"world":   "world",
	"tech":    "technology",
	"finance": "business",
	"science": "science",
	"health":  "health",
	"sports":  "sports",
}

// GNews reads gnews.io top headlines. The free tier caps a page at 10 articles.
type GNews struct {
	client *pkghttp.Client
	src    Source
	now    func() time.Time
}

func NewGNews(client *pkghttp.Client, src Source) *GNews {
	return &GNews{client: client, src: src, now: time.Now}
}

func (p *GNews) Name() string { return "GNews" }

func (p *GNews) Ready() error { return p.src.ready(p.Name()) }

type gnewsResponse struct {
	Errors   []string `json:"errors"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (p *GNews) Fetch(ctx context.Context, q models.Query) (models.ArticleSet, error) {
	params := map[string][]string{
		"category": {topic(gnewsTopics, q.Key)},
		"max":      {pageSize(q.Limit, 10)},
		"apikey":   {p.src.APIKey},
	}
	if p.src.Language != "" {
		params["lang"] = []string{p.src.Language}
	}
	if p.src.Country != "" {
		params["country"] = []string{p.src.Country}
	}

	var resp gnewsResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/top-headlines",
		QueryParams: params,
	}, &resp)
	if err != nil {
		return models.ArticleSet{}, err
	}
	if len(resp.Errors) > 0 {
		return models.ArticleSet{}, apiError(p.Name(), "error", strings.Join(resp.Errors, "; "))
	}

	items := make([]articleFields, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		items = append(items, articleFields{
			title:     a.Title,
			url:       a.URL,
			source:    a.Source.Name,
			summary:   a.Description,
			published: a.PublishedAt,
		})
	}
	return collect(items, p.now()), nil
}
