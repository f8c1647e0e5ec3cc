package news

import (
	"context"
	"time"

	"PulseDesk/internal/domain/models"
	pkghttp "PulseDesk/pkg/http"
)

var newsAPICategories = map[string]string{
	"":        "general",
	"tech":    "technology",
	"finance": "business",
	"science": "science",
	"health":  "health",
	"sports":  "sports",
}

// NewsAPI reads newsapi.org top headlines.
type NewsAPI struct {
	client *pkghttp.Client
	src    Source
	now    func() time.Time
}

func NewNewsAPI(client *pkghttp.Client, src Source) *NewsAPI {
	return &NewsAPI{client: client, src: src, now: time.Now}
}

func (p *NewsAPI) Name() string { return "NewsAPI" }

func (p *NewsAPI) Ready() error { return p.src.ready(p.Name()) }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (p *NewsAPI) Fetch(ctx context.Context, q models.Query) (models.ArticleSet, error) {
	params := map[string][]string{
		"category": {topic(newsAPICategories, q.Key)},
		"pageSize": {pageSize(q.Limit, 100)},
	}
	if p.src.Country != "" {
		params["country"] = []string{p.src.Country}
	}

	var resp newsAPIResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/top-headlines",
		Headers:     map[string]string{"X-Api-Key": p.src.APIKey},
		QueryParams: params,
	}, &resp)
	if err != nil {
		return models.ArticleSet{}, err
	}
	if resp.Status != "ok" {
		return models.ArticleSet{}, apiError(p.Name(), resp.Code, resp.Message)
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
