package news

import (
	"context"
	"time"

	"PulseDesk/internal/domain/models"
	pkghttp "PulseDesk/pkg/http"
)

var newsdataCategories = map[string]string{
	"":        "top",
	"world":   "world",
	"tech":    "technology",
	"finance": "business",
	"science": "science",
	"health":  "health",
	"sports":  "sports",
}

// Newsdata reads the newsdata.io latest endpoint.
type Newsdata struct {
	client *pkghttp.Client
	src    Source
	now    func() time.Time
}

func NewNewsdata(client *pkghttp.Client, src Source) *Newsdata {
	return &Newsdata{client: client, src: src, now: time.Now}
}

func (p *Newsdata) Name() string { return "Newsdata" }

func (p *Newsdata) Ready() error { return p.src.ready(p.Name()) }

type newsdataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		PubDate     string `json:"pubDate"`
		SourceName  string `json:"source_name"`
		SourceID    string `json:"source_id"`
	} `json:"results"`
}

type newsdataError struct {
	Status  string `json:"status"`
	Results struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"results"`
}

func (p *Newsdata) Fetch(ctx context.Context, q models.Query) (models.ArticleSet, error) {
	params := map[string][]string{
		"apikey":   {p.src.APIKey},
		"category": {topic(newsdataCategories, q.Key)},
		"size":     {pageSize(q.Limit, 10)},
	}
	if p.src.Language != "" {
		params["language"] = []string{p.src.Language}
	}
	if p.src.Country != "" {
		params["country"] = []string{p.src.Country}
	}

	body, err := p.client.Fetch(ctx, &pkghttp.RequestOptions{
		URL:         p.src.BaseURL + "/latest",
		QueryParams: params,
	})
	if err != nil {
		return models.ArticleSet{}, err
	}

	var resp newsdataResponse
	if err := decodeJSON(body, &resp); err != nil {
		// error bodies carry an object under "results"
		var e newsdataError
		if decodeJSON(body, &e) == nil && e.Status == "error" {
			return models.ArticleSet{}, apiError(p.Name(), e.Results.Code, e.Results.Message)
		}
		return models.ArticleSet{}, err
	}
	if resp.Status != "success" {
		return models.ArticleSet{}, apiError(p.Name(), resp.Status, "unexpected status")
	}

	items := make([]articleFields, 0, len(resp.Results))
	for _, a := range resp.Results {
		src := a.SourceName
		if src == "" {
			src = a.SourceID
		}
		items = append(items, articleFields{
			title:     a.Title,
			url:       a.Link,
			source:    src,
			summary:   a.Description,
			published: a.PubDate,
		})
	}
	return collect(items, p.now()), nil
}
