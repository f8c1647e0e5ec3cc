package news

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"PulseDesk/internal/domain/models"
	drepo "PulseDesk/internal/domain/repository"
	pkghttp "PulseDesk/pkg/http"
)

const maxFeedConcurrency = 4

// RSS reads the configured feeds of a section concurrently. It needs no key
// and succeeds when at least one feed parses.
type RSS struct {
	client *pkghttp.Client
	feeds  map[string][]string
	now    func() time.Time
}

func NewRSS(client *pkghttp.Client, feeds map[string][]string) *RSS {
	return &RSS{client: client, feeds: feeds, now: time.Now}
}

func (p *RSS) Name() string { return "RSS" }

func (p *RSS) Ready() error {
	for _, urls := range p.feeds {
		if len(urls) > 0 {
			return nil
		}
	}
	return fmt.Errorf("%s: no feeds: %w", p.Name(), drepo.ErrNotConfigured)
}

func (p *RSS) Fetch(ctx context.Context, q models.Query) (models.ArticleSet, error) {
	urls := p.feeds[q.Key]
	if len(urls) == 0 {
		return models.ArticleSet{}, fmt.Errorf("%s: no feeds for section %q: %w", p.Name(), q.Key, drepo.ErrNotConfigured)
	}

	var (
		mu    sync.Mutex
		items []articleFields
		errs  []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFeedConcurrency)
	for _, u := range urls {
		g.Go(func() error {
			got, err := p.fetchFeed(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			items = append(items, got...)
			return nil
		})
	}
	_ = g.Wait()

	if len(items) == 0 && len(errs) > 0 {
		return models.ArticleSet{}, errors.Join(errs...)
	}
	return collect(items, p.now()), nil
}

func (p *RSS) fetchFeed(ctx context.Context, feedURL string) ([]articleFields, error) {
	body, err := p.client.Fetch(ctx, &pkghttp.RequestOptions{
		URL:     feedURL,
		Headers: map[string]string{"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
	})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkghttp.ErrDecode, feedURL, err)
	}

	out := make([]articleFields, 0, len(feed.Items))
	for _, it := range feed.Items {
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		out = append(out, articleFields{
			title:     it.Title,
			url:       it.Link,
			source:    feed.Title,
			summary:   summary,
			published: itemTime(it),
		})
	}
	return out, nil
}

func itemTime(it *gofeed.Item) string {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.Format(time.RFC3339)
	case it.Published != "":
		return it.Published
	}
	return it.Updated
}
