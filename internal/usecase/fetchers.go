package usecase

import (
	"context"
	"fmt"
	"slices"

	"PulseDesk/internal/domain/models"
)

// Fetchers groups the orchestrators behind the dashboard: articles for the
// news category, quotes for the market groups and the movers board.
type Fetchers struct {
	News   *Orchestrator[models.ArticleSet]
	Market *Orchestrator[models.QuoteSet]
}

// Categories lists every registered category.
func (f *Fetchers) Categories() []string {
	out := append(f.News.Categories(), f.Market.Categories()...)
	slices.Sort(out)
	return out
}

// Fetch routes id to the orchestrator that owns its category and returns
// the result with its payload type erased.
func (f *Fetchers) Fetch(ctx context.Context, id models.Identity) (any, error) {
	cat := id.Canonical().Category
	switch {
	case slices.Contains(f.News.Categories(), cat):
		res, err := f.News.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return res, nil
	case slices.Contains(f.Market.Categories(), cat):
		res, err := f.Market.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCategory, cat)
}
