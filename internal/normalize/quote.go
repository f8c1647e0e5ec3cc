package normalize

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"PulseDesk/internal/domain/models"
)

// NormalizeQuote builds a Quote, coercing the numeric fields to finite
// values or nil. It returns nil when the ticker is blank.
func NormalizeQuote(ticker, name string, price, change, pct any) *models.Quote {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = ticker
	}
	return &models.Quote{
		Ticker: ticker,
		Name:   name,
		C:      Float(price),
		D:      Float(change),
		DP:     Float(pct),
	}
}

// Float coerces common numeric representations to a finite *float64.
func Float(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return nil
		}
		f = p
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(x), "%")
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = p
	case *float64:
		if x == nil {
			return nil
		}
		f = *x
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// SanitizeQuotes drops quotes without a price, keeps the first quote per
// ticker, applies display labels and orders by the position of each ticker
// in order (unlisted tickers go last, alphabetically).
func SanitizeQuotes(items []models.Quote, order []string, labels map[string]string) []models.Quote {
	pos := make(map[string]int, len(order))
	for i, t := range order {
		pos[strings.ToUpper(t)] = i
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]models.Quote, 0, len(items))
	for _, q := range items {
		q.Ticker = strings.ToUpper(strings.TrimSpace(q.Ticker))
		if q.Ticker == "" || !finite(q.C) {
			continue
		}
		if _, ok := seen[q.Ticker]; ok {
			continue
		}
		seen[q.Ticker] = struct{}{}
		if label, ok := labels[q.Ticker]; ok && label != "" {
			q.Name = label
		} else if q.Name == "" {
			q.Name = q.Ticker
		}
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, iok := pos[out[i].Ticker]
		pj, jok := pos[out[j].Ticker]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return out[i].Ticker < out[j].Ticker
		}
	})
	return out
}

// RankTopMovers picks the quotes of universe with a finite percent change,
// ordered by absolute percent change descending, truncated to count.
// Ties keep universe order.
func RankTopMovers(universe []string, quotes map[string]models.Quote, count int) []models.Quote {
	seen := make(map[string]struct{}, len(universe))
	movers := make([]models.Quote, 0, len(universe))
	for _, t := range universe {
		t = strings.ToUpper(strings.TrimSpace(t))
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		q, ok := quotes[t]
		if !ok || !finite(q.DP) {
			continue
		}
		movers = append(movers, q)
	}

	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(*movers[i].DP) > math.Abs(*movers[j].DP)
	})

	if count > 0 && len(movers) > count {
		movers = movers[:count]
	}
	return movers
}

func finite(f *float64) bool {
	return f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0)
}
