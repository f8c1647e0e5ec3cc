package quotes

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	pkghttp "PulseDesk/pkg/http"
)

// Stooq reads the keyless CSV quote endpoint. Tickers without a symbol
// mapping are treated as US listings ("aapl.us").
type Stooq struct {
	client *pkghttp.Client
	src    Source
}

func NewStooq(client *pkghttp.Client, src Source) *Stooq {
	return &Stooq{client: client, src: src}
}

func (p *Stooq) Name() string { return "Stooq" }

func (p *Stooq) Ready() error { return requireURL(p.Name(), p.src) }

func (p *Stooq) symbol(ticker string) string {
	if s, ok := p.src.upstream(ticker); ok {
		return strings.ToLower(s)
	}
	return strings.ToLower(ticker) + ".us"
}

func (p *Stooq) Fetch(ctx context.Context, q models.Query) (models.QuoteSet, error) {
	back := make(map[string]string, len(q.Symbols))
	syms := make([]string, 0, len(q.Symbols))
	for _, t := range q.Symbols {
		s := p.symbol(t)
		back[s] = t
		syms = append(syms, s)
	}

	body, err := p.client.Fetch(ctx, &pkghttp.RequestOptions{
		URL: p.src.BaseURL + "/q/l/",
		QueryParams: map[string][]string{
			"s": {strings.Join(syms, " ")},
			// symbol, date, time, open, high, low, close, previous close
			"f": {"sd2t2ohlcp"},
			"h": {""},
			"e": {"csv"},
		},
	})
	if err != nil {
		return models.QuoteSet{}, err
	}

	rows, err := parseStooq(body)
	if err != nil {
		return models.QuoteSet{}, err
	}

	out := models.QuoteSet{Quotes: make([]models.Quote, 0, len(rows))}
	for _, r := range rows {
		ticker, ok := back[strings.ToLower(r.symbol)]
		if !ok || r.close == nil {
			continue
		}
		var change, pct *float64
		if r.prev != nil && *r.prev != 0 {
			change = ptr(*r.close - *r.prev)
			pct = ptr(*change / *r.prev * 100)
		}
		if qt := normalize.NormalizeQuote(ticker, "", r.close, change, pct); qt != nil {
			out.Quotes = append(out.Quotes, *qt)
		}
	}
	return out, nil
}

type stooqRow struct {
	symbol      string
	close, prev *float64
}

// parseStooq reads the header to locate columns; missing values are "N/D".
func parseStooq(body []byte) ([]stooqRow, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: stooq csv: %v", pkghttp.ErrDecode, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: stooq csv: empty body", pkghttp.ErrDecode)
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	symIdx, ok1 := col["symbol"]
	closeIdx, ok2 := col["close"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%w: stooq csv: unexpected header %v", pkghttp.ErrDecode, records[0])
	}
	prevIdx, hasPrev := col["prev"]

	out := make([]stooqRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) <= symIdx || len(rec) <= closeIdx {
			continue
		}
		row := stooqRow{symbol: strings.TrimSpace(rec[symIdx]), close: stooqFloat(rec[closeIdx])}
		if hasPrev && len(rec) > prevIdx {
			row.prev = stooqFloat(rec[prevIdx])
		}
		out = append(out, row)
	}
	return out, nil
}

func stooqFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return normalize.Float(f)
}
