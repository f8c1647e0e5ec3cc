package models

// Quote is the normalized market record. Numeric fields are nil when the
// upstream did not report a finite value.
type Quote struct {
	Ticker string   `json:"ticker"`
	Name   string   `json:"name"`
	C      *float64 `json:"c"`
	D      *float64 `json:"d"`
	DP     *float64 `json:"dp"`
}

// QuoteSet is the payload cached and served for a market group or the movers board.
type QuoteSet struct {
	Quotes []Quote `json:"quotes,omitempty"`
	Movers []Quote `json:"movers,omitempty"`
}

func (s QuoteSet) Len() int { return len(s.Quotes) + len(s.Movers) }

// Index returns the quotes keyed by ticker.
func (s QuoteSet) Index() map[string]Quote {
	out := make(map[string]Quote, len(s.Quotes))
	for _, q := range s.Quotes {
		out[q.Ticker] = q
	}
	return out
}
