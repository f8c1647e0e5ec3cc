package di

import (
	"fmt"
	"strings"

	"PulseDesk/internal/domain/models"
	"PulseDesk/internal/normalize"
	"PulseDesk/internal/service/news"
	"PulseDesk/internal/service/quotes"
	"PulseDesk/internal/service/ratelimit"
	"PulseDesk/internal/usecase"
	"PulseDesk/pkg/config"
	xhttp "PulseDesk/pkg/http"
)

const defaultKey = "default"

func client(cfg *config.Config, name string) *xhttp.Client {
	opts := []xhttp.ClientOption{
		xhttp.WithName(name),
		xhttp.WithTimeout(cfg.Fetch.ProviderTimeout),
	}
	if cfg.Providers.UserAgent != "" {
		opts = append(opts, xhttp.WithUserAgent(cfg.Providers.UserAgent))
	}
	return xhttp.NewClient(opts...)
}

func newsProviders(cfg *config.Config) map[string]usecase.Provider[models.ArticleSet] {
	p := cfg.Providers
	src := func(a config.APIConfig) news.Source {
		return news.Source{APIKey: a.APIKey, BaseURL: a.BaseURL, Country: cfg.News.Country, Language: cfg.News.Language}
	}
	return map[string]usecase.Provider[models.ArticleSet]{
		config.ProviderNewsAPI:  news.NewNewsAPI(client(cfg, "NewsAPI"), src(p.NewsAPI)),
		config.ProviderGNews:    news.NewGNews(client(cfg, "GNews"), src(p.GNews)),
		config.ProviderNewsdata: news.NewNewsdata(client(cfg, "Newsdata"), src(p.Newsdata)),
		config.ProviderRSS:      news.NewRSS(client(cfg, "RSS"), cfg.News.Feeds),
	}
}

func newsChain(cfg *config.Config) (usecase.Chain[models.ArticleSet], error) {
	providers, err := pick(config.News, cfg.Chains.News, newsProviders(cfg))
	if err != nil {
		return usecase.Chain[models.ArticleSet]{}, err
	}

	keys := make([]string, 0, len(cfg.News.Sections))
	for _, s := range cfg.News.Sections {
		keys = append(keys, strings.ToLower(s))
	}
	limit := cfg.Fetch.MaxArticles

	return usecase.Chain[models.ArticleSet]{
		Category:     config.News,
		Keys:         keys,
		DefaultKey:   strings.ToLower(cfg.News.DefaultSection),
		Providers:    providers,
		Cooldown:     cfg.News.Cooldown,
		KeyCooldowns: cfg.News.SectionCooldowns,
		Limit:        limit,
		Sanitize: func(_ models.Query, v models.ArticleSet) (models.ArticleSet, int) {
			out := normalize.SanitizeArticles(v.Articles, limit)
			return models.ArticleSet{Articles: out}, len(out)
		},
	}, nil
}

// yahooSymbols maps metals and currency pairs to Yahoo futures and FX tickers.
func yahooSymbols(cfg *config.Config) map[string]string {
	m := map[string]string{"XAU": "GC=F", "XAG": "SI=F", "XPT": "PL=F"}
	for _, t := range cfg.Market.Groups[config.GroupFX].Symbols {
		m[strings.ToUpper(t)] = strings.ToUpper(t) + "=X"
	}
	return m
}

func marketProviders(cfg *config.Config, limiter *ratelimit.Limiter) map[string]usecase.Provider[models.QuoteSet] {
	p := cfg.Providers
	conc := cfg.Fetch.Concurrency
	keyed := func(a config.APIConfig) quotes.Source {
		return quotes.Source{APIKey: a.APIKey, BaseURL: a.BaseURL, Concurrency: conc}
	}
	return map[string]usecase.Provider[models.QuoteSet]{
		config.ProviderFinnhub: quotes.NewFinnhub(client(cfg, "Finnhub"), keyed(p.Finnhub), limiter),
		config.ProviderPolygon: quotes.NewPolygon(client(cfg, "Polygon"), keyed(p.Polygon)),
		config.ProviderYahoo: quotes.NewYahoo(client(cfg, "Yahoo"), quotes.Source{
			BaseURL: p.Yahoo.BaseURL, Symbols: yahooSymbols(cfg),
		}),
		config.ProviderStooq: quotes.NewStooq(client(cfg, "Stooq"), quotes.Source{
			BaseURL: p.Stooq.BaseURL, Symbols: p.Stooq.Symbols,
		}),
		config.ProviderCoinGecko: quotes.NewCoinGecko(client(cfg, "CoinGecko"), quotes.Source{
			BaseURL: p.CoinGecko.BaseURL, Symbols: p.CoinGecko.IDs,
		}),
		config.ProviderBinance: quotes.NewBinance(client(cfg, "Binance"), quotes.Source{
			BaseURL: p.Binance.BaseURL, Symbols: p.Binance.Pairs,
		}),
		config.ProviderGoldPrice:        quotes.NewGoldPrice(client(cfg, "GoldPrice"), keyed(p.GoldPrice)),
		config.ProviderExchangeRateHost: quotes.NewExchangeRateHost(client(cfg, "ExchangeRateHost"), keyed(p.ExchangeRateHost)),
	}
}

func marketChains(cfg *config.Config, limiter *ratelimit.Limiter) ([]usecase.Chain[models.QuoteSet], error) {
	registry := marketProviders(cfg, limiter)
	groups := []string{config.GroupStocks, config.GroupCrypto, config.GroupMetals, config.GroupFX}

	chains := make([]usecase.Chain[models.QuoteSet], 0, len(groups)+1)
	for _, g := range groups {
		providers, err := pick(g, cfg.Chains.Market(g), registry)
		if err != nil {
			return nil, err
		}
		gc := cfg.Market.Groups[g]
		labels := gc.Labels
		chains = append(chains, usecase.Chain[models.QuoteSet]{
			Category:       g,
			DefaultKey:     defaultKey,
			DefaultSymbols: gc.Symbols,
			Providers:      providers,
			Cooldown:       gc.Cooldown,
			Sanitize: func(q models.Query, v models.QuoteSet) (models.QuoteSet, int) {
				out := normalize.SanitizeQuotes(v.Quotes, q.Symbols, labels)
				return models.QuoteSet{Quotes: out}, len(out)
			},
		})
	}

	providers, err := pick(config.Movers, cfg.Chains.Movers, registry)
	if err != nil {
		return nil, err
	}
	count := cfg.Market.Movers.Count
	labels := cfg.Market.Groups[config.GroupStocks].Labels
	chains = append(chains, usecase.Chain[models.QuoteSet]{
		Category:       config.Movers,
		DefaultKey:     defaultKey,
		DefaultSymbols: cfg.Market.Movers.Universe,
		Providers:      providers,
		Cooldown:       cfg.Market.Movers.Cooldown,
		Sanitize: func(q models.Query, v models.QuoteSet) (models.QuoteSet, int) {
			priced := models.QuoteSet{Quotes: normalize.SanitizeQuotes(v.Quotes, q.Symbols, labels)}
			movers := normalize.RankTopMovers(q.Symbols, priced.Index(), count)
			return models.QuoteSet{Movers: movers}, len(movers)
		},
	})
	return chains, nil
}

// pick resolves a configured chain of provider ids in order.
func pick[T any](category string, ids []string, registry map[string]usecase.Provider[T]) ([]usecase.Provider[T], error) {
	out := make([]usecase.Provider[T], 0, len(ids))
	for _, id := range ids {
		p, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("chain %s: unknown provider %q", category, id)
		}
		out = append(out, p)
	}
	return out, nil
}
