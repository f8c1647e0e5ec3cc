package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"PulseDesk/pkg/util"
)

// Provider names usable in chains.
const (
	ProviderNewsAPI          = "newsapi"
	ProviderGNews            = "gnews"
	ProviderNewsdata         = "newsdata"
	ProviderRSS              = "rss"
	ProviderFinnhub          = "finnhub"
	ProviderPolygon          = "polygon"
	ProviderYahoo            = "yahoo"
	ProviderStooq            = "stooq"
	ProviderCoinGecko        = "coingecko"
	ProviderBinance          = "binance"
	ProviderGoldPrice        = "goldprice"
	ProviderExchangeRateHost = "exchangeratehost"
)

// Market groups and the movers board.
const (
	GroupStocks = "stocks"
	GroupCrypto = "crypto"
	GroupMetals = "metals"
	GroupFX     = "fx"
	Movers      = "movers"
	News        = "news"
)

var (
	newsProviders   = []string{ProviderNewsAPI, ProviderGNews, ProviderNewsdata, ProviderRSS}
	marketProviders = []string{ProviderFinnhub, ProviderPolygon, ProviderYahoo, ProviderStooq, ProviderCoinGecko, ProviderBinance, ProviderGoldPrice, ProviderExchangeRateHost}
)

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Fetch       FetchConfig     `yaml:"fetch"`
	Cache       CacheConfig     `yaml:"cache"`
	News        NewsConfig      `yaml:"news"`
	Market      MarketConfig    `yaml:"market"`
	Chains      ChainsConfig    `yaml:"chains"`
	Providers   ProvidersConfig `yaml:"providers"`
	Audit       AuditConfig     `yaml:"audit"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"3s"`
	CORS            *bool         `yaml:"cors" default:"true"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
	Output string `yaml:"output" default:"stdout"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type FetchConfig struct {
	ProviderTimeout time.Duration `yaml:"provider_timeout" default:"7s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"20s"`
	CacheTimeout    time.Duration `yaml:"cache_timeout" default:"2s"`
	MaxArticles     int           `yaml:"max_articles" default:"30"`
	Concurrency     int           `yaml:"concurrency" default:"4"`
}

type CacheConfig struct {
	Backend string `yaml:"backend" default:"memory"`
	Durable string `yaml:"durable" default:"redis"`
	// MemoryMaxSize bounds the in-process layer of the layered backend.
	MemoryMaxSize int `yaml:"memory_max_size" default:"256"`
	// AdHocEntries bounds the in-process cache of free-form symbol lists.
	AdHocEntries int         `yaml:"adhoc_entries" default:"256"`
	SQLitePath   string      `yaml:"sqlite_path" default:"/tmp/pulsedesk/cache.db"`
	Redis        RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"pulsedesk"`
	PoolSize int    `yaml:"pool_size" default:"10"`
}

type NewsConfig struct {
	Sections         []string                 `yaml:"sections" default:"[\"frontpage\",\"world\",\"tech\",\"finance\"]"`
	DefaultSection   string                   `yaml:"default_section" default:"frontpage"`
	Cooldown         time.Duration            `yaml:"cooldown"`
	SectionCooldowns map[string]time.Duration `yaml:"section_cooldowns"`
	// Feeds lists RSS feed URLs per section.
	Feeds map[string][]string `yaml:"feeds"`
	// Country and Language are passed to the aggregator APIs.
	Country  string `yaml:"country" default:"us"`
	Language string `yaml:"language" default:"en"`
}

type GroupConfig struct {
	Symbols  []string          `yaml:"symbols"`
	Labels   map[string]string `yaml:"labels"`
	Cooldown time.Duration     `yaml:"cooldown"`
}

type MoversConfig struct {
	Universe []string      `yaml:"universe"`
	Count    int           `yaml:"count" default:"8"`
	Cooldown time.Duration `yaml:"cooldown" default:"2m"`
}

type MarketConfig struct {
	Groups map[string]GroupConfig `yaml:"groups"`
	Movers MoversConfig           `yaml:"movers"`
}

// ChainsConfig holds the ordered provider list of each category.
type ChainsConfig struct {
	News   []string `yaml:"news" default:"[\"newsapi\",\"gnews\",\"newsdata\",\"rss\"]"`
	Stocks []string `yaml:"stocks" default:"[\"finnhub\",\"polygon\",\"yahoo\",\"stooq\"]"`
	Crypto []string `yaml:"crypto" default:"[\"coingecko\",\"binance\"]"`
	Metals []string `yaml:"metals" default:"[\"goldprice\",\"stooq\"]"`
	FX     []string `yaml:"fx" default:"[\"exchangeratehost\",\"stooq\"]"`
	Movers []string `yaml:"movers" default:"[\"finnhub\",\"yahoo\",\"stooq\"]"`
}

// Market returns the chain of a market group or the movers board.
func (c ChainsConfig) Market(group string) []string {
	switch group {
	case GroupStocks:
		return c.Stocks
	case GroupCrypto:
		return c.Crypto
	case GroupMetals:
		return c.Metals
	case GroupFX:
		return c.FX
	case Movers:
		return c.Movers
	}
	return nil
}

type APIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type ProvidersConfig struct {
	NewsAPI          APIConfig `yaml:"newsapi"`
	GNews            APIConfig `yaml:"gnews"`
	Newsdata         APIConfig `yaml:"newsdata"`
	Finnhub          APIConfig `yaml:"finnhub"`
	Polygon          APIConfig `yaml:"polygon"`
	ExchangeRateHost APIConfig `yaml:"exchangeratehost"`
	Yahoo            APIConfig `yaml:"yahoo"`
	GoldPrice        APIConfig `yaml:"goldprice"`
	Stooq            struct {
		BaseURL string `yaml:"base_url"`
		// Symbols maps dashboard tickers to Stooq symbols, e.g. XAU: xauusd.
		Symbols map[string]string `yaml:"symbols"`
	} `yaml:"stooq"`
	CoinGecko struct {
		BaseURL string `yaml:"base_url"`
		// IDs maps tickers to CoinGecko coin ids, e.g. BTC: bitcoin.
		IDs map[string]string `yaml:"ids"`
	} `yaml:"coingecko"`
	Binance struct {
		BaseURL string `yaml:"base_url"`
		// Pairs maps tickers to Binance pairs, e.g. BTC: BTCUSDT.
		Pairs map[string]string `yaml:"pairs"`
	} `yaml:"binance"`
	UserAgent string `yaml:"user_agent"`
}

type AuditConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic" default:"pulsedesk.fetch-events"`
	Compression string   `yaml:"compression" default:"snappy"`
}

// Enabled reports whether audit events are shipped.
func (a AuditConfig) Enabled() bool { return len(a.Brokers) > 0 }

// Default returns a configuration with only defaults applied.
func Default() (*Config, error) {
	var c Config
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.applyDefaults(); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML (or defaults when path is empty) and
// overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = Load(path)
	}
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Environment, "APP_ENV")
	set(&c.Logging.Level, "LOG_LEVEL")
	set(&c.Logging.Format, "LOG_FORMAT")

	set(&c.Providers.NewsAPI.APIKey, "NEWSAPI_KEY")
	set(&c.Providers.GNews.APIKey, "GNEWS_API_KEY")
	set(&c.Providers.Newsdata.APIKey, "NEWSDATA_API_KEY")
	set(&c.Providers.Finnhub.APIKey, "FINNHUB_API_KEY")
	set(&c.Providers.Polygon.APIKey, "POLYGON_API_KEY")
	set(&c.Providers.ExchangeRateHost.APIKey, "EXCHANGERATE_API_KEY")

	set(&c.Cache.Backend, "CACHE_BACKEND")
	set(&c.Cache.SQLitePath, "CACHE_SQLITE_PATH")
	set(&c.Cache.Redis.Addr, "REDIS_ADDR")
	set(&c.Cache.Redis.Password, "REDIS_PASSWORD")

	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Audit.Brokers = strings.Split(v, ",")
	}
	set(&c.Audit.Topic, "AUDIT_TOPIC")
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}

	if c.News.SectionCooldowns == nil {
		c.News.SectionCooldowns = map[string]time.Duration{"frontpage": 5 * time.Minute}
	}
	if c.News.Feeds == nil {
		c.News.Feeds = defaultFeeds()
	}
	if c.Market.Groups == nil {
		c.Market.Groups = make(map[string]GroupConfig)
	}
	for name, g := range defaultGroups() {
		if _, ok := c.Market.Groups[name]; !ok {
			c.Market.Groups[name] = g
		}
	}
	if len(c.Market.Movers.Universe) == 0 {
		c.Market.Movers.Universe = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AMD", "NFLX", "AVGO", "JPM", "V"}
	}

	p := &c.Providers
	setURL(&p.NewsAPI.BaseURL, "https://newsapi.org/v2")
	setURL(&p.GNews.BaseURL, "https://gnews.io/api/v4")
	setURL(&p.Newsdata.BaseURL, "https://newsdata.io/api/1")
	setURL(&p.Finnhub.BaseURL, "https://finnhub.io/api/v1")
	setURL(&p.Polygon.BaseURL, "https://api.polygon.io")
	setURL(&p.ExchangeRateHost.BaseURL, "https://api.exchangerate.host")
	setURL(&p.Yahoo.BaseURL, "https://query1.finance.yahoo.com")
	setURL(&p.GoldPrice.BaseURL, "https://data-asg.goldprice.org")
	setURL(&p.Stooq.BaseURL, "https://stooq.com")
	setURL(&p.CoinGecko.BaseURL, "https://api.coingecko.com/api/v3")
	setURL(&p.Binance.BaseURL, "https://api.binance.com")

	if p.Stooq.Symbols == nil {
		p.Stooq.Symbols = map[string]string{
			"XAU": "xauusd", "XAG": "xagusd", "XPT": "xptusd",
			"EURUSD": "eurusd", "GBPUSD": "gbpusd", "USDJPY": "usdjpy", "USDCHF": "usdchf",
			"SPY": "spy.us", "QQQ": "qqq.us", "DIA": "dia.us",
		}
	}
	if p.CoinGecko.IDs == nil {
		p.CoinGecko.IDs = map[string]string{
			"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana", "XRP": "ripple", "DOGE": "dogecoin", "ADA": "cardano",
		}
	}
	if p.Binance.Pairs == nil {
		p.Binance.Pairs = map[string]string{
			"BTC": "BTCUSDT", "ETH": "ETHUSDT", "SOL": "SOLUSDT", "XRP": "XRPUSDT", "DOGE": "DOGEUSDT", "ADA": "ADAUSDT",
		}
	}
	return nil
}

func setURL(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
	*dst = strings.TrimRight(*dst, "/")
}

func defaultFeeds() map[string][]string {
	return map[string][]string{
		"frontpage": {"https://feeds.bbci.co.uk/news/rss.xml", "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml"},
		"world":     {"https://feeds.bbci.co.uk/news/world/rss.xml", "https://www.aljazeera.com/xml/rss/all.xml"},
		"tech":      {"https://feeds.arstechnica.com/arstechnica/index", "https://www.theverge.com/rss/index.xml"},
		"finance":   {"https://feeds.bbci.co.uk/news/business/rss.xml", "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
	}
}

func defaultGroups() map[string]GroupConfig {
	return map[string]GroupConfig{
		GroupStocks: {
			Symbols:  []string{"SPY", "QQQ", "DIA", "AAPL", "MSFT", "NVDA"},
			Labels:   map[string]string{"SPY": "S&P 500", "QQQ": "Nasdaq 100", "DIA": "Dow Jones"},
			Cooldown: time.Minute,
		},
		GroupCrypto: {
			Symbols:  []string{"BTC", "ETH", "SOL"},
			Labels:   map[string]string{"BTC": "Bitcoin", "ETH": "Ethereum", "SOL": "Solana"},
			Cooldown: time.Minute,
		},
		GroupMetals: {
			Symbols:  []string{"XAU", "XAG"},
			Labels:   map[string]string{"XAU": "Gold", "XAG": "Silver"},
			Cooldown: 5 * time.Minute,
		},
		GroupFX: {
			Symbols:  []string{"EURUSD", "GBPUSD", "USDJPY"},
			Labels:   map[string]string{"EURUSD": "EUR/USD", "GBPUSD": "GBP/USD", "USDJPY": "USD/JPY"},
			Cooldown: 5 * time.Minute,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Environment == "" {
		errs = append(errs, errors.New("environment is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Fetch.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("fetch.provider_timeout must be positive"))
	}
	switch c.Cache.Backend {
	case "memory", "sqlite", "redis", "layered":
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be memory, sqlite, redis or layered, got %q", c.Cache.Backend))
	}
	if (c.Cache.Backend == "sqlite" || (c.Cache.Backend == "layered" && c.Cache.Durable == "sqlite")) && c.Cache.SQLitePath == "" {
		errs = append(errs, errors.New("cache.sqlite_path is required for the sqlite backend"))
	}

	if len(c.News.Sections) == 0 {
		errs = append(errs, errors.New("news.sections cannot be empty"))
	} else if !slices.Contains(c.News.Sections, c.News.DefaultSection) {
		errs = append(errs, fmt.Errorf("news.default_section %q is not in news.sections", c.News.DefaultSection))
	}

	for _, g := range []string{GroupStocks, GroupCrypto, GroupMetals, GroupFX} {
		if len(c.Market.Groups[g].Symbols) == 0 {
			errs = append(errs, fmt.Errorf("market.groups.%s.symbols cannot be empty", g))
		}
	}
	if len(c.Market.Movers.Universe) == 0 {
		errs = append(errs, errors.New("market.movers.universe cannot be empty"))
	}
	if c.Market.Movers.Count <= 0 {
		errs = append(errs, errors.New("market.movers.count must be positive"))
	}

	errs = append(errs, checkChain(News, c.Chains.News, newsProviders)...)
	for _, g := range []string{GroupStocks, GroupCrypto, GroupMetals, GroupFX, Movers} {
		errs = append(errs, checkChain(g, c.Chains.Market(g), marketProviders)...)
	}

	return errors.Join(errs...)
}

func checkChain(name string, chain, known []string) []error {
	if len(chain) == 0 {
		return []error{fmt.Errorf("chains.%s cannot be empty", name)}
	}
	var errs []error
	for _, p := range chain {
		if !slices.Contains(known, p) {
			errs = append(errs, fmt.Errorf("chains.%s: unknown provider %q", name, p))
		}
	}
	return errs
}
