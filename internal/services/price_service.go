package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
)

// coinGeckoIDs maps listed symbols to CoinGecko identifiers.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"USDT":  "tether",
	"DOGE":  "dogecoin",
	"MATIC": "matic-network",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"SHIB":  "shiba-inu",
	"LTC":   "litecoin",
	"TRX":   "tron",
	"LINK":  "chainlink",
}

// fallbackQuotes are approximate INR prices served when the upstream API is
// unreachable and no cached quote exists.
var fallbackQuotes = map[string]PriceQuote{
	"BTC":   {Price: decimal.NewFromInt(3500000), Change24h: decimal.NewFromFloat(2.5)},
	"ETH":   {Price: decimal.NewFromInt(250000), Change24h: decimal.NewFromFloat(3.2)},
	"BNB":   {Price: decimal.NewFromInt(45000), Change24h: decimal.NewFromFloat(1.8)},
	"SOL":   {Price: decimal.NewFromInt(12000), Change24h: decimal.NewFromFloat(5.5)},
	"ADA":   {Price: decimal.NewFromInt(45), Change24h: decimal.NewFromFloat(-1.2)},
	"XRP":   {Price: decimal.NewFromInt(55), Change24h: decimal.NewFromFloat(2.1)},
	"USDT":  {Price: decimal.NewFromInt(83), Change24h: decimal.NewFromFloat(0.1)},
	"DOGE":  {Price: decimal.NewFromInt(12), Change24h: decimal.NewFromFloat(4.3)},
	"MATIC": {Price: decimal.NewFromInt(75), Change24h: decimal.NewFromFloat(3.5)},
	"DOT":   {Price: decimal.NewFromInt(800), Change24h: decimal.NewFromFloat(2.8)},
}

// PriceQuote is one coin's INR price snapshot.
type PriceQuote struct {
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change_24h"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// PriceCache holds quotes with a TTL. Injected into the PriceService so the
// policy is testable rather than ambient module state.
type PriceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	quotes  map[string]PriceQuote
	fetched time.Time
}

// NewPriceCache constructs a PriceCache with the given TTL.
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{ttl: ttl, quotes: map[string]PriceQuote{}}
}

// Get returns the cached quotes and whether they are still fresh.
func (c *PriceCache) Get() (map[string]PriceQuote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.quotes) == 0 {
		return nil, false
	}
	return c.quotes, time.Since(c.fetched) < c.ttl
}

// Put replaces the cached quotes.
func (c *PriceCache) Put(quotes map[string]PriceQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes = quotes
	c.fetched = time.Now()
}

// PriceService fetches INR quotes from CoinGecko with a cache-then-fallback
// policy and refreshes stored coin prices.
type PriceService struct {
	db      *gorm.DB
	baseURL string
	client  *http.Client
	cache   *PriceCache
}

// NewPriceService constructs a PriceService.
func NewPriceService(db *gorm.DB, baseURL string, cache *PriceCache) *PriceService {
	return &PriceService{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

// FetchPrices returns quotes for the given symbols, serving the cache while
// fresh. On upstream failure it degrades to stale cache, then to the static
// fallback table.
func (s *PriceService) FetchPrices(ctx context.Context, symbols []string) (map[string]PriceQuote, error) {
	if cached, fresh := s.cache.Get(); fresh && coversSymbols(cached, symbols) {
		return cached, nil
	}

	quotes, err := s.fetch(ctx, symbols)
	if err != nil {
		log.Printf("[prices] fetch failed: %v", err)
		if cached, _ := s.cache.Get(); cached != nil {
			return cached, nil
		}
		return fallbackFor(symbols), nil
	}

	s.cache.Put(quotes)
	return quotes, nil
}

// GetPrice returns a single symbol's quote.
func (s *PriceService) GetPrice(ctx context.Context, symbol string) (PriceQuote, error) {
	quotes, err := s.FetchPrices(ctx, []string{symbol})
	if err != nil {
		return PriceQuote{}, err
	}
	quote, ok := quotes[strings.ToUpper(symbol)]
	if !ok {
		return PriceQuote{}, fmt.Errorf("no price available for %s", symbol)
	}
	return quote, nil
}

// RefreshCoinPrices updates every active coin with its latest quote.
func (s *PriceService) RefreshCoinPrices(ctx context.Context) (int, error) {
	var coins []models.Coin
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&coins).Error; err != nil {
		return 0, err
	}
	if len(coins) == 0 {
		return 0, nil
	}

	symbols := make([]string, 0, len(coins))
	for _, coin := range coins {
		symbols = append(symbols, coin.Symbol)
	}

	quotes, err := s.FetchPrices(ctx, symbols)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, coin := range coins {
		quote, ok := quotes[strings.ToUpper(coin.Symbol)]
		if !ok {
			continue
		}
		err := s.db.WithContext(ctx).Model(&models.Coin{}).
			Where("id = ?", coin.ID).
			Updates(map[string]interface{}{
				"current_price":    quote.Price,
				"price_change_24h": quote.Change24h,
			}).Error
		if err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

func (s *PriceService) fetch(ctx context.Context, symbols []string) (map[string]PriceQuote, error) {
	ids := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if id, ok := coinGeckoIDs[strings.ToUpper(symbol)]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no mapped symbols in %v", symbols)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=inr&include_24hr_change=true",
		s.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price api returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	now := time.Now()
	quotes := make(map[string]PriceQuote)
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		id, ok := coinGeckoIDs[upper]
		if !ok {
			continue
		}
		data, ok := payload[id]
		if !ok {
			continue
		}
		quotes[upper] = PriceQuote{
			Price:     decimal.NewFromFloat(data["inr"]),
			Change24h: decimal.NewFromFloat(data["inr_24h_change"]),
			FetchedAt: now,
		}
	}

	return quotes, nil
}

// coversSymbols reports whether every requested mapped symbol has a cached
// quote. Unmapped symbols are skipped: no fetch can ever serve them, so they
// must not defeat the cache.
func coversSymbols(quotes map[string]PriceQuote, symbols []string) bool {
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		if _, mapped := coinGeckoIDs[upper]; !mapped {
			continue
		}
		if _, ok := quotes[upper]; !ok {
			return false
		}
	}
	return true
}

func fallbackFor(symbols []string) map[string]PriceQuote {
	now := time.Now()
	result := make(map[string]PriceQuote)
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		if quote, ok := fallbackQuotes[upper]; ok {
			quote.FetchedAt = now
			result[upper] = quote
		}
	}
	return result
}
