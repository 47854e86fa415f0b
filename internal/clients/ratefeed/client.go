// Package ratefeed provides market exchange rate fetching, caching and
// streaming functionality.
package ratefeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/clientdata"
)

// Client polls the REST rate feed.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new rate feed client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "ratefeed").Logger(),
		cacheRepo: cacheRepo,
	}
}

// SetAPIKey replaces the feed API key on the running client.
// Used when the key is updated through the settings API.
func (c *Client) SetAPIKey(apiKey string) {
	c.apiKey = apiKey
}

// cachedRate is the structure stored in the cache
type cachedRate struct {
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
}

// GetRate fetches an exchange rate with cache.
// If the feed fails, returns stale cached data if available (stale data > no data).
func (c *Client) GetRate(fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	cacheKey := fromCurrency + ":" + toCurrency

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh("ratefeed_rates", cacheKey)
		if err == nil && data != nil {
			var cached cachedRate
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().
					Str("from", fromCurrency).
					Str("to", toCurrency).
					Float64("rate", cached.Rate).
					Msg("Cache hit")
				return cached.Rate, nil
			}
		}
	}

	// Fetch from the feed
	endpoint := c.latestURL(fromCurrency)
	c.log.Debug().Str("url", endpoint).Msg("Fetching rates")

	resp, err := c.client.Get(endpoint)
	if err != nil {
		// Feed unreachable - try stale cached data as fallback
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("Feed unreachable, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("rate feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Int("status", resp.StatusCode).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("Feed error, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("rate feed returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Err(err).
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("Failed to parse feed response, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists {
		if staleRate, ok := c.getStaleFromCache(cacheKey); ok {
			c.log.Warn().
				Str("from", fromCurrency).
				Str("to", toCurrency).
				Float64("rate", staleRate).
				Msg("Rate not in feed response, using stale cached rate")
			return staleRate, nil
		}
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}

	c.storeInCache(cacheKey, rate)

	c.log.Info().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Fetched rate")

	return rate, nil
}

// latestURL builds the /latest endpoint for a base currency, appending the
// API key when one is configured.
func (c *Client) latestURL(base string) string {
	params := url.Values{}
	params.Set("base", base)
	if c.apiKey != "" {
		params.Set("access_key", c.apiKey)
	}
	return fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())
}

// storeInCache persists a rate; cache failures are logged, never fatal.
func (c *Client) storeInCache(cacheKey string, rate float64) {
	if c.cacheRepo == nil {
		return
	}
	cached := cachedRate{Rate: rate, FetchedAt: time.Now().UTC()}
	if err := c.cacheRepo.Store("ratefeed_rates", cacheKey, cached, clientdata.TTLRate); err != nil {
		c.log.Warn().Err(err).Str("pair", cacheKey).Msg("Failed to cache exchange rate")
	}
}

// getStaleFromCache retrieves a cached rate even if expired.
// Use this as a fallback when feed calls fail - stale data is better than no data.
func (c *Client) getStaleFromCache(cacheKey string) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}

	data, err := c.cacheRepo.Get("ratefeed_rates", cacheKey)
	if err != nil || data == nil {
		return 0, false
	}

	var cached cachedRate
	if err := json.Unmarshal(data, &cached); err != nil {
		return 0, false
	}

	return cached.Rate, true
}
