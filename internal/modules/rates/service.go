package rates

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/clients/ratefeed"
	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/aristath/fxrisk/internal/utils"
)

// StreamStatus summarizes the live stream connection for the system API.
type StreamStatus struct {
	Enabled    bool `json:"enabled"`
	Connected  bool `json:"connected"`
	CacheStale bool `json:"cache_stale"`
	TickCount  int  `json:"tick_count"`
}

// Service coordinates rate lookups across three sources: the live websocket
// tick cache (freshest), the REST client with its persistent cache, and the
// local daily history (for volatility, never for current rates).
type Service struct {
	client       *ratefeed.Client
	stream       *ratefeed.RateStream // nil when no stream URL is configured
	history      *History
	pairs        *PairsRepository
	settingsRepo *settings.Repository
	log          zerolog.Logger
}

// NewService creates a new rates service. stream may be nil.
func NewService(
	client *ratefeed.Client,
	stream *ratefeed.RateStream,
	history *History,
	pairs *PairsRepository,
	settingsRepo *settings.Repository,
	log zerolog.Logger,
) *Service {
	return &Service{
		client:       client,
		stream:       stream,
		history:      history,
		pairs:        pairs,
		settingsRepo: settingsRepo,
		log:          log.With().Str("service", "rates").Logger(),
	}
}

// GetRate returns the current rate for a currency pair.
// Prefers a fresh live tick; falls back to the REST client (which in turn
// falls back to its persistent cache when the feed is down).
func (s *Service) GetRate(fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	if s.stream != nil && !s.stream.IsCacheStale() {
		pair := fromCurrency + "/" + toCurrency
		if tick, err := s.stream.GetTick(pair); err == nil {
			return tick.Rate, nil
		}
	}

	return s.client.GetRate(fromCurrency, toCurrency)
}

// HandleTick records a live quote into the daily history.
// Wired as the stream's tick callback; one upsert per tick is cheap because
// the history keeps a single row per pair per UTC day.
func (s *Service) HandleTick(tick ratefeed.RateTick) {
	if err := s.history.Record(tick.Pair, tick.Rate, tick.UpdatedAt); err != nil {
		s.log.Warn().Err(err).Str("pair", tick.Pair).Msg("Failed to record live tick")
	}
}

// RefreshAll fetches current rates for every approved pair and records them
// in the history. Per-pair failures are logged and skipped so one bad pair
// cannot stall the whole refresh.
func (s *Service) RefreshAll() error {
	defer utils.OperationTimer("rate_refresh", s.log)()

	pairs, err := s.pairs.List()
	if err != nil {
		return fmt.Errorf("failed to list approved pairs: %w", err)
	}

	refreshed := 0
	failed := 0
	for _, pair := range pairs {
		from, to, err := utils.SplitPair(pair)
		if err != nil {
			s.log.Warn().Err(err).Str("pair", pair).Msg("Skipping malformed approved pair")
			failed++
			continue
		}

		rate, err := s.client.GetRate(from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("pair", pair).Msg("Failed to refresh rate")
			failed++
			continue
		}

		if err := s.history.Record(pair, rate, time.Now()); err != nil {
			s.log.Warn().Err(err).Str("pair", pair).Msg("Failed to record refreshed rate")
		}
		refreshed++
	}

	s.log.Info().
		Int("refreshed", refreshed).
		Int("failed", failed).
		Msg("Rate refresh complete")

	return nil
}

// ApprovedPairs returns the approved pair catalog.
func (s *Service) ApprovedPairs() ([]string, error) {
	return s.pairs.List()
}

// AddPair approves a currency pair and returns its canonical form.
func (s *Service) AddPair(pair string) (string, error) {
	normalized, err := s.pairs.Add(pair)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("pair", normalized).Msg("Approved currency pair")
	return normalized, nil
}

// RemovePair removes a currency pair from the approved catalog.
func (s *Service) RemovePair(pair string) error {
	if err := s.pairs.Remove(pair); err != nil {
		return err
	}

	s.log.Info().Str("pair", pair).Msg("Removed currency pair")
	return nil
}

// History returns the recorded daily observations for a pair, oldest first.
func (s *Service) History(pair string, days int) ([]RatePoint, error) {
	normalized, err := utils.NormalizePair(pair)
	if err != nil {
		return nil, err
	}
	return s.history.RecentRates(normalized, days)
}

// Status reports the live stream connection state.
func (s *Service) Status() StreamStatus {
	if s.stream == nil {
		return StreamStatus{Enabled: false, Connected: false, CacheStale: true}
	}

	return StreamStatus{
		Enabled:    true,
		Connected:  s.stream.IsConnected(),
		CacheStale: s.stream.IsCacheStale(),
		TickCount:  len(s.stream.AllTicks()),
	}
}

// RefreshCredentials reloads the rate feed API key from the settings database
// onto the running client. Called after the key changes through the API.
func (s *Service) RefreshCredentials() error {
	apiKey, err := s.settingsRepo.Get("ratefeed_api_key")
	if err != nil {
		return fmt.Errorf("failed to get ratefeed_api_key from settings: %w", err)
	}

	if apiKey == nil {
		return fmt.Errorf("ratefeed_api_key not found in settings database")
	}

	s.client.SetAPIKey(*apiKey)
	s.log.Info().Msg("Rate feed credentials refreshed from settings database")
	return nil
}
