package simulations

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/analytics"
	"github.com/aristath/fxrisk/internal/domain"
)

const defaultHorizonDays = 90

// Distribution is a simulation run with its frequency table, shaped for the
// dashboard's P&L distribution chart.
type Distribution struct {
	Result    *domain.SimulationResult `json:"result"`
	Histogram []analytics.HistogramBin `json:"histogram"`
	Source    string                   `json:"source"` // "cache", "service" or "stale_cache"
}

// Service serves simulation runs cache-first.
type Service struct {
	source domain.SimulationSource
	store  *Store
	format analytics.Format
	log    zerolog.Logger
}

// NewService creates a new simulations service.
func NewService(source domain.SimulationSource, store *Store, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		format: analytics.DefaultFormat(),
		log:    log.With().Str("service", "simulations").Logger(),
	}
}

// Get returns the distribution for one exposure and horizon: fresh cache hit
// first, then the simulation service, then stale cache when the service is
// down. horizonDays 0 means the default; numBins 0 means the binner default.
func (s *Service) Get(ctx context.Context, exposureID string, horizonDays, numBins int) (*Distribution, error) {
	if exposureID == "" {
		return nil, fmt.Errorf("exposure id is required")
	}
	if horizonDays == 0 {
		horizonDays = defaultHorizonDays
	}
	if horizonDays < 1 || horizonDays > 365 {
		return nil, fmt.Errorf("horizon_days must be between 1 and 365, got %d", horizonDays)
	}

	if cached, err := s.store.Fresh(exposureID, horizonDays); err == nil && cached != nil {
		s.log.Debug().
			Str("exposure_id", exposureID).
			Int("horizon_days", horizonDays).
			Msg("Simulation cache hit")
		return s.distribution(cached, numBins, "cache"), nil
	}

	result, err := s.source.GetSimulation(ctx, exposureID, horizonDays)
	if err != nil {
		// An old run still draws a useful chart.
		if stale, staleErr := s.store.Stale(exposureID, horizonDays); staleErr == nil && stale != nil {
			s.log.Warn().
				Err(err).
				Str("exposure_id", exposureID).
				Int("horizon_days", horizonDays).
				Msg("Simulation service unavailable, using stale cached run")
			return s.distribution(stale, numBins, "stale_cache"), nil
		}
		return nil, fmt.Errorf("failed to fetch simulation: %w", err)
	}

	if err := s.store.Put(result); err != nil {
		s.log.Warn().Err(err).Str("exposure_id", exposureID).Msg("Failed to cache simulation result")
	}

	return s.distribution(result, numBins, "service"), nil
}

// Refresh drops any cached run and fetches a new one from the service.
func (s *Service) Refresh(ctx context.Context, exposureID string, horizonDays, numBins int) (*Distribution, error) {
	if horizonDays == 0 {
		horizonDays = defaultHorizonDays
	}
	if err := s.store.Invalidate(exposureID, horizonDays); err != nil {
		s.log.Warn().Err(err).Str("exposure_id", exposureID).Msg("Failed to invalidate cached simulation")
	}
	return s.Get(ctx, exposureID, horizonDays, numBins)
}

func (s *Service) distribution(result *domain.SimulationResult, numBins int, source string) *Distribution {
	return &Distribution{
		Result:    result,
		Histogram: analytics.Bin(result.SimulatedPnl, numBins, s.format),
		Source:    source,
	}
}
