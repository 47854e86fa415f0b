// Package simulations fetches Monte-Carlo runs from the external simulation
// service and serves them with P&L distribution histograms. Outcome
// generation lives entirely in that service; this module caches and shapes.
package simulations

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fxrisk/internal/clientdata"
	"github.com/aristath/fxrisk/internal/domain"
)

const cacheTable = "simulation_results"

// Store caches simulation runs in client_data.db as msgpack blobs. A run
// carries thousands of simulated P&L floats; msgpack keeps the rows at a
// fraction of their JSON size.
type Store struct {
	cache *clientdata.Repository
	log   zerolog.Logger
}

// NewStore creates a new simulation result store.
func NewStore(cache *clientdata.Repository, log zerolog.Logger) *Store {
	return &Store{
		cache: cache,
		log:   log.With().Str("repository", "simulations").Logger(),
	}
}

func cacheKey(exposureID string, horizonDays int) string {
	return fmt.Sprintf("%s:%d", exposureID, horizonDays)
}

// Put caches one run for the simulation TTL, keyed by exposure and horizon.
func (s *Store) Put(result *domain.SimulationResult) error {
	blob, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode simulation result: %w", err)
	}

	key := cacheKey(result.ExposureID, result.TimeHorizonDays)
	if err := s.cache.StoreRaw(cacheTable, key, blob, clientdata.TTLSimulation); err != nil {
		return fmt.Errorf("failed to cache simulation result: %w", err)
	}

	s.log.Debug().
		Str("cache_key", key).
		Int("sample_size", len(result.SimulatedPnl)).
		Int("blob_bytes", len(blob)).
		Msg("Simulation run cached")
	return nil
}

// Fresh returns the cached run if it has not expired. Returns nil when the
// key is missing or stale.
func (s *Store) Fresh(exposureID string, horizonDays int) (*domain.SimulationResult, error) {
	blob, err := s.cache.GetIfFresh(cacheTable, cacheKey(exposureID, horizonDays))
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return decodeRun(blob)
}

// Stale returns the cached run regardless of age. Used as a fallback when
// the simulation service is unreachable.
func (s *Store) Stale(exposureID string, horizonDays int) (*domain.SimulationResult, error) {
	blob, err := s.cache.Get(cacheTable, cacheKey(exposureID, horizonDays))
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return decodeRun(blob)
}

// Invalidate drops the cached run for one exposure and horizon.
func (s *Store) Invalidate(exposureID string, horizonDays int) error {
	return s.cache.Delete(cacheTable, cacheKey(exposureID, horizonDays))
}

func decodeRun(blob []byte) (*domain.SimulationResult, error) {
	var result domain.SimulationResult
	if err := msgpack.Unmarshal(blob, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached simulation: %w", err)
	}
	return &result, nil
}
