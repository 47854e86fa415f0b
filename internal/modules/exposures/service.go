// Package exposures is the core of the risk dashboard: the currency exposure
// book. It owns CRUD on the exposure store, the portfolio summary and CSV
// export built on the analytics engine, CSV import, and the market-rate
// refresh that re-annotates every exposure's current rate and P&L.
package exposures

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/fxrisk/internal/analytics"
	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/aristath/fxrisk/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExposureView is an exposure annotated with its classification, the shape
// the dashboard list renders.
type ExposureView struct {
	domain.Exposure
	Status    domain.Status `json:"status"`
	Deviation *float64      `json:"deviation,omitempty"`
}

// RefreshResult reports the outcome of one rate refresh run.
type RefreshResult struct {
	Refreshed  int  `json:"refreshed"`
	Failed     int  `json:"failed"`
	Superseded bool `json:"superseded,omitempty"`
}

// Service orchestrates the exposure book.
type Service struct {
	repo     *Repository
	rates    domain.RateSource
	settings *settings.Service
	log      zerolog.Logger

	// Refreshes are supersedable: issuing a new one cancels the in-flight
	// fetch, and a superseded fetch discards its results unapplied.
	refreshMu     sync.Mutex
	refreshSeq    uint64
	refreshCancel context.CancelFunc
}

// NewService creates a new exposure service.
func NewService(repo *Repository, rates domain.RateSource, settingsService *settings.Service, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		rates:    rates,
		settings: settingsService,
		log:      log.With().Str("service", "exposures").Logger(),
	}
}

// ListExposures returns every stored exposure. Implements domain.ExposureSource.
func (s *Service) ListExposures(ctx context.Context) ([]domain.Exposure, error) {
	return s.repo.List()
}

// List returns exposures matching the filter, each annotated with its
// classification against the configured thresholds.
func (s *Service) List(spec analytics.FilterSpec) ([]ExposureView, error) {
	exposures, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	th := s.settings.Thresholds()
	filtered := analytics.Filter(exposures, spec)

	views := make([]ExposureView, 0, len(filtered))
	for _, exp := range filtered {
		views = append(views, s.annotate(exp, th))
	}

	return views, nil
}

// Get returns one annotated exposure, or nil when the id is unknown.
func (s *Service) Get(id string) (*ExposureView, error) {
	exp, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, nil
	}

	view := s.annotate(*exp, s.settings.Thresholds())
	return &view, nil
}

// Create validates and stores a new exposure. A missing id is assigned; a
// missing instrument type defaults to spot.
func (s *Service) Create(exp domain.Exposure) (*domain.Exposure, error) {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if exp.InstrumentType == "" {
		exp.InstrumentType = domain.InstrumentSpot
	}
	if err := s.normalize(&exp); err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(exp); err != nil {
		return nil, err
	}

	return s.repo.GetByID(exp.ID)
}

// Update replaces an existing exposure. Returns nil when the id is unknown.
func (s *Service) Update(id string, exp domain.Exposure) (*domain.Exposure, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	exp.ID = id
	if exp.InstrumentType == "" {
		exp.InstrumentType = existing.InstrumentType
	}
	if err := s.normalize(&exp); err != nil {
		return nil, err
	}
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(exp); err != nil {
		return nil, err
	}

	return s.repo.GetByID(id)
}

// Delete removes an exposure. Deleting an unknown id is a no-op.
func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

// Summary aggregates the whole book into the dashboard's portfolio view.
func (s *Service) Summary() (analytics.Summary, error) {
	exposures, err := s.repo.List()
	if err != nil {
		return analytics.Summary{}, err
	}

	return analytics.Aggregate(exposures, s.settings.Thresholds(), time.Now().UTC()), nil
}

// ExportCSV renders the whole book as a CSV document.
func (s *Service) ExportCSV() (string, error) {
	exposures, err := s.repo.List()
	if err != nil {
		return "", err
	}

	return analytics.ToCSV(exposures, s.settings.Thresholds(), analytics.DefaultFormat()), nil
}

// Refresh re-fetches the current market rate for every exposure and rewrites
// the derived P&L (pnl = (current - budget) * amount). Refreshes are
// last-issued-wins: a newer call cancels this one's fetches, and results
// computed before the supersession are discarded rather than applied.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	s.refreshMu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.refreshCancel = cancel
	s.refreshMu.Unlock()
	defer cancel()

	exposures, err := s.repo.List()
	if err != nil {
		return RefreshResult{}, fmt.Errorf("failed to load exposures for refresh: %w", err)
	}

	type rateUpdate struct {
		id   string
		rate float64
		pnl  *float64
	}

	updates := make([]rateUpdate, 0, len(exposures))
	failed := 0
	for _, exp := range exposures {
		if ctx.Err() != nil {
			s.refreshMu.Lock()
			superseded := seq != s.refreshSeq
			s.refreshMu.Unlock()
			if superseded {
				return RefreshResult{Superseded: true}, nil
			}
			return RefreshResult{}, ctx.Err()
		}

		rate, err := s.rates.GetRate(exp.FromCurrency, exp.ToCurrency)
		if err != nil {
			s.log.Warn().Err(err).Str("id", exp.ID).Str("pair", exp.Pair()).Msg("Rate fetch failed, keeping previous annotation")
			failed++
			continue
		}

		var pnl *float64
		if exp.BudgetRate != nil && exp.Amount != nil {
			v := (rate - *exp.BudgetRate) * *exp.Amount
			pnl = &v
		}
		updates = append(updates, rateUpdate{id: exp.ID, rate: rate, pnl: pnl})
	}

	// Apply only if no newer refresh was issued while we fetched.
	s.refreshMu.Lock()
	superseded := seq != s.refreshSeq
	s.refreshMu.Unlock()
	if superseded {
		s.log.Debug().Uint64("seq", seq).Msg("Refresh superseded, discarding results")
		return RefreshResult{Superseded: true}, nil
	}

	refreshed := 0
	for _, u := range updates {
		if err := s.repo.UpdateRates(u.id, u.rate, u.pnl); err != nil {
			s.log.Error().Err(err).Str("id", u.id).Msg("Failed to persist refreshed rate")
			failed++
			continue
		}
		refreshed++
	}

	s.log.Info().Int("refreshed", refreshed).Int("failed", failed).Msg("Exposure rates refreshed")
	return RefreshResult{Refreshed: refreshed, Failed: failed}, nil
}

// ImportHistory returns the most recent CSV import runs, newest first.
func (s *Service) ImportHistory(limit int) ([]ImportBatch, error) {
	return s.repo.ListImportBatches(limit)
}

// annotate attaches classification and deviation to an exposure.
func (s *Service) annotate(exp domain.Exposure, th analytics.Thresholds) ExposureView {
	view := ExposureView{
		Exposure: exp,
		Status:   analytics.Classify(exp, th),
	}
	if dev, ok := analytics.Deviation(exp); ok {
		view.Deviation = &dev
	}
	return view
}

// normalize uppercases currencies and rejects codes that are not three
// letters. Pair input like "eur/usd" is accepted by splitting upstream.
func (s *Service) normalize(exp *domain.Exposure) error {
	exp.FromCurrency = strings.ToUpper(strings.TrimSpace(exp.FromCurrency))
	exp.ToCurrency = strings.ToUpper(strings.TrimSpace(exp.ToCurrency))

	if exp.FromCurrency != "" && exp.ToCurrency != "" {
		if _, err := utils.NormalizePair(exp.FromCurrency + "/" + exp.ToCurrency); err != nil {
			return err
		}
	}

	return nil
}
