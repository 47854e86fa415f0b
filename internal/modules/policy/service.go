package policy

import (
	"context"
	"fmt"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExposureStore is the slice of the exposure repository the cascade needs.
// Defined here to avoid a dependency on the exposures package.
type ExposureStore interface {
	List() ([]domain.Exposure, error)
	GetByID(id string) (*domain.Exposure, error)
	UpdateHedgeRatio(id string, ratio float64) error
	SetHedgeOverride(id string, ratio float64) error
}

// CascadeResult reports the outcome of one cascade run.
type CascadeResult struct {
	RunID   string `json:"run_id"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}

// CascadeChange is one exposure's would-be outcome in a cascade preview.
type CascadeChange struct {
	ExposureID   string   `json:"exposure_id"`
	Reference    string   `json:"reference,omitempty"`
	Pair         string   `json:"pair"`
	Tier         string   `json:"tier,omitempty"`
	CurrentRatio *float64 `json:"current_ratio,omitempty"`
	NewRatio     *float64 `json:"new_ratio,omitempty"`
	WillChange   bool     `json:"will_change"`
	Skipped      bool     `json:"skipped"`
	Reason       string   `json:"reason,omitempty"`
}

// CascadePreview is a dry cascade run: the per-exposure outcomes without any
// writes.
type CascadePreview struct {
	WillUpdate int             `json:"will_update"`
	WillSkip   int             `json:"will_skip"`
	Changes    []CascadeChange `json:"changes"`
}

// Service applies the hedge policy to the exposure book.
type Service struct {
	tiers     *TiersRepository
	audit     *AuditRepository
	exposures ExposureStore
	log       zerolog.Logger
}

// NewService creates a new policy service.
func NewService(tiers *TiersRepository, audit *AuditRepository, exposures ExposureStore, log zerolog.Logger) *Service {
	return &Service{
		tiers:     tiers,
		audit:     audit,
		exposures: exposures,
		log:       log.With().Str("service", "policy").Logger(),
	}
}

// GetPolicyTiers returns the configured tiers. Implements domain.PolicySource.
func (s *Service) GetPolicyTiers(ctx context.Context) (domain.PolicyTiers, error) {
	return s.tiers.GetTiers()
}

// UpdateTiers persists new tier ratios, clamped to [0, 1].
func (s *Service) UpdateTiers(tiers domain.PolicyTiers) (domain.PolicyTiers, error) {
	tiers.Over5M = clampRatio(tiers.Over5M)
	tiers.OneToFiveM = clampRatio(tiers.OneToFiveM)
	tiers.Under1M = clampRatio(tiers.Under1M)

	if err := s.tiers.SetTiers(tiers); err != nil {
		return tiers, err
	}
	return tiers, nil
}

// ApplyCascade walks the exposure book and sets each exposure's policy hedge
// ratio from its size tier. Exposures pinned by a manual override are
// skipped. Every touched or skipped exposure gets an audit row sharing this
// run's id.
func (s *Service) ApplyCascade() (CascadeResult, error) {
	defer utils.OperationTimer("policy_cascade", s.log)()

	runID := uuid.New().String()

	tiers, err := s.tiers.GetTiers()
	if err != nil {
		return CascadeResult{}, err
	}

	exposures, err := s.exposures.List()
	if err != nil {
		return CascadeResult{}, fmt.Errorf("failed to load exposures for cascade: %w", err)
	}

	result := CascadeResult{RunID: runID}
	entries := make([]AuditEntry, 0, len(exposures))

	for _, exp := range exposures {
		change := planChange(exp, tiers)

		if change.Skipped {
			result.Skipped++
			entries = append(entries, AuditEntry{
				ID:         uuid.New().String(),
				RunID:      runID,
				ExposureID: exp.ID,
				Action:     ActionSkipped,
				Tier:       change.Tier,
				OldRatio:   change.CurrentRatio,
				NewRatio:   change.CurrentRatio,
				Reason:     change.Reason,
			})
			continue
		}

		if err := s.exposures.UpdateHedgeRatio(exp.ID, *change.NewRatio); err != nil {
			return result, fmt.Errorf("failed to cascade ratio to exposure %s: %w", exp.ID, err)
		}
		result.Updated++
		entries = append(entries, AuditEntry{
			ID:         uuid.New().String(),
			RunID:      runID,
			ExposureID: exp.ID,
			Action:     ActionUpdated,
			Tier:       change.Tier,
			OldRatio:   change.CurrentRatio,
			NewRatio:   change.NewRatio,
			Reason:     "cascade",
		})
	}

	if err := s.audit.Record(entries); err != nil {
		return result, err
	}

	result.Message = fmt.Sprintf("Policy cascaded. %d exposures updated, %d preserved.", result.Updated, result.Skipped)
	s.log.Info().Str("run_id", runID).Int("updated", result.Updated).Int("skipped", result.Skipped).Msg("Policy cascade applied")
	return result, nil
}

// PreviewCascade computes what ApplyCascade would do without writing
// anything.
func (s *Service) PreviewCascade() (CascadePreview, error) {
	tiers, err := s.tiers.GetTiers()
	if err != nil {
		return CascadePreview{}, err
	}

	exposures, err := s.exposures.List()
	if err != nil {
		return CascadePreview{}, fmt.Errorf("failed to load exposures for preview: %w", err)
	}

	preview := CascadePreview{Changes: []CascadeChange{}}
	for _, exp := range exposures {
		change := planChange(exp, tiers)
		preview.Changes = append(preview.Changes, change)
		if change.Skipped {
			preview.WillSkip++
		} else {
			preview.WillUpdate++
		}
	}

	return preview, nil
}

// SetOverride pins a manual hedge ratio on one exposure, excluding it from
// future cascades. Returns false when the exposure does not exist.
func (s *Service) SetOverride(exposureID string, ratio float64) (bool, error) {
	if ratio < 0 || ratio > 1 {
		return false, fmt.Errorf("hedge ratio must be between 0 and 1, got %v", ratio)
	}

	exp, err := s.exposures.GetByID(exposureID)
	if err != nil {
		return false, err
	}
	if exp == nil {
		return false, nil
	}

	if err := s.exposures.SetHedgeOverride(exposureID, ratio); err != nil {
		return false, err
	}
	return true, nil
}

// AuditLog returns recent cascade audit entries, optionally narrowed to one
// run.
func (s *Service) AuditLog(runID string, limit int) ([]AuditEntry, error) {
	if runID != "" {
		return s.audit.ListByRun(runID)
	}
	return s.audit.ListRecent(limit)
}

// planChange computes one exposure's cascade outcome: its size tier, the
// tier ratio, and whether the cascade may touch it at all.
func planChange(exp domain.Exposure, tiers domain.PolicyTiers) CascadeChange {
	change := CascadeChange{
		ExposureID:   exp.ID,
		Reference:    exp.Reference,
		Pair:         exp.Pair(),
		CurrentRatio: exp.HedgeRatioPolicy,
	}

	if exp.HedgeOverride {
		change.Skipped = true
		change.Reason = "manual override"
		return change
	}
	if exp.Amount == nil {
		change.Skipped = true
		change.Reason = "missing amount"
		return change
	}

	notional := exp.Magnitude()
	change.Tier = tierFor(notional)
	ratio := tiers.RatioFor(notional)
	change.NewRatio = &ratio
	change.WillChange = exp.HedgeRatioPolicy == nil || *exp.HedgeRatioPolicy != ratio

	return change
}

// tierFor names the size bucket for a USD-equivalent notional, mirroring
// domain.PolicyTiers.RatioFor.
func tierFor(notionalUSD float64) string {
	switch {
	case notionalUSD >= domain.TierThreshold5M:
		return TierOver5M
	case notionalUSD >= domain.TierThreshold1M:
		return TierOneToFiveM
	default:
		return TierUnder1M
	}
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
