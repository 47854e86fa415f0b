package domain

import "context"

// ExposureSource supplies the exposure records the analytics layer works on.
// Implemented by the local repository and by remote-service clients; the
// engine itself never cares which one it is talking to.
type ExposureSource interface {
	// ListExposures returns all exposures in stable insertion order.
	ListExposures(ctx context.Context) ([]Exposure, error)
}

// SimulationSource returns a completed Monte-Carlo result for one exposure
// and time horizon, or a failure. Simulation generation lives in an external
// service; results pass through this boundary unchanged.
type SimulationSource interface {
	GetSimulation(ctx context.Context, exposureID string, horizonDays int) (*SimulationResult, error)
}

// PolicySource supplies the hedge-ratio tiers for a company.
type PolicySource interface {
	GetPolicyTiers(ctx context.Context) (PolicyTiers, error)
}

// RateSource returns the latest market rate for a currency pair.
// Implementations are expected to serve cached data when the upstream feed
// is unavailable rather than failing hard.
type RateSource interface {
	GetRate(fromCurrency, toCurrency string) (float64, error)
}
