package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Market rates move constantly; the scheduler refreshes them anyway.
	TTLRate = time.Hour // 1 hour - spot exchange rates

	// Simulation runs are expensive upstream, so results live longer. The
	// portfolio they were computed from changes at most a few times a day.
	TTLSimulation = 6 * time.Hour // 6 hours - Monte-Carlo simulation results
)
