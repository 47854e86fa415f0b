// Package di provides dependency injection type definitions.
//
// The Container is the single source of truth for all service instances.
// It is created by Wire() and handed to the HTTP server, the scheduler
// registration and main.go.
package di

import (
	"github.com/aristath/fxrisk/internal/clientdata"
	"github.com/aristath/fxrisk/internal/clients/ratefeed"
	"github.com/aristath/fxrisk/internal/clients/simulation"
	"github.com/aristath/fxrisk/internal/database"
	"github.com/aristath/fxrisk/internal/modules/exposures"
	exposureshandlers "github.com/aristath/fxrisk/internal/modules/exposures/handlers"
	"github.com/aristath/fxrisk/internal/modules/hedging"
	hedginghandlers "github.com/aristath/fxrisk/internal/modules/hedging/handlers"
	"github.com/aristath/fxrisk/internal/modules/policy"
	policyhandlers "github.com/aristath/fxrisk/internal/modules/policy/handlers"
	"github.com/aristath/fxrisk/internal/modules/rates"
	rateshandlers "github.com/aristath/fxrisk/internal/modules/rates/handlers"
	"github.com/aristath/fxrisk/internal/modules/settings"
	settingshandlers "github.com/aristath/fxrisk/internal/modules/settings/handlers"
	"github.com/aristath/fxrisk/internal/modules/simulations"
	simulationshandlers "github.com/aristath/fxrisk/internal/modules/simulations/handlers"
	"github.com/aristath/fxrisk/internal/reliability"
	"github.com/aristath/fxrisk/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// Databases use SQLite with WAL mode and profile-specific PRAGMAs. The rate
// history store keeps its own connection outside the map because it is
// rebuildable from the feed and excluded from backups.
type Container struct {
	// Databases
	ExposuresDB  *database.DB            // Exposure book, import batches, policy tiers and audit
	ConfigDB     *database.DB            // Settings and approved currency pairs
	ClientDataDB *database.DB            // External API response cache (ratefeed, simulations)
	Databases    map[string]*database.DB // All of the above, keyed by name
	RateHistory  *rates.History          // Daily rate points for volatility estimation

	// Clients - external API integrations
	RatefeedClient   *ratefeed.Client    // REST rate feed with cache fallback
	RateStream       *ratefeed.RateStream // WebSocket tick stream (optional)
	SimulationClient *simulation.Client  // Monte-Carlo simulation service

	// Repositories - data access layer
	ExposuresRepo   *exposures.Repository
	SettingsRepo    *settings.Repository
	PairsRepo       *rates.PairsRepository
	PolicyTiersRepo *policy.TiersRepository
	PolicyAuditRepo *policy.AuditRepository
	ClientDataRepo  *clientdata.Repository

	// Services - business logic layer
	SettingsService     *settings.Service
	RatesService        *rates.Service
	ExposuresService    *exposures.Service
	Importer            *exposures.Importer
	PolicyService       *policy.Service
	VolatilityEstimator *hedging.VolatilityEstimator
	HedgingService      *hedging.Service
	SimulationsStore    *simulations.Store
	SimulationsService  *simulations.Service

	// Reliability
	BackupService   *reliability.BackupService                    // Local database backups
	HealthServices  map[string]*reliability.DatabaseHealthService // Per-database integrity checks
	R2Client        *reliability.R2Client                         // Cloudflare R2 client (optional)
	R2BackupService *reliability.R2BackupService                  // R2 cloud backup service (optional)
	RestoreService  *reliability.RestoreService                   // Staged restore from R2 (optional)

	// Scheduler - background job runner, started from main after seeding
	Scheduler *scheduler.Scheduler

	// Handlers - HTTP request handlers, mounted by the server under /api
	ExposuresHandler   *exposureshandlers.Handler
	RatesHandler       *rateshandlers.Handler
	PolicyHandler      *policyhandlers.Handler
	HedgingHandler     *hedginghandlers.Handler
	SimulationsHandler *simulationshandlers.Handler
	SettingsHandler    *settingshandlers.Handler
}

// Close releases all database connections. Safe to call with partially
// initialized containers, as Wire cleans up through it on failure.
func (c *Container) Close() {
	if c.RateStream != nil {
		if err := c.RateStream.Stop(); err != nil {
			_ = err // already logged by the stream
		}
	}
	if c.RateHistory != nil {
		_ = c.RateHistory.Close()
	}
	if c.ExposuresDB != nil {
		_ = c.ExposuresDB.Close()
	}
	if c.ConfigDB != nil {
		_ = c.ConfigDB.Close()
	}
	if c.ClientDataDB != nil {
		_ = c.ClientDataDB.Close()
	}
}
