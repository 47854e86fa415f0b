// Package di provides dependency injection for service implementations.
package di

import (
	"fmt"

	"github.com/aristath/fxrisk/internal/clients/ratefeed"
	"github.com/aristath/fxrisk/internal/clients/simulation"
	"github.com/aristath/fxrisk/internal/config"
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
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Settings DB values override env vars for API keys and R2 credentials,
	// so merge them in before any client is constructed.
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		return fmt.Errorf("failed to load settings overrides: %w", err)
	}

	// ==========================================
	// STEP 1: Settings Service
	// ==========================================

	container.SettingsService = settings.NewService(container.SettingsRepo, log)

	// ==========================================
	// STEP 2: Rate Feed Clients
	// ==========================================

	container.RatefeedClient = ratefeed.NewClient(
		cfg.RatefeedURL,
		cfg.RatefeedAPIKey,
		container.ClientDataRepo,
		log,
	)

	// The stream delivers ticks through a callback, but the rates service
	// needs the stream at construction. The closure captures the service
	// variable, which is assigned right below.
	var ratesService *rates.Service
	if cfg.RatefeedWSURL != "" {
		container.RateStream = ratefeed.NewRateStream(
			cfg.RatefeedWSURL,
			cfg.RatefeedPairs,
			func(tick ratefeed.RateTick) {
				if ratesService != nil {
					ratesService.HandleTick(tick)
				}
			},
			log,
		)
	}

	// ==========================================
	// STEP 3: Rates Service
	// ==========================================

	// First boot: the approved-pair catalog starts from the configured pairs
	if err := container.PairsRepo.SeedDefaults(cfg.RatefeedPairs); err != nil {
		return fmt.Errorf("failed to seed default pairs: %w", err)
	}

	ratesService = rates.NewService(
		container.RatefeedClient,
		container.RateStream,
		container.RateHistory,
		container.PairsRepo,
		container.SettingsRepo,
		log,
	)
	container.RatesService = ratesService

	// ==========================================
	// STEP 4: Exposure Book
	// ==========================================

	container.ExposuresService = exposures.NewService(
		container.ExposuresRepo,
		container.RatesService,
		container.SettingsService,
		log,
	)
	container.Importer = exposures.NewImporter(
		container.ExposuresRepo,
		container.PairsRepo,
		log,
	)

	// ==========================================
	// STEP 5: Policy Cascade
	// ==========================================

	container.PolicyService = policy.NewService(
		container.PolicyTiersRepo,
		container.PolicyAuditRepo,
		container.ExposuresRepo,
		log,
	)

	// ==========================================
	// STEP 6: Hedging Advisor
	// ==========================================

	container.VolatilityEstimator = hedging.NewVolatilityEstimator(container.RateHistory, log)
	container.HedgingService = hedging.NewService(
		container.ExposuresRepo,
		container.RatesService,
		container.VolatilityEstimator,
		container.SettingsService,
		log,
	)

	// ==========================================
	// STEP 7: Simulations Passthrough
	// ==========================================

	container.SimulationClient = simulation.NewClient(cfg.SimulationServiceURL, log)
	container.SimulationsStore = simulations.NewStore(container.ClientDataRepo, log)
	container.SimulationsService = simulations.NewService(
		container.SimulationClient,
		container.SimulationsStore,
		log,
	)

	// ==========================================
	// STEP 8: Reliability Services
	// ==========================================

	dataDir := cfg.DataDir
	backupDir := dataDir + "/backups"
	container.BackupService = reliability.NewBackupService(container.Databases, dataDir, backupDir, log)

	// Health services cover the durable databases. client_data is a cache
	// profile DB and gets rebuilt rather than recovered.
	container.HealthServices = make(map[string]*reliability.DatabaseHealthService)
	container.HealthServices["exposures"] = reliability.NewDatabaseHealthService(
		container.ExposuresDB, container.BackupService, "exposures", dataDir+"/exposures.db", log)
	container.HealthServices["config"] = reliability.NewDatabaseHealthService(
		container.ConfigDB, container.BackupService, "config", dataDir+"/config.db", log)

	// R2 cloud backup is optional - only when all credentials are configured
	if cfg.R2AccountID != "" && cfg.R2AccessKeyID != "" && cfg.R2SecretAccessKey != "" && cfg.R2BucketName != "" {
		r2Client, err := reliability.NewR2Client(cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2BucketName, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize R2 client - R2 backup disabled")
		} else {
			container.R2Client = r2Client
			container.R2BackupService = reliability.NewR2BackupService(
				r2Client,
				container.BackupService,
				dataDir,
				log,
			)
			container.RestoreService = reliability.NewRestoreService(r2Client, dataDir, log)
			log.Info().Msg("R2 cloud backup services initialized")
		}
	} else {
		log.Debug().Msg("R2 credentials not configured - R2 backup disabled")
	}

	// ==========================================
	// STEP 9: HTTP Handlers
	// ==========================================

	container.ExposuresHandler = exposureshandlers.NewHandler(container.ExposuresService, container.Importer, log)
	container.RatesHandler = rateshandlers.NewHandler(container.RatesService, log)
	container.PolicyHandler = policyhandlers.NewHandler(container.PolicyService, log)
	container.HedgingHandler = hedginghandlers.NewHandler(container.HedgingService, log)
	container.SimulationsHandler = simulationshandlers.NewHandler(container.SimulationsService, log)
	container.SettingsHandler = settingshandlers.NewHandler(container.SettingsService, log)
	// Credential updates through the settings API take effect on the running
	// feed client without a restart.
	container.SettingsHandler.SetCredentialRefresher(container.RatesService)

	log.Info().Msg("All services initialized")

	return nil
}
