// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/fxrisk/internal/config"
	"github.com/aristath/fxrisk/internal/database"
	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/rs/zerolog"
)

// InitializeDatabases initializes all databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. exposures.db - Exposure book, import batches, policy tiers, cascade audit
	exposuresDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/exposures.db",
		Profile: database.ProfileStandard,
		Name:    "exposures",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exposures database: %w", err)
	}
	container.ExposuresDB = exposuresDB

	// 2. config.db - Application configuration (settings, approved pairs)
	configDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/config.db",
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		exposuresDB.Close()
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 3. client_data.db - External API response cache (ratefeed, simulations)
	clientDataDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/client_data.db",
		Profile: database.ProfileCache, // Maximum speed for cache data
		Name:    "client_data",
	})
	if err != nil {
		exposuresDB.Close()
		configDB.Close()
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{exposuresDB, configDB, clientDataDB} {
		if err := db.Migrate(); err != nil {
			exposuresDB.Close()
			configDB.Close()
			clientDataDB.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	container.Databases = map[string]*database.DB{
		"exposures":   exposuresDB,
		"config":      configDB,
		"client_data": clientDataDB,
	}

	// Rate history keeps its own connection. It is rebuildable from the feed,
	// so it stays out of the Databases map and out of backups.
	history, err := rates.NewHistory(cfg.DataDir+"/rate_history.db", log)
	if err != nil {
		exposuresDB.Close()
		configDB.Close()
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to initialize rate history: %w", err)
	}
	container.RateHistory = history

	log.Info().Msg("All databases initialized and schemas applied")

	return container, nil
}
