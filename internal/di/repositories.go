// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/aristath/fxrisk/internal/clientdata"
	"github.com/aristath/fxrisk/internal/modules/exposures"
	"github.com/aristath/fxrisk/internal/modules/policy"
	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/aristath/fxrisk/internal/modules/settings"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Exposure book (needs exposuresDB)
	container.ExposuresRepo = exposures.NewRepository(
		container.ExposuresDB.Conn(),
		log,
	)

	// Settings (needs configDB)
	container.SettingsRepo = settings.NewRepository(
		container.ConfigDB.Conn(),
		log,
	)

	// Approved currency pairs (needs configDB)
	container.PairsRepo = rates.NewPairsRepository(
		container.ConfigDB.Conn(),
		log,
	)

	// Policy tiers and cascade audit trail (need exposuresDB)
	container.PolicyTiersRepo = policy.NewTiersRepository(
		container.ExposuresDB.Conn(),
		log,
	)
	container.PolicyAuditRepo = policy.NewAuditRepository(
		container.ExposuresDB.Conn(),
		log,
	)

	// External API response cache (needs clientDataDB)
	container.ClientDataRepo = clientdata.NewRepository(
		container.ClientDataDB.Conn(),
	)

	log.Info().Msg("All repositories initialized")

	return nil
}
