// Package di provides dependency injection for scheduler jobs.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/fxrisk/internal/clientdata"
	"github.com/aristath/fxrisk/internal/config"
	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/aristath/fxrisk/internal/reliability"
	"github.com/aristath/fxrisk/internal/scheduler"
	"github.com/rs/zerolog"
)

// JobInstances holds job references for manual triggering via the system API.
// R2Backup is nil when R2 credentials are not configured.
type JobInstances struct {
	RateRefresh       *rates.RefreshJob
	ClientDataCleanup *clientdata.CleanupJob
	DailyBackup       *reliability.DailyBackupJob
	DailyMaintenance  *reliability.DailyMaintenanceJob
	WeeklyMaintenance *reliability.WeeklyMaintenanceJob
	R2Backup          *reliability.R2BackupJob
}

// All returns every registered job, skipping unconfigured ones.
func (j *JobInstances) All() []scheduler.Job {
	jobs := []scheduler.Job{
		j.RateRefresh,
		j.ClientDataCleanup,
		j.DailyBackup,
		j.DailyMaintenance,
		j.WeeklyMaintenance,
	}
	if j.R2Backup != nil {
		jobs = append(jobs, j.R2Backup)
	}
	return jobs
}

// RegisterJobs creates all background jobs and registers them with the
// scheduler. Returns JobInstances for manual triggering via the API.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	// Rate refresh pulls fresh rates for every approved pair, then
	// re-annotates the exposure book against them.
	annotate := func(ctx context.Context) error {
		_, err := container.ExposuresService.Refresh(ctx)
		return err
	}
	instances.RateRefresh = rates.NewRefreshJob(container.RatesService, annotate, log)
	refreshSchedule := fmt.Sprintf("@every %dm", cfg.RateRefreshMinutes)
	if err := sched.AddJob(refreshSchedule, instances.RateRefresh); err != nil {
		return nil, fmt.Errorf("failed to register rate refresh job: %w", err)
	}

	// Expired cache rows go hourly
	instances.ClientDataCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := sched.AddJob("@hourly", instances.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register client data cleanup job: %w", err)
	}

	// Local snapshots at 1 AM, integrity maintenance at 2 AM, cloud upload
	// at 3 AM, cache vacuum Sunday 4 AM. Staggered so they never overlap.
	instances.DailyBackup = reliability.NewDailyBackupJob(container.BackupService)
	if err := sched.AddJob("0 1 * * *", instances.DailyBackup); err != nil {
		return nil, fmt.Errorf("failed to register daily backup job: %w", err)
	}

	backupDir := cfg.DataDir + "/backups"
	instances.DailyMaintenance = reliability.NewDailyMaintenanceJob(
		container.Databases,
		container.HealthServices,
		backupDir,
		log,
	)
	if err := sched.AddJob("0 2 * * *", instances.DailyMaintenance); err != nil {
		return nil, fmt.Errorf("failed to register daily maintenance job: %w", err)
	}

	if container.R2BackupService != nil {
		instances.R2Backup = reliability.NewR2BackupJob(container.R2BackupService, cfg.R2RetentionDays, log)
		if err := sched.AddJob("0 3 * * *", instances.R2Backup); err != nil {
			return nil, fmt.Errorf("failed to register R2 backup job: %w", err)
		}
	}

	instances.WeeklyMaintenance = reliability.NewWeeklyMaintenanceJob(container.Databases, log)
	if err := sched.AddJob("0 4 * * 0", instances.WeeklyMaintenance); err != nil {
		return nil, fmt.Errorf("failed to register weekly maintenance job: %w", err)
	}

	log.Info().Msg("All jobs registered")

	return instances, nil
}
