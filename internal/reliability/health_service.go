package reliability

import (
	"fmt"
	"os"
	"time"

	"github.com/aristath/fxrisk/internal/database"
	"github.com/rs/zerolog"
)

// DatabaseHealthService monitors one database and performs auto-recovery:
// integrity check, then WAL checkpoint recovery, then restore from the most
// recent local backup as the last resort.
type DatabaseHealthService struct {
	db      *database.DB
	backups *BackupService
	name    string
	path    string
	log     zerolog.Logger
}

// NewDatabaseHealthService creates a new database health service.
func NewDatabaseHealthService(db *database.DB, backups *BackupService, name, path string, log zerolog.Logger) *DatabaseHealthService {
	return &DatabaseHealthService{
		db:      db,
		backups: backups,
		name:    name,
		path:    path,
		log:     log.With().Str("service", "health").Str("database", name).Logger(),
	}
}

// CheckAndRecover performs a health check and auto-recovery if needed.
func (s *DatabaseHealthService) CheckAndRecover() error {
	s.log.Debug().Msg("Starting health check")

	if err := s.checkIntegrity(); err != nil {
		s.log.Error().Err(err).Msg("Integrity check failed")

		if err := s.attemptWALRecovery(); err != nil {
			s.log.Error().Err(err).Msg("WAL recovery failed")
			return s.restoreFromBackup()
		}

		if err := s.checkIntegrity(); err != nil {
			s.log.Error().Err(err).Msg("Integrity check failed after WAL recovery")
			return s.restoreFromBackup()
		}

		s.log.Info().Msg("Database recovered via WAL recovery")
	}

	s.log.Debug().Msg("Health check complete")
	return nil
}

// checkIntegrity runs PRAGMA integrity_check.
func (s *DatabaseHealthService) checkIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// attemptWALRecovery forces a full checkpoint, flushing and resetting the WAL.
func (s *DatabaseHealthService) attemptWALRecovery() error {
	s.log.Warn().Msg("Attempting WAL recovery")

	if err := s.db.WALCheckpoint("RESTART"); err != nil {
		return err
	}

	s.log.Info().Msg("WAL recovery completed")
	return nil
}

// restoreFromBackup replaces the database file with the most recent local
// backup. The corrupted file is kept beside it for investigation.
func (s *DatabaseHealthService) restoreFromBackup() error {
	s.log.Warn().Msg("Attempting restore from backup")

	backup := s.backups.FindMostRecentBackup(s.name)
	if backup == "" {
		return fmt.Errorf("no backup found for %s", s.name)
	}

	s.log.Info().Str("backup", backup).Msg("Found backup")

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	corruptedPath := s.path + ".corrupted." + time.Now().Format("20060102_150405")
	if err := os.Rename(s.path, corruptedPath); err != nil {
		s.log.Error().Err(err).Msg("Failed to set aside corrupted file")
	} else {
		s.log.Info().Str("path", corruptedPath).Msg("Corrupted file set aside")
	}

	// Drop stale WAL sidecars so the restored copy opens clean
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")

	if err := CopyFile(backup, s.path); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	newDB, err := database.New(database.Config{
		Path:    s.path,
		Profile: s.db.Profile(),
		Name:    s.name,
	})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	s.db = newDB

	if err := s.checkIntegrity(); err != nil {
		return fmt.Errorf("restored backup is also corrupt: %w", err)
	}

	s.log.Info().
		Str("backup", backup).
		Msg("Successfully restored from backup")

	return nil
}

// GetMetrics returns current size and integrity metrics for the database.
func (s *DatabaseHealthService) GetMetrics() (*DatabaseMetrics, error) {
	metrics := &DatabaseMetrics{
		Name: s.name,
	}

	if info, err := os.Stat(s.path); err == nil {
		metrics.SizeMB = float64(info.Size()) / 1024 / 1024
	}

	walPath := s.path + "-wal"
	if info, err := os.Stat(walPath); err == nil {
		metrics.WALSizeMB = float64(info.Size()) / 1024 / 1024
	}

	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err == nil {
		metrics.IntegrityCheckPassed = result == "ok"
		metrics.LastIntegrityCheck = time.Now()
	}

	return metrics, nil
}

// DatabaseMetrics holds database health metrics.
type DatabaseMetrics struct {
	Name                 string
	SizeMB               float64
	WALSizeMB            float64
	LastIntegrityCheck   time.Time
	IntegrityCheckPassed bool
}

// CopyFile copies a file from src to dst.
func CopyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, input, 0644)
}
