package reliability

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/fxrisk/internal/database"
	"github.com/aristath/fxrisk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // SQLite driver
)

func newTestDatabase(t *testing.T, dir, name string, profile database.DatabaseProfile) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestBackupService_DailyBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("backs up durable databases and skips the cache", func(t *testing.T) {
		tempDir := t.TempDir()
		dataDir := filepath.Join(tempDir, "data")
		backupDir := filepath.Join(tempDir, "backups")
		require.NoError(t, os.MkdirAll(dataDir, 0755))

		exposuresDB := newTestDatabase(t, dataDir, "exposures", database.ProfileStandard)
		configDB := newTestDatabase(t, dataDir, "config", database.ProfileStandard)
		cacheDB := newTestDatabase(t, dataDir, "client_data", database.ProfileCache)

		_, err := exposuresDB.Exec("CREATE TABLE exposures (id TEXT PRIMARY KEY, pair TEXT)")
		require.NoError(t, err)
		_, err = exposuresDB.Exec("INSERT INTO exposures (id, pair) VALUES ('a', 'EUR/USD'), ('b', 'GBP/USD')")
		require.NoError(t, err)

		databases := map[string]*database.DB{
			"exposures":   exposuresDB,
			"config":      configDB,
			"client_data": cacheDB,
		}

		backupService := NewBackupService(databases, dataDir, backupDir, log)

		require.NoError(t, backupService.DailyBackup())

		date := time.Now().Format("2006-01-02")
		dailyDir := filepath.Join(backupDir, "daily", date)
		entries, err := os.ReadDir(dailyDir)
		require.NoError(t, err)

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		assert.Contains(t, names, "exposures.db")
		assert.Contains(t, names, "config.db")
		assert.NotContains(t, names, "client_data.db")

		// Snapshot carries the data and passes an integrity check
		backupDB, err := sql.Open("sqlite", filepath.Join(dailyDir, "exposures.db"))
		require.NoError(t, err)
		defer backupDB.Close()

		var result string
		require.NoError(t, backupDB.QueryRow("PRAGMA integrity_check").Scan(&result))
		assert.Equal(t, "ok", result)

		var count int
		require.NoError(t, backupDB.QueryRow("SELECT COUNT(*) FROM exposures").Scan(&count))
		assert.Equal(t, 2, count)
	})
}

func TestBackupService_GetDatabaseNames(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	tempDir := t.TempDir()
	databases := map[string]*database.DB{
		"exposures":   newTestDatabase(t, tempDir, "exposures", database.ProfileStandard),
		"config":      newTestDatabase(t, tempDir, "config", database.ProfileStandard),
		"client_data": newTestDatabase(t, tempDir, "client_data", database.ProfileCache),
	}
	backupService := NewBackupService(databases, tempDir, tempDir, log)

	assert.Equal(t, []string{"config", "exposures"}, backupService.GetDatabaseNames(false))
	assert.Equal(t, []string{"client_data", "config", "exposures"}, backupService.GetDatabaseNames(true))
}

func TestBackupService_RotateDailyBackups(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("deletes dated directories older than 30 days", func(t *testing.T) {
		tempDir := t.TempDir()
		dailyDir := filepath.Join(tempDir, "daily")

		oldDate := time.Now().AddDate(0, 0, -31).Format("2006-01-02")
		recentDate := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		require.NoError(t, os.MkdirAll(filepath.Join(dailyDir, oldDate), 0755))
		require.NoError(t, os.MkdirAll(filepath.Join(dailyDir, recentDate), 0755))

		backupService := NewBackupService(map[string]*database.DB{}, tempDir, tempDir, log)

		require.NoError(t, backupService.rotateDailyBackups())

		_, err := os.Stat(filepath.Join(dailyDir, oldDate))
		assert.True(t, os.IsNotExist(err), "old backup directory should be deleted")

		_, err = os.Stat(filepath.Join(dailyDir, recentDate))
		assert.NoError(t, err, "recent backup directory should survive")
	})
}

func TestBackupService_FindMostRecentBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("returns the newest snapshot", func(t *testing.T) {
		tempDir := t.TempDir()
		backupDir := filepath.Join(tempDir, "backups")

		oldDir := filepath.Join(backupDir, "daily", "2026-08-01")
		newDir := filepath.Join(backupDir, "daily", "2026-08-20")
		require.NoError(t, os.MkdirAll(oldDir, 0755))
		require.NoError(t, os.MkdirAll(newDir, 0755))

		oldBackup := filepath.Join(oldDir, "exposures.db")
		require.NoError(t, os.WriteFile(oldBackup, []byte("old"), 0644))
		oldTime := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(oldBackup, oldTime, oldTime))

		newBackup := filepath.Join(newDir, "exposures.db")
		require.NoError(t, os.WriteFile(newBackup, []byte("new"), 0644))

		backupService := NewBackupService(map[string]*database.DB{}, tempDir, backupDir, log)

		assert.Equal(t, newBackup, backupService.FindMostRecentBackup("exposures"))
	})

	t.Run("returns empty string when nothing exists", func(t *testing.T) {
		tempDir := t.TempDir()
		backupService := NewBackupService(map[string]*database.DB{}, tempDir, filepath.Join(tempDir, "backups"), log)

		assert.Equal(t, "", backupService.FindMostRecentBackup("exposures"))
	})
}

func TestBackupService_VerifyBackup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	t.Run("accepts a valid snapshot", func(t *testing.T) {
		tempDir := t.TempDir()
		db := newTestDatabase(t, tempDir, "valid", database.ProfileStandard)
		db.Close()

		backupService := NewBackupService(map[string]*database.DB{}, tempDir, tempDir, log)

		assert.NoError(t, backupService.verifyBackup(filepath.Join(tempDir, "valid.db")))
	})

	t.Run("rejects a corrupted snapshot", func(t *testing.T) {
		tempDir := t.TempDir()
		backupPath := filepath.Join(tempDir, "corrupted.db")
		require.NoError(t, os.WriteFile(backupPath, []byte("not a valid sqlite database"), 0644))

		backupService := NewBackupService(map[string]*database.DB{}, tempDir, tempDir, log)

		assert.Error(t, backupService.verifyBackup(backupPath))
	})
}
