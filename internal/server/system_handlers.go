// Package server provides the HTTP server and routing for fxrisk.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fxrisk/internal/database"
	"github.com/aristath/fxrisk/internal/modules/exposures"
	"github.com/aristath/fxrisk/internal/modules/rates"
	"github.com/aristath/fxrisk/internal/reliability"
	"github.com/aristath/fxrisk/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log            zerolog.Logger
	dataDir        string
	startupTime    time.Time
	databases      map[string]*database.DB
	exposuresRepo  *exposures.Repository
	ratesService   *rates.Service
	backupService  *reliability.BackupService
	r2Backups      *reliability.R2BackupService
	restoreService *reliability.RestoreService
	// Jobs (set after job registration in main.go), keyed by Job.Name()
	jobs map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance.
// r2Backups and restoreService may be nil when R2 credentials are not
// configured; the backup endpoints then only report local state.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	exposuresRepo *exposures.Repository,
	ratesService *rates.Service,
	backupService *reliability.BackupService,
	r2Backups *reliability.R2BackupService,
	restoreService *reliability.RestoreService,
) *SystemHandlers {
	return &SystemHandlers{
		log:            log.With().Str("component", "system_handlers").Logger(),
		dataDir:        dataDir,
		startupTime:    time.Now(),
		databases:      databases,
		exposuresRepo:  exposuresRepo,
		ratesService:   ratesService,
		backupService:  backupService,
		r2Backups:      r2Backups,
		restoreService: restoreService,
		jobs:           make(map[string]scheduler.Job),
	}
}

// SetJobs registers job references for manual triggering
// Called after jobs are registered in main.go
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		if job == nil {
			continue
		}
		h.jobs[job.Name()] = job
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string             `json:"status"` // "healthy" or "degraded"
	UptimeHours   float64            `json:"uptime_hours"`
	CPUPercent    float64            `json:"cpu_percent"`
	RAMPercent    float64            `json:"ram_percent"`
	ExposureCount int                `json:"exposure_count"`
	Stream        rates.StreamStatus `json:"stream"`
	LastChecked   string             `json:"last_checked"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// DiskUsageResponse represents disk usage statistics
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	LogsDirMB float64 `json:"logs_dir_mb"`
	BackupsMB float64 `json:"backups_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// LocalBackupInfo describes one dated local backup directory
type LocalBackupInfo struct {
	Date      string   `json:"date"`
	Databases []string `json:"databases"`
	SizeMB    float64  `json:"size_mb"`
}

// BackupsResponse lists local and cloud backups
type BackupsResponse struct {
	Local     []LocalBackupInfo        `json:"local"`
	R2        []reliability.BackupInfo `json:"r2,omitempty"`
	R2Enabled bool                     `json:"r2_enabled"`
}

// JobsStatusResponse lists the jobs available for manual triggering
type JobsStatusResponse struct {
	TotalJobs int      `json:"total_jobs"`
	Jobs      []string `json:"jobs"`
}

// HandleSystemStatus returns overall system status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	status := "healthy"
	for name, db := range h.databases {
		if err := db.QuickCheck(r.Context()); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Database unreachable")
			status = "degraded"
		}
	}

	exposureCount := 0
	if h.exposuresRepo != nil {
		count, err := h.exposuresRepo.Count()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to count exposures")
		} else {
			exposureCount = count
		}
	}

	var stream rates.StreamStatus
	if h.ratesService != nil {
		stream = h.ratesService.Status()
	}

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        status,
		UptimeHours:   time.Since(h.startupTime).Hours(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		ExposureCount: exposureCount,
		Stream:        stream,
		LastChecked:   time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns database statistics
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := []DBInfo{}
	totalSizeMB := 0.0

	for _, name := range names {
		db := h.databases[name]
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}

		sizeMB := float64(stats.SizeBytes) / 1024 / 1024
		totalSizeMB += sizeMB

		infos = append(infos, DBInfo{
			Name:      name,
			Path:      db.Path(),
			SizeMB:    sizeMB,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		})
	}

	response := DatabaseStatsResponse{
		Databases:   infos,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, response)
}

// HandleDiskUsage returns disk usage statistics
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirSize := h.getDirSize(h.dataDir)
	logsDirSize := h.getDirSize(filepath.Join(h.dataDir, "logs"))
	backupsSize := h.getDirSize(filepath.Join(h.dataDir, "backups"))

	response := DiskUsageResponse{
		DataDirMB: dataDirSize,
		LogsDirMB: logsDirSize,
		BackupsMB: backupsSize,
		TotalMB:   dataDirSize + logsDirSize + backupsSize,
	}

	h.writeJSON(w, response)
}

// HandleListBackups lists local daily backups and, when configured, R2 archives
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Listing backups")

	response := BackupsResponse{
		Local:     h.listLocalBackups(),
		R2Enabled: h.r2Backups != nil,
	}

	if h.r2Backups != nil {
		backups, err := h.r2Backups.ListBackups(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to list R2 backups")
		} else {
			response.R2 = backups
		}
	}

	h.writeJSON(w, response)
}

// HandleTriggerBackup runs a local daily backup immediately
// POST /api/system/backups
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupService == nil {
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Backup service not configured",
		})
		return
	}

	h.log.Info().Msg("Manual backup triggered")

	if err := h.backupService.DailyBackup(); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Backup completed",
	})
}

// HandleStageRestore downloads and verifies an R2 archive for restore on the
// next boot. Nothing is swapped while databases are open.
// POST /api/system/backups/{filename}/restore
func (h *SystemHandlers) HandleStageRestore(w http.ResponseWriter, r *http.Request) {
	if h.restoreService == nil {
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Restore requires R2 credentials",
		})
		return
	}

	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) {
		http.Error(w, "Invalid backup filename", http.StatusBadRequest)
		return
	}

	h.log.Info().Str("archive", filename).Msg("Staging restore")

	if err := h.restoreService.StageRestore(r.Context(), filename); err != nil {
		h.log.Error().Err(err).Str("archive", filename).Msg("Failed to stage restore")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Restore staged, restart the service to apply",
	})
}

// HandleJobsStatus returns the registered jobs
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, JobsStatusResponse{
		TotalJobs: len(names),
		Jobs:      names,
	})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs[name]
	if !ok {
		h.log.Warn().Str("job", name).Msg("Unknown job trigger requested")
		http.Error(w, "Unknown job: "+name, http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Job " + name + " completed",
	})
}

// listLocalBackups reads the dated directories under backups/daily, newest
// first. Each directory holds one .db snapshot per database.
func (h *SystemHandlers) listLocalBackups() []LocalBackupInfo {
	dailyDir := filepath.Join(h.dataDir, "backups", "daily")

	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		if !os.IsNotExist(err) {
			h.log.Warn().Err(err).Msg("Failed to read local backup directory")
		}
		return []LocalBackupInfo{}
	}

	backups := []LocalBackupInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse("2006-01-02", entry.Name()); err != nil {
			continue
		}

		dir := filepath.Join(dailyDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		info := LocalBackupInfo{Date: entry.Name(), Databases: []string{}}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".db") {
				continue
			}
			info.Databases = append(info.Databases, strings.TrimSuffix(file.Name(), ".db"))
			if fi, err := file.Info(); err == nil {
				info.SizeMB += float64(fi.Size()) / 1024 / 1024
			}
		}
		sort.Strings(info.Databases)
		backups = append(backups, info)
	}

	// Newest first
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Date > backups[j].Date
	})

	return backups
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a 100ms sample so the status endpoint stays fast for dashboard polling
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
