package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/erold/cryptofolio/internal/database"
	"github.com/erold/cryptofolio/internal/reliability"
)

// SystemHandlers serves system monitoring and operations endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases []*database.DB
	backup    *reliability.BackupService
	startTime time.Time
}

// SystemHealthResponse is the system health report.
type SystemHealthResponse struct {
	Status        string           `json:"status"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	RAMPercent    float64          `json:"ram_percent"`
	Databases     []DatabaseHealth `json:"databases"`
}

// DatabaseHealth reports a single database's reachability and size.
type DatabaseHealth struct {
	Name   string  `json:"name"`
	OK     bool    `json:"ok"`
	SizeMB float64 `json:"size_mb"`
}

// DiskUsageResponse reports data directory sizes.
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
}

// NewSystemHandlers creates system handlers. backup may be nil when cloud
// backups are not configured.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases []*database.DB,
	backup *reliability.BackupService,
	startTime time.Time,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		backup:    backup,
		startTime: startTime,
	}
}

// HandleSystemHealth returns process and database health.
// GET /api/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.systemStats()

	dbs := make([]DatabaseHealth, 0, len(h.databases))
	status := "ok"
	for _, db := range h.databases {
		health := DatabaseHealth{Name: db.Name(), OK: true}
		if err := pingDB(db.Conn()); err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Database ping failed")
			health.OK = false
			status = "degraded"
		}
		if info, err := os.Stat(db.Path()); err == nil {
			health.SizeMB = float64(info.Size()) / 1024 / 1024
		}
		dbs = append(dbs, health)
	}

	writeJSON(w, http.StatusOK, SystemHealthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		CPUPercent:    cpuPct,
		RAMPercent:    ramPct,
		Databases:     dbs,
	})
}

// HandleDiskUsage returns data directory disk usage.
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DiskUsageResponse{
		DataDirMB: h.dirSizeMB(h.dataDir),
	})
}

// HandleTriggerBackup triggers a cloud backup immediately.
// POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "Backups not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.backup.CreateAndUpload(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// HandleListBackups lists backups stored in the cloud bucket.
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "Backups not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.backup.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}
	if backups == nil {
		backups = []reliability.BackupInfo{}
	}

	writeJSON(w, http.StatusOK, backups)
}

// systemStats returns CPU and RAM usage percentages. The CPU sample uses a
// short interval so the endpoint stays responsive.
func (h *SystemHandlers) systemStats() (float64, float64) {
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

// dirSizeMB calculates total size of a directory in MB.
func (h *SystemHandlers) dirSizeMB(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
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

func pingDB(conn *sql.DB) error {
	var one int
	return conn.QueryRow("SELECT 1").Scan(&one)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
