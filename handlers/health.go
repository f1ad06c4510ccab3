package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/nijaru/video-summarizer/middleware"
	"github.com/nijaru/video-summarizer/utils"
)

var (
	deviceOnce sync.Once
	deviceOS   = "Unknown OS"
	deviceCPU  = "Unknown CPU"
)

// deviceInfo reads the host and CPU descriptions once per process.
func deviceInfo() (string, string) {
	deviceOnce.Do(func() {
		if info, err := host.Info(); err == nil && info != nil {
			deviceOS = info.OS + " " + info.Platform
		}
		if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
			deviceCPU = cpus[0].ModelName
		}
	})
	return deviceOS, deviceCPU
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.HandleError(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	logger := middleware.GetLogger(r.Context())
	if err := h.jobs.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Job ledger unreachable")
	}
	if err := h.cache.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Summary cache unreachable")
	}

	osName, cpuName := deviceInfo()
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"os":        osName,
		"cpu":       cpuName,
	})
}
