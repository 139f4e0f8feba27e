package api

import (
	"net/http"
	"time"

	"github.com/podscribe/podscribe/internal/database"
	"github.com/podscribe/podscribe/internal/mqttclient"
	"github.com/podscribe/podscribe/internal/transcriber"
	"github.com/podscribe/podscribe/internal/watch"
)

type HealthResponse struct {
	Status        string                  `json:"status"`
	Version       string                  `json:"version"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Checks        map[string]string       `json:"checks"`
	Queue         *transcriber.QueueStats `json:"queue,omitempty"`
	Watcher       *watch.Status           `json:"watcher,omitempty"`
}

type HealthHandler struct {
	db        *database.DB
	mqtt      *mqttclient.Client
	pool      *transcriber.Pool
	watcher   *watch.Watcher
	version   string
	startTime time.Time
}

func NewHealthHandler(db *database.DB, mqtt *mqttclient.Client, pool *transcriber.Pool, watcher *watch.Watcher, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:        db,
		mqtt:      mqtt,
		pool:      pool,
		watcher:   watcher,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = "error"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not_configured"
	}

	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Queue = &stats
	}
	if h.watcher != nil {
		ws := h.watcher.Status()
		checks["watcher"] = ws.State
		resp.Watcher = &ws
	}

	WriteJSON(w, httpStatus, resp)
}
