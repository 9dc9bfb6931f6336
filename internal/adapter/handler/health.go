package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// HealthHandler reports per-dependency liveness with response times. Any
// dependency being down degrades the overall status to 503.
type HealthHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	environment string
	started     time.Time
}

type healthReport struct {
	Status      string                   `json:"status"`
	Timestamp   string                   `json:"timestamp"`
	Uptime      float64                  `json:"uptime"`
	Environment string                   `json:"environment"`
	Services    map[string]serviceState  `json:"services"`
	Pool        poolState                `json:"pool"`
}

type serviceState struct {
	Status       string `json:"status"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

type poolState struct {
	Open  int `json:"open"`
	Idle  int `json:"idle"`
	InUse int `json:"inUse"`
}

func NewHealthHandler(db *sql.DB, redisClient *redis.Client, environment string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		environment: environment,
		started:     time.Now(),
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	report := healthReport{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.started).Seconds(),
		Environment: h.environment,
		Services:    map[string]serviceState{},
	}

	start := time.Now()
	if err := h.db.PingContext(r.Context()); err != nil {
		report.Status = "degraded"
		report.Services["mysql"] = serviceState{Status: "down", Error: err.Error()}
	} else {
		report.Services["mysql"] = serviceState{
			Status:       "up",
			ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}
	}

	pingCtx, cancel := context.WithTimeout(r.Context(), redisPingTimeout)
	defer cancel()

	start = time.Now()
	if err := h.redisClient.Ping(pingCtx).Err(); err != nil {
		report.Status = "degraded"
		report.Services["redis"] = serviceState{Status: "down", Error: err.Error()}
	} else {
		report.Services["redis"] = serviceState{
			Status:       "up",
			ResponseTime: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		}
	}

	stats := h.db.Stats()
	report.Pool = poolState{
		Open:  stats.OpenConnections,
		Idle:  stats.Idle,
		InUse: stats.InUse,
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
