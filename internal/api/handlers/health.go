package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/helios/pkg/database"
	"github.com/wonny/helios/pkg/logger"
	"github.com/wonny/helios/pkg/redis"
)

// HealthChecker DB 연결 상태 확인 (database.DB가 구현)
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     HealthChecker
	redis  *redis.Client // nil 허용
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: log.WithComponent("api.health"),
	}
}

// HealthResponse represents the service health status
type HealthResponse struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Time     time.Time              `json:"time"`
	Database *database.HealthStatus `json:"database,omitempty"`
	Redis    string                 `json:"redis"`
}

// Check returns overall service health
// GET /health
// DB 장애만 503, Redis는 선택 구성요소라 상태만 보고
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:  "ok",
		Service: "helios-api",
		Time:    time.Now().UTC(),
		Redis:   "disabled",
	}
	httpStatus := http.StatusOK

	dbStatus, err := h.db.HealthCheck(ctx)
	resp.Database = dbStatus
	if err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		resp.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	if h.redis != nil && h.redis.Enabled() {
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WithError(err).Warn("Redis health check failed")
			resp.Redis = "error"
		} else {
			resp.Redis = "ok"
		}
	}

	respondJSON(w, httpStatus, resp)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
