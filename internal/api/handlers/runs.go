// Package handlers HTTP 요청을 저장소/파이프라인 호출로 변환합니다.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/store"
	"github.com/wonny/helios/pkg/logger"
	"github.com/wonny/helios/pkg/redis"
)

// RunReader 실행 기록 조회 (store.RunRepository가 구현)
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*contracts.PipelineRun, error)
	GetLatestRun(ctx context.Context, series string) (*contracts.PipelineRun, error)
	ListRuns(ctx context.Context, series string, limit int) ([]contracts.PipelineRun, error)
}

// 목록 조회 기본/최대 크기
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RunHandler handles run-related API endpoints
// ⭐ SSOT: 실행 기록 API 핸들러는 이 구조체에서만
type RunHandler struct {
	runs          RunReader
	cache         *redis.Cache // nil이면 캐시 생략
	defaultSeries string
	logger        *logger.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs RunReader, cache *redis.Cache, defaultSeries string, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runs:          runs,
		cache:         cache,
		defaultSeries: defaultSeries,
		logger:        log.WithComponent("api.runs"),
	}
}

// GetLatest returns the most recent run for a series
// GET /api/runs/latest?series=demand_synthetic
// 최신 실행 요약은 Redis에 짧게 캐시한다 (cache-aside)
func (h *RunHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	series := r.URL.Query().Get("series")
	if series == "" {
		series = h.defaultSeries
	}

	cacheKey := redis.LatestRunKey(series)

	if h.cache != nil {
		var cached contracts.PipelineRun
		if found, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	run, err := h.runs.GetLatestRun(ctx, series)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "No runs found for series")
			return
		}
		h.logger.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, run, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache latest run")
		}
	}

	respondJSON(w, http.StatusOK, run)
}

// GetByID returns a run with its per-step rows
// GET /api/runs/{id}
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := mux.Vars(r)["id"]

	run, err := h.runs.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// ListResponse wraps a run listing
type ListResponse struct {
	Series string                  `json:"series"`
	Count  int                     `json:"count"`
	Runs   []contracts.PipelineRun `json:"runs"`
}

// List returns recent runs for a series (steps excluded)
// GET /api/runs?series=demand_synthetic&limit=20
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	series := r.URL.Query().Get("series")
	if series == "" {
		series = h.defaultSeries
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs, err := h.runs.ListRuns(ctx, series, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{
		Series: series,
		Count:  len(runs),
		Runs:   runs,
	})
}
