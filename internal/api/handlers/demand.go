package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/pkg/logger"
	"github.com/wonny/helios/pkg/redis"
)

// DemandReader 수요 이력 조회 (store.DemandRepository가 구현)
type DemandReader interface {
	GetSeriesRange(ctx context.Context, series string, from, to time.Time) (contracts.TimeSeries, error)
	GetLatest(ctx context.Context, series string) (contracts.Observation, bool, error)
}

// 조회 구간 기본값: 최근 90일
const defaultRangeDays = 90

// DemandHandler handles demand history API endpoints
// ⭐ SSOT: 수요 이력 API 핸들러는 이 구조체에서만
type DemandHandler struct {
	demand DemandReader
	cache  *redis.Cache // nil이면 캐시 생략
	logger *logger.Logger
}

// NewDemandHandler creates a new demand handler
func NewDemandHandler(demand DemandReader, cache *redis.Cache, log *logger.Logger) *DemandHandler {
	return &DemandHandler{
		demand: demand,
		cache:  cache,
		logger: log.WithComponent("api.demand"),
	}
}

// RangeResponse wraps a demand range query
type RangeResponse struct {
	Series       string                  `json:"series"`
	From         string                  `json:"from"`
	To           string                  `json:"to"`
	Count        int                     `json:"count"`
	Observations []contracts.Observation `json:"observations"`
}

// GetRange returns demand observations in a date range
// GET /api/demand/{series}?from=2024-01-01&to=2024-03-31
// 구간 생략 시 최근 90일
func (h *DemandHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	series := mux.Vars(r)["series"]

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -defaultRangeDays)
	var err error

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "'to' must not be before 'from'")
		return
	}

	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")
	cacheKey := redis.DemandRangeKey(series, fromStr, toStr)

	if h.cache != nil {
		var cached RangeResponse
		if found, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	ts, err := h.demand.GetSeriesRange(ctx, series, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get demand range")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve demand history")
		return
	}

	resp := RangeResponse{
		Series:       series,
		From:         fromStr,
		To:           toStr,
		Count:        ts.Len(),
		Observations: ts.Observations,
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLLong); err != nil {
			h.logger.WithError(err).Warn("Failed to cache demand range")
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetLatest returns the most recent observation of a series
// GET /api/demand/{series}/latest
func (h *DemandHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	series := mux.Vars(r)["series"]

	obs, found, err := h.demand.GetLatest(ctx, series)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest observation")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest observation")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Series not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"series":      series,
		"observation": obs,
	})
}
