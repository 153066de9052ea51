package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/pipeline"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/logger"
	"github.com/wonny/helios/pkg/redis"
)

// PipelineTrigger 파이프라인 실행기 (pipeline.Runner가 구현)
type PipelineTrigger interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// PipelineHandler handles pipeline trigger API endpoints
// ⭐ SSOT: 파이프라인 트리거 API는 이 구조체에서만
type PipelineHandler struct {
	runner  PipelineTrigger
	limiter *redis.RateLimiter // nil이면 제한 없음
	cache   *redis.Cache       // nil이면 캐시 생략
	config  config.PipelineConfig
	logger  *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(
	runner PipelineTrigger,
	limiter *redis.RateLimiter,
	cache *redis.Cache,
	cfg config.PipelineConfig,
	log *logger.Logger,
) *PipelineHandler {
	return &PipelineHandler{
		runner:  runner,
		limiter: limiter,
		cache:   cache,
		config:  cfg,
		logger:  log.WithComponent("api.pipeline"),
	}
}

// TriggerRequest allows overriding configured pipeline parameters
// 생략한 필드는 설정값 사용 (0이 유효한 차수라 포인터로 구분)
type TriggerRequest struct {
	Series      string   `json:"series,omitempty"`
	P           *int     `json:"p,omitempty"`
	D           *int     `json:"d,omitempty"`
	Q           *int     `json:"q,omitempty"`
	Horizon     *int     `json:"horizon,omitempty"`
	CapacityMW  *float64 `json:"capacity_mw,omitempty"`
	PricePerMWh *float64 `json:"price_per_mwh,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	HistoryDays *int     `json:"history_days,omitempty"`
}

// TriggerResponse represents a pipeline trigger response
type TriggerResponse struct {
	Status          string                 `json:"status"`
	Run             *contracts.PipelineRun `json:"run"`
	ExportPath      string                 `json:"export_path,omitempty"`
	DurationSeconds float64                `json:"duration_seconds"`
}

// Trigger runs the full pipeline synchronously
// POST /api/pipeline/run
func (h *PipelineHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.limiter != nil {
		allowed, remaining, err := h.limiter.Allow(ctx, redis.PipelineTriggerRateLimit)
		switch {
		case err != nil:
			// 리밋 저장소 장애 시 요청은 통과시킨다
			h.logger.WithError(err).Warn("Rate limit check failed, allowing request")
		case !allowed:
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "Too many pipeline triggers, retry later")
			return
		default:
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
	}

	runConfig := h.buildRunConfig(r)
	if runConfig == nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"series":  runConfig.Series,
		"spec":    runConfig.Spec.String(),
		"horizon": runConfig.Horizon,
	}).Info("Pipeline triggered via API")

	result, err := h.runner.Run(ctx, *runConfig)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, forecast.ErrInvalidSpec),
			errors.Is(err, risk.ErrInvalidConfidence),
			errors.Is(err, portfolio.ErrInvalidPosition):
			status = http.StatusBadRequest
		case errors.Is(err, forecast.ErrInsufficientData):
			status = http.StatusUnprocessableEntity
		}

		h.logger.WithError(err).Error("Triggered pipeline run failed")
		respondError(w, status, err.Error())
		return
	}

	// 최신 실행 캐시 즉시 갱신
	if h.cache != nil {
		key := redis.LatestRunKey(result.Run.Series)
		if err := h.cache.Set(ctx, key, result.Run, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to refresh latest run cache")
		}
	}

	respondJSON(w, http.StatusOK, TriggerResponse{
		Status:          "success",
		Run:             result.Run,
		ExportPath:      result.ExportPath,
		DurationSeconds: result.Duration.Seconds(),
	})
}

// buildRunConfig 설정 기본값 위에 요청 본문의 오버라이드 적용
// 본문이 비어 있으면 기본값 그대로, 파싱 불가면 nil
func (h *PipelineHandler) buildRunConfig(r *http.Request) *pipeline.RunConfig {
	cfg := pipeline.RunConfig{
		Series:      h.config.Series,
		Spec:        contracts.ModelSpec{P: h.config.P, D: h.config.D, Q: h.config.Q},
		Horizon:     h.config.Horizon,
		Position:    contracts.Position{CapacityMW: h.config.CapacityMW, PricePerMWh: h.config.PricePerMWh},
		Confidence:  h.config.Confidence,
		HistoryDays: h.config.HistoryDays,
	}

	if r.Body == nil || r.ContentLength == 0 {
		return &cfg
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil
	}

	if req.Series != "" {
		cfg.Series = req.Series
	}
	if req.P != nil {
		cfg.Spec.P = *req.P
	}
	if req.D != nil {
		cfg.Spec.D = *req.D
	}
	if req.Q != nil {
		cfg.Spec.Q = *req.Q
	}
	if req.Horizon != nil {
		cfg.Horizon = *req.Horizon
	}
	if req.CapacityMW != nil {
		cfg.Position.CapacityMW = *req.CapacityMW
	}
	if req.PricePerMWh != nil {
		cfg.Position.PricePerMWh = *req.PricePerMWh
	}
	if req.Confidence != nil {
		cfg.Confidence = *req.Confidence
	}
	if req.HistoryDays != nil {
		cfg.HistoryDays = *req.HistoryDays
	}

	return &cfg
}
