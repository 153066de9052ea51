// Package api 예측 파이프라인 조회/트리거 HTTP API를 제공합니다.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/helios/internal/api/handlers"
	"github.com/wonny/helios/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	healthHandler *handlers.HealthHandler,
	runHandler *handlers.RunHandler,
	demandHandler *handlers.DemandHandler,
	pipelineHandler *handlers.PipelineHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	// API
	api := r.PathPrefix("/api").Subrouter()

	// Run endpoints ("latest"가 {id}보다 먼저 매칭되도록 등록 순서 유지)
	api.HandleFunc("/runs/latest", runHandler.GetLatest).Methods("GET")
	api.HandleFunc("/runs/{id}", runHandler.GetByID).Methods("GET")
	api.HandleFunc("/runs", runHandler.List).Methods("GET")

	// Demand endpoints
	api.HandleFunc("/demand/{series}/latest", demandHandler.GetLatest).Methods("GET")
	api.HandleFunc("/demand/{series}", demandHandler.GetRange).Methods("GET")

	// Pipeline trigger
	api.HandleFunc("/pipeline/run", pipelineHandler.Trigger).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
