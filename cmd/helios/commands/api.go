package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/api"
	"github.com/wonny/helios/internal/api/handlers"
	"github.com/wonny/helios/internal/export"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/pipeline"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/internal/store"
	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/database"
	"github.com/wonny/helios/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 실행 기록/수요 이력 조회 엔드포인트 제공
- 파이프라인 트리거 제공 (레이트 리밋 적용)

Endpoints:
  GET  /health                      - Health check
  GET  /api/runs/latest             - 최신 실행 조회
  GET  /api/runs/{id}               - 실행 상세 조회
  GET  /api/runs                    - 실행 목록
  GET  /api/demand/{series}         - 수요 이력 구간 조회
  GET  /api/demand/{series}/latest  - 최신 수요 관측치
  POST /api/pipeline/run            - 파이프라인 실행 트리거

Example:
  go run ./cmd/helios api
  go run ./cmd/helios api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: 설정값)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := newLogger(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (없어도 기동, 캐시/리밋만 비활성)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching and rate limiting disabled")
		redisClient, _ = redis.New(config.RedisConfig{Enabled: false})
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "helios")
	limiter := redis.NewRateLimiter(redisClient, "helios")

	// 5. Create repositories
	demandRepo := store.NewDemandRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	// 6. Create pipeline runner (트리거 엔드포인트용)
	exporter := export.NewWriter(cfg.Pipeline.ExportDir, log.Zerolog())
	runner := pipeline.NewRunner(
		forecast.NewEngine(log.Zerolog()),
		portfolio.NewSimulator(log.Zerolog()),
		risk.NewEngine(log.Zerolog()),
		demandRepo,
		runRepo,
		exporter,
		log,
	)

	// 7. Create handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient, log)
	runHandler := handlers.NewRunHandler(runRepo, cache, cfg.Pipeline.Series, log)
	demandHandler := handlers.NewDemandHandler(demandRepo, cache, log)
	pipelineHandler := handlers.NewPipelineHandler(runner, limiter, cache, cfg.Pipeline, log)

	// 8. Create router and server
	router := api.NewRouter(healthHandler, runHandler, demandHandler, pipelineHandler, log)
	server := api.New(cfg, log, router)

	// 9. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/runs/latest")
	fmt.Println("  GET  /api/runs/{id}")
	fmt.Println("  GET  /api/runs")
	fmt.Println("  GET  /api/demand/{series}")
	fmt.Println("  GET  /api/demand/{series}/latest")
	fmt.Println("  POST /api/pipeline/run")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
