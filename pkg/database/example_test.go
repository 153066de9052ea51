package database_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/database"
)

// Example demonstrates connecting and inspecting the demand history store
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 수요 이력 테이블 기준으로 연결 확인
	var observations int
	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM energy.demand_observations`).Scan(&observations)
	if err != nil {
		log.Fatalf("Failed to count observations: %v", err)
	}

	status, err := db.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Demand observations: %d\n", observations)
	fmt.Printf("Database is healthy: %v\n", status.Healthy)
	fmt.Printf("Pool in use: %d/%d\n", status.Stats.AcquiredConns, status.Stats.MaxConns)
}
