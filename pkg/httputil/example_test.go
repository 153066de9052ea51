package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/helios/pkg/httputil"
	"github.com/wonny/helios/pkg/logger"
)

// Example_basic demonstrates basic HTTP client usage
func Example_basic() {
	log := logger.New(logger.Config{Env: "production", Level: "info"})

	// Create HTTP client (SSOT)
	client := httputil.New(log)

	// Make GET request
	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/data")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}

// Example_withRetry demonstrates retry configuration
func Example_withRetry() {
	log := logger.New(logger.Config{Env: "production", Level: "info"})

	// Create client with custom retry settings
	client := httputil.New(log).
		WithRetry(5, 2*time.Second) // 5 retries, 2s initial delay

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/data")
	if err != nil {
		fmt.Printf("Request failed after retries: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded")
}

// Example_timeout demonstrates custom timeout
func Example_timeout() {
	log := logger.New(logger.Config{Env: "production", Level: "info"})

	// Create client with 5 second timeout
	client := httputil.NewWithTimeout(log, 5*time.Second)

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/slow-endpoint")
	if err != nil {
		fmt.Printf("Request timeout: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request completed within timeout")
}

// Example_disableRetry demonstrates disabling retry
func Example_disableRetry() {
	log := logger.New(logger.Config{Env: "production", Level: "info"})

	// Create client without retry
	client := httputil.New(log).DisableRetry()

	ctx := context.Background()
	resp, err := client.Get(ctx, "https://api.example.com/data")
	if err != nil {
		fmt.Printf("Request failed (no retry): %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Request succeeded on first attempt")
}
