// Package gridportal 전력거래소 포털에서 일별 수요 실적을 수집합니다.
package gridportal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/httputil"
	"github.com/wonny/helios/pkg/logger"
)

// Client handles communication with the grid operator portal
// ⭐ SSOT: 포털 HTTP 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// 포털은 브라우저가 아닌 UA를 간헐적으로 차단한다
const (
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	acceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// NewClient creates a new grid portal client
func NewClient(cfg config.GridPortalConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	rps := cfg.RatePerSecond
	if rps < 1 {
		rps = 1
	}

	httpClient.
		WithDefaultHeader("User-Agent", userAgent).
		WithDefaultHeader("Accept-Language", acceptLanguage)

	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("gridportal"),
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// fetchHTML fetches an HTML page from the portal
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) (string, error) {
	// 포털 차단 방지: 프로세스 내 호출 간격 제한
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
