package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/external/gridportal"
	"github.com/wonny/helios/pkg/logger"
)

// DemandFetcher 포털 수요 수집기 (gridportal.Client가 구현)
type DemandFetcher interface {
	FetchDailyDemand(ctx context.Context, from, to time.Time) (contracts.TimeSeries, error)
}

// DemandSaver 수요 이력 저장소 (store.DemandRepository가 구현)
type DemandSaver interface {
	SaveSeries(ctx context.Context, series, source string, ts contracts.TimeSeries) error
}

// 포털 게시 지연을 감안해 최근 7일 구간을 다시 수집 (upsert라 중복 무해)
const demandFetchWindowDays = 7

// DemandFetchJob collects recent demand history from the grid portal
// ⭐ SSOT: 수요 이력 주기 수집은 이 Job에서만
type DemandFetchJob struct {
	fetcher DemandFetcher
	saver   DemandSaver
	series  string
	logger  *logger.Logger
}

// NewDemandFetchJob creates a new demand fetch job
func NewDemandFetchJob(fetcher DemandFetcher, saver DemandSaver, series string, log *logger.Logger) *DemandFetchJob {
	return &DemandFetchJob{
		fetcher: fetcher,
		saver:   saver,
		series:  series,
		logger:  log.WithComponent("jobs.demand_fetch"),
	}
}

// Name returns the job name
func (j *DemandFetchJob) Name() string {
	return "demand_fetch"
}

// Schedule returns the cron schedule (매일 05:30, 파이프라인 실행 전)
func (j *DemandFetchJob) Schedule() string {
	return "0 30 5 * * *"
}

// Run executes the demand collection
func (j *DemandFetchJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled demand fetch")

	to := time.Now()
	from := to.AddDate(0, 0, -demandFetchWindowDays)

	ts, err := j.fetcher.FetchDailyDemand(ctx, from, to)
	if err != nil {
		// 포털에 새 게시물이 없는 날은 실패가 아님
		if errors.Is(err, gridportal.ErrNoData) {
			j.logger.Info("No new demand data on portal, skipping")
			return nil
		}
		return fmt.Errorf("fetch daily demand: %w", err)
	}

	if err := j.saver.SaveSeries(ctx, j.series, "gridportal", ts); err != nil {
		return fmt.Errorf("save demand series: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"series": j.series,
		"count":  ts.Len(),
	}).Info("Scheduled demand fetch completed successfully")

	return nil
}
