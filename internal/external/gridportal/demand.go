package gridportal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/helios/internal/contracts"
)

// ErrNoData 요청 구간에 수요 실적 없음
var ErrNoData = errors.New("no demand data in range")

// 포털 페이지네이션 상한 (일별 실적 기준 약 4년치)
const maxPages = 100

// FetchDailyDemand fetches daily demand history from the portal
// ⭐ SSOT: 일별 수요 실적 수집은 이 함수에서만
// 포털은 최신순으로 페이지를 내려주므로 수집 후 오름차순 정렬한다.
func (c *Client) FetchDailyDemand(ctx context.Context, from, to time.Time) (contracts.TimeSeries, error) {
	var collected []contracts.Observation
	seen := make(map[time.Time]bool)
	noDataPages := 0

	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return contracts.TimeSeries{}, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("searchBgnDe", from.Format("20060102"))
		params.Set("searchEndDe", to.Format("20060102"))
		params.Set("pageIndex", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/ws/dailyDemand.do", params)
		if err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("fetch page %d: %w", page, err)
		}

		observations, lastDate, hasMore := c.parseDemandHTML(html, from, to)
		for _, obs := range observations {
			if seen[obs.Timestamp] {
				continue
			}
			seen[obs.Timestamp] = true
			collected = append(collected, obs)
		}

		// 기준일보다 이전 데이터까지 내려왔으면 종료
		if !lastDate.IsZero() && lastDate.Before(from) {
			break
		}

		if !hasMore {
			break
		}

		// 연속으로 빈 페이지면 종료
		if lastDate.IsZero() {
			noDataPages++
			if noDataPages >= 3 {
				break
			}
		} else {
			noDataPages = 0
		}
	}

	if len(collected) == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("%w: %s ~ %s", ErrNoData,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Timestamp.Before(collected[j].Timestamp)
	})

	ts, err := contracts.NewTimeSeries(collected)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("portal series invalid: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"count": ts.Len(),
	}).Debug("Fetched daily demand")
	return ts, nil
}

// parseDemandHTML parses one portal page of daily demand rows
// 컬럼: 날짜 | 최대전력(MW) | 평균전력(MW) | 공급예비율(%) — 평균전력을 수요로 사용
func (c *Client) parseDemandHTML(html string, from, to time.Time) ([]contracts.Observation, time.Time, bool) {
	var observations []contracts.Observation
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return observations, lastDate, false
	}

	table := doc.Find("table.tbl_list")
	if table.Length() == 0 {
		return observations, lastDate, false
	}

	dateRe := regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

	parseNum := func(s string) (float64, bool) {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dateRe.MatchString(dateText) {
			return
		}

		day, err := time.Parse("2006-01-02", strings.ReplaceAll(dateText, ".", "-"))
		if err != nil {
			return
		}

		lastDate = day

		// 기간 필터
		if day.Before(from) || day.After(to) {
			return
		}

		demandMW, ok := parseNum(cells.Eq(2).Text())
		if !ok {
			return
		}

		observations = append(observations, contracts.Observation{
			Timestamp: day,
			Value:     demandMW,
		})
	})

	hasMore := doc.Find(".paging .next").Length() > 0
	return observations, lastDate, hasMore
}
