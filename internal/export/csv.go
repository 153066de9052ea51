// Package export 파이프라인 실행 결과의 CSV 내보내기를 담당합니다.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wonny/helios/internal/contracts"
)

// ErrNoSteps 내보낼 예측 구간이 없음
var ErrNoSteps = errors.New("run has no steps to export")

// =============================================================================
// CSV Writer - 예측/손익 테이블 내보내기
// =============================================================================

// Writer 실행 기록을 CSV 파일로 기록
// 컬럼 계약: timestamp | forecast_value | pnl_value (run_steps 테이블과 동일)
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter 생성자 (dir은 첫 내보내기 시점에 생성)
func NewWriter(dir string, log zerolog.Logger) *Writer {
	return &Writer{
		dir: dir,
		log: log.With().Str("component", "export.csv").Logger(),
	}
}

// WriteRun 실행 결과를 <dir>/<series>_<run_id 앞 8자>.csv 로 저장하고 경로를 반환
func (w *Writer) WriteRun(run *contracts.PipelineRun) (string, error) {
	if len(run.Steps) == 0 {
		return "", ErrNoSteps
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", run.Series, shortID(run.RunID)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := writeSteps(f, run.Steps); err != nil {
		return "", err
	}

	w.log.Info().
		Str("run_id", run.RunID).
		Str("path", path).
		Int("rows", len(run.Steps)).
		Msg("Exported run to CSV")

	return path, nil
}

// writeSteps 헤더 1행 + 시점별 1행씩 기록
func writeSteps(out io.Writer, steps []contracts.RunStep) error {
	cw := csv.NewWriter(out)

	if err := cw.Write([]string{"timestamp", "forecast_value", "pnl_value"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, step := range steps {
		record := []string{
			step.Timestamp.Format("2006-01-02"),
			strconv.FormatFloat(step.ForecastValue, 'g', -1, 64),
			strconv.FormatFloat(step.PnLValue, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
