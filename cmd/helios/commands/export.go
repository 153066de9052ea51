package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/export"
	"github.com/wonny/helios/internal/store"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [run_id]",
	Short: "저장된 실행 기록을 CSV로 내보내기",
	Long: `저장된 파이프라인 실행 기록을 CSV 파일로 다시 내보냅니다.

출력 컬럼: timestamp | forecast_value | pnl_value

Example:
  go run ./cmd/helios export 0b6f9a42-5d1c-47e8-9f30-6a2b1c9d4e8f
  go run ./cmd/helios export 0b6f9a42-5d1c-47e8-9f30-6a2b1c9d4e8f --dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportDirFlag string

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDirFlag, "dir", "", "출력 디렉터리 (기본: 설정값)")
}

func runExport(cmd *cobra.Command, args []string) error {
	runID := args[0]

	fmt.Println("=== Helios Run Export ===")

	ctx := cmd.Context()

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	dir := cfg.Pipeline.ExportDir
	if exportDirFlag != "" {
		dir = exportDirFlag
	}

	repo := store.NewRunRepository(db.Pool)
	run, err := repo.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return fmt.Errorf("run %s not found", runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	writer := export.NewWriter(dir, log.Zerolog())
	path, err := writer.WriteRun(run)
	if err != nil {
		if errors.Is(err, export.ErrNoSteps) {
			PrintWarning("Run has no steps to export (failed run?)")
			return nil
		}
		return fmt.Errorf("write csv: %w", err)
	}

	fmt.Println()
	PrintKeyValue("Run ID", run.RunID, 8)
	PrintKeyValue("Series", run.Series, 8)
	PrintKeyValue("Rows", fmt.Sprintf("%d", len(run.Steps)), 8)
	PrintKeyValue("File", path, 8)

	fmt.Println()
	PrintSuccess("Export completed")
	return nil
}
