package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ymorita/kabuscan/internal/scheduler"
	"github.com/ymorita/kabuscan/internal/scheduler/jobs"
	"github.com/ymorita/kabuscan/internal/storage"
	"github.com/ymorita/kabuscan/pkg/database"
)

var (
	// Watch flags
	watchRunNow bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "スケジューラを起動して定期収集を実行",
	Long: `cronスケジューラを起動し、平日の大引け後に全カテゴリの
ランキングを自動収集します。DATABASE_URLが設定されていれば
スナップショットをDBにも保存します。

Ctrl+Cで停止します。

Example:
  go run ./cmd/kabuscan watch
  go run ./cmd/kabuscan watch --run-now`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchRunNow, "run-now", false, "起動直後に一度収集を実行する")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var repo *storage.RankingRepository
	if a.cfg.Database.Enabled() {
		db, err := database.New(a.cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		repo = storage.NewRankingRepository(db.Pool)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		a.logger.Info("Database persistence enabled")
	}

	sched := scheduler.New(a.logger)
	job := jobs.NewRankingCollectionJob(a.client, a.writer, repo, a.cfg, a.logger)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if watchRunNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	fmt.Println("=== kabuscan scheduler ===")
	fmt.Printf("Job: %s (%s)\n", job.Name(), job.Schedule())
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down")
	printJobSummary(sched)
	return nil
}

func printJobSummary(sched *scheduler.Scheduler) {
	for _, name := range sched.Jobs() {
		history, err := sched.History(name)
		if err != nil || len(history.Results) == 0 {
			continue
		}

		fmt.Printf("\n=== %s 実行履歴 ===\n", name)
		fmt.Printf("実行回数: %d  成功率: %.0f%%\n", len(history.Results), history.SuccessRate()*100)
		for _, r := range history.LatestResults(5) {
			status := "OK"
			if !r.Success {
				status = "NG: " + r.Error
			}
			fmt.Printf("  %s (%v) %s\n", r.StartTime.Format("15:04:05"), r.Duration.Round(time.Millisecond), status)
		}
	}
}
