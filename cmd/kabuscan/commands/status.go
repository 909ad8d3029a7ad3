package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/internal/storage"
	"github.com/ymorita/kabuscan/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "保存済みスナップショットの状況を表示",
	Long: `DBに保存されたランキングスナップショットの状況を表示します。

表示情報:
- カテゴリごとの累計行数
- 最新スナップショットの取得時刻と件数
- 最新スナップショットの上位銘柄

DATABASE_URLの設定が必要です。

Example:
  go run ./cmd/kabuscan status
  go run ./cmd/kabuscan status --category yearToDateLow --top 5`,
	RunE: runStatus,
}

var (
	// Status flags
	statusCategory string
	statusTop      int
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusCategory, "category", "all", "表示するカテゴリ (allで全カテゴリ)")
	statusCmd.Flags().IntVar(&statusTop, "top", 5, "最新スナップショットから表示する件数")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if !a.cfg.Database.Enabled() {
		return &ranking.ValidationError{
			Param: "DATABASE_URL",
			Value: "",
			Hint:  "status コマンドにはDB接続設定が必要です",
		}
	}

	db, err := database.New(a.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewRankingRepository(db.Pool)

	categories, err := resolveCategories(statusCategory)
	if err != nil {
		return err
	}

	fmt.Println("=== kabuscan snapshot status ===")
	for _, category := range categories {
		if err := printCategoryStatus(cmd, repo, category); err != nil {
			return err
		}
	}
	return nil
}

func printCategoryStatus(cmd *cobra.Command, repo *storage.RankingRepository, category ranking.Category) error {
	total, err := repo.SnapshotCount(cmd.Context(), category)
	if err != nil {
		return err
	}

	fmt.Printf("\n[%s]\n", category)
	fmt.Printf("  累計行数: %d\n", total)
	if total == 0 {
		return nil
	}

	latest, err := repo.LatestSnapshot(cmd.Context(), category)
	if err != nil {
		return err
	}
	if len(latest) == 0 {
		return nil
	}

	fmt.Printf("  最新スナップショット: %s (%d件)\n",
		latest[0].ScrapedAt.Format("2006-01-02 15:04:05"), len(latest))

	n := statusTop
	if n > len(latest) {
		n = len(latest)
	}
	for _, rec := range latest[:n] {
		fmt.Printf("  %3d. [%s] %s (%s)\n", rec.Rank, rec.Code, rec.Name, rec.Market)
	}
	return nil
}
