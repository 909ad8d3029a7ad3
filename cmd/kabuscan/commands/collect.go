package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ymorita/kabuscan/internal/export"
	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/internal/storage"
	"github.com/ymorita/kabuscan/pkg/database"
)

var (
	// Collect flags
	collectCategory string
	collectMarket   string
	collectTerm     string
	collectPages    int
	collectSave     bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "ランキングページを収集してCSVに保存",
	Long: `指定カテゴリのランキングページを複数ページ収集し、
workディレクトリにCSVファイルとして保存します。

カテゴリ:
  stopHigh        ストップ高
  stopLow         ストップ安
  yearToDateHigh  年初来高値
  yearToDateLow   年初来安値
  all             全カテゴリ

Example:
  go run ./cmd/kabuscan collect --category stopHigh
  go run ./cmd/kabuscan collect --category all --pages 2
  go run ./cmd/kabuscan collect --category stopLow --market tokyo --save`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectCategory, "category", "stopHigh", "ランキングカテゴリ (all で全カテゴリ)")
	collectCmd.Flags().StringVar(&collectMarket, "market", "all", "対象市場")
	collectCmd.Flags().StringVar(&collectTerm, "term", "daily", "集計期間 (daily|weekly|monthly)")
	collectCmd.Flags().IntVar(&collectPages, "pages", 0, "取得ページ数 (0で設定値を使用)")
	collectCmd.Flags().BoolVar(&collectSave, "save", false, "DATABASE_URL設定時にDBへも保存する")
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	pages := collectPages
	if pages <= 0 {
		pages = a.cfg.Scraper.MaxPages
	}

	var repo *storage.RankingRepository
	if collectSave && a.cfg.Database.Enabled() {
		db, err := database.New(a.cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		repo = storage.NewRankingRepository(db.Pool)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
	}

	categories, err := resolveCategories(collectCategory)
	if err != nil {
		return err
	}

	for _, category := range categories {
		if err := collectOne(cmd.Context(), a, repo, category, pages); err != nil {
			return err
		}
	}
	return nil
}

func collectOne(ctx context.Context, a *app, repo *storage.RankingRepository, category ranking.Category, pages int) error {
	records, err := a.client.Collect(ctx, ranking.CollectOptions{
		Category: category,
		Market:   collectMarket,
		Term:     collectTerm,
		MaxPages: pages,
		Throttle: ranking.NewThrottle(a.cfg.Scraper.RequestDelay),
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("%s: データがありませんでした\n", category)
		return nil
	}

	takenAt := time.Now()
	filename := export.Timestamped(string(category), takenAt)
	path, err := a.writer.WriteRecords(records, category, filename)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d件を %s に保存しました\n", category, len(records), path)

	if repo != nil {
		if err := repo.SaveSnapshot(ctx, category, collectMarket, collectTerm, takenAt, records); err != nil {
			return err
		}
		fmt.Printf("%s: DBへ保存しました\n", category)
	}

	return nil
}

func resolveCategories(name string) ([]ranking.Category, error) {
	if name == "all" {
		return ranking.Categories(), nil
	}
	category := ranking.Category(name)
	if !category.Valid() {
		return nil, &ranking.ValidationError{
			Param: "category",
			Value: name,
			Hint:  "stopHigh, stopLow, yearToDateHigh, yearToDateLow, all のいずれか",
		}
	}
	return []ranking.Category{category}, nil
}
