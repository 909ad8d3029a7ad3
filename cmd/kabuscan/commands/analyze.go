package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/ymorita/kabuscan/internal/analyzer"
	"github.com/ymorita/kabuscan/internal/export"
	"github.com/ymorita/kabuscan/internal/history"
	"github.com/ymorita/kabuscan/internal/ranking"
)

var (
	// Analyze flags
	analyzeCategory string
	analyzeMarket   string
	analyzeTerm     string
	analyzePages    int
	analyzeLimit    int
	analyzeMinScore float64
	analyzeMaxPBR   float64
	analyzeSectors  []string
	analyzeTop      int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "ランキング銘柄の派生指標とスコアを計算",
	Long: `ランキングを収集したうえで、上位銘柄の時系列データを取得し、
年初来高値・安値からの距離、ボラティリティ、回復スコアなどを
計算してCSVに保存します。

Example:
  go run ./cmd/kabuscan analyze --category yearToDateLow
  go run ./cmd/kabuscan analyze --category yearToDateLow --min-score 70
  go run ./cmd/kabuscan analyze --category yearToDateHigh --limit 20 --top 10`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "yearToDateLow", "ランキングカテゴリ")
	analyzeCmd.Flags().StringVar(&analyzeMarket, "market", "all", "対象市場")
	analyzeCmd.Flags().StringVar(&analyzeTerm, "term", "daily", "集計期間")
	analyzeCmd.Flags().IntVar(&analyzePages, "pages", 0, "取得ページ数 (0で設定値を使用)")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0, "詳細分析する銘柄数 (0で設定値を使用)")
	analyzeCmd.Flags().Float64Var(&analyzeMinScore, "min-score", 0, "回復スコアの下限でフィルタ")
	analyzeCmd.Flags().Float64Var(&analyzeMaxPBR, "max-pbr", 0, "PBRの上限でフィルタ")
	analyzeCmd.Flags().StringSliceVar(&analyzeSectors, "sectors", nil, "対象セクター (カンマ区切り)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 10, "表示する上位件数")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	category := ranking.Category(analyzeCategory)
	if !category.Valid() {
		return &ranking.ValidationError{
			Param: "category",
			Value: analyzeCategory,
			Hint:  "stopHigh, stopLow, yearToDateHigh, yearToDateLow のいずれか",
		}
	}

	pages := analyzePages
	if pages <= 0 {
		pages = a.cfg.Scraper.MaxPages
	}
	limit := analyzeLimit
	if limit <= 0 {
		limit = a.cfg.Scraper.DetailLimit
	}

	records, err := a.client.Collect(cmd.Context(), ranking.CollectOptions{
		Category: category,
		Market:   analyzeMarket,
		Term:     analyzeTerm,
		MaxPages: pages,
		Throttle: ranking.NewThrottle(a.cfg.Scraper.RequestDelay),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("分析対象の銘柄がありませんでした")
		return nil
	}

	// 基本CSVは詳細分析の対象外も含め、収集した全行を残す。
	takenAt := time.Now()
	basicFile := export.Timestamped(string(category)+"_basic", takenAt)
	basicPath, err := a.writer.WriteRecords(records, category, basicFile)
	if err != nil {
		return err
	}
	fmt.Printf("基本データ %d件を %s に保存しました\n", len(records), basicPath)

	provider := history.NewClient(
		a.httpClient,
		a.cfg.Yahoo.ChartBaseURL,
		a.cfg.Yahoo.QuoteBaseURL,
		a.logger,
	)

	an := analyzer.New(provider, limit, ranking.NewThrottle(a.cfg.Scraper.DetailDelay), a.logger)
	results, err := an.Analyze(cmd.Context(), records)
	if err != nil {
		return err
	}

	criteria := analyzer.Criteria{Sectors: analyzeSectors}
	if analyzeMinScore > 0 {
		criteria.MinRecoveryScore = analyzer.Float(analyzeMinScore)
	}
	if analyzeMaxPBR > 0 {
		criteria.MaxPBR = analyzer.Float(analyzeMaxPBR)
	}
	filtered := criteria.Apply(results)

	filename := export.Timestamped(string(category)+"_analysis", takenAt)
	path, err := a.writer.WriteAnalyses(results, filename)
	if err != nil {
		return err
	}

	fmt.Printf("分析結果 %d件 (フィルタ後 %d件) を %s に保存しました\n", len(results), len(filtered), path)
	printTop(filtered, analyzeTop)
	printWorst(results, analyzeTop)
	printSummary(results)
	return nil
}

func printTop(rows []analyzer.Analysis, n int) {
	if len(rows) == 0 {
		return
	}

	analyzer.SortByScore(rows, func(a analyzer.Analysis) float64 { return a.OverallScore })
	if n > len(rows) {
		n = len(rows)
	}

	fmt.Printf("\n=== 上位 %d銘柄 ===\n", n)
	for i, row := range rows[:n] {
		name := row.CompanyName
		if name == "" {
			name = row.Record.Name
		}
		fmt.Printf("%2d. [%s] %s\n", i+1, row.Record.Code, name)
		fmt.Printf("    総合スコア: %.1f/100  回復スコア: %.1f/100\n", row.OverallScore, row.RecoveryScore)
		if !math.IsNaN(row.YTDHighRatio) {
			fmt.Printf("    年初来高値比: %.1f%%  安値からの回復: %.1f%%\n", row.YTDHighRatio, row.RecoveryFromLow)
		}
	}
}

func printWorst(rows []analyzer.Analysis, n int) {
	worst := analyzer.WorstPerformers(rows, n)
	if len(worst) == 0 {
		return
	}

	fmt.Printf("\n=== 下落率ワースト %d銘柄 ===\n", len(worst))
	for i, row := range worst {
		name := row.CompanyName
		if name == "" {
			name = row.Record.Name
		}
		fmt.Printf("%2d. [%s] %s\n", i+1, row.Record.Code, name)
		fmt.Printf("    最大下落率: %.2f%%\n", row.LowDecline)
		fmt.Printf("    年初来安値: %.0f円  現在価格: %.0f円\n", row.YTDLow, row.CurrentPrice)
		if row.Sector != "" {
			fmt.Printf("    セクター: %s\n", row.Sector)
		}
	}
}

func printSummary(rows []analyzer.Analysis) {
	s := analyzer.Summarize(rows)
	if s.Total == 0 {
		return
	}

	fmt.Println("\n=== サマリーレポート ===")
	fmt.Printf("総銘柄数: %d\n", s.Total)
	if !math.IsNaN(s.AvgLowDecline) {
		fmt.Printf("平均下落率: %.2f%%  最大: %.2f%%  最小: %.2f%%\n", s.AvgLowDecline, s.MinLowDecline, s.MaxLowDecline)
	}
	if !math.IsNaN(s.AvgRecoveryFromLow) {
		fmt.Printf("平均安値からの回復率: %.2f%%\n", s.AvgRecoveryFromLow)
	}
	if !math.IsNaN(s.AvgRecoveryScore) {
		fmt.Printf("平均回復スコア: %.1f/100\n", s.AvgRecoveryScore)
	}

	printBreakdown("セクター別分布", s.Sectors, "N/A")
	printBreakdown("市場別分布", s.Markets, ranking.MarketUnknown)
}

func printBreakdown(title string, groups []analyzer.GroupCount, exclude string) {
	printed := 0
	for _, g := range groups {
		if g.Name == exclude {
			continue
		}
		if printed == 0 {
			fmt.Printf("\n%s (上位5):\n", title)
		}
		fmt.Printf("  %s: %d銘柄\n", g.Name, g.Count)
		printed++
		if printed == 5 {
			break
		}
	}
}
