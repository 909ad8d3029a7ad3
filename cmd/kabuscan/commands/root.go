package commands

import (
	"github.com/spf13/cobra"

	"github.com/ymorita/kabuscan/internal/export"
	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/pkg/config"
	"github.com/ymorita/kabuscan/pkg/httputil"
	"github.com/ymorita/kabuscan/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kabuscan",
	Short: "kabuscan - 日本株ランキング収集・分析ツール",
	Long: `kabuscan CLI

Yahoo!ファイナンスのランキングページから銘柄データを収集し、
年初来高値・安値からの距離や回復スコアなどの派生指標を計算します。

Usage:
  go run ./cmd/kabuscan [command]

Examples:
  go run ./cmd/kabuscan collect --category stopHigh
  go run ./cmd/kabuscan analyze --category yearToDateLow --limit 25
  go run ./cmd/kabuscan watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "詳細ログを出力する")
}

// app bundles the shared wiring every subcommand starts from.
type app struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpClient *httputil.Client
	client     *ranking.Client
	writer     *export.Writer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	httpClient := httputil.NewWithTimeout(log, cfg.Scraper.Timeout)
	client := ranking.NewClient(httpClient, cfg.Yahoo.BaseURL, cfg.Yahoo.QuoteBaseURL, log)
	writer := export.NewWriter(cfg.Output.Dir, log)

	return &app{
		cfg:        cfg,
		logger:     log,
		httpClient: httpClient,
		client:     client,
		writer:     writer,
	}, nil
}
