package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ymorita/kabuscan/internal/export"
	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/internal/storage"
	"github.com/ymorita/kabuscan/pkg/config"
	"github.com/ymorita/kabuscan/pkg/logger"
)

// RankingCollectionJob collects every ranking category once a day,
// writes the CSV snapshots and persists them when a database is
// configured.
type RankingCollectionJob struct {
	client *ranking.Client
	writer *export.Writer
	repo   *storage.RankingRepository // nil when persistence is off
	cfg    *config.Config
	logger *logger.Logger
}

func NewRankingCollectionJob(
	client *ranking.Client,
	writer *export.Writer,
	repo *storage.RankingRepository,
	cfg *config.Config,
	log *logger.Logger,
) *RankingCollectionJob {
	return &RankingCollectionJob{
		client: client,
		writer: writer,
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}
}

// Name returns the job name
func (j *RankingCollectionJob) Name() string {
	return "ranking_collection"
}

// Schedule runs the job every weekday shortly after the Tokyo close.
func (j *RankingCollectionJob) Schedule() string {
	return "0 30 15 * * 1-5"
}

// Run collects all categories. One failing category does not stop the
// others; the job fails only when every category failed.
func (j *RankingCollectionJob) Run(ctx context.Context) error {
	failures := 0
	for _, category := range ranking.Categories() {
		if err := j.collectCategory(ctx, category); err != nil {
			failures++
			j.logger.WithError(err).WithField("category", string(category)).Error("Category collection failed")
		}
	}

	if failures == len(ranking.Categories()) {
		return fmt.Errorf("all %d categories failed", failures)
	}
	return nil
}

func (j *RankingCollectionJob) collectCategory(ctx context.Context, category ranking.Category) error {
	records, err := j.client.Collect(ctx, ranking.CollectOptions{
		Category: category,
		Market:   "all",
		Term:     "daily",
		MaxPages: j.cfg.Scraper.MaxPages,
		Throttle: ranking.NewThrottle(j.cfg.Scraper.RequestDelay),
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		j.logger.WithField("category", string(category)).Warn("No records collected")
		return nil
	}

	takenAt := time.Now()
	filename := export.Timestamped(string(category), takenAt)
	if _, err := j.writer.WriteRecords(records, category, filename); err != nil {
		return err
	}

	if j.repo != nil {
		if err := j.repo.SaveSnapshot(ctx, category, "all", "daily", takenAt, records); err != nil {
			return err
		}
	}

	return nil
}
