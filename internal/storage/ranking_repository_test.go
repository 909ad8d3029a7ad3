package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymorita/kabuscan/internal/ranking"
	"github.com/ymorita/kabuscan/pkg/config"
	"github.com/ymorita/kabuscan/pkg/database"
)

func newTestRepository(t *testing.T) *RankingRepository {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewRankingRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	scrapedAt := time.Now().Truncate(time.Microsecond)
	records := []ranking.StockRecord{
		{
			Rank: 1, Code: "7203", Name: "トヨタ自動車", Market: "東証プライム",
			URL:       "https://finance.yahoo.co.jp/quote/7203.T",
			ScrapedAt: scrapedAt,
			PriceFields: map[string]string{
				"current_price": "2,500",
				"price_change":  "+500",
			},
		},
		{
			Rank: 2, Code: "6758", Name: "ソニーグループ", Market: "東証プライム",
			URL:       "https://finance.yahoo.co.jp/quote/6758.T",
			ScrapedAt: scrapedAt,
		},
	}

	err := repo.SaveSnapshot(ctx, ranking.CategoryStopHigh, "all", "daily", scrapedAt, records)
	require.NoError(t, err)

	loaded, err := repo.LatestSnapshot(ctx, ranking.CategoryStopHigh)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "7203", loaded[0].Code)
	assert.Equal(t, 1, loaded[0].Rank)
	price, ok := loaded[0].Field("current_price")
	assert.True(t, ok)
	assert.Equal(t, "2,500", price)

	count, err := repo.SnapshotCount(ctx, ranking.CategoryStopHigh)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(2))
}

func TestSaveSnapshotEmpty(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.SaveSnapshot(context.Background(), ranking.CategoryStopLow, "all", "daily", time.Now(), nil))
}

func TestMultiPageRunLoadsAsOneSnapshot(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// Rows from different pages carry different scrape times; the run
	// timestamp must still bind them into a single snapshot.
	takenAt := time.Now().Truncate(time.Microsecond)
	records := []ranking.StockRecord{
		{Rank: 1, Code: "7203", Name: "トヨタ自動車", Market: "東証プライム",
			URL: "https://finance.yahoo.co.jp/quote/7203.T", ScrapedAt: takenAt.Add(-2 * time.Second)},
		{Rank: 2, Code: "6758", Name: "ソニーグループ", Market: "東証プライム",
			URL: "https://finance.yahoo.co.jp/quote/6758.T", ScrapedAt: takenAt.Add(-2 * time.Second)},
		{Rank: 3, Code: "9984", Name: "ソフトバンクグループ", Market: "東証プライム",
			URL: "https://finance.yahoo.co.jp/quote/9984.T", ScrapedAt: takenAt.Add(-1 * time.Second)},
	}

	err := repo.SaveSnapshot(ctx, ranking.CategoryYTDLow, "all", "daily", takenAt, records)
	require.NoError(t, err)

	loaded, err := repo.LatestSnapshot(ctx, ranking.CategoryYTDLow)
	require.NoError(t, err)
	require.Len(t, loaded, 3, "rows from every page of the run must load together")

	for i, rec := range loaded {
		assert.Equal(t, i+1, rec.Rank)
		assert.True(t, rec.ScrapedAt.Equal(takenAt), "all rows share the run timestamp")
	}
}
