package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ymorita/kabuscan/internal/ranking"
)

// RankingRepository persists collected ranking snapshots.
// ⭐ SSOT: ランキングスナップショットの保存はここでのみ行う
type RankingRepository struct {
	pool *pgxpool.Pool
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(pool *pgxpool.Pool) *RankingRepository {
	return &RankingRepository{pool: pool}
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (r *RankingRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ranking_snapshots (
			id            BIGSERIAL PRIMARY KEY,
			category      TEXT        NOT NULL,
			market        TEXT        NOT NULL,
			term          TEXT        NOT NULL,
			rank          INTEGER     NOT NULL,
			stock_code    TEXT        NOT NULL,
			stock_name    TEXT        NOT NULL,
			market_name   TEXT        NOT NULL,
			page_url      TEXT        NOT NULL,
			price_fields  JSONB       NOT NULL DEFAULT '{}',
			scraped_at    TIMESTAMPTZ NOT NULL,
			UNIQUE (category, market, term, scraped_at, rank)
		)
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

// SaveSnapshot stores one collection run under a single run timestamp.
// Records carry per-page scrape times, so the caller-supplied takenAt is
// used for every row; that keeps a multi-page run retrievable as a unit
// and keeps the rank uniqueness constraint scoped to the whole run.
func (r *RankingRepository) SaveSnapshot(ctx context.Context, category ranking.Category, market, term string, takenAt time.Time, records []ranking.StockRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO ranking_snapshots
			(category, market, term, rank, stock_code, stock_name, market_name, page_url, price_fields, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (category, market, term, scraped_at, rank) DO UPDATE SET
			stock_code   = EXCLUDED.stock_code,
			stock_name   = EXCLUDED.stock_name,
			market_name  = EXCLUDED.market_name,
			page_url     = EXCLUDED.page_url,
			price_fields = EXCLUDED.price_fields
	`

	for _, rec := range records {
		fields := rec.PriceFields
		if fields == nil {
			fields = map[string]string{}
		}
		_, err := r.pool.Exec(ctx, query,
			string(category), market, term,
			rec.Rank, rec.Code, rec.Name, rec.Market, rec.URL,
			fields, takenAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// LatestSnapshot returns the rows of the most recent run for a category.
func (r *RankingRepository) LatestSnapshot(ctx context.Context, category ranking.Category) ([]ranking.StockRecord, error) {
	query := `
		SELECT rank, stock_code, stock_name, market_name, page_url, price_fields, scraped_at
		FROM ranking_snapshots
		WHERE category = $1
		  AND scraped_at = (
			SELECT MAX(scraped_at) FROM ranking_snapshots WHERE category = $1
		  )
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ranking.StockRecord
	for rows.Next() {
		var rec ranking.StockRecord
		var fields map[string]string
		var scrapedAt time.Time
		if err := rows.Scan(&rec.Rank, &rec.Code, &rec.Name, &rec.Market, &rec.URL, &fields, &scrapedAt); err != nil {
			return nil, err
		}
		rec.PriceFields = fields
		rec.ScrapedAt = scrapedAt
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SnapshotCount reports how many rows a category has accumulated.
func (r *RankingRepository) SnapshotCount(ctx context.Context, category ranking.Category) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ranking_snapshots WHERE category = $1`,
		string(category),
	).Scan(&count)
	return count, err
}
