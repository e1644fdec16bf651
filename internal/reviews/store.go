// Package reviews provides the review record model and its SQLite
// persistence.
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("reviews db path is required")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	return &Store{sqldb: sqldb, db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS reviews (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	reviewer TEXT NOT NULL,
	avatar TEXT,
	quote TEXT NOT NULL,
	rating INTEGER NOT NULL,
	date TEXT NOT NULL,
	poster TEXT,
	mood TEXT,
	is_mine INTEGER NOT NULL DEFAULT 0,
	likes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_reviews_is_mine ON reviews(is_mine);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// List returns every review in insertion order. The API carries no
// pagination, matching the consumed contract.
func (s *Store) List(ctx context.Context) ([]Review, error) {
	out := []Review{}
	err := s.db.NewSelect().
		Model(&out).
		OrderExpr("id ASC").
		Scan(ctx)
	return out, err
}

func (s *Store) Get(ctx context.Context, id int64) (Review, error) {
	var r Review
	err := s.db.NewSelect().
		Model(&r).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	return r, err
}

func (s *Store) Insert(ctx context.Context, r *Review) (int64, error) {
	res, err := s.db.NewInsert().
		Model(r).
		Column("title", "reviewer", "avatar", "quote", "rating", "date", "poster", "mood", "is_mine", "likes").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update replaces every mutable field of the row.
func (s *Store) Update(ctx context.Context, r *Review) error {
	res, err := s.db.NewUpdate().
		Table("reviews").
		Set("title = ?", r.Title).
		Set("reviewer = ?", r.Reviewer).
		Set("avatar = ?", r.Avatar).
		Set("quote = ?", r.Quote).
		Set("rating = ?", r.Rating).
		Set("date = ?", r.Date).
		Set("poster = ?", r.Poster).
		Set("mood = ?", r.Mood).
		Set("is_mine = ?", r.IsMine).
		Set("likes = ?", r.Likes).
		Where("id = ?", r.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRowsAffected(res)
}

// UpdateLikes overwrites the likes counter with a caller-supplied value.
// The increment itself happens client-side (read, add one, write), so
// concurrent likes can lose an update.
func (s *Store) UpdateLikes(ctx context.Context, id int64, likes int) error {
	res, err := s.db.NewUpdate().
		Table("reviews").
		Set("likes = ?", likes).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRowsAffected(res)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Table("reviews").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectRowsAffected(res)
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.NewSelect().
		Table("reviews").
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(CASE WHEN is_mine THEN 1 ELSE 0 END), 0)").
		ColumnExpr("COALESCE(SUM(CASE WHEN is_mine THEN 0 ELSE 1 END), 0)").
		Scan(ctx, &stats.TotalReviews, &stats.MyReviews, &stats.CommunityReviews)
	return stats, err
}

func expectRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
