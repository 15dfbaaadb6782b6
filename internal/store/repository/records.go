// Package repository provides data access for normalized game records.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/courtside/internal/ingest/bref"
	"github.com/fortuna/courtside/internal/store"
)

// RecordRepository handles game-record data access.
type RecordRepository struct {
	db *store.Database
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *store.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `id, game_date, season, team, opp, total, total_opp, home, won, stats, opp_stats, created_at, updated_at`

// Upsert inserts a record, replacing any previous row for the same
// game date and team. Re-running the normalize phase over the same
// cache is therefore safe.
func (r *RecordRepository) Upsert(ctx context.Context, rec bref.GameRecord) error {
	row, err := store.NewRecordRow(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO game_records (game_date, season, team, opp, total, total_opp, home, won, stats, opp_stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_date, team) DO UPDATE SET
			season = EXCLUDED.season,
			opp = EXCLUDED.opp,
			total = EXCLUDED.total,
			total_opp = EXCLUDED.total_opp,
			home = EXCLUDED.home,
			won = EXCLUDED.won,
			stats = EXCLUDED.stats,
			opp_stats = EXCLUDED.opp_stats,
			updated_at = NOW()
	`

	_, err = r.db.DB().ExecContext(ctx, query,
		row.GameDate, row.Season, row.Team, row.Opp, row.Total, row.TotalOpp,
		row.Home, row.Won, row.Stats, row.OppStats,
	)
	if err != nil {
		return fmt.Errorf("upserting record for %s on %s: %w", row.Team, row.GameDate.Format("2006-01-02"), err)
	}

	return nil
}

// StoreRecords persists a normalized game's records, satisfying the
// normalizer's sink contract.
func (r *RecordRepository) StoreRecords(ctx context.Context, records []bref.GameRecord) error {
	for _, rec := range records {
		if err := r.Upsert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// GetByDate returns all records for games played on a date.
func (r *RecordRepository) GetByDate(ctx context.Context, date time.Time) ([]*store.RecordRow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_records
		WHERE game_date = $1
		ORDER BY team
	`, recordColumns)

	rows, err := r.db.DB().QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetBySeason returns all records for a season, ordered by date.
func (r *RecordRepository) GetBySeason(ctx context.Context, season string) ([]*store.RecordRow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_records
		WHERE season = $1
		ORDER BY game_date, team
	`, recordColumns)

	rows, err := r.db.DB().QueryContext(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByDateAndTeam returns a single record.
func (r *RecordRepository) GetByDateAndTeam(ctx context.Context, date time.Time, team string) (*store.RecordRow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM game_records
		WHERE game_date = $1 AND team = $2
	`, recordColumns)

	row := &store.RecordRow{}
	err := r.db.DB().QueryRowContext(ctx, query, date.Format("2006-01-02"), team).Scan(
		&row.ID, &row.GameDate, &row.Season, &row.Team, &row.Opp,
		&row.Total, &row.TotalOpp, &row.Home, &row.Won,
		&row.Stats, &row.OppStats, &row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record not found: %s %s", date.Format("2006-01-02"), team)
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	return row, nil
}

// Seasons lists the distinct seasons present, newest first.
func (r *RecordRepository) Seasons(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT DISTINCT season FROM game_records ORDER BY season DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning season: %w", err)
		}
		seasons = append(seasons, s)
	}

	return seasons, rows.Err()
}

// CountBySeason returns the number of records per season.
func (r *RecordRepository) CountBySeason(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT season, COUNT(*) FROM game_records GROUP BY season`)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var season string
		var count int
		if err := rows.Scan(&season, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[season] = count
	}

	return counts, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]*store.RecordRow, error) {
	var records []*store.RecordRow
	for rows.Next() {
		row := &store.RecordRow{}
		err := rows.Scan(
			&row.ID, &row.GameDate, &row.Season, &row.Team, &row.Opp,
			&row.Total, &row.TotalOpp, &row.Home, &row.Won,
			&row.Stats, &row.OppStats, &row.CreatedAt, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, row)
	}

	return records, rows.Err()
}
