package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortuna/courtside/internal/ingest/bref"
)

// RecordRow is the persisted form of one normalized game record. The
// dynamic stat columns live in two JSONB blobs so the schema survives
// changes to the source tables.
type RecordRow struct {
	ID        int       `json:"id" db:"id"`
	GameDate  time.Time `json:"game_date" db:"game_date"`
	Season    string    `json:"season" db:"season"`
	Team      string    `json:"team" db:"team"`
	Opp       string    `json:"opp" db:"opp"`
	Total     int       `json:"total" db:"total"`
	TotalOpp  int       `json:"total_opp" db:"total_opp"`
	Home      int       `json:"home" db:"home"`
	Won       bool      `json:"won" db:"won"`
	Stats     []byte    `json:"-" db:"stats"`
	OppStats  []byte    `json:"-" db:"opp_stats"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewRecordRow converts a normalized game record into its persisted
// form.
func NewRecordRow(r bref.GameRecord) (*RecordRow, error) {
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return nil, fmt.Errorf("encoding stats: %w", err)
	}
	oppStats, err := json.Marshal(r.OppStats)
	if err != nil {
		return nil, fmt.Errorf("encoding opponent stats: %w", err)
	}

	return &RecordRow{
		GameDate: r.Date,
		Season:   r.Season,
		Team:     r.Team,
		Opp:      r.Opp,
		Total:    r.Total,
		TotalOpp: r.TotalOpp,
		Home:     r.Home,
		Won:      r.Won,
		Stats:    stats,
		OppStats: oppStats,
	}, nil
}

// ToGameRecord converts a persisted row back to the domain shape.
func (row *RecordRow) ToGameRecord() (bref.GameRecord, error) {
	r := bref.GameRecord{
		Team:     row.Team,
		Total:    row.Total,
		Home:     row.Home,
		Opp:      row.Opp,
		TotalOpp: row.TotalOpp,
		HomeOpp:  1 - row.Home,
		Season:   row.Season,
		Date:     row.GameDate,
		GameID:   row.GameDate,
		Won:      row.Won,
	}

	if len(row.Stats) > 0 {
		if err := json.Unmarshal(row.Stats, &r.Stats); err != nil {
			return r, fmt.Errorf("decoding stats: %w", err)
		}
	}
	if len(row.OppStats) > 0 {
		if err := json.Unmarshal(row.OppStats, &r.OppStats); err != nil {
			return r, fmt.Errorf("decoding opponent stats: %w", err)
		}
	}

	return r, nil
}
