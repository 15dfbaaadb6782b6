package bref

import (
	"fmt"
	"time"
)

// Stat table kinds on a box-score page.
const (
	StatBasic    = "basic"
	StatAdvanced = "advanced"
)

// LineScoreRow is one team's final score from the line-score table.
// Exactly two rows exist per game; the away team is listed first.
type LineScoreRow struct {
	Team  string `json:"team"`
	Total int    `json:"total"`
}

// StatRow maps a column name to its numeric value. Non-numeric cells
// are simply absent.
type StatRow map[string]float64

// StatTable is one team's per-player statistics of one kind, with a
// synthetic totals row as its last row.
type StatTable struct {
	Team    string
	Kind    string
	Columns []string
	Rows    []StatRow
}

// Empty reports whether the table parsed to zero rows.
func (t *StatTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Totals returns the aggregate row (by convention the last row).
func (t *StatTable) Totals() StatRow {
	if t.Empty() {
		return nil
	}
	return t.Rows[len(t.Rows)-1]
}

// GameRecord is the normalized unit of output: one row per team per
// game, carrying the team's stats and the opponent's stats side by
// side. For every game there are exactly two records, each the mirror
// image of the other.
type GameRecord struct {
	Team     string             `json:"team"`
	Total    int                `json:"total"`
	Home     int                `json:"home"`
	Opp      string             `json:"team_opp"`
	TotalOpp int                `json:"total_opp"`
	HomeOpp  int                `json:"home_opp"`
	Season   string             `json:"season"`
	Date     time.Time          `json:"date"`
	GameID   time.Time          `json:"game_id"`
	Won      bool               `json:"won"`
	Stats    map[string]float64 `json:"stats"`
	OppStats map[string]float64 `json:"stats_opp"`
}

// Flatten produces the wide output-table shape consumed by external
// writers: lower-cased stat keys, the same keys suffixed _opp, plus the
// identity columns.
func (r GameRecord) Flatten() map[string]interface{} {
	row := make(map[string]interface{}, 2*len(r.Stats)+10)
	for k, v := range r.Stats {
		row[k] = v
	}
	for k, v := range r.OppStats {
		row[k+"_opp"] = v
	}
	row["team"] = r.Team
	row["total"] = r.Total
	row["home"] = r.Home
	row["team_opp"] = r.Opp
	row["total_opp"] = r.TotalOpp
	row["home_opp"] = r.HomeOpp
	row["season"] = r.Season
	row["date"] = r.Date.Format("2006-01-02")
	row["game_id"] = r.GameID
	row["won"] = r.Won
	return row
}

// MissingColumnError signals that an expected table column is absent
// after renaming, which means the page structure is not what the parser
// expects. Callers skip the game rather than abort the batch.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q is missing column %q", e.Table, e.Column)
}
