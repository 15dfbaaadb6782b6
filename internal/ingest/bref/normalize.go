package bref

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// teamSummary is one team's side of a game before mirroring.
type teamSummary struct {
	team  string
	total int
	home  int
	stats map[string]float64
}

// Normalize reshapes one cleaned box-score document into two mirrored
// GameRecords, one per team. The line-score row order defines the
// perspective: the page lists the away team first and the home team
// second, so home is assigned [0, 1] positionally.
//
// Any missing line score, unusable stat table, or malformed date aborts
// only this game; callers log and continue the batch.
func Normalize(doc *goquery.Document, sourceFilename string) ([]GameRecord, error) {
	lineScore, err := ReadLineScore(doc)
	if err != nil {
		return nil, err
	}
	if len(lineScore) != 2 {
		return nil, fmt.Errorf("line score has %d rows, need exactly 2", len(lineScore))
	}

	date, err := parseGameDate(sourceFilename)
	if err != nil {
		return nil, err
	}

	season, err := ReadSeasonToken(doc)
	if err != nil {
		return nil, fmt.Errorf("reading season: %w", err)
	}

	summaries := make([]teamSummary, 0, 2)
	for i, ls := range lineScore {
		stats, ok := summarizeTeam(doc, ls.Team)
		if !ok {
			log.Printf("  ⚠️  No usable stats for team %s in %s", ls.Team, sourceFilename)
			continue
		}
		summaries = append(summaries, teamSummary{
			team:  ls.Team,
			total: ls.Total,
			home:  i,
			stats: stats,
		})
	}

	// A game with fewer than two usable teams produces no records.
	if len(summaries) < 2 {
		return nil, nil
	}

	opponents := mirror(summaries)

	records := make([]GameRecord, 0, len(summaries))
	for i := range summaries {
		team, opp := summaries[i], opponents[i]
		records = append(records, GameRecord{
			Team:     team.team,
			Total:    team.total,
			Home:     team.home,
			Opp:      opp.team,
			TotalOpp: opp.total,
			HomeOpp:  opp.home,
			Season:   season,
			Date:     date,
			GameID:   date,
			Won:      team.total > opp.total,
			Stats:    team.stats,
			OppStats: opp.stats,
		})
	}

	return records, nil
}

// summarizeTeam builds a team's flat per-game summary: the basic and
// advanced totals rows concatenated with lower-cased keys, plus the
// scalar maxima of each totals row under basic_max / advanced_max.
func summarizeTeam(doc *goquery.Document, team string) (map[string]float64, bool) {
	basic, err := ReadStatTable(doc, team, StatBasic)
	if err != nil || basic.Empty() {
		return nil, false
	}
	advanced, err := ReadStatTable(doc, team, StatAdvanced)
	if err != nil || advanced.Empty() {
		return nil, false
	}

	stats := make(map[string]float64, len(basic.Columns)+len(advanced.Columns)+2)
	for k, v := range basic.Totals() {
		stats[strings.ToLower(k)] = v
	}
	for k, v := range advanced.Totals() {
		stats[strings.ToLower(k)] = v
	}

	if max, ok := rowMax(basic.Totals()); ok {
		stats[StatBasic+"_max"] = max
	}
	if max, ok := rowMax(advanced.Totals()); ok {
		stats[StatAdvanced+"_max"] = max
	}

	return stats, true
}

// mirror returns the opponent-perspective ordering of the team
// summaries: a reversed copy. Kept as an explicit pure transform so the
// pairing never depends on in-place reversal tricks.
func mirror(rows []teamSummary) []teamSummary {
	out := make([]teamSummary, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

// rowMax is the maximum over a single row's values.
func rowMax(row StatRow) (float64, bool) {
	var max float64
	found := false
	for _, v := range row {
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max, found
}

// parseGameDate reads the calendar date from the first 8 characters of
// the cached filename (YYYYMMDD). Renaming cached files breaks this
// contract.
func parseGameDate(sourceFilename string) (time.Time, error) {
	name := filepath.Base(sourceFilename)
	if len(name) < 8 {
		return time.Time{}, fmt.Errorf("filename %q too short for a YYYYMMDD date", name)
	}
	date, err := time.Parse("20060102", name[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("filename %q has no valid date prefix: %w", name, err)
	}
	return date, nil
}
