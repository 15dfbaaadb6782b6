package bref

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func loadFixture(t *testing.T) *goquery.Document {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "202201150LAL.html"))
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	doc, err := ParseDocument(string(data))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return doc
}

func TestParseDocumentRemovesDecorativeRows(t *testing.T) {
	doc := loadFixture(t)

	if n := doc.Find("tr.over_header").Length(); n != 0 {
		t.Errorf("expected 0 over_header rows after cleanup, got %d", n)
	}
	if n := doc.Find("tr.thead").Length(); n != 0 {
		t.Errorf("expected 0 thead rows after cleanup, got %d", n)
	}

	// The real header rows must survive.
	if n := doc.Find("table#line_score thead tr").Length(); n != 1 {
		t.Errorf("expected 1 remaining line-score header row, got %d", n)
	}
}

func TestReadLineScore(t *testing.T) {
	doc := loadFixture(t)

	rows, err := ReadLineScore(doc)
	if err != nil {
		t.Fatalf("ReadLineScore failed: %v", err)
	}

	want := []LineScoreRow{
		{Team: "MEM", Total: 110},
		{Team: "LAL", Total: 105},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestReadLineScoreMissingTable(t *testing.T) {
	doc, err := ParseDocument("<div id=\"content\"><p>no tables here</p></div>")
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	_, err = ReadLineScore(doc)
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if missing.Column != "total" {
		t.Errorf("expected missing column 'total', got %q", missing.Column)
	}
}

func TestReadLineScoreHeaderless(t *testing.T) {
	doc, err := ParseDocument(`<table id="line_score"><tbody><tr><th>MEM</th><td>110</td></tr></tbody></table>`)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	_, err = ReadLineScore(doc)
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError for headerless table, got %v", err)
	}
}

func TestReadStatTable(t *testing.T) {
	doc := loadFixture(t)

	table, err := ReadStatTable(doc, "MEM", StatBasic)
	if err != nil {
		t.Fatalf("ReadStatTable failed: %v", err)
	}
	if table.Empty() {
		t.Fatal("expected non-empty table")
	}

	// Player rows plus the totals row; the decorative "Reserves" row is gone.
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}

	// Minutes like "36:20" don't coerce to numbers and stay absent.
	first := table.Rows[0]
	if _, ok := first["MP"]; ok {
		t.Error("expected MP to be absent for a mm:ss cell")
	}
	if first["PTS"] != 41 {
		t.Errorf("expected PTS=41 for first row, got %v", first["PTS"])
	}

	totals := table.Totals()
	if totals["PTS"] != 110 || totals["TRB"] != 40 {
		t.Errorf("unexpected totals row: %v", totals)
	}
	// Totals MP cell "240" is numeric and is kept.
	if totals["MP"] != 240 {
		t.Errorf("expected MP=240 in totals, got %v", totals["MP"])
	}
}

func TestReadStatTableAdvanced(t *testing.T) {
	doc := loadFixture(t)

	table, err := ReadStatTable(doc, "LAL", StatAdvanced)
	if err != nil {
		t.Fatalf("ReadStatTable failed: %v", err)
	}

	totals := table.Totals()
	if totals["ORtg"] != 108 {
		t.Errorf("expected ORtg=108, got %v", totals["ORtg"])
	}
	if totals["TS%"] != 0.562 {
		t.Errorf("expected TS%%=0.562, got %v", totals["TS%"])
	}
}

func TestReadStatTableMissing(t *testing.T) {
	doc := loadFixture(t)

	if _, err := ReadStatTable(doc, "BOS", StatBasic); err == nil {
		t.Fatal("expected error for a team not in this game")
	}
}

func TestReadSeasonToken(t *testing.T) {
	doc := loadFixture(t)

	season, err := ReadSeasonToken(doc)
	if err != nil {
		t.Fatalf("ReadSeasonToken failed: %v", err)
	}
	if season != "2022" {
		t.Errorf("expected season '2022', got %q", season)
	}
}

func TestReadSeasonTokenMissingNav(t *testing.T) {
	doc, err := ParseDocument("<div id=\"content\"></div>")
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	if _, err := ReadSeasonToken(doc); err == nil {
		t.Fatal("expected error when navigation block is absent")
	}
}
