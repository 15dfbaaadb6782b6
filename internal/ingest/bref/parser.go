package bref

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument builds a goquery document from raw HTML with the
// decorative header rows removed. Basketball-reference repeats header
// rows inside table bodies (tr.thead) and stacks grouped headers above
// them (tr.over_header); both corrupt table extraction and are stripped
// before anything else reads the tree.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("tr.over_header").Remove()
	doc.Find("tr.thead").Remove()

	return doc, nil
}

// ParseFile reads a cached box-score page and returns its cleaned
// document.
func ParseFile(filePath string) (*goquery.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading box score: %w", err)
	}
	return ParseDocument(string(data))
}

// ReadLineScore extracts the line-score table: one row per team with
// its final total. The first column is renamed to team and the last to
// total; a table that does not yield a total column is a structural
// failure reported as MissingColumnError.
func ReadLineScore(doc *goquery.Document) ([]LineScoreRow, error) {
	table := doc.Find("table#line_score").First()
	if table.Length() == 0 {
		return nil, &MissingColumnError{Table: "line_score", Column: "total"}
	}

	headers := table.Find("thead tr").Last().Find("th")
	if headers.Length() < 2 {
		return nil, &MissingColumnError{Table: "line_score", Column: "total"}
	}

	var rows []LineScoreRow
	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() < 2 {
			return
		}

		team := strings.TrimSpace(cells.First().Text())
		totalText := strings.TrimSpace(cells.Last().Text())
		total, err := strconv.Atoi(totalText)
		if team == "" || err != nil {
			return
		}

		rows = append(rows, LineScoreRow{Team: team, Total: total})
	})

	return rows, nil
}

// ReadStatTable extracts a team's stat table of the given kind
// (basic or advanced). Every cell is coerced to a number; cells that
// don't parse (minutes strings, empty cells) are left absent rather
// than failing the row. The first column is the player-name index and
// the last row is the team totals row.
func ReadStatTable(doc *goquery.Document, team, kind string) (*StatTable, error) {
	tableID := fmt.Sprintf("box-%s-game-%s", team, kind)
	table := doc.Find("table#" + tableID).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("stat table %q not found", tableID)
	}

	var columns []string
	table.Find("thead tr").Last().Find("th").Each(func(i int, th *goquery.Selection) {
		if i == 0 {
			return // player-name index column
		}
		columns = append(columns, strings.TrimSpace(th.Text()))
	})

	stat := &StatTable{Team: team, Kind: kind, Columns: columns}

	readRow := func(i int, tr *goquery.Selection) {
		row := make(StatRow)
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			if j == 0 || j-1 >= len(columns) {
				return
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell.Text()), 64); err == nil {
				row[columns[j-1]] = v
			}
		})
		stat.Rows = append(stat.Rows, row)
	}

	table.Find("tbody tr").Each(readRow)
	table.Find("tfoot tr").Each(readRow)

	return stat, nil
}

// ReadSeasonToken derives the season label from the bottom navigation
// block: the second anchor's filename prefix before the first
// underscore.
func ReadSeasonToken(doc *goquery.Document) (string, error) {
	nav := doc.Find("#bottom_nav_container").First()
	if nav.Length() == 0 {
		return "", fmt.Errorf("bottom navigation block not found")
	}

	var hrefs []string
	nav.Find("a").Each(func(i int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	if len(hrefs) < 2 {
		return "", fmt.Errorf("bottom navigation has %d anchors, need 2", len(hrefs))
	}

	name := path.Base(hrefs[1])
	if idx := strings.Index(name, "_"); idx >= 0 {
		name = name[:idx]
	}
	return name, nil
}
