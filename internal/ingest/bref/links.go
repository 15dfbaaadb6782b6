package bref

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BaseURL is the site origin prefixed to relative anchor references.
const BaseURL = "https://www.basketball-reference.com"

// ExtractLinks scans a page's anchors in document order, keeps the
// hrefs matching the predicate, and resolves them against base.
// Anchors without an href are skipped. Duplicates are not removed
// here: the page store's existence check is the dedup mechanism.
func ExtractLinks(doc *goquery.Document, base string, predicate func(href string) bool) []string {
	var urls []string

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if predicate != nil && !predicate(href) {
			return
		}
		urls = append(urls, resolveURL(base, href))
	})

	return urls
}

// IsBoxScoreLink matches box-score page references.
func IsBoxScoreLink(href string) bool {
	return strings.Contains(href, "boxscores") && strings.HasSuffix(href, ".html")
}

func resolveURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return base + href
}
