package search

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Match locates the target site inside a results page.
type Match struct {
	Position int    // 1-based rank among inspected results
	Href     string // resolved destination URL
	RawHref  string // href attribute exactly as it appears in the page
}

// Result-anchor strategies, tried in order; the first one with hits wins.
// Google has changed its markup often enough that a single selector rots.
var resultAnchorSelectors = []string{
	"#search a:has(h3)",
	"#rso a:has(h3)",
	"div.g a[href]",
}

// Scanner inspects result pages for links pointing at the target site.
// It performs a single pass over the first maxResults entries in page order.
type Scanner struct {
	targetURL  string
	targetHost string
	maxResults int
}

func NewScanner(targetURL string, maxResults int) (*Scanner, error) {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid target url %q", targetURL)
	}
	return &Scanner{
		targetURL:  targetURL,
		targetHost: normalizeHost(u.Host),
		maxResults: maxResults,
	}, nil
}

// Scan walks the organic result anchors and reports the first link whose
// destination matches the target, if it appears within the limit.
func (s *Scanner) Scan(html string) (Match, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Match{}, false
	}

	var m Match
	found := false
	s.resultAnchors(doc).EachWithBreak(func(i int, a *goquery.Selection) bool {
		if i >= s.maxResults {
			return false
		}
		raw, ok := a.Attr("href")
		if !ok {
			return true
		}
		dest := unwrapRedirect(raw)
		if s.matches(dest) {
			m = Match{Position: i + 1, Href: dest, RawHref: raw}
			found = true
			return false
		}
		return true
	})
	return m, found
}

func (s *Scanner) resultAnchors(doc *goquery.Document) *goquery.Selection {
	for _, sel := range resultAnchorSelectors {
		if hits := doc.Find(sel); hits.Length() > 0 {
			return hits
		}
	}
	// No recognizable result blocks; fall back to every outbound link.
	return doc.Find("a[href^='http'], a[href^='/url?']")
}

func (s *Scanner) matches(href string) bool {
	if href == "" {
		return false
	}
	if strings.Contains(href, s.targetURL) {
		return true
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(normalizeHost(u.Host), s.targetHost)
}

// unwrapRedirect strips the search engine's /url? indirection, which wraps
// organic result hrefs in tracking parameters.
func unwrapRedirect(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	q := u.Query()
	if v := q.Get("q"); v != "" {
		return v
	}
	if v := q.Get("url"); v != "" {
		return v
	}
	return href
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
