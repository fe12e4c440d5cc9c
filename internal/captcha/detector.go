package captcha

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Detector decides whether a page is an anti-bot challenge. Search engines
// change their challenge markup, so the predicate is injectable and
// deployments can swap the heuristic without touching the run loop.
type Detector interface {
	Detect(html string) bool
}

// MarkupDetector flags pages by known challenge markup and marker phrases.
type MarkupDetector struct{}

var challengeSelectors = []string{
	"form#captcha-form",
	"div.g-recaptcha",
	"#recaptcha",
	"iframe[src*='recaptcha']",
	"iframe[title*='reCAPTCHA']",
	"div[id*='recaptcha']",
}

var challengePhrases = []string{
	"unusual traffic",
	"confirm you are a human",
	"verify you are a human",
	"i'm not a robot",
	"automated system",
	"suspicious activity",
	"ロボットではありません",
	"通常と異なるトラフィック",
}

func (MarkupDetector) Detect(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, sel := range challengeSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	body := strings.ToLower(doc.Find("body").Text())
	for _, phrase := range challengePhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}

var siteKeyAttrRe = regexp.MustCompile(`data-sitekey="([^"]+)"`)

// SiteKey extracts the reCAPTCHA site key from challenge markup: first from
// the widget iframe's k= query parameter, then from a data-sitekey attribute.
func SiteKey(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		if src, ok := doc.Find("iframe[src*='recaptcha']").First().Attr("src"); ok {
			if u, err := url.Parse(src); err == nil {
				if k := u.Query().Get("k"); k != "" {
					return k, true
				}
			}
		}
		if k, ok := doc.Find("[data-sitekey]").First().Attr("data-sitekey"); ok && k != "" {
			return k, true
		}
	}
	if m := siteKeyAttrRe.FindStringSubmatch(html); m != nil {
		return m[1], true
	}
	return "", false
}
