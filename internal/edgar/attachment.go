package edgar

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindForm4Attachment scans a filing index page for the first link to the
// machine-readable Form 4 document (an .xml attachment) and returns it
// absolutized against the page URL. Returns "" if the page carries no such
// link.
//
// Filing index pages also link to the index itself in various formats; hrefs
// containing "index" are skipped.
func FindForm4Attachment(html, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		lower := strings.ToLower(href)
		if !strings.HasSuffix(lower, ".xml") || strings.Contains(lower, "index") {
			return true
		}
		found = href
		return false
	})

	if found == "" {
		return ""
	}
	return Absolutize(pageURL, found)
}

// Absolutize resolves a possibly-relative href against a base URL. EDGAR pages
// mostly use absolute paths under sec.gov.
func Absolutize(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
