package scrapers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// newDocument parses captured page HTML into a goquery document.
func newDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// findFirst returns the first non-empty match of a selector chain
// within root. Vendor dashboards rename classes between deploys, so
// every lookup walks a fallback chain instead of trusting one selector.
func findFirst(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		found := root.Find(sel)
		if found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// textFirst returns the trimmed text of the first selector that matches.
func textFirst(root *goquery.Selection, selectors []string) string {
	if found := findFirst(root, selectors); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

// attrFirst returns the first non-empty value among the given
// attributes of a single element.
func attrFirst(sel *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		if val, ok := sel.Attr(attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// parseFloat extracts a float from dashboard text. Metric cells carry
// unit suffixes ("142.3 mph", "12.5°", "2,450 rpm") and some locales
// use a comma decimal separator, so the first numeric token is pulled
// out and normalized before conversion. Returns nil when no number is
// present, which callers store as a NULL metric rather than a zero.
func parseFloat(text string) *float64 {
	match := numberPattern.FindString(strings.TrimSpace(text))
	if match == "" {
		return nil
	}
	// "2,450" is a thousands separator, "142,3" is a decimal comma.
	if strings.Contains(match, ",") {
		parts := strings.SplitN(match, ",", 2)
		if len(parts[1]) == 3 {
			match = parts[0] + parts[1]
		} else {
			match = parts[0] + "." + parts[1]
		}
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// parseInt extracts an integer from dashboard text, truncating any
// fractional part. Returns 0 when no number is present.
func parseInt(text string) int {
	value := parseFloat(text)
	if value == nil {
		return 0
	}
	return int(*value)
}

// defaultDateFormats covers the date renderings seen across the three
// vendor dashboards. Profiles may extend this list per vendor.
var defaultDateFormats = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon, Jan 2, 2006",
}

// parseDate tries each layout in turn and falls back to the current
// time when none match. A round with a slightly wrong date is worth
// more than a round dropped over an unparseable label.
func parseDate(text string, formats []string) time.Time {
	text = strings.TrimSpace(text)
	if len(formats) == 0 {
		formats = defaultDateFormats
	}
	for _, layout := range formats {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed
		}
	}
	return time.Now().UTC()
}

var fractionPattern = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)

// parseFraction reads stats rendered as "9/14" and returns hit and
// total counts. ok is false when the text has no such pair.
func parseFraction(text string) (hit, total int, ok bool) {
	match := fractionPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, 0, false
	}
	hit, _ = strconv.Atoi(match[1])
	total, _ = strconv.Atoi(match[2])
	return hit, total, true
}
