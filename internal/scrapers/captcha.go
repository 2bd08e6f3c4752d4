package scrapers

import (
	"errors"
	"strings"
)

// ErrCaptchaDetected aborts a vendor run; the page screenshot lands in
// the spool for manual inspection.
var ErrCaptchaDetected = errors.New("captcha detected, manual intervention required")

var captchaKeywords = []string{
	"captcha",
	"prove you're human",
	"human verification",
	"security check",
	"not a robot",
}

var captchaSelectors = []string{
	`iframe[src*="recaptcha"]`,
	`iframe[src*="hcaptcha"]`,
	`iframe[src*="arkoselabs"]`,
	`div.g-recaptcha`,
	`div[class*="captcha"]`,
	`div[id*="captcha"]`,
}

// ContainsCaptcha reports whether the page HTML looks like a CAPTCHA
// challenge, by keyword scan and by the markers the common CAPTCHA
// services leave in the DOM.
func ContainsCaptcha(html string) bool {
	lower := strings.ToLower(html)
	for _, keyword := range captchaKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	doc, err := newDocument(html)
	if err != nil {
		return false
	}
	for _, sel := range captchaSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
