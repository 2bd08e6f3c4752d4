package scrapers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// vendorScraper carries the plumbing shared by the three vendor
// implementations: the browser pool, the selector profile, navigation
// pacing, retry policy, and the raw-capture spool.
type vendorScraper struct {
	source    string
	baseURL   string
	loginURL  string
	profile   *Profile
	pool      *BrowserPool
	snapshots interfaces.SnapshotStore
	config    *common.ScrapersConfig
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

func newVendorScraper(source, baseURL, loginURL string, pool *BrowserPool, snapshots interfaces.SnapshotStore, config *common.ScrapersConfig, logger arbor.ILogger) (*vendorScraper, error) {
	profile, err := LoadProfile(source)
	if err != nil {
		return nil, err
	}

	perSecond := config.RateLimit
	if perSecond <= 0 {
		perSecond = 0.5
	}
	if loginURL == "" {
		loginURL = strings.TrimRight(baseURL, "/") + profile.Login.Path
	}

	return &vendorScraper{
		source:    source,
		baseURL:   strings.TrimRight(baseURL, "/"),
		loginURL:  loginURL,
		profile:   profile,
		pool:      pool,
		snapshots: snapshots,
		config:    config,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:    logger,
	}, nil
}

// ErrLoginFailed wraps any rejected or timed-out vendor login. Bad
// credentials never fix themselves, so these are not retried.
var ErrLoginFailed = errors.New("login failed")

// navigate loads a page through the rate limiter and returns its HTML.
// A CAPTCHA on the page aborts the whole vendor run: the screenshot is
// spooled for inspection and ErrCaptchaDetected comes back so callers
// skip retries.
func (v *vendorScraper) navigate(tab context.Context, url, userID string) (string, error) {
	if err := v.limiter.Wait(tab); err != nil {
		return "", err
	}

	html, err := capturePage(tab, url, v.config.NavDelay)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", url, err)
	}

	if ContainsCaptcha(html) {
		v.spoolScreenshot(tab, userID, url, "captcha challenge")
		v.logger.Warn().Str("url", url).Msg("CAPTCHA detected, aborting vendor run")
		return "", ErrCaptchaDetected
	}
	return html, nil
}

// login signs in to the vendor dashboard using the selector profile.
func (v *vendorScraper) login(tab context.Context, creds interfaces.ScraperCredentials) error {
	if _, err := v.navigate(tab, v.loginURL, ""); err != nil {
		return err
	}

	timeout := v.config.ElementTimeout
	if err := fillFirst(tab, v.profile.Login.Username, creds.Username, timeout); err != nil {
		return fmt.Errorf("username field not found on login page: %w", err)
	}
	if err := fillFirst(tab, v.profile.Login.Password, creds.Password, timeout); err != nil {
		return fmt.Errorf("password field not found on login page: %w", err)
	}
	if err := clickFirst(tab, v.profile.Login.Submit, timeout); err != nil {
		return fmt.Errorf("login button not found: %w", err)
	}

	if _, err := waitFirst(tab, v.profile.Login.Success, v.config.PageLoadTimeout); err != nil {
		// Pull any visible error message before giving up.
		if page, herr := currentHTML(tab); herr == nil {
			if ContainsCaptcha(page) {
				v.spoolScreenshot(tab, "", v.loginURL, "captcha challenge at login")
				return ErrCaptchaDetected
			}
			if doc, derr := newDocument(page); derr == nil {
				if msg := textFirst(doc.Selection, v.profile.Login.Error); msg != "" {
					v.spoolScreenshot(tab, "", v.loginURL, "login rejected")
					return fmt.Errorf("%w: %s", ErrLoginFailed, msg)
				}
			}
		}
		v.spoolScreenshot(tab, "", v.loginURL, "login timed out")
		return fmt.Errorf("%w: dashboard did not load after submit", ErrLoginFailed)
	}

	v.logger.Info().Msg("Login successful")
	return nil
}

// withRetry runs op with exponential backoff. CAPTCHA detection and
// context cancellation are permanent; retrying them only burns the
// vendor's goodwill.
func (v *vendorScraper) withRetry(ctx context.Context, description string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 30 * time.Second

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		v.logger.Warn().Err(err).Int("attempt", attempt).Msgf("%s failed, retrying", description)
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
}

// isPermanent reports whether err should never be retried.
func isPermanent(err error) bool {
	return errors.Is(err, ErrCaptchaDetected) ||
		errors.Is(err, ErrLoginFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// spoolPage archives raw page HTML plus a markdown rendering so a
// scrape can be inspected or re-parsed without revisiting the vendor.
func (v *vendorScraper) spoolPage(userID, externalID, kind, url, html string) {
	if v.snapshots == nil {
		return
	}

	markdown := ""
	converter := md.NewConverter(v.baseURL, true, nil)
	if converted, err := converter.ConvertString(html); err == nil {
		markdown = converted
	}

	snap := &models.ScrapeSnapshot{
		Source:     v.source,
		UserID:     userID,
		ExternalID: externalID,
		Kind:       kind,
		URL:        url,
		PageHTML:   html,
		Markdown:   markdown,
	}
	if err := v.snapshots.SaveSnapshot(snap); err != nil {
		v.logger.Warn().Err(err).Str("kind", kind).Msg("Failed to spool page snapshot")
	}
}

// spoolScreenshot captures the current tab and archives it. Used on
// CAPTCHA hits and login failures where the HTML alone rarely explains
// what the page looked like.
func (v *vendorScraper) spoolScreenshot(tab context.Context, userID, url, note string) {
	if v.snapshots == nil {
		return
	}

	shot, err := captureScreenshot(tab)
	if err != nil {
		v.logger.Warn().Err(err).Msg("Failed to capture error screenshot")
		return
	}

	snap := &models.ScrapeSnapshot{
		Source:     v.source,
		UserID:     userID,
		Kind:       models.SnapshotKindScreenshot,
		URL:        url,
		Screenshot: shot,
		Note:       note,
	}
	if err := v.snapshots.SaveSnapshot(snap); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to spool screenshot")
	}
}

// detailURL builds the vendor detail page URL for an external ID.
func (v *vendorScraper) detailURL(externalID string) string {
	return v.baseURL + fmt.Sprintf(v.profile.Detail.Path, externalID)
}

// listURL is the vendor's session or round index page.
func (v *vendorScraper) listURL() string {
	return v.baseURL + v.profile.List.Path
}

// extractItemID pulls the vendor's ID for a list entry, first from the
// profile's attribute chain, then from any anchor href containing the
// profile's link fragment.
func (v *vendorScraper) extractItemID(item *goquery.Selection) string {
	if id := attrFirst(item, v.profile.List.IDAttrs); id != "" {
		return id
	}
	if v.profile.List.Link == "" {
		return ""
	}
	href, ok := item.Find("a").First().Attr("href")
	if !ok {
		return ""
	}
	if idx := strings.Index(href, v.profile.List.Link); idx >= 0 {
		id := href[idx+len(v.profile.List.Link):]
		if slash := strings.IndexAny(id, "/?#"); slash >= 0 {
			id = id[:slash]
		}
		return id
	}
	return ""
}
