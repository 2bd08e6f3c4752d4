package scrapers

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/golfstats/internal/common"
)

// Desktop user agent presented to the vendor dashboards. Matching a real
// browser build avoids the most basic automation checks.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// allocatorOptions builds the Chrome launch flags. The anti-automation
// flags mirror what the vendor dashboards are known to probe for.
func allocatorOptions(config *common.ScrapersConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(defaultUserAgent),

		// Anti-detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("disable-infobars", true),

		// Stability in containers
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),

		chromedp.WindowSize(1920, 1080),
	}

	if config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	return opts
}

// stealthJS papers over the webdriver fingerprints headless Chrome leaves
// behind. Injected after every navigation.
const stealthJS = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
		configurable: true
	});
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
		configurable: true
	});
	if (!window.chrome) window.chrome = {};
	window.chrome.runtime = { id: undefined };
`

func injectStealth(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(stealthJS, nil))
}

// capturePage navigates to url, waits for client-side rendering and
// returns the full page HTML.
func capturePage(ctx context.Context, url string, wait time.Duration) (string, error) {
	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to capture %s: %w", url, err)
	}

	_ = injectStealth(ctx)
	return html, nil
}

// currentHTML returns the page HTML without navigating, for pages mutated
// by clicks.
func currentHTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return html, nil
}

// captureScreenshot takes a full-page screenshot of the current page.
// The clip comes from layout metrics so content below the fold (error
// banners, captcha widgets) lands in the capture too.
func captureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, contentSize, _, _, _, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		if contentSize == nil || contentSize.Width == 0 || contentSize.Height == 0 {
			buf, err = page.CaptureScreenshot().Do(ctx)
			return err
		}
		buf, err = page.CaptureScreenshot().
			WithClip(&page.Viewport{
				X:      contentSize.X,
				Y:      contentSize.Y,
				Width:  contentSize.Width,
				Height: contentSize.Height,
				Scale:  1,
			}).Do(ctx)
		return err
	})
	if err := chromedp.Run(ctx, capture); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// fillFirst types value into the first selector that resolves within
// elementTimeout. Dashboards change markup between deploys, so every
// field carries fallback selectors.
func fillFirst(ctx context.Context, selectors []string, value string, elementTimeout time.Duration) error {
	for _, sel := range selectors {
		fieldCtx, cancel := context.WithTimeout(ctx, elementTimeout)
		err := chromedp.Run(fieldCtx,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, value, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("no matching element for %v", selectors)
}

// clickFirst clicks the first selector that resolves, falling back to a
// JavaScript click when the native click is intercepted by an overlay.
func clickFirst(ctx context.Context, selectors []string, elementTimeout time.Duration) error {
	for _, sel := range selectors {
		clickCtx, cancel := context.WithTimeout(ctx, elementTimeout)
		err := chromedp.Run(clickCtx,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.Click(sel, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}

		jsCtx, jsCancel := context.WithTimeout(ctx, elementTimeout)
		jsErr := chromedp.Run(jsCtx,
			chromedp.Evaluate(fmt.Sprintf(`(() => {
				const el = document.querySelector(%q);
				if (!el) return false;
				el.click();
				return true;
			})()`, sel), nil),
		)
		jsCancel()
		if jsErr == nil {
			return nil
		}
	}
	return fmt.Errorf("no clickable element for %v", selectors)
}

// waitFirst waits until any of the selectors becomes visible, returning
// the one that matched.
func waitFirst(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, sel := range selectors {
			probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := chromedp.Run(probeCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
			cancel()
			if err == nil {
				return sel, nil
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("none of %v appeared within %s", selectors, timeout)
}
