package scrapers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
)

// BrowserPool manages pre-warmed Chrome contexts shared by the scrapers.
// Browsers are handed out round-robin; each scrape run opens its own tab
// on the allocated browser so vendor sessions do not bleed into each other.
type BrowserPool struct {
	browsers         []context.Context
	browserCancels   []context.CancelFunc
	allocatorCancels []context.CancelFunc
	mu               sync.Mutex
	currentIndex     int
	logger           arbor.ILogger
	config           *common.ScrapersConfig
	initialized      bool
}

// NewBrowserPool creates a browser pool; call Init before use
func NewBrowserPool(logger arbor.ILogger, config *common.ScrapersConfig) *BrowserPool {
	return &BrowserPool{
		logger: logger,
		config: config,
	}
}

// Init launches the configured number of browser instances. Calling it
// is optional; NewTab initializes the pool on first use.
func (p *BrowserPool) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fmt.Errorf("browser pool already initialized")
	}
	return p.initLocked()
}

// initLocked launches the browser instances (must be called with mutex held).
func (p *BrowserPool) initLocked() error {
	size := p.config.PoolSize
	if size <= 0 {
		size = 1
	}

	p.logger.Info().
		Int("pool_size", size).
		Bool("headless", p.config.Headless).
		Msg("Initializing browser pool")

	opts := allocatorOptions(p.config)
	for i := 0; i < size; i++ {
		if err := p.createInstance(i, opts); err != nil {
			if len(p.browsers) == 0 {
				p.cleanupInstances()
				return fmt.Errorf("failed to create any browser instances: %w", err)
			}
			p.logger.Warn().Err(err).Int("browser_index", i).Msg("Failed to create browser instance")
		}
	}

	p.initialized = true
	p.logger.Info().Int("browsers_created", len(p.browsers)).Msg("Browser pool initialized")
	return nil
}

// createInstance launches one browser and verifies it responds (must be
// called with mutex held).
func (p *BrowserPool) createInstance(index int, opts []chromedp.ExecAllocatorOption) error {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	probeCtx, probeCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer probeCancel()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser instance failed startup probe: %w", err)
	}

	p.browsers = append(p.browsers, browserCtx)
	p.browserCancels = append(p.browserCancels, browserCancel)
	p.allocatorCancels = append(p.allocatorCancels, allocatorCancel)

	p.logger.Debug().Int("browser_index", index).Msg("Browser instance started")
	return nil
}

// NewTab allocates a browser round-robin and opens a fresh tab on it,
// launching the pool on first use. The returned cancel func closes the
// tab only; the browser stays warm.
func (p *BrowserPool) NewTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		if err := p.initLocked(); err != nil {
			return nil, nil, fmt.Errorf("browser pool startup failed: %w", err)
		}
	}
	if len(p.browsers) == 0 {
		return nil, nil, fmt.Errorf("browser pool has no live instances")
	}

	index := p.currentIndex % len(p.browsers)
	p.currentIndex = (p.currentIndex + 1) % len(p.browsers)

	tabCtx, tabCancel := chromedp.NewContext(p.browsers[index])

	// Tie the tab to the caller's context so run cancellation closes it
	stop := context.AfterFunc(ctx, tabCancel)
	cancel := func() {
		stop()
		tabCancel()
	}

	p.logger.Debug().Int("browser_index", index).Msg("Opened scrape tab")
	return tabCtx, cancel, nil
}

// Shutdown closes all browser instances
func (p *BrowserPool) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}

	count := len(p.browsers)
	p.cleanupInstances()
	p.initialized = false

	p.logger.Info().Int("browsers_closed", count).Msg("Browser pool shut down")
	return nil
}

// cleanupInstances tears down all contexts (must be called with mutex held)
func (p *BrowserPool) cleanupInstances() {
	for _, cancel := range p.browserCancels {
		if cancel != nil {
			cancel()
		}
	}
	for _, cancel := range p.allocatorCancels {
		if cancel != nil {
			cancel()
		}
	}
	p.browsers = nil
	p.browserCancels = nil
	p.allocatorCancels = nil
	p.currentIndex = 0
}
