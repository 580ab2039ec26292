package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/tanversoccho/EchoTrace/internal/domain"
	"github.com/tanversoccho/EchoTrace/internal/logger"
	"github.com/tanversoccho/EchoTrace/internal/registry"
)

// clickNextScript finds a visible, enabled "next" control among common
// pagination conventions and clicks it, reporting whether one was found.
const clickNextScript = `(() => {
	const candidates = ['.pagination-next', '.next-page', 'a[rel="next"]', '[aria-label="Next"]', 'button.next'];
	for (const sel of candidates) {
		const el = document.querySelector(sel);
		if (el && !el.disabled && el.offsetParent !== null) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// dynamicMaxPages caps click-driven pagination when a site sets no bound.
const dynamicMaxPages = 5

// DynamicFetcher renders script-driven pages in a headless browser. The
// browser allocator lives for the fetcher's lifetime; each Fetch runs in an
// isolated browser context torn down on every exit path.
type DynamicFetcher struct {
	config   FetcherConfig
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewDynamicFetcher creates a dynamic fetcher with a browser allocator.
func NewDynamicFetcher(cfg FetcherConfig) (*DynamicFetcher, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1366, 768),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	logger.Debug("dynamic fetcher browser allocator created", "user_agent", cfg.UserAgent)

	return &DynamicFetcher{
		config:   cfg,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Fetch navigates to the site, optionally logs in, waits for the container
// selector, then extracts records page by page via click-driven pagination.
func (f *DynamicFetcher) Fetch(ctx context.Context, site registry.SiteConfig) ([]domain.RawRecord, error) {
	targetURL := site.TargetURL()
	logger.Debug("dynamic fetch starting", "site", site.Key, "url", targetURL)

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, f.config.Timeout)
	defer cancelNav()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
	); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	if site.Login != nil {
		if err := f.login(browserCtx, site); err != nil {
			return nil, &LoginError{Site: site.Name, Err: err}
		}
	}

	if err := f.waitForContainer(browserCtx, site.Container, f.config.WaitFor); err != nil {
		return nil, fmt.Errorf("container %q never appeared: %w", site.Container, err)
	}

	maxPages := site.MaxPages
	if maxPages <= 0 {
		maxPages = dynamicMaxPages
	}

	var records []domain.RawRecord
	for page := 1; page <= maxPages; page++ {
		pageRecords, err := f.extractPage(browserCtx, site, targetURL)
		if err != nil {
			return nil, err
		}
		logger.Debug("dynamic fetch extracted", "site", site.Key, "page", page, "records", len(pageRecords))
		records = append(records, pageRecords...)

		if page == maxPages {
			break
		}
		clicked, err := f.clickNext(browserCtx)
		if err != nil || !clicked {
			break
		}
		// Fixed settle delay, then wait for the listing to re-render.
		if err := chromedp.Run(browserCtx, chromedp.Sleep(f.config.Settle)); err != nil {
			return records, err
		}
		if err := f.waitForContainer(browserCtx, site.Container, 10*time.Second); err != nil {
			logger.Warn("dynamic fetch stopping pagination", "site", site.Key, "page", page+1, "error", err)
			break
		}
	}

	return records, nil
}

// login types the configured credentials and submits the form. Any failure
// here is fatal for the run.
func (f *DynamicFetcher) login(ctx context.Context, site registry.SiteConfig) error {
	login := site.Login
	logger.Debug("attempting login", "site", site.Key)

	loginCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	var actions []chromedp.Action
	if login.Selectors.Username != "" {
		actions = append(actions, chromedp.SendKeys(login.Selectors.Username, login.Username))
	}
	if login.Selectors.Password != "" {
		actions = append(actions, chromedp.SendKeys(login.Selectors.Password, login.Password))
	}
	if login.Selectors.Submit != "" {
		actions = append(actions, chromedp.Click(login.Selectors.Submit))
	}
	actions = append(actions,
		chromedp.Sleep(f.config.Settle),
		chromedp.WaitReady("body"),
	)

	if err := chromedp.Run(loginCtx, actions...); err != nil {
		return err
	}
	logger.Debug("login complete", "site", site.Key)
	return nil
}

// waitForContainer waits for the container selector to become visible.
func (f *DynamicFetcher) waitForContainer(ctx context.Context, container string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitVisible(container, chromedp.ByQuery))
}

// extractPage snapshots the live DOM and runs the shared field extractor.
func (f *DynamicFetcher) extractPage(ctx context.Context, site registry.SiteConfig, pageURL string) ([]domain.RawRecord, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("failed to read rendered DOM: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered DOM: %w", err)
	}

	return extractAll(doc, site, pageURL, time.Now()), nil
}

// clickNext clicks a visible next-page control if one exists.
func (f *DynamicFetcher) clickNext(ctx context.Context) (bool, error) {
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(clickNextScript, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
