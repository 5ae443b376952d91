/*
Package portal drives a Chrome instance through the register portal's
announcement search and hands back the listed entries together with the
session needed for detail requests.
*/
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/shanehull/regscraper/internal/dates"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/types"
)

const (
	DefaultURL = "https://www.handelsregister.de/rp_web/welcome.xhtml"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	sectionLink  = `a[title="Registerbekanntmachungen"]`
	fromInput    = `#bekanntMachungenForm\:datum_von_input`
	toInput      = `#bekanntMachungenForm\:datum_bis_input`
	submitButton = `#bekanntMachungenForm\:rrbSuche`

	titleReady = `document.title.includes("Registerbekanntmachungen")`
	notBusy    = `!Array.from(document.querySelectorAll("div")).some(d => d.offsetParent !== null && d.textContent.trim() === "Ihre Anfrage wird bearbeitet")`
)

// NavigationTimeoutError reports a page-load wait that did not finish in time.
type NavigationTimeoutError struct {
	Step string
	Err  error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("navigation timed out while %s: %v", e.Step, e.Err)
}

func (e *NavigationTimeoutError) Unwrap() error {
	return e.Err
}

// Config controls the browser session.
type Config struct {
	URL      string
	Headless bool
	// StepTimeout bounds every page-load wait.
	StepTimeout time.Duration
	// Settle is the pause after the search before the result list is read.
	Settle time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:         DefaultURL,
		Headless:    true,
		StepTimeout: 60 * time.Second,
		Settle:      5 * time.Second,
	}
}

// Client owns one browser tab for the lifetime of a run.
type Client struct {
	cfg         Config
	log         logger.Interface
	browser     context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	started     bool
}

// New prepares the browser. Chrome itself is started lazily by the first action.
func New(cfg Config, log logger.Interface) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultConfig().StepTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "de-DE"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	return &Client{
		cfg:         cfg,
		log:         log.WithComponent("portal"),
		browser:     tabCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
	}
}

// start launches Chrome on the long-lived tab context. Launching it from a
// timeout context would tie the browser's lifetime to that timeout.
func (c *Client) start() error {
	if c.started {
		return nil
	}
	c.log.Debug("Starting the browser", "headless", c.cfg.Headless)
	if err := chromedp.Run(c.browser); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	c.started = true
	return nil
}

// Close shuts the browser down.
func (c *Client) Close() {
	c.log.Debug("Closing the browser")
	c.cancelTab()
	c.cancelAlloc()
}

// Search submits the announcement search for start..end and returns the
// listed entries grouped by date plus the session.
func (c *Client) Search(ctx context.Context, start, end time.Time) (*types.SearchResult, error) {
	from, to := dates.FormatGerman(start), dates.FormatGerman(end)

	if err := c.start(); err != nil {
		return nil, err
	}

	c.log.Debug("Navigating to the portal", "url", c.cfg.URL)
	if err := c.step(ctx, "loading the start page",
		chromedp.Navigate(c.cfg.URL),
		chromedp.WaitVisible(sectionLink, chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	c.log.Debug("Opening the announcement section")
	if err := c.step(ctx, "opening the announcement section",
		chromedp.Click(sectionLink, chromedp.ByQuery, chromedp.NodeVisible),
		poll(titleReady),
		poll(notBusy),
	); err != nil {
		return nil, err
	}

	c.log.Debug("Submitting the search form", "from", from, "to", to)
	if err := c.step(ctx, "submitting the search",
		chromedp.WaitVisible(fromInput, chromedp.ByQuery),
		chromedp.SetValue(fromInput, "", chromedp.ByQuery),
		chromedp.SendKeys(fromInput, from+kb.Escape, chromedp.ByQuery),
		chromedp.SetValue(toInput, "", chromedp.ByQuery),
		chromedp.SendKeys(toInput, to+kb.Escape, chromedp.ByQuery),
		chromedp.Click(submitButton, chromedp.ByQuery),
		poll(notBusy),
	); err != nil {
		return nil, err
	}

	if err := sleep(ctx, c.cfg.Settle); err != nil {
		return nil, err
	}

	var (
		page    string
		cookies []*network.Cookie
	)
	if err := c.step(ctx, "reading the result list",
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	); err != nil {
		return nil, err
	}

	days, viewState, err := ParseResults(page)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		c.log.Info("No announcements found for the date range", "from", from, "to", to)
	}

	return &types.SearchResult{
		Days:    days,
		Session: types.Session{ViewState: viewState, Cookies: httpCookies(cookies)},
	}, nil
}

// Screenshot stores a full-page PNG of the current tab in dir and returns
// its path.
func (c *Client) Screenshot(ctx context.Context, dir string) (string, error) {
	if !c.started {
		return "", errors.New("browser was never started")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory %s: %w", dir, err)
	}

	runCtx, cancel := c.bind(ctx, c.cfg.StepTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path := filepath.Join(dir, "error-"+time.Now().Format("2006-01-02-150405")+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}

	return path, nil
}

// step runs actions in the browser tab under the step timeout. A timeout
// becomes a NavigationTimeoutError; cancellation of ctx is returned as is.
func (c *Client) step(ctx context.Context, name string, actions ...chromedp.Action) error {
	runCtx, cancel := c.bind(ctx, c.cfg.StepTimeout)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NavigationTimeoutError{Step: name, Err: err}
	}
	return fmt.Errorf("failed while %s: %w", name, err)
}

// bind derives a context from the browser tab that also ends when ctx ends.
// The tab context must stay the parent so chromedp finds its target.
func (c *Client) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(c.browser, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func poll(expr string) chromedp.Action {
	var ok bool
	return chromedp.Poll(expr, &ok, chromedp.WithPollingInterval(250*time.Millisecond))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func httpCookies(in []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return out
}
