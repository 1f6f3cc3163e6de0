// Package snapshot captures PNG screenshots of dashboard views with a
// headless browser.
package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"

	"housing-explorer/config"
	"housing-explorer/utils"
)

// View is one dashboard state to capture.
type View struct {
	Name string
	URL  string
}

// Capturer renders dashboard views in headless Chrome and saves them as PNGs.
type Capturer struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.StringSet
	retry  *utils.RetryConfig

	mu    sync.Mutex
	saved []string
	errs  []error
}

// New creates a ready-to-use Capturer.
func New(cfg *config.Config, logger *utils.Logger) *Capturer {
	return &Capturer{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seen:   utils.NewStringSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

// Views builds the dashboard views to capture under baseURL: one overview
// with summary and charts, plus one per city narrowed to that city.
func Views(baseURL string, cities []string) ([]View, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse base url: %w", err)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	build := func(name string, q url.Values) View {
		u := *base
		q.Set("summary", "1")
		q.Set("charts", "1")
		u.RawQuery = q.Encode()
		return View{Name: name, URL: u.String()}
	}

	used := map[string]bool{"overview": true}
	views := []View{build("overview", url.Values{})}
	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		views = append(views, build(uniqueName(Slug(city), used), url.Values{
			"city":          {city},
			"selected_city": {city},
		}))
	}
	return views, nil
}

// Capture saves a full-page screenshot of every view into the configured
// snapshot directory and returns the written file paths. Repeated URLs are
// captured once.
func (c *Capturer) Capture(ctx context.Context, views []View) ([]string, error) {
	if err := os.MkdirAll(c.cfg.SnapshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create output dir: %w", err)
	}

	chromeBin := findChromeBinary(c.cfg.ChromeBin)
	c.logger.Info("[snapshot] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1440, 900),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	for _, view := range views {
		v := view
		if !c.seen.Add(v.URL) {
			c.logger.Debug("[snapshot] Skipping repeated view %s", v.URL)
			continue
		}
		c.pool.Submit(func() {
			path, err := c.captureView(browserCtx, v)
			c.mu.Lock()
			defer c.mu.Unlock()
			if err != nil {
				c.logger.Warn("[snapshot] %s failed: %v", v.Name, err)
				c.errs = append(c.errs, fmt.Errorf("%s: %w", v.Name, err))
				return
			}
			c.logger.Info("[snapshot] Saved %s → %s", v.URL, path)
			c.saved = append(c.saved, path)
		})
	}
	c.pool.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.saved) == 0 && len(c.errs) > 0 {
		return nil, fmt.Errorf("snapshot: every capture failed, first error: %w", c.errs[0])
	}
	return c.saved, nil
}

func (c *Capturer) captureView(browserCtx context.Context, v View) (string, error) {
	var png []byte

	err := c.retry.Do(browserCtx, "capture-"+v.Name, func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(v.URL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.FullScreenshot(&png, 90),
		)
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.cfg.SnapshotDir, v.Name+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// uniqueName returns name, or name with the first free numeric suffix when
// it is already taken, and marks the result as used. An empty name becomes
// "city".
func uniqueName(name string, used map[string]bool) string {
	if name == "" {
		name = "city"
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	used[candidate] = true
	return candidate
}

// Slug turns a city name into a file-name-safe token.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured one.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
