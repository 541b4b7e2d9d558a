package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"ct-housing-dashboard/config"
	"ct-housing-dashboard/models"
	"ct-housing-dashboard/utils"
)

// metrics lists the map views to snapshot, one PNG each.
var metrics = []models.Metric{
	models.MetricMedianPrice,
	models.MetricSalesVolume,
	models.MetricYoYChange,
}

// Capturer renders the running dashboard in headless Chrome and saves
// one PNG per map metric.
type Capturer struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// New creates a ready-to-use Capturer.
func New(cfg *config.Config, logger *utils.Logger) *Capturer {
	return &Capturer{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.CaptureConcurrency, cfg.CaptureRateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.CaptureRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Run snapshots every metric view of the dashboard at baseURL into
// outDir. Snapshots run through the pool so the browser is never asked
// for more than the configured number of pages at once.
func (c *Capturer) Run(baseURL, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("capture: create output dir: %w", err)
	}

	chromeBin := findChromeBinary(c.cfg.ChromeBin)
	c.logger.Info("[capture] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelSilent()
	allocCtx = silentCtx

	var mu sync.Mutex
	var firstErr error

	for _, metric := range metrics {
		metric := metric
		c.pool.Submit(func() {
			url := fmt.Sprintf("%s/?metric=%s", baseURL, metric)
			out := filepath.Join(outDir, fmt.Sprintf("dashboard_%s.png", metric))
			err := c.retry.Do("capture "+string(metric), func() error {
				return c.snapshot(allocCtx, url, out)
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}
	c.pool.Wait()

	return firstErr
}

// snapshot renders one page in its own tab and writes the screenshot.
func (c *Capturer) snapshot(allocCtx context.Context, url, path string) error {
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(1440, 1000),
		chromedp.Navigate(url),
		// The map is the last panel to paint; wait for its paths.
		chromedp.WaitVisible("#map svg path", chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return fmt.Errorf("capture: render %s: %w", url, err)
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("capture: write %s: %w", path, err)
	}
	c.logger.Info("[capture] Saved %s", path)
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
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
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
