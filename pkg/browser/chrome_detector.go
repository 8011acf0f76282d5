package browser

import (
	"os"
	"runtime"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

var chromeCandidates = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

// FindChrome returns the configured path when it exists, otherwise the first
// known install location for this OS. Empty means let chromedp search PATH.
func FindChrome(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
		logger.Warn("Configured Chrome path not found, falling back to detection", zap.String("path", configured))
	}
	for _, path := range chromeCandidates[runtime.GOOS] {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// AllocatorOptions returns exec allocator flags for the fingerprint.
func AllocatorOptions(fp Fingerprint, headless bool, execPath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("lang", fp.Locale),
		chromedp.UserAgent(fp.UserAgent),
		chromedp.WindowSize(fp.Width, fp.Height),
	}

	if runtime.GOOS == "linux" {
		// containers usually lack a usable sandbox and a large /dev/shm
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-software-rasterizer", true),
		)
	}

	if headless {
		opts = append(opts,
			chromedp.Headless,
			chromedp.Flag("disable-background-timer-throttling", true),
			chromedp.Flag("disable-renderer-backgrounding", true),
			chromedp.Flag("disable-backgrounding-occluded-windows", true),
			chromedp.Flag("disable-features", "TranslateUI"),
			chromedp.Flag("password-store", "basic"),
			chromedp.Flag("use-mock-keychain", true),
		)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}
