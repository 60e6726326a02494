package scraper

import (
	"context"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7"
)

const stealthScript = `
(function() {
    Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });
    delete Object.getPrototypeOf(navigator).webdriver;
    Object.defineProperty(navigator, 'languages', { get: () => Object.freeze(['nl-NL', 'nl', 'en-US', 'en']), configurable: true });
    Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5], configurable: true });
    if (!window.chrome) {
        Object.defineProperty(window, 'chrome', { value: {}, writable: true, enumerable: true, configurable: false });
    }
    if (!window.chrome.runtime) {
        window.chrome.runtime = {};
    }
    const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
    if (originalQuery) {
        window.navigator.permissions.query = (p) => (
            p && p.name === 'notifications'
                ? Promise.resolve({ state: Notification.permission })
                : originalQuery(p)
        );
    }
})();
`

// launchFlag is one Chrome command-line switch.
type launchFlag struct {
	name  string
	value any
}

// stealthFlags lists the Chrome switches for a session. Images are disabled
// since only markup is read.
func stealthFlags(cfg SessionConfig) []launchFlag {
	lang := strings.SplitN(cfg.AcceptLanguage, ",", 2)[0]
	flags := []launchFlag{
		{"disable-blink-features", "AutomationControlled"},
		{"disable-infobars", true},
		{"no-sandbox", true},
		{"disable-dev-shm-usage", true},
		{"disable-gpu", true},
		{"blink-settings", "imagesEnabled=false"},
		{"lang", lang},
		{"accept-lang", cfg.AcceptLanguage},
	}
	if cfg.Headless {
		flags = append(flags, launchFlag{"headless", "new"})
	}
	return flags
}

// StealthAllocatorOptions are the browser launch options for a session.
func StealthAllocatorOptions(cfg SessionConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.WindowSize(1366, 850),
		chromedp.UserAgent(cfg.UserAgent),
	}
	for _, f := range stealthFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if p := strings.TrimSpace(cfg.ChromePath); p != "" {
		opts = append(opts, chromedp.ExecPath(p))
	}
	return opts
}

// prepareSession runs once per browser, before the first navigation.
func prepareSession(cfg SessionConfig) chromedp.Tasks {
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": cfg.AcceptLanguage}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
}
