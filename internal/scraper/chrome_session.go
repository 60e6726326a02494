package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeSession drives one headless Chrome instance.
type ChromeSession struct {
	cfg    SessionConfig
	logger *log.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

// NewChromeSession launches the browser and applies the disguise measures.
// The browser outlives ctx; Close releases it.
func NewChromeSession(ctx context.Context, cfg SessionConfig, logger *log.Logger) (*ChromeSession, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg = cfg.withDefaults()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), StealthAllocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		cfg:           cfg,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}

	// The first Run starts the browser and must use browserCtx itself.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx, prepareSession(cfg)) }()
	select {
	case err := <-started:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	}
	logger.Printf("session=chrome step=launch status=ok headless=%t", cfg.Headless)
	return s, nil
}

func (s *ChromeSession) OpenOrigin(ctx context.Context) error {
	err := s.cfg.retryPolicy().Do(ctx, s.logger, "open_origin", func(ctx context.Context) error {
		return s.run(ctx, s.cfg.PageTimeout, chromedp.Navigate(s.cfg.BaseURL))
	})
	if err != nil {
		return err
	}
	s.dismissConsent(ctx)
	return nil
}

func (s *ChromeSession) GotoPage(ctx context.Context, pageURL string) (PageSnapshot, error) {
	snap := PageSnapshot{URL: pageURL}
	err := s.cfg.retryPolicy().Do(ctx, s.logger, "goto_page", func(ctx context.Context) error {
		return s.run(ctx, s.cfg.PageTimeout, chromedp.Navigate(pageURL))
	})
	if err != nil {
		return snap, err
	}

	if err := s.run(ctx, s.cfg.WaitTimeout, chromedp.WaitVisible(s.cfg.WaitSelector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return snap, ctx.Err()
		}
		s.logger.Printf("session=chrome step=wait_listings status=timeout url=%s", pageURL)
	}

	err = s.run(ctx, s.cfg.PageTimeout,
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.OuterHTML("html", &snap.HTML, chromedp.ByQuery),
		chromedp.Title(&snap.Title),
		chromedp.Location(&snap.URL),
	)
	if err != nil {
		if ctx.Err() != nil {
			return snap, ctx.Err()
		}
		return snap, fmt.Errorf("%w: read %s: %w", ErrNavigation, pageURL, err)
	}
	return snap, nil
}

func (s *ChromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.browserCtx != nil {
			err = chromedp.Cancel(s.browserCtx)
		}
		if s.browserCancel != nil {
			s.browserCancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
	})
	return err
}

// run executes actions against the browser, bounded by timeout and by the
// caller's ctx.
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// dismissConsent never fails: the overlay may be absent or already accepted.
func (s *ChromeSession) dismissConsent(ctx context.Context) {
	primary := consentSelectors[0]
	err := s.run(ctx, s.cfg.ConsentTimeout,
		chromedp.WaitVisible(primary, chromedp.ByQuery),
		chromedp.Click(primary, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
	)
	if err == nil {
		s.logger.Printf("session=chrome step=consent status=ok via=%s", primary)
		return
	}

	var clicked string
	if err := s.run(ctx, 5*time.Second, chromedp.Evaluate(consentScript(), &clicked)); err != nil {
		s.logger.Printf("session=chrome step=consent status=skipped err=%v", err)
		return
	}
	if clicked == "" {
		s.logger.Printf("session=chrome step=consent status=absent")
		return
	}
	_ = s.run(ctx, 2*time.Second, chromedp.Sleep(time.Second))
	s.logger.Printf("session=chrome step=consent status=ok via=%q", clicked)
}

// consentScript clicks the first visible accept control and returns what it
// matched, or "".
func consentScript() string {
	sels, _ := json.Marshal(consentSelectors[1:])
	texts, _ := json.Marshal(consentButtonTexts)
	return fmt.Sprintf(`(function() {
  const selectors = %s;
  const texts = %s;
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el && el.offsetParent !== null) { el.click(); return sel; }
  }
  const buttons = document.querySelectorAll('button, a[role="button"], div[role="button"]');
  for (const want of texts) {
    for (const b of buttons) {
      const t = (b.innerText || b.textContent || '').trim();
      if (t === want && b.offsetParent !== null) { b.click(); return t; }
    }
  }
  return "";
})()`, sels, texts)
}
