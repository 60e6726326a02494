package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// StaticSession fetches pre-rendered markup over plain HTTP. Cookies set by
// the origin are kept for the whole session.
type StaticSession struct {
	cfg    SessionConfig
	logger *log.Logger
	jar    http.CookieJar
}

func NewStaticSession(cfg SessionConfig, logger *log.Logger) *StaticSession {
	if logger == nil {
		logger = log.Default()
	}
	jar, _ := cookiejar.New(nil)
	return &StaticSession{cfg: cfg.withDefaults(), logger: logger, jar: jar}
}

func (s *StaticSession) OpenOrigin(ctx context.Context) error {
	err := s.cfg.retryPolicy().Do(ctx, s.logger, "open_origin", func(ctx context.Context) error {
		_, err := s.fetch(ctx, s.cfg.BaseURL)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Printf("session=static step=consent status=skipped reason=no_script")
	return nil
}

func (s *StaticSession) GotoPage(ctx context.Context, pageURL string) (PageSnapshot, error) {
	var snap PageSnapshot
	err := s.cfg.retryPolicy().Do(ctx, s.logger, "goto_page", func(ctx context.Context) error {
		var err error
		snap, err = s.fetch(ctx, pageURL)
		return err
	})
	if err != nil {
		return PageSnapshot{URL: pageURL}, err
	}
	return snap, nil
}

func (s *StaticSession) Close() error { return nil }

func (s *StaticSession) fetch(ctx context.Context, pageURL string) (PageSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return PageSnapshot{}, err
	}
	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.ParseHTTPErrorResponse = true
	c.SetRequestTimeout(s.cfg.PageTimeout)
	if s.jar != nil {
		c.SetCookieJar(s.jar)
	}

	referer := originOf(s.cfg.BaseURL)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", s.cfg.AcceptLanguage)
		if referer != "" {
			r.Headers.Set("Referer", referer)
		}
	})

	snap := PageSnapshot{URL: pageURL}
	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		snap.HTML = string(r.Body)
		snap.URL = r.Request.URL.String()
	})
	var reqErr error
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return snap, err
	}
	c.Wait()
	if reqErr != nil {
		return snap, reqErr
	}
	if status >= http.StatusInternalServerError {
		return snap, fmt.Errorf("%s returned status %d", pageURL, status)
	}
	snap.Title = pageTitle(snap.HTML)
	return snap, nil
}

func pageTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return cleanText(doc.Find("title").First().Text())
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
