package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockedTitleMarkers = []string{
	"je bent bijna op de pagina",
	"access denied",
	"just a moment",
	"attention required",
	"are you a robot",
	"captcha",
}

// Markers only a challenge page carries.
var blockedMarkupMarkers = []string{
	"cf-challenge",
	"cf_chl_opt",
	"px-captcha",
	"je bent bijna op de pagina",
}

// Embeddable widgets. Regular pages may include them, so they count only
// when the page has no listings.
var captchaWidgetMarkers = []string{
	"challenges.cloudflare.com",
	"g-recaptcha",
	"h-captcha",
}

// DetectBlock reports which marker identified a challenge page, or "" when
// the page looks normal. listings is the number of records parsed from the
// page. It is a heuristic.
func DetectBlock(title, markup string, listings int) string {
	t := strings.ToLower(title)
	for _, m := range blockedTitleMarkers {
		if strings.Contains(t, m) {
			return "title:" + m
		}
	}
	lower := strings.ToLower(markup)
	for _, m := range blockedMarkupMarkers {
		if strings.Contains(lower, m) {
			return "markup:" + m
		}
	}
	if listings > 0 {
		return ""
	}
	for _, m := range captchaWidgetMarkers {
		if strings.Contains(lower, m) {
			return "widget:" + m
		}
	}
	return ""
}

// IsBlocked checks raw markup, counting detail links as listings.
func IsBlocked(markup, title string) bool {
	listings := 0
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		listings = distinctDetailLinks(doc.Selection)
	}
	return DetectBlock(title, markup, listings) != ""
}
