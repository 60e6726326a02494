package scraper

import (
	"strings"
	"testing"

	"funda-scraper/internal/domain/listing"
	"github.com/PuerkitoBio/goquery"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(newTestExtractor(t))
}

func TestParse_PrimaryCardsKeepOrder(t *testing.T) {
	p := newTestParser(t)
	res := p.Parse(pageHTML("Koophuizen in Amsterdam", cards(3, 1, 2)...))

	if len(res.Records) != 3 {
		t.Fatalf("expected 3 records got %d", len(res.Records))
	}
	for i, want := range []string{"Keizersgracht 3 A", "Keizersgracht 1 A", "Keizersgracht 2 A"} {
		if res.Records[i].Address != want {
			t.Fatalf("record %d: expected %q got %q", i, want, res.Records[i].Address)
		}
	}
	if res.Title != "Koophuizen in Amsterdam" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if res.Blocked {
		t.Fatalf("parse must not assert blocked")
	}
}

func TestParse_ClassSetToleratesOrder(t *testing.T) {
	p := newTestParser(t)
	markup := `<html><body>
<div class="pb-3 @container border-b"><a data-testid="listingDetailsAddress" href="/detail/1/">A 1</a></div>
<div class="border-b pb-3 @container"><a data-testid="listingDetailsAddress" href="/detail/2/">A 2</a></div>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	frags, locator := p.Fragments(doc.Selection)
	if locator != "card-class-set" {
		t.Fatalf("expected card-class-set locator got %q", locator)
	}
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments got %d", len(frags))
	}
}

func TestParse_LooseCardsSkipWrappers(t *testing.T) {
	p := newTestParser(t)
	markup := `<html><body>
<ul data-testid="search-result-list">
  <li data-testid="search-result-card"><a href="/detail/1/">A 1</a></li>
  <li data-testid="search-result-card"><a href="/detail/2/">A 2</a></li>
  <li data-testid="search-result-card"><a href="/detail/3/">A 3</a></li>
</ul>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	frags, locator := p.Fragments(doc.Selection)
	if locator != "loose-card" {
		t.Fatalf("expected loose-card locator got %q", locator)
	}
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments got %d", len(frags))
	}

	res := p.Parse(markup)
	seen := map[string]bool{}
	for _, r := range res.Records {
		if seen[r.Link] {
			t.Fatalf("duplicate record %s", r.Link)
		}
		seen[r.Link] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct records got %+v", res.Records)
	}
}

func TestParse_ResultsWrapperFallsThroughToClassSet(t *testing.T) {
	p := newTestParser(t)
	markup := `<html><body>
<div data-testid="search-results">
  <div class="@container border-b pb-3"><a data-testid="listingDetailsAddress" href="/detail/1/">A 1</a></div>
  <div class="@container border-b pb-3"><a data-testid="listingDetailsAddress" href="/detail/2/">A 2</a></div>
  <div class="@container border-b pb-3"><a data-testid="listingDetailsAddress" href="/detail/3/">A 3</a></div>
</div>
</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, locator := p.Fragments(doc.Selection); locator != "card-class-set" {
		t.Fatalf("expected card-class-set locator got %q", locator)
	}

	res := p.Parse(markup)
	want := []string{"/detail/1/", "/detail/2/", "/detail/3/"}
	if len(res.Records) != len(want) {
		t.Fatalf("expected %d records got %d", len(want), len(res.Records))
	}
	for i, r := range res.Records {
		if r.Link != testBaseURL+want[i] {
			t.Fatalf("record %d: expected %s got %s", i, testBaseURL+want[i], r.Link)
		}
	}
}

func TestParseSnapshot_CaptchaWidgetOnResultsPage(t *testing.T) {
	p := newTestParser(t)
	footer := `<footer><div class="g-recaptcha" data-sitekey="x"></div></footer>`

	res := p.ParseSnapshot(PageSnapshot{HTML: pageHTML("Koophuizen", append(cards(1, 2), footer)...), URL: testBaseURL})
	if res.Blocked || len(res.Records) != 2 {
		t.Fatalf("expected 2 records and not blocked, got blocked=%t records=%d", res.Blocked, len(res.Records))
	}

	res = p.ParseSnapshot(PageSnapshot{HTML: pageHTML("funda", footer), URL: testBaseURL})
	if !res.Blocked {
		t.Fatalf("expected a widget-only page to be blocked")
	}
}

func TestParse_AnchorWalkUpYieldsOnePerLink(t *testing.T) {
	p := newTestParser(t)
	markup := `<html><head><title>Zoeken</title></head><body><section><ul>
<li><div><a href="/detail/koop/a/1/"><img alt=""></a><a href="/detail/koop/a/1/">Damrak 1</a></div><span>€ 100.000 k.k.</span></li>
<li><div><a href="/detail/koop/a/2/">Damrak 2</a></div><span>€ 200.000 k.k.</span></li>
<li><div><a href="/detail/koop/a/3/">Damrak 3</a></div><span>€ 300.000 k.k.</span></li>
</ul></section></body></html>`

	res := p.Parse(markup)
	if len(res.Records) != 3 {
		t.Fatalf("expected 3 records got %d: %+v", len(res.Records), res.Records)
	}
	for i, r := range res.Records {
		if !listing.IsAvailable(r.Link) || !listing.IsAvailable(r.Price) {
			t.Fatalf("record %d missing link or price: %+v", i, r)
		}
	}
	if res.Records[1].Price != "€ 200.000 k.k." {
		t.Fatalf("walk-up mixed cards: %+v", res.Records[1])
	}
	if res.Records[0].Address != "Damrak 1" {
		t.Fatalf("unexpected address %q", res.Records[0].Address)
	}
}

func TestParse_NoFragments(t *testing.T) {
	p := newTestParser(t)
	for _, markup := range []string{"", "<html><body><p>Geen resultaten</p></body></html>", "<<<not html"} {
		res := p.Parse(markup)
		if !res.Empty() {
			t.Fatalf("expected empty page for %q", markup)
		}
		if res.Blocked {
			t.Fatalf("empty page must not be marked blocked")
		}
	}
}

func TestParseSnapshot_SetsMetadataAndBlocked(t *testing.T) {
	p := newTestParser(t)
	res := p.ParseSnapshot(PageSnapshot{
		HTML:  pageHTML("Je bent bijna op de pagina die je zoekt"),
		Title: "Je bent bijna op de pagina die je zoekt",
		URL:   testBaseURL + "/zoeken/koop?search_result=2",
	})
	if !res.Blocked {
		t.Fatalf("expected blocked")
	}
	if res.FinalURL != testBaseURL+"/zoeken/koop?search_result=2" {
		t.Fatalf("unexpected final url %q", res.FinalURL)
	}

	res = p.ParseSnapshot(PageSnapshot{HTML: pageHTML("Koophuizen", cards(1)...), URL: testBaseURL})
	if res.Blocked || len(res.Records) != 1 || res.Title != "Koophuizen" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParser_LocatorOrder(t *testing.T) {
	var names []string
	for _, l := range newTestParser(t).Locators() {
		names = append(names, l.Name)
	}
	if strings.Join(names, ",") != "tagged-card,loose-card,card-class-set,anchor-walk-up" {
		t.Fatalf("unexpected locator order %v", names)
	}
}
