package scraper

import (
	"fmt"
	"strings"
)

const testBaseURL = "https://www.funda.nl"

func cardHTML(id int) string {
	return fmt.Sprintf(`
<div data-testid="search-result-item">
  <div class="@container border-b pb-3">
    <a data-testid="listingDetailsAddress" href="/detail/koop/amsterdam/appartement-straat-%[1]d/4300000%[1]d/">
      <div class="flex font-semibold"><span class="truncate">Keizersgracht %[1]d</span> <span>A</span></div>
      <div class="truncate text-neutral-80">1015 AA Amsterdam</div>
    </a>
    <div class="flex"><p data-testid="result-item-price">€ %[1]d50.000 k.k.</p></div>
    <div class="flex w-full justify-between">
      <div>120 m²</div>
      <a href="/makelaar/%[1]d/"><span>Makelaar %[1]d</span></a>
    </div>
  </div>
</div>`, id)
}

func pageHTML(title string, cards ...string) string {
	return fmt.Sprintf(`<!doctype html><html><head><title>%s</title></head><body>
<div class="@container"><main>%s</main></div></body></html>`, title, strings.Join(cards, "\n"))
}

func cards(ids ...int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, cardHTML(id))
	}
	return out
}
