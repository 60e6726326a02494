package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"funda-scraper/internal/domain/listing"

	"github.com/PuerkitoBio/goquery"
)

type Field string

const (
	FieldLink     Field = "link"
	FieldAddress  Field = "address"
	FieldLocality Field = "locality"
	FieldPrice    Field = "price"
	FieldAgent    Field = "agent"
)

var Fields = []Field{FieldLink, FieldAddress, FieldLocality, FieldPrice, FieldAgent}

const maxPriceTextLen = 40

type FieldResult struct {
	Value    string
	Err      error
	Strategy string
}

// Extractor turns one listing fragment into a Record. Every field has an
// ordered chain of strategies; a field whose chain fails becomes N/A.
type Extractor struct {
	origin *url.URL
	chains map[Field][]Strategy
}

func NewExtractor(baseURL string) (*Extractor, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	e := &Extractor{origin: &url.URL{Scheme: u.Scheme, Host: u.Host}}
	e.chains = map[Field][]Strategy{
		FieldLink: {
			{Name: "tagged-anchor-href", Fn: e.hrefOf(DetailAnchorSelector)},
			{Name: "detail-anchor-href", Fn: e.hrefOf(DetailAnchorAltSelector)},
		},
		FieldAddress: {
			{Name: "tagged-anchor-street", Fn: streetInAnchor},
			{Name: "street-element", Fn: func(frag *goquery.Selection) (string, error) {
				return textOf(frag, StreetAltSelector)
			}},
			{Name: "anchor-text", Fn: anchorText},
		},
		FieldLocality: {
			{Name: "tagged-locality", Fn: func(frag *goquery.Selection) (string, error) {
				return textOf(frag, LocalitySelector)
			}},
			{Name: "locality-class", Fn: func(frag *goquery.Selection) (string, error) {
				return textOf(frag, LocalityAltSelector)
			}},
		},
		FieldPrice: {
			{Name: "tagged-price", Fn: func(frag *goquery.Selection) (string, error) {
				return textOf(frag, PriceSelector)
			}},
			{Name: "price-class", Fn: func(frag *goquery.Selection) (string, error) {
				return textOf(frag, PriceAltSelector)
			}},
			{Name: "currency-scan", Fn: currencyScan},
		},
		FieldAgent: {
			{Name: "agent-link-span", Fn: agentSpan},
		},
	}
	return e, nil
}

func (e *Extractor) Origin() string { return e.origin.String() }

// Chain returns the strategies tried for f, in priority order.
func (e *Extractor) Chain(f Field) []Strategy {
	out := make([]Strategy, len(e.chains[f]))
	copy(out, e.chains[f])
	return out
}

// ExtractFields runs every field chain and keeps the per-field outcome.
func (e *Extractor) ExtractFields(frag *goquery.Selection) map[Field]FieldResult {
	out := make(map[Field]FieldResult, len(Fields))
	for _, f := range Fields {
		var res FieldResult
		for _, s := range e.chains[f] {
			v, err := FirstMatch([]Strategy{s}, frag)
			if err == nil {
				res = FieldResult{Value: v, Strategy: s.Name}
				break
			}
			res.Err = err
		}
		if res.Value == "" && res.Err == nil {
			res.Err = ErrNoStrategyHit
		}
		out[f] = res
	}
	return out
}

// Extract never fails: missing fields are filled with listing.NotAvailable.
func (e *Extractor) Extract(frag *goquery.Selection) listing.Record {
	rec := listing.Blank()
	if frag == nil || frag.Length() == 0 {
		return rec
	}
	fields := e.ExtractFields(frag)
	set := func(dst *string, f Field) {
		if r := fields[f]; r.Err == nil && r.Value != "" {
			*dst = r.Value
		}
	}
	set(&rec.Link, FieldLink)
	set(&rec.Address, FieldAddress)
	set(&rec.Locality, FieldLocality)
	set(&rec.Price, FieldPrice)
	set(&rec.Agent, FieldAgent)
	return rec
}

func (e *Extractor) hrefOf(sel string) func(*goquery.Selection) (string, error) {
	return func(frag *goquery.Selection) (string, error) {
		a := findFirst(frag, sel)
		if a.Length() == 0 {
			return "", ErrNoMatch
		}
		return e.AbsoluteLink(a.AttrOr("href", ""))
	}
}

// AbsoluteLink resolves href against the site origin. Links on another host
// or with a non-http scheme are rejected; http links get the origin's scheme.
func (e *Extractor) AbsoluteLink(href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", ErrEmptyText
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	abs := e.origin.ResolveReference(ref)
	switch strings.ToLower(abs.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: scheme %s", ErrForeignLink, abs.Scheme)
	}
	if !strings.EqualFold(abs.Host, e.origin.Host) {
		return "", fmt.Errorf("%w: %s", ErrForeignLink, abs.Host)
	}
	abs.Scheme = e.origin.Scheme
	abs.Fragment = ""
	return abs.String(), nil
}

func streetInAnchor(frag *goquery.Selection) (string, error) {
	a := findFirst(frag, DetailAnchorSelector)
	if a.Length() == 0 {
		return "", ErrNoMatch
	}
	street := a.Find(StreetSelector).First()
	if street.Length() == 0 {
		return "", ErrNoMatch
	}
	t := joinedText(street, " ")
	if t == "" {
		return "", ErrEmptyText
	}
	return t, nil
}

func anchorText(frag *goquery.Selection) (string, error) {
	for _, sel := range []string{DetailAnchorSelector, DetailAnchorAltSelector} {
		anchors := frag.Find(sel)
		if frag.Is(sel) {
			anchors = frag.AddSelection(anchors)
		}
		var text string
		anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			text = joinedText(a, " ")
			return text == ""
		})
		if text != "" {
			return text, nil
		}
	}
	return "", ErrNoMatch
}

// currencyScan picks the first short leaf text carrying a currency symbol.
func currencyScan(frag *goquery.Selection) (string, error) {
	var found string
	frag.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		t := cleanText(s.Text())
		if t == "" || utf8.RuneCountInString(t) > maxPriceTextLen {
			return true
		}
		if strings.ContainsAny(t, "€$£") {
			found = t
			return false
		}
		return true
	})
	if found == "" {
		return "", ErrNoMatch
	}
	return found, nil
}

func agentSpan(frag *goquery.Selection) (string, error) {
	container := findFirst(frag, AgentContainerSelector)
	if container.Length() == 0 {
		return "", ErrNoMatch
	}
	span := container.Find("a").First().Find("span").First()
	if span.Length() == 0 {
		return "", ErrNoMatch
	}
	t := cleanText(span.Text())
	if t == "" {
		return "", ErrEmptyText
	}
	return t, nil
}
