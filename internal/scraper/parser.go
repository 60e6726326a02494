package scraper

import (
	"fmt"
	"strings"

	"funda-scraper/internal/domain/listing"

	"github.com/PuerkitoBio/goquery"
)

const maxCardClimb = 6

// Locator finds listing fragments in a whole page.
type Locator struct {
	Name string
	Find func(root *goquery.Selection) []*goquery.Selection
}

type Parser struct {
	extractor *Extractor
	locators  []Locator
}

func NewParser(extractor *Extractor) *Parser {
	return &Parser{
		extractor: extractor,
		locators: []Locator{
			{Name: "tagged-card", Find: bySelector(CardSelector)},
			{Name: "loose-card", Find: bySelector(CardSelectorLoose)},
			{Name: "card-class-set", Find: bySelector(CardSelectorClassSet)},
			{Name: "anchor-walk-up", Find: anchorFragments},
		},
	}
}

func (p *Parser) Locators() []Locator {
	out := make([]Locator, len(p.locators))
	copy(out, p.locators)
	return out
}

// Parse never fails on bad markup: unparseable or empty input yields an
// empty page.
func (p *Parser) Parse(markup string) listing.PageResult {
	res := listing.PageResult{Records: []listing.Record{}}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return res
	}
	res.Title = cleanText(doc.Find("title").First().Text())
	frags, _ := p.Fragments(doc.Selection)
	for _, frag := range frags {
		res.Records = append(res.Records, p.extractor.Extract(frag))
	}
	return res
}

// ParseSnapshot parses a fetched page and applies block detection.
func (p *Parser) ParseSnapshot(snap PageSnapshot) listing.PageResult {
	res := p.Parse(snap.HTML)
	if t := cleanText(snap.Title); t != "" {
		res.Title = t
	}
	res.FinalURL = snap.URL
	if reason := DetectBlock(res.Title, snap.HTML, len(res.Records)); reason != "" {
		res.Blocked = true
	}
	return res
}

// Fragments returns the fragments of the first locator that finds any,
// together with that locator's name.
func (p *Parser) Fragments(root *goquery.Selection) ([]*goquery.Selection, string) {
	for _, l := range p.locators {
		frags, err := l.run(root)
		if err != nil || len(frags) == 0 {
			continue
		}
		return frags, l.Name
	}
	return nil, ""
}

func (l Locator) run(root *goquery.Selection) (frags []*goquery.Selection, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags = nil
			err = fmt.Errorf("locator %s panicked: %v", l.Name, r)
		}
	}()
	if l.Find == nil {
		return nil, ErrNoMatch
	}
	return l.Find(root), nil
}

// bySelector keeps the innermost matches that hold at most one distinct
// detail link, so wrappers and list containers never count as cards.
func bySelector(sel string) func(*goquery.Selection) []*goquery.Selection {
	return func(root *goquery.Selection) []*goquery.Selection {
		var out []*goquery.Selection
		root.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if s.Find(sel).Length() > 0 {
				return
			}
			if distinctDetailLinks(s) > 1 {
				return
			}
			out = append(out, s)
		})
		return out
	}
}

// anchorFragments rebuilds cards from detail links when no card container is
// recognised. Each distinct link climbs to the widest ancestor that holds no
// other distinct link, so k links give k fragments.
func anchorFragments(root *goquery.Selection) []*goquery.Selection {
	anchors := root.Find(DetailAnchorSelector)
	if anchors.Length() == 0 {
		anchors = root.Find(DetailAnchorAltSelector)
	}
	seen := map[string]struct{}{}
	var out []*goquery.Selection
	anchors.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		out = append(out, climbToCard(a))
	})
	return out
}

func climbToCard(a *goquery.Selection) *goquery.Selection {
	node := a
	for i := 0; i < maxCardClimb; i++ {
		parent := node.Parent()
		if parent.Length() == 0 || parent.Is("body, html") {
			break
		}
		if distinctDetailLinks(parent) > 1 {
			break
		}
		node = parent
	}
	return node
}

func distinctDetailLinks(s *goquery.Selection) int {
	hrefs := map[string]struct{}{}
	s.Find(DetailAnchorSelector + ", " + DetailAnchorAltSelector).Each(func(_ int, a *goquery.Selection) {
		if h := strings.TrimSpace(a.AttrOr("href", "")); h != "" {
			hrefs[h] = struct{}{}
		}
	})
	return len(hrefs)
}
