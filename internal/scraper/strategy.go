package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrNoMatch       = errors.New("no element matched")
	ErrEmptyText     = errors.New("matched element has no text")
	ErrForeignLink   = errors.New("link is not rooted at the site origin")
	ErrNoStrategyHit = errors.New("all strategies failed")
)

// Strategy is one way of reading a value out of a listing fragment.
type Strategy struct {
	Name string
	Fn   func(frag *goquery.Selection) (string, error)
}

// FirstMatch runs the chain in order and returns the first non-empty value.
// The returned error joins the failure of every strategy that was tried.
func FirstMatch(chain []Strategy, frag *goquery.Selection) (string, error) {
	var errs []error
	for _, s := range chain {
		v, err := s.apply(frag)
		if err == nil {
			v = cleanText(v)
			if v != "" {
				return v, nil
			}
			err = ErrEmptyText
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	if len(errs) == 0 {
		return "", ErrNoStrategyHit
	}
	return "", fmt.Errorf("%w: %w", ErrNoStrategyHit, errors.Join(errs...))
}

func (s Strategy) apply(frag *goquery.Selection) (v string, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = ""
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	if s.Fn == nil || frag == nil {
		return "", ErrNoMatch
	}
	return s.Fn(frag)
}

// findFirst looks for sel in frag, including frag itself.
func findFirst(frag *goquery.Selection, sel string) *goquery.Selection {
	if frag.Is(sel) {
		return frag.First()
	}
	return frag.Find(sel).First()
}

func textOf(frag *goquery.Selection, sel string) (string, error) {
	el := findFirst(frag, sel)
	if el.Length() == 0 {
		return "", ErrNoMatch
	}
	t := cleanText(el.Text())
	if t == "" {
		return "", ErrEmptyText
	}
	return t, nil
}

// joinedText joins every descendant text node with sep, so adjacent
// block elements do not run together.
func joinedText(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := cleanText(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return strings.Join(parts, sep)
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
