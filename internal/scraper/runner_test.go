package scraper

import (
	"context"
	"errors"
	"testing"
)

func TestRunner_ClosesSessionOnEveryPath(t *testing.T) {
	ok := newFakeSession(map[int][]fakeResponse{1: {listingsPage(1)}})
	failing := newFakeSession(nil)
	failing.openErr = errors.New("consent wall exploded")

	for _, s := range []*fakeSession{ok, failing} {
		r := NewRunner(func(ctx context.Context) (Session, error) { return s, nil }, newTestParser(t), fakePageURL, PaginatorConfig{}, discardLogger())
		_, _ = r.Run(context.Background(), 1)
		if !s.closed {
			t.Fatalf("session not closed")
		}
	}
}

func TestRunner_FactoryFailure(t *testing.T) {
	r := NewRunner(func(ctx context.Context) (Session, error) {
		return nil, errors.New("chrome not found")
	}, newTestParser(t), fakePageURL, PaginatorConfig{}, discardLogger())
	if _, err := r.Run(context.Background(), 1); !errors.Is(err, ErrSessionOpen) {
		t.Fatalf("expected ErrSessionOpen got %v", err)
	}
}

func TestRunner_FreshSessionPerRun(t *testing.T) {
	var made []*fakeSession
	r := NewRunner(func(ctx context.Context) (Session, error) {
		s := newFakeSession(map[int][]fakeResponse{1: {listingsPage(1)}})
		made = append(made, s)
		return s, nil
	}, newTestParser(t), fakePageURL, PaginatorConfig{}, discardLogger())

	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), 1); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(made) != 2 || made[0] == made[1] {
		t.Fatalf("expected two distinct sessions got %d", len(made))
	}
}

func TestNewSessionFactory_UnknownMode(t *testing.T) {
	if _, err := NewSessionFactory("telepathy", SessionConfig{}, discardLogger()); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
