package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"
)

func TestFileStore_RoundTripAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "results"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	recs := []listing.Record{{Link: "https://www.funda.nl/detail/1/", Address: "Damrak 1", Locality: listing.NotAvailable, Price: "€ 1", Agent: listing.NotAvailable}}

	ref, err := s.Put(ctx, "job-1", recs)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0] != recs[0] {
		t.Fatalf("unexpected records %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "results"))
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, temp files left behind: %d", len(entries))
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, ref); !errors.Is(err, scrapejob.ErrResultNotFound) {
		t.Fatalf("expected scrapejob.ErrResultNotFound got %v", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestFileStore_EmptyResultIsArray(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref, err := s.Put(context.Background(), "empty", nil)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(context.Background(), ref)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice got %#v err=%v", got, err)
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Put(context.Background(), "../escape", nil); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if _, err := s.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, scrapejob.ErrResultNotFound) {
		t.Fatalf("expected scrapejob.ErrResultNotFound got %v", err)
	}
}
