package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"funda-scraper/internal/database"
	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	val []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 1 {
		return fmt.Errorf("scan dest mismatch")
	}
	d, ok := dest[0].(*[]byte)
	if !ok {
		return fmt.Errorf("scan type mismatch")
	}
	*d = r.val
	return nil
}

type fakeDB struct {
	mu      sync.Mutex
	rows    map[string][]byte
	execErr error
	queries []string
}

func newFakeDB() *fakeDB {
	return &fakeDB{rows: map[string][]byte{}}
}

func (db *fakeDB) Ping(ctx context.Context) error { return nil }
func (db *fakeDB) Close() error                   { return nil }

func (db *fakeDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, query)
	if db.execErr != nil {
		return 0, db.execErr
	}
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(q, "create table"):
		return 0, nil
	case strings.HasPrefix(q, "insert into scrape_job_results"):
		db.rows[args[0].(string)] = args[2].([]byte)
		return 1, nil
	case strings.HasPrefix(q, "delete from scrape_job_results"):
		id := args[0].(string)
		if _, ok := db.rows[id]; !ok {
			return 0, nil
		}
		delete(db.rows, id)
		return 1, nil
	}
	return 0, fmt.Errorf("unexpected query %q", query)
}

func (db *fakeDB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: database.ErrNoRows}
	}
	return fakeRow{val: v}
}

func TestResultStore_PutGetDelete(t *testing.T) {
	db := newFakeDB()
	s := NewResultStore(db)
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	recs := []listing.Record{listing.Blank(), {Link: "https://www.funda.nl/detail/1/", Address: "Damrak 1", Locality: "Amsterdam", Price: "€ 1", Agent: listing.NotAvailable}}
	ref, err := s.Put(ctx, "job-1", recs)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ref != "job-1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	got, err := s.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[1] != recs[1] || got[0].Price != listing.NotAvailable {
		t.Fatalf("unexpected records %+v", got)
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, ref); !errors.Is(err, scrapejob.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound got %v", err)
	}
}

func TestResultStore_DescribesPgErrors(t *testing.T) {
	db := newFakeDB()
	db.execErr = &pgconn.PgError{Code: "42P01", Message: `relation "scrape_job_results" does not exist`}
	s := NewResultStore(db)

	_, err := s.Put(context.Background(), "job-2", nil)
	if err == nil || !strings.Contains(err.Error(), "42P01") {
		t.Fatalf("expected sqlstate in error got %v", err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatalf("expected wrapped PgError")
	}
}

func TestResultStore_EmptyJobID(t *testing.T) {
	if _, err := NewResultStore(newFakeDB()).Put(context.Background(), "  ", nil); err == nil {
		t.Fatalf("expected error for empty job id")
	}
}
