package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"funda-scraper/internal/database"
	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"

	"github.com/jackc/pgx/v5/pgconn"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS scrape_job_results (
	job_id       TEXT PRIMARY KEY,
	record_count INTEGER NOT NULL,
	records      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ResultStore keeps job results as one JSONB row per job.
type ResultStore struct {
	db database.DB
}

func NewResultStore(db database.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("nil db")
	}
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return describe("ensure schema", err)
	}
	return nil
}

func (s *ResultStore) Put(ctx context.Context, jobID string, records []listing.Record) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", fmt.Errorf("empty job id")
	}
	if records == nil {
		records = []listing.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO scrape_job_results (job_id, record_count, records) VALUES ($1, $2, $3)
		 ON CONFLICT (job_id) DO UPDATE SET record_count = EXCLUDED.record_count, records = EXCLUDED.records`,
		jobID, len(records), payload,
	)
	if err != nil {
		return "", describe("insert result "+jobID, err)
	}
	return jobID, nil
}

func (s *ResultStore) Get(ctx context.Context, ref string) ([]listing.Record, error) {
	var payload []byte
	row := s.db.QueryRow(ctx, `SELECT records FROM scrape_job_results WHERE job_id = $1`, ref)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, scrapejob.ErrResultNotFound
		}
		return nil, describe("select result "+ref, err)
	}
	var out []listing.Record
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", ref, err)
	}
	return out, nil
}

func (s *ResultStore) Delete(ctx context.Context, ref string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM scrape_job_results WHERE job_id = $1`, ref); err != nil {
		return describe("delete result "+ref, err)
	}
	return nil
}

func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %s (sqlstate %s): %w", op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
