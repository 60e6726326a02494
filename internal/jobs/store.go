package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"
)

// ResultStore keeps the record set of a finished job outside the registry.
// Put returns an opaque reference that Get and Delete accept.
type ResultStore interface {
	Put(ctx context.Context, jobID string, records []listing.Record) (string, error)
	Get(ctx context.Context, ref string) ([]listing.Record, error)
	Delete(ctx context.Context, ref string) error
}

// FileStore writes one JSON file per job.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("empty result dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(ctx context.Context, jobID string, records []listing.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := jobID + ".json"
	if !validRef(ref) {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	if records == nil {
		records = []listing.Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, ref+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, ref)); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *FileStore) Get(ctx context.Context, ref string) ([]listing.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validRef(ref) {
		return nil, scrapejob.ErrResultNotFound
	}
	b, err := os.ReadFile(filepath.Join(s.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, scrapejob.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	var out []listing.Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", ref, err)
	}
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func validRef(ref string) bool {
	return ref != "" && ref == filepath.Base(ref) && ref != "." && ref != ".." && !strings.ContainsAny(ref, `/\`)
}
