package database

import (
	"context"
	"errors"
)

// DB is the narrow query surface used by the stores, so tests can swap in
// a fake.
type DB interface {
	Ping(ctx context.Context) error
	Close() error

	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type Row interface {
	Scan(dest ...any) error
}

var ErrNoRows = errors.New("no rows in result set")
