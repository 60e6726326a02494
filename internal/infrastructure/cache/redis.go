package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"funda-scraper/internal/config"
	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "funda:scrape:result:"

type Redis struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedis connects and pings. Results must not be silently dropped, so an
// unreachable server is an error here.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *log.Logger) (*Redis, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unavailable: %w", addr, err)
	}
	if logger != nil {
		logger.Printf("[Cache] Redis connected addr=%s db=%d", addr, cfg.DB)
	}
	return &Redis{client: client, logger: logger}, nil
}

func NewRedisFromClient(client *redis.Client, logger *log.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis unavailable")
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.logf("[Cache] Redis get error key=%s err=%v", key, err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key. ttl <= 0 keeps the key until deleted.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.logf("[Cache] Redis set error key=%s err=%v", key, err)
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logf("[Cache] Redis delete error key=%s err=%v", key, err)
		return err
	}
	return nil
}

func (r *Redis) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// ResultStore keeps job results as JSON values keyed by job id.
type ResultStore struct {
	redis *Redis
	ttl   time.Duration
}

func NewResultStore(r *Redis, ttl time.Duration) *ResultStore {
	return &ResultStore{redis: r, ttl: ttl}
}

func ResultKey(jobID string) string { return resultKeyPrefix + jobID }

func (s *ResultStore) Put(ctx context.Context, jobID string, records []listing.Record) (string, error) {
	if records == nil {
		records = []listing.Record{}
	}
	key := ResultKey(jobID)
	if err := s.redis.SetJSON(ctx, key, records, s.ttl); err != nil {
		return "", err
	}
	return key, nil
}

func (s *ResultStore) Get(ctx context.Context, ref string) ([]listing.Record, error) {
	if !strings.HasPrefix(ref, resultKeyPrefix) {
		return nil, scrapejob.ErrResultNotFound
	}
	var out []listing.Record
	found, err := s.redis.GetJSON(ctx, ref, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, scrapejob.ErrResultNotFound
	}
	return out, nil
}

func (s *ResultStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, resultKeyPrefix) {
		return nil
	}
	return s.redis.Delete(ctx, ref)
}
