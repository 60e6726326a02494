package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultSearchURL = "https://www.funda.nl/zoeken/koop?selected_area=[%22nl%22]&publication_date=%221%22&availability=[%22available%22]"

type Config struct {
	App      AppConfig
	Scraper  ScraperConfig
	Jobs     JobsConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

type AppConfig struct {
	AppName     string `validate:"required"`
	Environment string `validate:"required"`
	HTTPPort    string `validate:"required,numeric"`
}

type ScraperConfig struct {
	BaseURL        string `validate:"required,url"`
	SearchURL      string `validate:"required,url"`
	FetchMode      string `validate:"oneof=dynamic static"`
	Headless       bool
	UserAgent      string
	AcceptLanguage string
	ChromePath     string

	PageTimeout    time.Duration `validate:"gt=0"`
	WaitTimeout    time.Duration `validate:"gt=0"`
	ConsentTimeout time.Duration `validate:"gt=0"`
	SettleDelay    time.Duration `validate:"gte=0"`
	PageDelay      time.Duration `validate:"gte=0"`
	NavRetries     int           `validate:"gte=1,lte=10"`
	RetryBackoff   time.Duration `validate:"gte=0"`

	DefaultPages int `validate:"gte=1,ltefield=MaxPages"`
	MaxPages     int `validate:"gte=1,lte=500"`
}

type JobsConfig struct {
	MaxWorkers  int           `validate:"gte=1,lte=64"`
	QueueSize   int           `validate:"gte=0"`
	Retention   time.Duration `validate:"gte=0"`
	ResultStore string        `validate:"oneof=file redis postgres"`
	ResultDir   string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ResultTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// LoadDotEnv preloads variables from .env files. Missing files are ignored
// and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return def
	}
	optInt := func(key string, def int) int {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDur := func(key string, def time.Duration) time.Duration {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := parseDuration(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "funda-scraper"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8000"),
	}

	cfg.Scraper = ScraperConfig{
		BaseURL:        opt("SCRAPER_BASE_URL", "https://www.funda.nl/"),
		SearchURL:      opt("SCRAPER_SEARCH_URL", DefaultSearchURL),
		FetchMode:      strings.ToLower(opt("SCRAPER_FETCH_MODE", "dynamic")),
		Headless:       optBool("SCRAPER_HEADLESS", true),
		UserAgent:      opt("SCRAPER_USER_AGENT", ""),
		AcceptLanguage: opt("SCRAPER_ACCEPT_LANGUAGE", ""),
		ChromePath:     opt("SCRAPER_CHROME_PATH", ""),
		PageTimeout:    optDur("SCRAPER_PAGE_TIMEOUT", 30*time.Second),
		WaitTimeout:    optDur("SCRAPER_WAIT_TIMEOUT", 15*time.Second),
		ConsentTimeout: optDur("SCRAPER_CONSENT_TIMEOUT", 15*time.Second),
		SettleDelay:    optDur("SCRAPER_SETTLE_DELAY", 2*time.Second),
		PageDelay:      optDur("SCRAPER_PAGE_DELAY", time.Second),
		NavRetries:     optInt("SCRAPER_NAV_RETRIES", 3),
		RetryBackoff:   optDur("SCRAPER_RETRY_BACKOFF", 2*time.Second),
		DefaultPages:   optInt("SCRAPER_DEFAULT_PAGES", 3),
		MaxPages:       optInt("SCRAPER_MAX_PAGES", 50),
	}

	cfg.Jobs = JobsConfig{
		MaxWorkers:  optInt("JOBS_MAX_WORKERS", 2),
		QueueSize:   optInt("JOBS_QUEUE_SIZE", 32),
		Retention:   optDur("JOBS_RETENTION", 0),
		ResultStore: strings.ToLower(opt("RESULT_STORE", "file")),
		ResultDir:   opt("RESULT_DIR", "data/results"),
	}

	cfg.Redis = RedisConfig{
		Password:  opt("REDIS_PASSWORD", ""),
		DB:        optInt("REDIS_DB", 0),
		ResultTTL: optDur("REDIS_RESULT_TTL", 24*time.Hour),
	}

	cfg.Database = DatabaseConfig{
		DBPassword:            opt("DB_PASSWORD", ""),
		DBSSLMode:             opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:        optDur("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 4)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDur("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime:   optDur("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		PoolHealthCheckPeriod: optDur("DB_POOL_HEALTH_CHECK_PERIOD", time.Minute),
	}

	// Backend credentials are only required for the selected store.
	switch cfg.Jobs.ResultStore {
	case "redis":
		cfg.Redis.Addr = req("REDIS_ADDR")
	case "postgres":
		cfg.Database.DBHost = req("DB_HOST")
		cfg.Database.DBPort = opt("DB_PORT", "5432")
		cfg.Database.DBName = req("DB_NAME")
		cfg.Database.DBUser = req("DB_USER")
	}

	cfg.Auth = AuthConfig{
		JWTSecret: opt("API_JWT_SECRET", ""),
		TokenTTL:  optDur("API_TOKEN_TTL", 24*time.Hour),
		Issuer:    opt("API_TOKEN_ISSUER", cfg.App.AppName),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	for _, section := range []any{c.App, c.Scraper, c.Jobs} {
		if err := validate.Struct(section); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				fields := make([]string, 0, len(verrs))
				for _, fe := range verrs {
					fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
				}
				return fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(fields, ", "))
			}
			return err
		}
	}
	return nil
}

// parseDuration accepts Go durations ("1500ms", "2m") and bare seconds.
func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func IsMissingEnv(err error) bool { return errors.Is(err, errMissingRequiredEnv) }

func IsInvalidEnv(err error) bool { return errors.Is(err, errInvalidEnv) }
