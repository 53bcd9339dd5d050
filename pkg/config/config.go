package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Environment               string        `koanf:"environment"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" validate:"required"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	WorkerProcesses           int           `koanf:"worker_processes" validate:"min=1"`

	// External metadata sources.
	OpenLibraryBaseURL   string        `koanf:"openlibrary_base_url" validate:"required,url"`
	OpenLibraryCoversURL string        `koanf:"openlibrary_covers_url" validate:"required,url"`
	GoogleBooksBaseURL   string        `koanf:"google_books_base_url" validate:"required,url"`
	GoogleBooksAPIKey    string        `koanf:"google_books_api_key"`
	MetadataHTTPTimeout  time.Duration `koanf:"metadata_http_timeout"`
	MetadataRateLimit    float64       `koanf:"metadata_rate_limit" validate:"gt=0"`
	MetadataCacheTTL     time.Duration `koanf:"metadata_cache_ttl"`

	// Optional redis used to cache external metadata responses.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// Enrichment tuning.
	EnrichCooldown    time.Duration `koanf:"enrich_cooldown"`
	EnrichSkipScore   int           `koanf:"enrich_skip_score"`
	BackfillBatchSize int           `koanf:"backfill_batch_size" validate:"min=1"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
)

func defaults() *Config {
	return &Config{
		Environment:               "production",
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		ServerHost:                "0.0.0.0",
		ServerPort:                3690,
		WorkerProcesses:           2,
		OpenLibraryBaseURL:        "https://openlibrary.org",
		OpenLibraryCoversURL:      "https://covers.openlibrary.org",
		GoogleBooksBaseURL:        "https://www.googleapis.com/books/v1",
		MetadataHTTPTimeout:       10 * time.Second,
		MetadataRateLimit:         5,
		MetadataCacheTTL:          6 * time.Hour,
		RedisPrefix:               "lectio:metadata",
		EnrichCooldown:            30 * time.Minute,
		EnrichSkipScore:           120,
		BackfillBatchSize:         50,
	}
}

// New builds the configuration from defaults, then the optional YAML file
// pointed to by CONFIG_FILE, then environment variables.
func New() (*Config, error) {
	cfg := defaults()

	if os.Getenv(environmentENV) == "development" {
		loadDevelopmentConfig(cfg)
	}

	k := koanf.New(".")

	configPath := os.Getenv(configFileENV)
	if configPath == "" {
		configPath = "/config/lectio.yaml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configPath)
		}
	}

	keys := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests: in-memory database and
// loopback server host. External base URLs are expected to be overridden
// with httptest servers.
func NewForTest() *Config {
	cfg := defaults()
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
	cfg.WorkerProcesses = 1
	return cfg
}

// Validate checks required fields and value ranges.
func (cfg *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WithStack(err)
	}
	fe := verrs[0]
	if fe.Tag() == "required" {
		return errors.Errorf("missing required config: set %s or %s in the config file", strings.ToUpper(fe.Field()), fe.Field())
	}
	return errors.Errorf("invalid config %s: failed %q check", fe.Field(), fe.Tag())
}

// HasRedis reports whether a redis cache is configured.
func (cfg *Config) HasRedis() bool {
	return cfg.RedisAddr != ""
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			keys[tag] = struct{}{}
		}
	}
	return keys
}
