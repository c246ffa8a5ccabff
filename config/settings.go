package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds runtime configuration read from the environment (and .env when present).
type Settings struct {
	AppEnv   string `envconfig:"GO_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBUser     string `envconfig:"DB_USER" default:"root"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBName     string `envconfig:"DB_NAME" default:"margindesk"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	PubSubProjectID string `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubTopic     string `envconfig:"PUBSUB_TOPIC"`
	PubSubCredJSON  string `envconfig:"PUBSUB_CREDENTIALS_JSON"`

	GCSBucket   string `envconfig:"GCS_BUCKET"`
	GCSCredJSON string `envconfig:"GCS_CREDENTIALS_JSON"`

	ZohoRegion         string `envconfig:"ZOHO_REGION" default:"in"`
	ZohoBooksToken     string `envconfig:"ZOHO_BOOKS_ACCESS_TOKEN"`
	ZohoPeopleToken    string `envconfig:"ZOHO_PEOPLE_ACCESS_TOKEN"`
	ZohoOrganizationID string `envconfig:"ZOHO_ORGANIZATION_ID"`
	MicrosoftToken     string `envconfig:"MICROSOFT_ACCESS_TOKEN"`
	TokenSource        string `envconfig:"TOKEN_SOURCE" default:"env"`

	RetryMaxAttempts int           `envconfig:"SYNC_RETRY_MAX_ATTEMPTS" default:"1"`
	RetryBackoff     time.Duration `envconfig:"SYNC_RETRY_BACKOFF" default:"2s"`
	MaxPages         int           `envconfig:"SYNC_MAX_PAGES" default:"200"`
	PageSize         int           `envconfig:"SYNC_PAGE_SIZE" default:"200"`
	HTTPTimeout      time.Duration `envconfig:"SYNC_HTTP_TIMEOUT" default:"30s"`
	SyncLockTTL      time.Duration `envconfig:"SYNC_LOCK_TTL" default:"30m"`

	ReportCacheTTL     time.Duration `envconfig:"REPORT_CACHE_TTL" default:"5m"`
	DefaultPhoneRegion string        `envconfig:"DEFAULT_PHONE_REGION" default:"IN"`

	AuthSecret         string        `envconfig:"TOKEN_SECRET"`
	TokenTTL           time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	SkipMigrations     bool          `envconfig:"SKIP_MIGRATIONS"`

	NightlySyncCron string `envconfig:"NIGHTLY_SYNC_CRON" default:"0 2 * * *"`
	MonthlySyncCron string `envconfig:"MONTHLY_SYNC_CRON" default:"0 3 1 * *"`
}

// LoadSettings reads configuration from environment variables.
func LoadSettings() (*Settings, error) {
	_ = godotenv.Load()
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, err
	}
	if s.MaxPages <= 0 {
		return nil, errors.New("SYNC_MAX_PAGES must be positive")
	}
	if s.RetryMaxAttempts < 1 {
		s.RetryMaxAttempts = 1
	}
	s.ZohoRegion = strings.ToLower(strings.TrimSpace(s.ZohoRegion))
	return &s, nil
}

func (s *Settings) IsProduction() bool {
	return s != nil && s.AppEnv == "production"
}
