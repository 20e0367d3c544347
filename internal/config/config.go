package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	SQLitePath          string // used instead of DatabaseURL when set (local dev)
	RedisURL            string
	FrontendURLEndsWith string
	FrontendURL         string // probed by the health dashboard when set
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	// ReportAdminKey is the single shared moderation secret, compared by plain
	// equality with the request's ?key=. No accounts, rotation or rate limiting.
	ReportAdminKey string
	LoginURL       string // external OAuth entry point (/auth/login redirects here)

	LatestWindowDays int
	HomeBucketLimit  int
	HomeCacheTTL     time.Duration
	SearchPageSize   int
	Timezone         string // home "current month" is computed in this zone

	ReportsAllowDeviceToken    bool
	ReportsOwnerDeleteAnswered bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LATEST_WINDOW_DAYS", 14)
	viper.SetDefault("HOME_BUCKET_LIMIT", 12)
	viper.SetDefault("HOME_CACHE_TTL", "60s")
	viper.SetDefault("SEARCH_PAGE_SIZE", 15)
	viper.SetDefault("LOGIN_URL", "/auth/naver")
	viper.SetDefault("TIMEZONE", "Asia/Seoul")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = viper.GetString("NODE_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                        env,
		Port:                       viper.GetString("PORT"),
		DatabaseURL:                dbURL,
		SQLitePath:                 viper.GetString("SQLITE_PATH"),
		RedisURL:                   viper.GetString("REDIS_URL"),
		FrontendURLEndsWith:        viper.GetString("FRONTEND_URL_ENDS_WITH"),
		FrontendURL:                viper.GetString("FRONTEND_URL"),
		DevPassword:                viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:          viper.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:             viper.GetString("HEALTH_ADMIN_KEY"),
		ReportAdminKey:             viper.GetString("REPORT_ADMIN_KEY"),
		LoginURL:                   viper.GetString("LOGIN_URL"),
		LatestWindowDays:           positive(viper.GetInt("LATEST_WINDOW_DAYS"), 14),
		HomeBucketLimit:            positive(viper.GetInt("HOME_BUCKET_LIMIT"), 12),
		HomeCacheTTL:               viper.GetDuration("HOME_CACHE_TTL"),
		SearchPageSize:             positive(viper.GetInt("SEARCH_PAGE_SIZE"), 15),
		Timezone:                   viper.GetString("TIMEZONE"),
		ReportsAllowDeviceToken:    viper.GetBool("REPORTS_ALLOW_DEVICE_TOKEN"),
		ReportsOwnerDeleteAnswered: viper.GetBool("REPORTS_OWNER_DELETE_ANSWERED"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}

func positive(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
