package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	AdminPassword      string // plaintext or bcrypt hash
	JWTSecret          string
	TokenTTL           time.Duration
	CORSOrigins        []string
	SearchIndexPath    string // empty keeps the index in memory
	DescriberTimeout   time.Duration
	LogLevel           string
	LoginRatePerMinute int
	ReindexSchedule    string // cron spec, empty disables
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present), then settings.toml (if present), then the
// environment. Later sources win.
func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "file:linkshala.db")
	v.SetDefault("app_env", "local")
	v.SetDefault("admin_password", "")
	v.SetDefault("jwt_secret", "secret")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("search_index_path", "data/links.bleve")
	v.SetDefault("describer_timeout", "8s")
	v.SetDefault("log_level", "info")
	v.SetDefault("login_rate_per_minute", 5)
	v.SetDefault("reindex_schedule", "@every 1h")

	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	_ = v.ReadInConfig() // settings.toml is optional

	v.AutomaticEnv()
	v.AllowEmptyEnv(true) // SEARCH_INDEX_PATH="" means in memory
	return v
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:               v.GetString("port"),
		DatabaseURL:        v.GetString("database_url"),
		AppEnv:             v.GetString("app_env"),
		AdminPassword:      v.GetString("admin_password"),
		JWTSecret:          v.GetString("jwt_secret"),
		TokenTTL:           v.GetDuration("token_ttl"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		SearchIndexPath:    strings.TrimSpace(v.GetString("search_index_path")),
		DescriberTimeout:   v.GetDuration("describer_timeout"),
		LogLevel:           v.GetString("log_level"),
		LoginRatePerMinute: v.GetInt("login_rate_per_minute"),
		ReindexSchedule:    strings.TrimSpace(v.GetString("reindex_schedule")),
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.DescriberTimeout <= 0 {
		cfg.DescriberTimeout = 8 * time.Second
	}
	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = 5
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
