package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/rpattn/restquery/internal/db"
	"github.com/rpattn/restquery/internal/query"
)

// EnvPrefix prefixes every environment override, e.g. RESTQUERY_DATABASE_HOST.
const EnvPrefix = "RESTQUERY"

type Config struct {
	Database db.Config
	Server   ServerConfig
	Query    QueryConfig
}

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	// Resources is the allow-list of listable resources. Empty allows all.
	Resources     []string
	MaxExportRows int
}

type QueryConfig struct {
	DefaultLimit int
	MaxLimit     int
	DefaultSort  string
	Tiebreaker   string
	VersionField string
}

// CompilerOptions converts the section into compiler options.
func (q QueryConfig) CompilerOptions() []query.Option {
	return []query.Option{
		query.WithMaxLimit(q.MaxLimit),
		query.WithDefaultLimit(q.DefaultLimit),
		query.WithDefaultSortField(q.DefaultSort),
		query.WithTiebreakerField(q.Tiebreaker),
		query.WithVersionField(q.VersionField),
	}
}

func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxExportRows:  50000,
		},
		Query: QueryConfig{
			DefaultLimit: query.DefaultLimit,
			MaxLimit:     query.DefaultMaxLimit,
			DefaultSort:  query.DefaultSortField,
			Tiebreaker:   query.DefaultTiebreaker,
			VersionField: query.DefaultVersionField,
		},
	}
}

var envKeys = []string{
	"database.host",
	"database.port",
	"database.user",
	"database.password",
	"database.dbname",
	"database.sslmode",
	"database.max_conns",
	"server.addr",
	"server.allowed_origins",
	"server.resources",
	"server.max_export_rows",
	"query.default_limit",
	"query.max_limit",
	"query.default_sort",
	"query.tiebreaker",
	"query.version_field",
}

// Load reads config.yaml from configPath, applies RESTQUERY_* environment
// overrides and fills the rest from DefaultConfig. A missing file is not an
// error.
func Load(configPath string) (Config, error) {
	// Start with default
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Println("[CONFIG] No config.yaml found, using defaults and env vars")
	} else {
		log.Println("[CONFIG] Loaded", v.ConfigFileUsed())
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("database.max_conns") {
		cfg.Database.MaxConns = v.GetInt32("database.max_conns")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.resources") {
		cfg.Server.Resources = v.GetStringSlice("server.resources")
	}
	if v.IsSet("server.max_export_rows") {
		cfg.Server.MaxExportRows = v.GetInt("server.max_export_rows")
	}

	if v.IsSet("query.default_limit") {
		cfg.Query.DefaultLimit = v.GetInt("query.default_limit")
	}
	if v.IsSet("query.max_limit") {
		cfg.Query.MaxLimit = v.GetInt("query.max_limit")
	}
	if v.IsSet("query.default_sort") {
		cfg.Query.DefaultSort = v.GetString("query.default_sort")
	}
	if v.IsSet("query.tiebreaker") {
		cfg.Query.Tiebreaker = v.GetString("query.tiebreaker")
	}
	if v.IsSet("query.version_field") {
		cfg.Query.VersionField = v.GetString("query.version_field")
	}

	return cfg, nil
}
