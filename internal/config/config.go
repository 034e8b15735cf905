package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	CMS       CMSConfig       `mapstructure:"cms"`
	Pages     PagesConfig     `mapstructure:"pages"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Session   SessionConfig   `mapstructure:"session"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"base_url"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds relational database configuration.
type DBConfig struct {
	Driver     string `mapstructure:"driver"` // "mysql", "sqlite3" or "pgx"
	DSN        string `mapstructure:"dsn"`
	Migrations string `mapstructure:"migrations"`
}

// CMSConfig holds the connection settings for the headless CMS document store.
type CMSConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PagesConfig locates the generated page tree.
type PagesConfig struct {
	Root string `mapstructure:"root"`
}

// CacheConfig holds the SQLite render cache configuration.
type CacheConfig struct {
	FilePath  string        `mapstructure:"file_path"`
	RenderTTL time.Duration `mapstructure:"render_ttl"`
}

// RateLimitConfig controls review submission limits.
type RateLimitConfig struct {
	Backend       string        `mapstructure:"backend"` // "local" or "dynamodb"
	MaxPerWindow  int           `mapstructure:"max_per_window"`
	Window        time.Duration `mapstructure:"window"`
	DynamoDBTable string        `mapstructure:"dynamodb_table"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// AdminConfig holds the signing settings for admin API tokens.
type AdminConfig struct {
	JWTSecret string   `mapstructure:"jwt_secret"`
	JWTIssuer string   `mapstructure:"jwt_issuer"`
	Subjects  []string `mapstructure:"subjects"` // identities granted the admin role at startup
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from a .env file, a config file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-directory-app/")
	v.AddConfigPath("$HOME/.go-directory-app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.dsn", "directory:directory@tcp(localhost:3306)/directory?parseTime=true")
	v.SetDefault("db.migrations", "migrations")

	v.SetDefault("cms.enabled", true)
	v.SetDefault("cms.uri", "mongodb://localhost:27017")
	v.SetDefault("cms.database", "directory")
	v.SetDefault("cms.collection", "listings")
	v.SetDefault("cms.timeout", 5*time.Second)

	v.SetDefault("pages.root", "./pages")

	v.SetDefault("cache.file_path", "cache.db")
	v.SetDefault("cache.render_ttl", time.Hour)

	v.SetDefault("ratelimit.backend", "local")
	v.SetDefault("ratelimit.max_per_window", 3)
	v.SetDefault("ratelimit.window", time.Hour)
	v.SetDefault("ratelimit.dynamodb_table", "review_rate_limits")

	v.SetDefault("session.secret_key", "")
	v.SetDefault("session.lifetime", 24)

	v.SetDefault("oidc.issuer_url", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.jwt_issuer", "go-directory-app")
	v.SetDefault("admin.subjects", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
