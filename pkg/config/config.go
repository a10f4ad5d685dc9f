package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "LIBRATECH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LIBRATECH_DB_DSN"
	EnvDBHost = "LIBRATECH_DB_HOST"
	EnvDBUser = "LIBRATECH_DB_USER"
	EnvDBName = "LIBRATECH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Access       AccessConfig
	Catalog      CatalogConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LIBRATECH_APP_ENV" required:"true"`
	Port         string `envconfig:"LIBRATECH_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"LIBRATECH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIBRATECH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LIBRATECH_DB_DSN"`
	Driver string `envconfig:"LIBRATECH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LIBRATECH_DB_HOST"`
	LegacyPort     int    `envconfig:"LIBRATECH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LIBRATECH_DB_USER"`
	LegacyPassword string `envconfig:"LIBRATECH_DB_PASSWORD"`
	LegacyName     string `envconfig:"LIBRATECH_DB_NAME"`
	LegacySSLMode  string `envconfig:"LIBRATECH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LIBRATECH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LIBRATECH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LIBRATECH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LIBRATECH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIBRATECH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LIBRATECH_REDIS_ADDR"`
	Password     string        `envconfig:"LIBRATECH_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIBRATECH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIBRATECH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIBRATECH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIBRATECH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIBRATECH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LIBRATECH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LIBRATECH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LIBRATECH_JWT_ISSUER" default:"libratech"`
	ExpirationMinutes int    `envconfig:"LIBRATECH_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SessionTTL returns the lifetime of an access token and its session entry.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// AccessConfig drives the access gate: who is an admin and how hard the
// token mint endpoint may be hit.
type AccessConfig struct {
	AdminEmails    []string      `envconfig:"LIBRATECH_ADMIN_EMAILS" default:"admin@libratech.com"`
	CookieName     string        `envconfig:"LIBRATECH_SESSION_COOKIE" default:"access_token"`
	CookieSecure   bool          `envconfig:"LIBRATECH_SESSION_COOKIE_SECURE" default:"true"`
	MintWindow     time.Duration `envconfig:"LIBRATECH_MINT_RATE_WINDOW" default:"1m"`
	MintLimit      int           `envconfig:"LIBRATECH_MINT_RATE_LIMIT" default:"20"`
	AllowedOrigins []string      `envconfig:"LIBRATECH_CORS_ORIGINS" default:"https://libra-tech.web.app,http://localhost:5173"`
}

// IsAdmin reports whether the email belongs to a configured administrator.
func (a AccessConfig) IsAdmin(email string) bool {
	for _, admin := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

type CatalogConfig struct {
	BookListLimit     int `envconfig:"LIBRATECH_BOOK_LIST_LIMIT" default:"4000"`
	CategoryListLimit int `envconfig:"LIBRATECH_CATEGORY_LIST_LIMIT" default:"500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LIBRATECH_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
