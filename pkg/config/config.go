package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SUPPLYLINE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "SUPPLYLINE_APP_ENV"
	EnvPort   = "SUPPLYLINE_APP_PORT"
	EnvDBDSN  = "SUPPLYLINE_DB_DSN"
	EnvDBHost = "SUPPLYLINE_DB_HOST"
	EnvDBUser = "SUPPLYLINE_DB_USER"
	EnvDBName = "SUPPLYLINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	Reorder      ReorderConfig
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
	Env          string `envconfig:"SUPPLYLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SUPPLYLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUPPLYLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPPLYLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SUPPLYLINE_DB_DSN"`
	Driver string `envconfig:"SUPPLYLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SUPPLYLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"SUPPLYLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUPPLYLINE_DB_USER"`
	LegacyPassword string `envconfig:"SUPPLYLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUPPLYLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUPPLYLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLYLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLYLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLYLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLYLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SUPPLYLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SUPPLYLINE_AUTO_MIGRATE" default:"false"`
}

// ReorderConfig tunes the reorder dashboard queries; it has no effect on the
// write path.
type ReorderConfig struct {
	CandidateLimit int `envconfig:"SUPPLYLINE_REORDER_CANDIDATE_LIMIT" default:"100"`
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
