package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cron         CronConfig
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
	if _, err := cfg.Cron.DailyOffset(); err != nil {
		return nil, err
	}
	if cfg.Cron.LockEnabled && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s requires %s or %s", EnvCronLockEnabled, EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARINS_APP_ENV" required:"true"`
	Port         string `envconfig:"CARINS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CARINS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CARINS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CARINS_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow-list.
	CORSOrigins []string `envconfig:"CARINS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARINS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARINS_DB_DSN"`
	Driver string `envconfig:"CARINS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CARINS_DB_HOST"`
	LegacyPort     int    `envconfig:"CARINS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARINS_DB_USER"`
	LegacyPassword string `envconfig:"CARINS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARINS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARINS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARINS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARINS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARINS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARINS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARINS_REDIS_URL"`
	Address      string        `envconfig:"CARINS_REDIS_ADDR"`
	Password     string        `envconfig:"CARINS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARINS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARINS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARINS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARINS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARINS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARINS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig guards the admin surface. An empty secret disables the admin routes.
type JWTConfig struct {
	Secret string `envconfig:"CARINS_JWT_SECRET"`
	Issuer string `envconfig:"CARINS_JWT_ISSUER" default:"carins"`
}

// Enabled reports whether admin tokens can be verified.
func (j JWTConfig) Enabled() bool {
	return strings.TrimSpace(j.Secret) != ""
}

type CronConfig struct {
	// RunAt is the host-local wall-clock time (HH:MM or HH:MM:SS) of the daily run.
	RunAt       string        `envconfig:"CARINS_CRON_RUN_AT" default:"00:00:01"`
	RunOnStart  bool          `envconfig:"CARINS_CRON_RUN_ON_START" default:"false"`
	Embedded    bool          `envconfig:"CARINS_CRON_EMBEDDED" default:"true"`
	LockEnabled bool          `envconfig:"CARINS_CRON_LOCK_ENABLED" default:"false"`
	LockTTL     time.Duration `envconfig:"CARINS_CRON_LOCK_TTL" default:"1h"`
}

// DailyOffset parses RunAt into an offset from local midnight.
func (c CronConfig) DailyOffset() (time.Duration, error) {
	raw := strings.TrimSpace(c.RunAt)
	if raw == "" {
		return 0, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return time.Duration(parsed.Hour())*time.Hour +
				time.Duration(parsed.Minute())*time.Minute +
				time.Duration(parsed.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q (expected HH:MM[:SS])", EnvCronRunAt, c.RunAt)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CARINS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
