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
	DB           DBConfig
	Redis        RedisConfig
	PIN          PINConfig
	Settings     SettingsConfig
	Metrics      MetricsConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Settings.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BACKHOUSE_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"BACKHOUSE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BACKHOUSE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BACKHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BACKHOUSE_DB_DSN"`
	Driver string `envconfig:"BACKHOUSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BACKHOUSE_DB_HOST"`
	LegacyPort     int    `envconfig:"BACKHOUSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BACKHOUSE_DB_USER"`
	LegacyPassword string `envconfig:"BACKHOUSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BACKHOUSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BACKHOUSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BACKHOUSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BACKHOUSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BACKHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BACKHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

// RedisConfig is optional: without a URL or address the sales counters and the
// cron lock fall back to in-process implementations.
type RedisConfig struct {
	URL          string        `envconfig:"BACKHOUSE_REDIS_URL"`
	Address      string        `envconfig:"BACKHOUSE_REDIS_ADDR"`
	Password     string        `envconfig:"BACKHOUSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BACKHOUSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BACKHOUSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BACKHOUSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BACKHOUSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BACKHOUSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BACKHOUSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// PINConfig carries the Argon2id parameters used for staff PIN hashes.
type PINConfig struct {
	ArgonMemoryKB    int `envconfig:"BACKHOUSE_PIN_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"BACKHOUSE_PIN_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"BACKHOUSE_PIN_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"BACKHOUSE_PIN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BACKHOUSE_PIN_ARGON_KEY_LEN" default:"32"`
}

// SettingsConfig is the shop-level configuration injected into the services.
type SettingsConfig struct {
	Currency                  string `envconfig:"BACKHOUSE_CURRENCY" default:"USD"`
	DefaultCancellationReason string `envconfig:"BACKHOUSE_DEFAULT_CANCELLATION_REASON" default:"Cancelled by staff"`
	DefaultRefundReason       string `envconfig:"BACKHOUSE_DEFAULT_REFUND_REASON" default:"Refunded by staff"`
	MoneyScale                int32  `envconfig:"BACKHOUSE_MONEY_SCALE" default:"2"`
}

func (s SettingsConfig) validate() error {
	if len(strings.TrimSpace(s.Currency)) != 3 {
		return fmt.Errorf("%s must be a 3 letter ISO code, got %q", EnvCurrency, s.Currency)
	}
	if s.MoneyScale < 0 || s.MoneyScale > 4 {
		return fmt.Errorf("%s must be between 0 and 4, got %d", EnvMoneyScale, s.MoneyScale)
	}
	return nil
}

type MetricsConfig struct {
	Addr            string        `envconfig:"BACKHOUSE_METRICS_ADDR" default:":9090"`
	SalesCounterTTL time.Duration `envconfig:"BACKHOUSE_SALES_COUNTER_TTL" default:"2160h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BACKHOUSE_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"BACKHOUSE_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BACKHOUSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BACKHOUSE_AUTO_MIGRATE" default:"false"`
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
