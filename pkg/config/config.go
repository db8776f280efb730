package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Pickup  PickupConfig
	Sweeper SweeperConfig
	Migrate MigrateConfig
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
	Env          string `envconfig:"STOCKLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKLINE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKLINE_DB_DSN"`
	Driver string `envconfig:"STOCKLINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOCKLINE_DB_HOST"`
	Port     int    `envconfig:"STOCKLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKLINE_DB_USER"`
	Password string `envconfig:"STOCKLINE_DB_PASSWORD"`
	Name     string `envconfig:"STOCKLINE_DB_NAME"`
	SSLMode  string `envconfig:"STOCKLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either STOCKLINE_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKLINE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PickupConfig carries the business rules around pickups and allowances.
type PickupConfig struct {
	DeadlineHours       int `envconfig:"STOCKLINE_PICKUP_DEADLINE_HOURS" default:"48"`
	DefaultAllowance    int `envconfig:"STOCKLINE_PICKUP_DEFAULT_ALLOWANCE" default:"1"`
	BoostedAllowance    int `envconfig:"STOCKLINE_PICKUP_BOOSTED_ALLOWANCE" default:"3"`
	RejectCooldownHours int `envconfig:"STOCKLINE_ALLOWANCE_REJECT_COOLDOWN_HOURS" default:"24"`
}

// Deadline returns the pickup deadline window.
func (p PickupConfig) Deadline() time.Duration {
	hours := p.DeadlineHours
	if hours <= 0 {
		hours = 48
	}
	return time.Duration(hours) * time.Hour
}

// RejectCooldown returns the re-request cooldown after a rejected allowance request.
func (p PickupConfig) RejectCooldown() time.Duration {
	hours := p.RejectCooldownHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

type SweeperConfig struct {
	Interval    time.Duration `envconfig:"STOCKLINE_SWEEP_INTERVAL" default:"10m"`
	LockTTL     time.Duration `envconfig:"STOCKLINE_SWEEP_LOCK_TTL" default:"15m"`
	BatchSize   int           `envconfig:"STOCKLINE_SWEEP_BATCH_SIZE" default:"200"`
	MetricsPort string        `envconfig:"STOCKLINE_SWEEP_METRICS_PORT" default:"9090"`
}

type MigrateConfig struct {
	AutoRun bool   `envconfig:"STOCKLINE_MIGRATE_AUTORUN" default:"false"`
	Dir     string `envconfig:"STOCKLINE_MIGRATE_DIR" default:"pkg/migrate/migrations"`
}
