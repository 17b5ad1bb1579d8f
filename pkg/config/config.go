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
	FeatureFlags FeatureFlagsConfig
	Quotes       QuotesConfig
	Invoices     InvoicesConfig
	S3           S3Config
	SMTP         SMTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"TRADECERT_APP_ENV" required:"true"`
	Port          string `envconfig:"TRADECERT_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"TRADECERT_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"TRADECERT_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"TRADECERT_PUBLIC_BASE_URL" default:"http://localhost:3000"`

	CORSAllowedOrigins []string `envconfig:"TRADECERT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TRADECERT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TRADECERT_DB_DSN"`
	Driver string `envconfig:"TRADECERT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADECERT_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADECERT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADECERT_DB_USER"`
	LegacyPassword string `envconfig:"TRADECERT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADECERT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADECERT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADECERT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADECERT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADECERT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADECERT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn level; zero disables it.
	SlowQuery time.Duration `envconfig:"TRADECERT_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADECERT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADECERT_REDIS_ADDR"`
	Password     string        `envconfig:"TRADECERT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADECERT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADECERT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADECERT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADECERT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADECERT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADECERT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADECERT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADECERT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADECERT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRADECERT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRADECERT_AUTO_MIGRATE" default:"false"`
}

type QuotesConfig struct {
	NumberPrefix       string `envconfig:"TRADECERT_QUOTE_NUMBER_PREFIX" default:"TC"`
	DefaultVATPercent  string `envconfig:"TRADECERT_QUOTE_DEFAULT_VAT_PERCENT" default:"20"`
	WholesalerLinkDays int    `envconfig:"TRADECERT_WHOLESALER_LINK_DAYS" default:"7"`
}

// WholesalerLinkTTL returns how long a wholesaler token stays valid.
func (q QuotesConfig) WholesalerLinkTTL() time.Duration {
	if q.WholesalerLinkDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(q.WholesalerLinkDays) * 24 * time.Hour
}

type InvoicesConfig struct {
	DefaultPaymentTermsDays int           `envconfig:"TRADECERT_INVOICE_PAYMENT_TERMS_DAYS" default:"30"`
	OverdueSweepInterval    time.Duration `envconfig:"TRADECERT_INVOICE_OVERDUE_SWEEP_INTERVAL" default:"1h"`
}

type S3Config struct {
	Endpoint          string        `envconfig:"TRADECERT_S3_ENDPOINT"`
	Region            string        `envconfig:"TRADECERT_S3_REGION" default:"eu-west-2"`
	Bucket            string        `envconfig:"TRADECERT_S3_BUCKET" default:"tradecert-evidence"`
	AccessKey         string        `envconfig:"TRADECERT_S3_ACCESS_KEY"`
	SecretKey         string        `envconfig:"TRADECERT_S3_SECRET_KEY"`
	UsePathStyle      bool          `envconfig:"TRADECERT_S3_USE_PATH_STYLE" default:"false"`
	PresignExpiration time.Duration `envconfig:"TRADECERT_S3_PRESIGN_EXPIRATION" default:"15m"`
}

type SMTPConfig struct {
	Host        string `envconfig:"TRADECERT_SMTP_HOST"`
	Port        int    `envconfig:"TRADECERT_SMTP_PORT" default:"587"`
	Username    string `envconfig:"TRADECERT_SMTP_USERNAME"`
	Password    string `envconfig:"TRADECERT_SMTP_PASSWORD"`
	FromAddress string `envconfig:"TRADECERT_SMTP_FROM_ADDRESS" default:"quotes@tradecert.local"`
	FromName    string `envconfig:"TRADECERT_SMTP_FROM_NAME" default:"TradeCert"`
}

// Enabled reports whether outbound email has been configured.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
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
