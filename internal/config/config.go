package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string
}

type SecurityConfig struct {
	JWTSecret      string
	AdminJWTSecret string
	TokenTTL       time.Duration
}

type BootstrapConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type JobsConfig struct {
	ReminderSpec string
}

type WorkerConfig struct {
	ClaimInterval time.Duration
	LogLevel      string
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Store            StoreConfig
	Mongo            MongoConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Bootstrap        BootstrapConfig
	Jobs             JobsConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

// AdminSecret is the signing secret for admin-scoped tokens.
func (s SecurityConfig) AdminSecret() string {
	if s.AdminJWTSecret != "" {
		return s.AdminJWTSecret
	}
	return s.JWTSecret
}

func Load() (*AppConfig, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("UNIMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	return &cfg, nil
}

// bindLegacyEnv keeps the variable names used by earlier deployments working.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"mongo.uri":          {"UNIMART_MONGO_URI", "MONGO_URI"},
		"postgres.dsn":       {"UNIMART_POSTGRES_DSN", "DATABASE_URL"},
		"security.jwtsecret": {"UNIMART_SECURITY_JWTSECRET", "JWT_SECRET"},
		"http.port":          {"UNIMART_HTTP_PORT", "PORT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 5000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("mongo.database", "unimart")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "listings:events")
	v.SetDefault("redis.group", "notifiers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.publicurl", "")
	v.SetDefault("storage.bucket", "unimart-listings")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.adminjwtsecret", "")
	v.SetDefault("security.tokenttl", "1h")

	v.SetDefault("bootstrap.adminname", "Administrator")
	v.SetDefault("bootstrap.adminemail", "")
	v.SetDefault("bootstrap.adminpassword", "")

	v.SetDefault("jobs.reminderspec", "0 0 * * * *") // hourly

	v.SetDefault("worker.claiminterval", "30s")
	v.SetDefault("worker.loglevel", "info")

	v.SetDefault("allowcorsorigins", []string{})
}

// Validate reports configuration the process cannot start without.
func (c *AppConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		errs = append(errs, errors.New("security.jwtsecret (JWT_SECRET) is required"))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("security.tokenttl must be positive"))
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri (MONGO_URI) is required for the mongo store"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn (DATABASE_URL) is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}
