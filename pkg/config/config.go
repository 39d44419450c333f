package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SAT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	ReaderLimit   ReaderRateLimitConfig
	Tracking      TrackingConfig
	Notify        NotifyConfig
	Watcher       WatcherConfig
	Bridge        BridgeConfig
	ReaderKeys    ReaderKeyConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SAT_APP_ENV" default:"dev"`
	Port         string `envconfig:"SAT_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"SAT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SAT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SAT_DB_DSN"`
	Driver string `envconfig:"SAT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SAT_DB_HOST"`
	LegacyPort     int    `envconfig:"SAT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAT_DB_USER"`
	LegacyPassword string `envconfig:"SAT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SAT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SAT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectRetries int           `envconfig:"SAT_DB_CONNECT_RETRIES" default:"5"`
	ConnectBackoff time.Duration `envconfig:"SAT_DB_CONNECT_BACKOFF" default:"1s"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("database config incomplete: set SAT_DB_DSN or SAT_DB_HOST/USER/NAME")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   "/" + d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SAT_REDIS_URL"`
	Address      string        `envconfig:"SAT_REDIS_ADDR"`
	Password     string        `envconfig:"SAT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured at all. The API
// runs without Redis; only reader rate limiting degrades to a no-op.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type ReaderRateLimitConfig struct {
	Window      time.Duration `envconfig:"SAT_READER_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit     int           `envconfig:"SAT_READER_RATE_LIMIT_IP_LIMIT" default:"120"`
	ReaderLimit int           `envconfig:"SAT_READER_RATE_LIMIT_READER_LIMIT" default:"60"`
}

type TrackingConfig struct {
	// StatusFallback maps scanner ids to workflow-status ids for deployments
	// whose status table descriptions do not match the location labels.
	// Format: "LOC002:2,LOC005:5". Empty means no fallback.
	StatusFallback string `envconfig:"SAT_TRACKING_STATUS_FALLBACK"`
}

// StatusFallbackMap parses the configured scanner→status pairs.
func (t TrackingConfig) StatusFallbackMap() (map[string]int64, error) {
	out := map[string]int64{}
	raw := strings.TrimSpace(t.StatusFallback)
	if raw == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid status fallback pair %q", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid status id in fallback pair %q: %w", pair, err)
		}
		out[strings.ToUpper(strings.TrimSpace(parts[0]))] = id
	}
	return out, nil
}

type NotifyConfig struct {
	GatewayURL  string        `envconfig:"SAT_NOTIFY_GATEWAY_URL"`
	Instance    string        `envconfig:"SAT_NOTIFY_INSTANCE"`
	Token       string        `envconfig:"SAT_NOTIFY_TOKEN"`
	TokenHeader string        `envconfig:"SAT_NOTIFY_TOKEN_HEADER" default:"apikey"`
	Timeout     time.Duration `envconfig:"SAT_NOTIFY_TIMEOUT" default:"10s"`
	TestNumber  string        `envconfig:"SAT_NOTIFY_TEST_NUMBER"`
}

// Enabled reports whether the message gateway is fully configured.
func (n NotifyConfig) Enabled() bool {
	return n.GatewayURL != "" && n.Instance != "" && n.Token != ""
}

type WatcherConfig struct {
	PollInterval time.Duration `envconfig:"SAT_WATCHER_POLL_INTERVAL" default:"5s"`
	Bootstrap    bool          `envconfig:"SAT_WATCHER_BOOTSTRAP" default:"true"`
}

type BridgeConfig struct {
	APIBase    string        `envconfig:"SAT_BRIDGE_API_BASE" default:"http://localhost:3001"`
	ReaderCode string        `envconfig:"SAT_BRIDGE_READER_CODE"`
	ReaderKey  string        `envconfig:"SAT_BRIDGE_READER_KEY"`
	Mode       string        `envconfig:"SAT_BRIDGE_MODE" default:"event"`
	Listen     string        `envconfig:"SAT_BRIDGE_LISTEN"`
	Debounce   time.Duration `envconfig:"SAT_BRIDGE_DEBOUNCE" default:"1500ms"`
	Timeout    time.Duration `envconfig:"SAT_BRIDGE_TIMEOUT" default:"8s"`
	Retries    int           `envconfig:"SAT_BRIDGE_RETRIES" default:"3"`
}

type ReaderKeyConfig struct {
	ArgonMemoryKB    int `envconfig:"SAT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SAT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SAT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SAT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SAT_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SAT_AUTO_MIGRATE" default:"false"`
}
