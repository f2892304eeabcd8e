package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	strs "idv/pkg/platform/strings"
)

// Config is the full process configuration shared by cmd/server and cmd/worker.
type Config struct {
	Server   Server         `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Proofing Proofing       `yaml:"proofing"`
	Vendors  Vendors        `yaml:"vendors"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `yaml:"addr"`
	JWTSigningKey string `yaml:"-"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// RedisConfig configures the result store and job queue connection.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the Postgres pool used for profiles and the cost ledger.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// KafkaConfig configures the attempts event sink.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ClientID      string   `yaml:"client_id"`
	AttemptsTopic string   `yaml:"attempts_topic"`
}

// Proofing is the injected option set for the orchestrator and the job runner.
type Proofing struct {
	ShadowModeEnabled             bool          `yaml:"shadow_mode_enabled"`
	ShadowModeEnabledForDocvUsers bool          `yaml:"shadow_mode_enabled_for_docv_users"`
	ShadowModeABPercent           int           `yaml:"shadow_mode_ab_percent"`
	VendorTimeout                 time.Duration `yaml:"vendor_timeout"`
	AsyncResultTTL                time.Duration `yaml:"async_result_ttl"`
	StaleJobThreshold             time.Duration `yaml:"stale_job_threshold"`
	ResolutionVendor              string        `yaml:"resolution_vendor"`
	DeviceProfilingEnabled        bool          `yaml:"device_profiling_enabled"`
	AamvaSupportedJurisdictions   []string      `yaml:"aamva_supported_jurisdictions"`
	OneAccountIssuers             []string      `yaml:"one_account_issuers"`
	WorkerConcurrency             int           `yaml:"worker_concurrency"`
	VendorBreakerThreshold        int           `yaml:"vendor_breaker_threshold"`
	VendorBreakerCooldown         time.Duration `yaml:"vendor_breaker_cooldown"`
	ResolutionMaxAttempts         int           `yaml:"resolution_max_attempts"`
	ResolutionAttemptWindow       time.Duration `yaml:"resolution_attempt_window"`
	EncryptionSecret              string        `yaml:"-"`
	SSNHMACKey                    string        `yaml:"-"`
	SSNHMACOldKeys                []string      `yaml:"-"`
}

// Vendors holds vendor endpoints. Empty endpoints select the built-in mock proofers.
type Vendors struct {
	AamvaURL         string `yaml:"aamva_url"`
	InstantVerifyURL string `yaml:"instant_verify_url"`
	SocureURL        string `yaml:"socure_url"`
	DDPURL           string `yaml:"ddp_url"`
	DDPPolicy        string `yaml:"ddp_policy"`
	APIKey           string `yaml:"-"`

	// AamvaTimezone locates AamvaMaintenanceWindows; empty means UTC.
	AamvaTimezone           string                         `yaml:"aamva_timezone"`
	AamvaMaintenanceWindows map[string][]MaintenanceWindow `yaml:"aamva_maintenance_windows"`
}

// MaintenanceWindow is a recurring DMV outage in minutes after midnight.
// Weekday -1 means every day.
type MaintenanceWindow struct {
	Weekday     int `yaml:"weekday"`
	StartMinute int `yaml:"start_minute"`
	EndMinute   int `yaml:"end_minute"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: Server{Addr: ":8080", MetricsAddr: ":9090"},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Kafka: KafkaConfig{
			ClientID:      "idv-proofing",
			AttemptsTopic: "idv.attempts",
		},
		Vendors: Vendors{DDPPolicy: "default"},
		Proofing: Proofing{
			VendorTimeout:           15 * time.Second,
			AsyncResultTTL:          5 * time.Minute,
			StaleJobThreshold:       5 * time.Minute,
			ResolutionVendor:        "instant_verify",
			DeviceProfilingEnabled:  true,
			WorkerConcurrency:       4,
			VendorBreakerThreshold:  5,
			VendorBreakerCooldown:   30 * time.Second,
			ResolutionMaxAttempts:   5,
			ResolutionAttemptWindow: 6 * time.Hour,
		},
	}
}

// FromEnv builds the configuration from defaults, an optional YAML overlay
// named by IDV_CONFIG_FILE, and environment variables, in that order.
// Secrets are only read from the environment.
func FromEnv() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("IDV_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Server.Addr = envString("IDV_ADDR", cfg.Server.Addr)
	cfg.Server.MetricsAddr = envString("IDV_METRICS_ADDR", cfg.Server.MetricsAddr)
	cfg.Server.JWTSigningKey = envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")

	cfg.Redis.URL = envString("REDIS_URL", cfg.Redis.URL)
	cfg.Database.URL = envString("DATABASE_URL", cfg.Database.URL)
	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.AttemptsTopic = envString("KAFKA_ATTEMPTS_TOPIC", cfg.Kafka.AttemptsTopic)

	p := &cfg.Proofing
	p.ShadowModeEnabled = envBool("PROOFING_SHADOW_MODE_ENABLED", p.ShadowModeEnabled)
	p.ShadowModeEnabledForDocvUsers = envBool("PROOFING_SHADOW_MODE_ENABLED_FOR_DOCV_USERS", p.ShadowModeEnabledForDocvUsers)
	p.ShadowModeABPercent = envInt("PROOFING_SHADOW_MODE_AB_PERCENT", p.ShadowModeABPercent)
	p.VendorTimeout = envDuration("PROOFING_VENDOR_TIMEOUT", p.VendorTimeout)
	p.AsyncResultTTL = envDuration("PROOFING_ASYNC_RESULT_TTL", p.AsyncResultTTL)
	p.StaleJobThreshold = envDuration("PROOFING_STALE_JOB_THRESHOLD", p.StaleJobThreshold)
	p.ResolutionVendor = envString("PROOFING_RESOLUTION_VENDOR", p.ResolutionVendor)
	p.DeviceProfilingEnabled = envBool("PROOFING_DEVICE_PROFILING_ENABLED", p.DeviceProfilingEnabled)
	p.AamvaSupportedJurisdictions = strs.DedupeAndTrimUpper(envList("PROOFING_AAMVA_JURISDICTIONS", p.AamvaSupportedJurisdictions))
	p.OneAccountIssuers = envList("PROOFING_ONE_ACCOUNT_ISSUERS", p.OneAccountIssuers)
	p.WorkerConcurrency = envInt("WORKER_CONCURRENCY", p.WorkerConcurrency)
	p.VendorBreakerThreshold = envInt("PROOFING_VENDOR_BREAKER_THRESHOLD", p.VendorBreakerThreshold)
	p.VendorBreakerCooldown = envDuration("PROOFING_VENDOR_BREAKER_COOLDOWN", p.VendorBreakerCooldown)
	p.ResolutionMaxAttempts = envInt("PROOFING_RESOLUTION_MAX_ATTEMPTS", p.ResolutionMaxAttempts)
	p.ResolutionAttemptWindow = envDuration("PROOFING_RESOLUTION_ATTEMPT_WINDOW", p.ResolutionAttemptWindow)
	p.EncryptionSecret = os.Getenv("PROOFING_ENCRYPTION_SECRET")
	p.SSNHMACKey = os.Getenv("SSN_HMAC_KEY")
	p.SSNHMACOldKeys = envList("SSN_HMAC_OLD_KEYS", nil)

	cfg.Vendors.AamvaURL = envString("AAMVA_URL", cfg.Vendors.AamvaURL)
	cfg.Vendors.InstantVerifyURL = envString("INSTANT_VERIFY_URL", cfg.Vendors.InstantVerifyURL)
	cfg.Vendors.SocureURL = envString("SOCURE_URL", cfg.Vendors.SocureURL)
	cfg.Vendors.DDPURL = envString("DDP_URL", cfg.Vendors.DDPURL)
	cfg.Vendors.DDPPolicy = envString("DDP_POLICY", cfg.Vendors.DDPPolicy)
	cfg.Vendors.APIKey = os.Getenv("VENDOR_API_KEY")

	if err := cfg.Proofing.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects option combinations the proofing engine cannot run with.
func (p Proofing) Validate() error {
	if p.VendorTimeout <= 0 {
		return errors.New("config: vendor timeout must be positive")
	}
	if p.AsyncResultTTL <= 0 {
		return errors.New("config: async result ttl must be positive")
	}
	if p.ResolutionMaxAttempts > 0 && p.ResolutionAttemptWindow <= 0 {
		return errors.New("config: resolution attempt window must be positive")
	}
	if p.ShadowModeABPercent < 0 || p.ShadowModeABPercent > 100 {
		return fmt.Errorf("config: shadow mode ab percent %d out of range", p.ShadowModeABPercent)
	}
	switch p.ResolutionVendor {
	case "instant_verify", "socure", "mock":
	default:
		return fmt.Errorf("config: unknown resolution vendor %q", p.ResolutionVendor)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	return strs.DedupeAndTrim(strings.Split(raw, ","))
}
