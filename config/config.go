package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIKey string `yaml:"-"`

	ServerPort      string        `yaml:"server_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	UploadDir         string        `yaml:"upload_dir"`
	StaticDir         string        `yaml:"static_dir"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
	UploadReadTimeout time.Duration `yaml:"upload_read_timeout"`

	ModelName         string        `yaml:"model_name"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollMaxInterval   time.Duration `yaml:"poll_max_interval"`
	PollBackoffFactor float64       `yaml:"poll_backoff_factor"`
	IngestTimeout     time.Duration `yaml:"ingest_timeout"`
	InferenceTimeout  time.Duration `yaml:"inference_timeout"`
	CleanupOnFailure  bool          `yaml:"cleanup_on_failure"`
	CleanupTimeout    time.Duration `yaml:"cleanup_timeout"`

	RateLimit         int           `yaml:"rate_limit"`
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`

	DBPath string `yaml:"db_path"`

	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Cache  CacheConfig  `yaml:"cache"`
	Spaces SpacesConfig `yaml:"spaces"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type SpacesConfig struct {
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
}

// PipelineTimeout is the longest a summary request can spend after its body has
// been read: ingestion, inference and the remote delete.
func (c *Config) PipelineTimeout() time.Duration {
	return c.IngestTimeout + c.InferenceTimeout + c.CleanupTimeout
}

// Enabled reports whether summaries should be archived to object storage.
func (s SpacesConfig) Enabled() bool {
	return s.Bucket != ""
}

func defaultConfig() *Config {
	return &Config{
		ServerPort:      "8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Minute,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		UploadDir:         "uploads",
		StaticDir:         "static",
		MaxUploadBytes:    2 << 30,
		UploadReadTimeout: 30 * time.Minute,

		ModelName:         "models/gemini-1.5-flash",
		PollInterval:      10 * time.Second,
		PollMaxInterval:   60 * time.Second,
		PollBackoffFactor: 2.0,
		IngestTimeout:     15 * time.Minute,
		InferenceTimeout:  600 * time.Second,
		CleanupOnFailure:  true,
		CleanupTimeout:    30 * time.Second,

		RateLimit:         5,
		RateLimitInterval: 1 * time.Second,

		DBPath: "./data/jobs.db",

		LogDir:    "./logs",
		LogLevel:  "info",
		LogFormat: "text",

		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence (last wins).
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	cfg := defaultConfig()

	if path := GetEnv("CONFIG_FILE", ""); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = GetEnv("API_KEY", cfg.APIKey)

	cfg.ServerPort = GetEnv("SERVER_PORT", cfg.ServerPort)
	cfg.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.UploadDir = GetEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.StaticDir = GetEnv("STATIC_DIR", cfg.StaticDir)
	cfg.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.UploadReadTimeout = getEnvAsDuration("UPLOAD_READ_TIMEOUT", cfg.UploadReadTimeout)

	cfg.ModelName = GetEnv("GEMINI_MODEL", cfg.ModelName)
	cfg.PollInterval = getEnvAsDuration("POLL_INTERVAL", cfg.PollInterval)
	cfg.PollMaxInterval = getEnvAsDuration("POLL_MAX_INTERVAL", cfg.PollMaxInterval)
	cfg.PollBackoffFactor = getEnvAsFloat("POLL_BACKOFF_FACTOR", cfg.PollBackoffFactor)
	cfg.IngestTimeout = getEnvAsDuration("INGEST_TIMEOUT", cfg.IngestTimeout)
	cfg.InferenceTimeout = getEnvAsDuration("INFERENCE_TIMEOUT", cfg.InferenceTimeout)
	cfg.CleanupOnFailure = getEnvAsBool("CLEANUP_ON_FAILURE", cfg.CleanupOnFailure)
	cfg.CleanupTimeout = getEnvAsDuration("CLEANUP_TIMEOUT", cfg.CleanupTimeout)

	cfg.RateLimit = getEnvAsInt("RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitInterval = getEnvAsDuration("RATE_LIMIT_INTERVAL", cfg.RateLimitInterval)

	cfg.DBPath = GetEnv("DB_PATH", cfg.DBPath)

	cfg.LogDir = GetEnv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = GetEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.Cache.RedisAddr = GetEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisDB = getEnvAsInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.TTL = getEnvAsDuration("CACHE_TTL", cfg.Cache.TTL)

	cfg.Spaces.AccessKey = GetEnv("SPACES_ACCESS_KEY", cfg.Spaces.AccessKey)
	cfg.Spaces.SecretKey = GetEnv("SPACES_SECRET_KEY", cfg.Spaces.SecretKey)
	cfg.Spaces.Region = GetEnv("SPACES_REGION", cfg.Spaces.Region)
	cfg.Spaces.Endpoint = GetEnv("SPACES_ENDPOINT", cfg.Spaces.Endpoint)
	cfg.Spaces.Bucket = GetEnv("SPACES_BUCKET", cfg.Spaces.Bucket)
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue, "Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		warnInvalid(key, value, defaultValue, "Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		warnInvalid(key, value, defaultValue, "Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		warnInvalid(key, value, defaultValue, "Invalid number, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		warnInvalid(key, value, defaultValue, "Invalid boolean, using default")
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue interface{}, msg string) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn(msg)
}

func ValidateConfig(cfg *Config) error {
	if cfg.APIKey == "" {
		return errors.New("API_KEY is required")
	}
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.UploadDir == "" {
		return errors.New("upload directory is required")
	}
	if cfg.DBPath == "" {
		return errors.New("database path is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("poll interval must be greater than 0")
	}
	if cfg.PollMaxInterval < cfg.PollInterval {
		return errors.New("poll max interval must not be less than poll interval")
	}
	if cfg.PollBackoffFactor < 1 {
		return errors.New("poll backoff factor must be at least 1")
	}
	if cfg.IngestTimeout <= 0 {
		return errors.New("ingest timeout must be greater than 0")
	}
	if cfg.InferenceTimeout <= 0 {
		return errors.New("inference timeout must be greater than 0")
	}
	if cfg.WriteTimeout < cfg.PipelineTimeout() {
		return errors.Errorf("write timeout %s is shorter than ingest + inference + cleanup timeouts (%s)",
			cfg.WriteTimeout, cfg.PipelineTimeout())
	}
	if cfg.UploadReadTimeout <= 0 {
		return errors.New("upload read timeout must be greater than 0")
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be greater than 0")
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit and interval must be greater than 0")
	}
	return nil
}
