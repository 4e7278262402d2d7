package configs

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hilthontt/chatkit/option"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Chatkit ChatkitConfig `koanf:"chatkit"`
	HTTP    HTTPConfig    `koanf:"http"`
	Logger  LoggerConfig  `koanf:"logger"`
	Tracing TracingConfig `koanf:"tracing"`

	RateLimiter RateLimiterConfig `koanf:"rate_limiter"`
}

type ChatkitConfig struct {
	InstanceLocator string        `koanf:"instance_locator"`
	Key             string        `koanf:"key"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	TokenCache      time.Duration `koanf:"token_cache"`
}

// HTTPConfig is used by the auth server.
type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type LoggerConfig struct {
	FilePath string `koanf:"file_path"`
	Encoding string `koanf:"encoding"`
	Level    string `koanf:"level"`
}

// RateLimiterConfig bounds how often one client address may call the auth
// endpoint. A zero limit disables limiting.
type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requests_per_time_frame"`
	TimeFrame            time.Duration `koanf:"time_frame"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
	Endpoint    string `koanf:"endpoint"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)

	if err := k.Load(envProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "chatkit.timeout", 30*time.Second)

	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	setDefault(k, "rate_limiter.requests_per_time_frame", 20)
	setDefault(k, "rate_limiter.time_frame", time.Minute)

	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.level", "info")

	setDefault(k, "tracing.service_name", "chatkit")
	setDefault(k, "tracing.environment", "development")
	setDefault(k, "tracing.endpoint", "http://localhost:4318/v1/traces")
}

// envKeys maps the environment variables the binaries honour onto config
// keys. Variables outside this table are ignored.
var envKeys = map[string]string{
	"CHATKIT_INSTANCE_LOCATOR":     "chatkit.instance_locator",
	"CHATKIT_INSTANCE_KEY":         "chatkit.key",
	"CHATKIT_HOST":                 "chatkit.host",
	"CHATKIT_PORT":                 "chatkit.port",
	"CHATKIT_BASE_URL":             "chatkit.base_url",
	"CHATKIT_HTTP_TIMEOUT_SECONDS": "chatkit.timeout",
	"CHATKIT_TOKEN_CACHE":          "chatkit.token_cache",

	"AUTH_HTTP_HOST":         "http.host",
	"AUTH_HTTP_PORT":         "http.port",
	"AUTH_RATE_LIMIT":        "rate_limiter.requests_per_time_frame",
	"AUTH_RATE_LIMIT_WINDOW": "rate_limiter.time_frame",

	"LOGGER_FILE_PATH": "logger.file_path",
	"LOGGER_ENCODING":  "logger.encoding",
	"LOGGER_LEVEL":     "logger.level",

	"OTEL_ENABLED":                       "tracing.enabled",
	"OTEL_SERVICE_NAME":                  "tracing.service_name",
	"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "tracing.endpoint",
	"ENVIRONMENT":                        "tracing.environment",
}

func envProvider() *env.Env {
	return env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envKeys[name]
		if !ok || value == "" {
			return "", nil
		}
		if name == "CHATKIT_HTTP_TIMEOUT_SECONDS" {
			seconds, err := strconv.Atoi(value)
			if err != nil || seconds <= 0 {
				return "", nil
			}
			return key, time.Duration(seconds) * time.Second
		}
		return key, value
	})
}

func (c *Config) validate() error {
	if c.RateLimiter.RequestsPerTimeFrame < 0 {
		return fmt.Errorf("rate_limiter.requests_per_time_frame must not be negative")
	}
	if c.RateLimiter.RequestsPerTimeFrame > 0 && c.RateLimiter.TimeFrame <= 0 {
		return fmt.Errorf("rate_limiter.time_frame must be positive when requests_per_time_frame is set")
	}
	return nil
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}

// ClientOptions turns the chatkit section into client options. Unset
// fields are left to the client defaults.
func (c *Config) ClientOptions() []option.RequestOption {
	ck := c.Chatkit
	opts := []option.RequestOption{
		option.WithInstanceLocator(ck.InstanceLocator),
		option.WithKey(ck.Key),
	}
	if ck.Host != "" {
		opts = append(opts, option.WithHost(ck.Host))
	}
	if ck.Port != 0 {
		opts = append(opts, option.WithPort(ck.Port))
	}
	if ck.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(ck.BaseURL))
	}
	if ck.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(ck.Timeout))
	}
	if ck.TokenCache > 0 {
		opts = append(opts, option.WithTokenCache(ck.TokenCache))
	}
	return opts
}
