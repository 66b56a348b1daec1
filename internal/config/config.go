// Package config loads service configuration from defaults, an optional
// datamatch.yaml file and DATAMATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/datamatch/datamatch/internal/database"
	"github.com/datamatch/datamatch/internal/match"
)

// EnvPrefix is prepended to every environment variable, so database.host
// becomes DATAMATCH_DATABASE_HOST.
const EnvPrefix = "DATAMATCH"

// ErrInvalid wraps every load or validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	Env string `mapstructure:"env" validate:"oneof=development staging production test"`

	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   database.Config  `mapstructure:"database"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Auth       AuthConfig       `mapstructure:"auth"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Match      MatchConfig      `mapstructure:"match"`
	Suggestion SuggestionConfig `mapstructure:"suggestion"`
	Flags      FlagsConfig      `mapstructure:"flags"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// RequireTLS rejects requests a load balancer forwarded as plain HTTP.
	RequireTLS bool `mapstructure:"require_tls"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// NewLogger builds the process logger.
func (l LogConfig) NewLogger(w io.Writer, service, version string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if l.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	OTLPEndpoint   string        `mapstructure:"otlp_endpoint" validate:"required_if=Enabled true"`
	SampleRatio    float64       `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `mapstructure:"metric_interval" validate:"gte=0"`
}

// AuthConfig holds access token settings.
type AuthConfig struct {
	SigningKey     string        `mapstructure:"signing_key" validate:"required,min=16"`
	Issuer         string        `mapstructure:"issuer" validate:"required"`
	Audience       string        `mapstructure:"audience" validate:"required"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl" validate:"gt=0"`
}

// PubSubConfig names the topic profile changes go to and the subscription
// the worker reads. An empty project disables messaging.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Topic        string `mapstructure:"topic" validate:"required_with=ProjectID"`
	Subscription string `mapstructure:"subscription" validate:"required_with=ProjectID"`
}

// Enabled reports whether a project is configured.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != ""
}

// WeightsConfig mirrors match.Weights for config files.
type WeightsConfig struct {
	Interests      float64 `mapstructure:"interests" validate:"gte=0"`
	Professional   float64 `mapstructure:"professional" validate:"gte=0"`
	Location       float64 `mapstructure:"location" validate:"gte=0"`
	Availability   float64 `mapstructure:"availability" validate:"gte=0"`
	NicheInterests float64 `mapstructure:"niche_interests" validate:"gte=0"`
}

func (w WeightsConfig) weights() match.Weights {
	return match.Weights(w)
}

// MatchConfig tunes the engine.
type MatchConfig struct {
	Weights             WeightsConfig `mapstructure:"weights"`
	AvailabilityWeights WeightsConfig `mapstructure:"availability_weights"`
	DefaultMaxDistance  float64       `mapstructure:"default_max_distance" validate:"gt=0"`
}

// EngineConfig converts to an engine configuration and checks the weights.
func (m MatchConfig) EngineConfig() (match.Config, error) {
	cfg := match.DefaultConfig()
	cfg.Weights = m.Weights.weights()
	cfg.AvailabilityWeights = m.AvailabilityWeights.weights()
	cfg.DefaultMaxDistance = m.DefaultMaxDistance
	if err := cfg.Validate(); err != nil {
		return match.Config{}, err
	}
	return cfg, nil
}

// SuggestionConfig holds suggestion cache settings.
type SuggestionConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

// FlagsConfig holds feature flag settings.
type FlagsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

// WorkerConfig holds background refresh settings.
type WorkerConfig struct {
	Port        int           `mapstructure:"port" validate:"min=1,max=65535"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=1,max=64"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Schedule    string        `mapstructure:"schedule" validate:"omitempty,cron"`
}

// RateLimitConfig holds per-minute request limits.
type RateLimitConfig struct {
	SearchPerMinute   int `mapstructure:"search_per_minute" validate:"min=1"`
	AuthPerMinute     int `mapstructure:"auth_per_minute" validate:"min=1"`
	StandardPerMinute int `mapstructure:"standard_per_minute" validate:"min=1"`
}

// Load reads configuration. An empty path looks for datamatch.yaml in the
// working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("datamatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", ErrInvalid, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and the match weights.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Match.EngineConfig(); err != nil {
		return fmt.Errorf("%w: match: %v", ErrInvalid, err)
	}
	return nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
