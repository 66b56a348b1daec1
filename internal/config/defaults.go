package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/datamatch/datamatch/internal/match"
)

// DevSigningKey is the token signing key used when none is configured.
const DevSigningKey = "local-dev-signing-key-change-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.require_tls", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "datamatch")
	v.SetDefault("database.password", "localdev")
	v.SetDefault("database.name", "datamatch")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.metric_interval", 15*time.Second)

	v.SetDefault("auth.signing_key", DevSigningKey)
	v.SetDefault("auth.issuer", "https://api.datamatch.dev")
	v.SetDefault("auth.audience", "datamatch-api")
	v.SetDefault("auth.access_token_ttl", time.Hour)

	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "datamatch-jobs")
	v.SetDefault("pubsub.subscription", "datamatch-worker")

	setWeightDefaults(v, "match.weights", match.DefaultWeights)
	setWeightDefaults(v, "match.availability_weights", match.AvailabilityWeights)
	v.SetDefault("match.default_max_distance", match.DefaultMaxDistance)

	v.SetDefault("suggestion.cache_ttl", 6*time.Hour)
	v.SetDefault("flags.cache_ttl", time.Minute)

	v.SetDefault("worker.port", 8081)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.timeout", 30*time.Second)
	v.SetDefault("worker.schedule", "0 */6 * * *")

	v.SetDefault("rate_limit.search_per_minute", 60)
	v.SetDefault("rate_limit.auth_per_minute", 10)
	v.SetDefault("rate_limit.standard_per_minute", 100)
}

func setWeightDefaults(v *viper.Viper, prefix string, w match.Weights) {
	v.SetDefault(prefix+".interests", w.Interests)
	v.SetDefault(prefix+".professional", w.Professional)
	v.SetDefault(prefix+".location", w.Location)
	v.SetDefault(prefix+".availability", w.Availability)
	v.SetDefault(prefix+".niche_interests", w.NicheInterests)
}
