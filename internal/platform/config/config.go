package config

import (
	"os"
	"strings"
	"time"
)

// Config captures service-level configuration. All values come from the
// environment so main stays lean.
type Config struct {
	Addr string

	// AuthorityAddress is the single identity allowed to create registry
	// entries; it also receives administrative control over every artifact
	// the registry deploys.
	AuthorityAddress string
	// RegistryAddress is the registry's own identity, used as the transient
	// administrator during unit artifact construction before control is
	// handed to the authority.
	RegistryAddress string

	AdminToken    string
	JWTSigningKey string
	ActorTokenTTL time.Duration

	PostgresURL string

	RedisURL         string
	RegistryCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:             getEnv("DEEDLEDGER_ADDR", ":8080"),
		AuthorityAddress: getEnv("REGISTRY_AUTHORITY", "authority"),
		RegistryAddress:  getEnv("REGISTRY_ADDRESS", "registry"),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		JWTSigningKey:    getEnv("JWT_SIGNING_KEY", ""),
		ActorTokenTTL:    getDuration("ACTOR_TOKEN_TTL", time.Hour),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RegistryCacheTTL: getDuration("REGISTRY_CACHE_TTL", 5*time.Minute),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "deedledger.events"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
