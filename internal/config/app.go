package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the top-level boot configuration for the arbedge core: the
// KV/Redis backing store, the credential vault's master secret, the venue
// provider map (reusing ProvidersConfig), the synthetic market-data tier
// gate, AI provider preferences, and the HTTP server bind address. It is
// the single object cmd/arbedge assembles every component from.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Vault       VaultConfig       `yaml:"vault"`
	Market      MarketConfig      `yaml:"market"`
	AI          AIConfig          `yaml:"ai"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Secrets     SecretsConfig     `yaml:"secrets"`
}

// SecretsConfig selects where the vault master secret is sourced from (AI
// provider keys live only in the vault). EnvPrefix namespaces the
// environment-variable provider; K8sMountPath, when non-empty, adds a
// Kubernetes secret-volume provider as a fallback.
type SecretsConfig struct {
	EnvPrefix    string `yaml:"env_prefix"`
	K8sMountPath string `yaml:"k8s_mount_path"`
}

// PersistenceConfig configures the optional Postgres-backed durable
// storage for distribution records and enrichment outputs. An empty DSN
// disables it: DistributionRecords and enrichment Recorder calls are
// simply dropped (logged, not persisted), which is acceptable for local
// development but not production.
type PersistenceConfig struct {
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig configures the inbound webhook/health/metrics listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects and configures the externalized KV backend. Mode is
// "memory" (single-process, tests and local dev) or "redis".
type StoreConfig struct {
	Mode     string `yaml:"mode"`
	RedisURL string `yaml:"redis_url"`
}

// VaultConfig configures the credential vault. MasterSecretEnv names the
// environment variable holding the master encryption secret; the secret
// itself is never written to a config file.
type VaultConfig struct {
	MasterSecretEnv string `yaml:"master_secret_env"`
	MaxAIKeys       int    `yaml:"max_ai_keys"`
}

// MarketConfig controls the market-data accessor's tier behavior.
//
// AllowSynthetic gates the synthetic tier strictly at boot time; per
// Design Note (c) it must never be toggled implicitly at runtime, so it is
// read once here and threaded into market.NewSyntheticTier.
type MarketConfig struct {
	AllowSynthetic  bool `yaml:"allow_synthetic"`
	SyntheticPoints int  `yaml:"synthetic_points"`
}

// AIConfig lists the enrichment coordinator's provider preference order
// and a per-user hourly rate limit. RatePerHour is validated here but not
// passed to the coordinator, which always applies
// governor.DefaultAIPerHour.
type AIConfig struct {
	PreferredProviders []string `yaml:"preferred_providers"`
	RatePerHour        int64    `yaml:"rate_per_hour"`
}

// DefaultAppConfig returns the configuration used when no config file is
// supplied: in-memory store, synthetic tier disabled, default server bind.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store:       StoreConfig{Mode: "memory"},
		Secrets:     SecretsConfig{EnvPrefix: "ARBEDGE"},
		Vault:       VaultConfig{MasterSecretEnv: "ARBEDGE_MASTER_SECRET", MaxAIKeys: 3},
		Market:      MarketConfig{AllowSynthetic: false, SyntheticPoints: 24},
		AI:          AIConfig{PreferredProviders: []string{"openai", "anthropic", "custom"}, RatePerHour: 100},
		Persistence: PersistenceConfig{Timeout: 5 * time.Second},
	}
}

// LoadAppConfig reads and validates an AppConfig from a YAML file. An empty
// path returns DefaultAppConfig() unchanged.
func LoadAppConfig(configPath string) (*AppConfig, error) {
	if configPath == "" {
		return DefaultAppConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading app config %s: %w", configPath, err)
	}

	cfg := DefaultAppConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing app config %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %w", err)
	}
	return cfg, nil
}

// Validate checks structural invariants that a malformed config file could
// otherwise silently violate.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	switch c.Store.Mode {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required when store.mode is redis")
		}
	default:
		return fmt.Errorf("store.mode must be 'memory' or 'redis', got %q", c.Store.Mode)
	}
	if c.Vault.MasterSecretEnv == "" {
		return fmt.Errorf("vault.master_secret_env cannot be empty")
	}
	if c.Vault.MaxAIKeys <= 0 {
		return fmt.Errorf("vault.max_ai_keys must be positive, got %d", c.Vault.MaxAIKeys)
	}
	if c.AI.RatePerHour <= 0 {
		return fmt.Errorf("ai.rate_per_hour must be positive, got %d", c.AI.RatePerHour)
	}
	for _, p := range c.AI.PreferredProviders {
		switch p {
		case "openai", "anthropic", "custom":
		default:
			return fmt.Errorf("ai.preferred_providers: unknown provider %q", p)
		}
	}
	return nil
}
