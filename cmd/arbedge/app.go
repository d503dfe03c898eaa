package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/commands"
	"github.com/arbedge/arbedge-core/internal/config"
	"github.com/arbedge/arbedge-core/internal/distribution"
	"github.com/arbedge/arbedge-core/internal/enrichment"
	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/market"
	"github.com/arbedge/arbedge-core/internal/market/venue"
	"github.com/arbedge/arbedge-core/internal/net/budget"
	"github.com/arbedge/arbedge-core/internal/net/circuit"
	"github.com/arbedge/arbedge-core/internal/net/client"
	"github.com/arbedge/arbedge-core/internal/net/ratelimit"
	"github.com/arbedge/arbedge-core/internal/persistence/postgres"
	"github.com/arbedge/arbedge-core/internal/rbac"
	"github.com/arbedge/arbedge-core/internal/scheduler"
	"github.com/arbedge/arbedge-core/internal/secrets"
	"github.com/arbedge/arbedge-core/internal/session"
	"github.com/arbedge/arbedge-core/internal/vault"
)

// App wires every component the core is built from, per the capability-
// injection design: each layer is constructed once here and handed only
// the narrow interfaces its dependents declare.
type App struct {
	Config      *config.AppConfig
	Store       kv.Store
	Vault       *vault.Vault
	Market      *market.Accessor
	Permissions *rbac.Engine
	Sessions    *session.Engine
	Governor    *governor.Governor
	Distributor *distribution.Engine
	Enrichment  *enrichment.Engine
	Router      *commands.Router
	Groups      *distribution.GroupDirectory
	DB          *sqlx.DB
}

// buildApp constructs the full dependency graph from configuration. The
// caller is responsible for closing App.DB (if non-nil) on shutdown.
func buildApp(cfg *config.AppConfig, log zerolog.Logger) (*App, error) {
	store, err := buildStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("building kv store: %w", err)
	}

	secretMgr := buildSecretsManager(cfg.Secrets)
	masterSecret := resolveMasterSecret(secretMgr, cfg.Secrets.EnvPrefix, cfg.Vault.MasterSecretEnv, log)
	if masterSecret == "" {
		masterSecret = promptMasterSecret(cfg.Vault.MasterSecretEnv)
	}
	v := vault.New(store, masterSecret, cfg.Vault.MaxAIKeys, log)

	accessor := buildMarketAccessor(store, cfg, log)
	permissions := rbac.New()
	sessions := session.New(store)
	gov := governor.New(store)

	var db *sqlx.DB
	var records distribution.RecordSink
	var recorder enrichment.Recorder
	if cfg.Persistence.DSN != "" {
		db, err = sqlx.Connect("postgres", cfg.Persistence.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		records = postgres.NewDistributionRepo(db, cfg.Persistence.Timeout)
		recorder = postgres.NewEnrichmentRepo(db, cfg.Persistence.Timeout)
	} else {
		log.Warn().Msg("no persistence.dsn configured; distribution records and enrichment insights will not be durably stored")
	}

	groups := distribution.NewGroupDirectory(store)
	distributor := distribution.New(permissions, sessions, gov, distribution.NoopSender{}, store, records, nil, log)

	preferred := make([]vault.ProviderKind, 0, len(cfg.AI.PreferredProviders))
	for _, p := range cfg.AI.PreferredProviders {
		preferred = append(preferred, vault.ProviderKind(p))
	}
	aiHTTPClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: client.NewAIBreakerTransport(nil, client.DefaultAIBreakerConfig(), log),
	}
	enricher := enrichment.New(v, gov, store, recorder, aiHTTPClient, preferred, log)

	router := commands.New(sessions, permissions, rbacUserLookup{}, log)
	registerEnrichmentCommands(router, v, enricher)

	return &App{
		Config:      cfg,
		Store:       store,
		Vault:       v,
		Market:      accessor,
		Permissions: permissions,
		Sessions:    sessions,
		Governor:    gov,
		Distributor: distributor,
		Enrichment:  enricher,
		Router:      router,
		Groups:      groups,
		DB:          db,
	}, nil
}

// registerEnrichmentCommands wires the ai_insights and risk_assessment bot
// commands to the AI Enrichment Coordinator. Without this, those commands
// are unreachable: commands.Router ships with no knowledge of enrichment
// (to avoid a package dependency the router doesn't otherwise need), so the
// caller that builds both must connect them. A RateLimited error from the
// coordinator surfaces through Router's rate-limit reply rather than a
// generic failure message, matching the AI rate-limit scenario.
func registerEnrichmentCommands(router *commands.Router, v *vault.Vault, enricher *enrichment.Engine) {
	const defaultInsightsWindowDays = 30

	router.Register("ai_insights", func(ctx context.Context, owner string, args []string) (string, error) {
		days := defaultInsightsWindowDays
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
				days = n
			}
		}
		// Win rate isn't tracked by this core (no trade-outcome ledger);
		// the coordinator's prompt treats it as advisory context only.
		insights, err := enricher.Insights(ctx, owner, days, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Performance insights (last %d days): %s", insights.WindowDays, insights.Summary), nil
	})

	router.Register("risk_assessment", func(ctx context.Context, owner string, args []string) (string, error) {
		compat, err := v.CheckExchangeCompatibility(ctx, owner)
		if err != nil {
			return "", err
		}
		analysis, err := enricher.AssessPortfolio(ctx, owner, *compat)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Portfolio risk assessment: %s (risk score %.2f)", analysis.Summary, analysis.RiskScore), nil
	})
}

// startScheduler registers and starts the background job set: currently
// the group member-count refresh. It returns a stop function the caller
// must invoke on shutdown.
func startScheduler(app *App, log zerolog.Logger) (stop func(), err error) {
	sched := scheduler.New(log)
	job := scheduler.NewGroupRefreshJob(app.Groups, scheduler.NoopMemberCountSource{})
	if err := sched.AddJob("@every 1h", job); err != nil {
		return nil, fmt.Errorf("registering group refresh job: %w", err)
	}
	sched.Start()
	return sched.Stop, nil
}

// buildSecretsManager wires the environment-variable provider as primary,
// falling back to a Kubernetes secret-volume provider when one is
// configured. The vault's own encrypted storage is the source of truth for
// per-user AI provider keys; this manager only resolves boot-time secrets
// (the master encryption key today).
func buildSecretsManager(cfg config.SecretsConfig) *secrets.Manager {
	providers := map[string]secrets.SecretProvider{
		"env": secrets.NewEnvProvider(cfg.EnvPrefix),
	}
	mgr := secrets.NewManager("env", providers)
	if cfg.K8sMountPath != "" {
		providers["k8s"] = secrets.NewK8sProvider(cfg.K8sMountPath, "")
		mgr = mgr.WithFallback("k8s")
	}
	return mgr
}

// resolveMasterSecret looks up the master secret through the secrets
// manager's env/k8s provider chain. masterSecretEnv is the full environment
// variable name (e.g. "ARBEDGE_MASTER_SECRET"); the manager's env provider
// re-adds envPrefix itself, so a leading prefix matching envPrefix is
// stripped before the lookup to avoid double-prefixing.
func resolveMasterSecret(mgr *secrets.Manager, envPrefix, masterSecretEnv string, log zerolog.Logger) string {
	key := masterSecretEnv
	if envPrefix != "" {
		p := strings.ToUpper(envPrefix) + "_"
		if strings.HasPrefix(strings.ToUpper(key), p) {
			key = key[len(p):]
		}
	}
	key = strings.ToLower(key)

	secret, err := mgr.GetSecret(context.Background(), key)
	if err != nil {
		log.Warn().Str("key", key).Err(err).Msg("master secret not found in any provider; vault encryption key will be empty")
		return ""
	}
	return secret.String()
}

func buildStore(cfg config.StoreConfig) (kv.Store, error) {
	switch cfg.Mode {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis_url: %w", err)
		}
		return kv.NewRedisStore(redis.NewClient(opts)), nil
	default:
		return kv.NewMemoryStore(), nil
	}
}

// venueBaseURLs are the public REST origins for each supported venue's
// klines/candles endpoint.
var venueBaseURLs = map[string]string{
	"binance": "https://api.binance.com",
	"bybit":   "https://api.bybit.com",
	"okx":     "https://www.okx.com",
}

// buildMarketAccessor wires the four-tier accessor: a stream tier and a
// cache tier over the shared KV store, one origin tier per venue (each
// wrapped with per-provider rate limiting, circuit breaking, and daily
// budget accounting when configured), and a synthetic tier gated strictly
// by cfg.Market.AllowSynthetic.
func buildMarketAccessor(store kv.Store, cfg *config.AppConfig, log zerolog.Logger) *market.Accessor {
	stream := market.NewStreamTier(store)
	cache := market.NewCacheTier(store)

	adapters := []venue.Adapter{venue.Binance{}, venue.Bybit{}, venue.OKX{}}
	origins := make([]market.Tier, 0, len(adapters))
	for _, adapter := range adapters {
		baseURL := venueBaseURLs[adapter.Name()]
		origins = append(origins, market.NewOriginTier(adapter, baseURL, venueHTTPClient(adapter.Name(), cfg)))
	}

	synthetic := market.NewSyntheticTier(cfg.Market.AllowSynthetic, cfg.Market.SyntheticPoints)
	return market.NewAccessor(stream, cache, origins, synthetic, log)
}

// venueHTTPClient builds the per-venue HTTP client, composing the
// teacher's rate-limit/circuit-breaker/budget wrapper when a provider
// entry is configured for this venue; otherwise falls back to a plain
// client with a conservative timeout.
func venueHTTPClient(venueName string, cfg *config.AppConfig) *http.Client {
	providerCfg, ok := cfg.Providers.Providers[venueName]
	if !ok {
		return &http.Client{Timeout: 10 * time.Second}
	}

	wrapper := client.NewWrapper(client.WrapperConfig{
		Provider:       venueName,
		ProviderConfig: &providerCfg,
		RateLimiter:    ratelimit.NewLimiter(float64(providerCfg.RPS), providerCfg.Burst),
		CircuitBreaker: circuit.NewBreaker(circuit.Config{
			FailureThreshold: providerCfg.Circuit.FailureThreshold,
			SuccessThreshold: providerCfg.Circuit.SuccessThreshold,
			Timeout:          time.Duration(providerCfg.Circuit.TimeoutMS) * time.Millisecond,
			RequestTimeout:   10 * time.Second,
		}),
		BudgetTracker: budget.NewTracker(int64(providerCfg.DailyBudget), cfg.Providers.Budget.ResetHour, cfg.Providers.Budget.WarnThreshold),
	}, nil)

	return &http.Client{Transport: wrapper, Timeout: providerCfg.GetRequestTimeout()}
}

// rbacUserLookup is a placeholder UserLookup until a persisted RBAC user
// directory is wired; every owner resolves to nil (Basic-tier access),
// matching the RBAC contract's "no record yet" behavior.
type rbacUserLookup struct{}

func (rbacUserLookup) Lookup(context.Context, string) (*rbac.User, error) { return nil, nil }
