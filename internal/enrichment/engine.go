package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/vault"
)

// cacheTTL is the Enhancement cache lifetime, per ai/enh/{user}/{opp}.
const cacheTTL = 1800 * time.Second

// defaultAIRatePerHour is the per-user hourly enrichment call budget. Every
// rate-limited call uses it; the Engine has no per-call or per-instance
// override.
const defaultAIRatePerHour = governor.DefaultAIPerHour

// CredentialSource is the narrow view of the Credential Vault the
// coordinator depends on. Satisfied by *vault.Vault.
type CredentialSource interface {
	GetActive(ctx context.Context, owner string, provider vault.ProviderKind, venue string) (*vault.Decrypted, error)
}

// RateLimiter is the narrow view of the Rate-Limit Governor the
// coordinator depends on. Satisfied by *governor.Governor.
type RateLimiter interface {
	TryConsume(ctx context.Context, scope governor.Scope) (governor.Decision, error)
}

// Recorder persists portfolio analyses and performance insights, which are
// never cached, only logged (per §4.7).
type Recorder interface {
	RecordPortfolioAnalysis(ctx context.Context, a PortfolioAnalysis) error
	RecordPerformanceInsights(ctx context.Context, i PerformanceInsights) error
}

// NoopRecorder discards everything. Used where no persistence backend is
// wired yet.
type NoopRecorder struct{}

func (NoopRecorder) RecordPortfolioAnalysis(context.Context, PortfolioAnalysis) error   { return nil }
func (NoopRecorder) RecordPerformanceInsights(context.Context, PerformanceInsights) error { return nil }

// Engine implements the AI Enrichment Coordinator: rate-limit, select
// provider via the vault, build a prompt, invoke the provider, extract a
// typed result, then cache (Enhancement) or persist (analysis/insights).
type Engine struct {
	credentials CredentialSource
	limiter     RateLimiter
	cache       kv.Store
	recorder    Recorder
	httpClient  *http.Client
	preferred   []vault.ProviderKind
	log         zerolog.Logger
}

// New wires an Engine. preferred lists the AI provider kinds to try, in
// order, when selecting the owner's active credential; callers typically
// pass {ProviderOpenAI, ProviderAnthropic, ProviderCustom}.
func New(credentials CredentialSource, limiter RateLimiter, cache kv.Store, recorder Recorder, httpClient *http.Client, preferred []vault.ProviderKind, log zerolog.Logger) *Engine {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if len(preferred) == 0 {
		preferred = []vault.ProviderKind{vault.ProviderOpenAI, vault.ProviderAnthropic, vault.ProviderCustom}
	}
	return &Engine{
		credentials: credentials,
		limiter:     limiter,
		cache:       cache,
		recorder:    recorder,
		httpClient:  httpClient,
		preferred:   preferred,
		log:         log.With().Str("component", "enrichment_engine").Logger(),
	}
}

func enhancementKey(owner, opportunityID string) string {
	return fmt.Sprintf("ai/enh/%s/%s", owner, opportunityID)
}

func (e *Engine) selectCredential(ctx context.Context, owner string) (*vault.Decrypted, error) {
	var lastErr error
	for _, p := range e.preferred {
		cred, err := e.credentials.GetActive(ctx, owner, p, "")
		if err == nil {
			return cred, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = apperrors.NotFound("ai_credential")
	}
	return nil, lastErr
}

func (e *Engine) consumeRateLimit(ctx context.Context, owner string) error {
	decision, err := e.limiter.TryConsume(ctx, governor.AIScope(owner, defaultAIRatePerHour))
	if err != nil {
		return err
	}
	if decision == governor.Limited {
		return apperrors.RateLimited(fmt.Sprintf("ai/%s", owner))
	}
	return nil
}

// Enhance enriches one opportunity for owner, serving a cached result when
// present (TTL 1800s) and otherwise invoking the owner's AI provider.
func (e *Engine) Enhance(ctx context.Context, owner string, o OpportunitySnapshot) (*Enhancement, error) {
	key := enhancementKey(owner, o.ID)
	if e.cache != nil {
		if raw, found, err := e.cache.Get(ctx, key); err == nil && found {
			var cached Enhancement
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	if err := e.consumeRateLimit(ctx, owner); err != nil {
		return nil, err
	}

	cred, err := e.selectCredential(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := buildOpportunityPrompt(o)
	resp, err := dispatch(ctx, e.httpClient, *cred, analysisRequest{Prompt: prompt, MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	enhancement := &Enhancement{
		OpportunityID:   o.ID,
		Analysis:        resp.Analysis,
		Confidence:      deref(resp.Confidence, defaultConfidence),
		Recommendations: resp.Recommendations,
		TimingScore:     deref(resp.TimingScore, defaultQualitativeScore),
		RiskScore:       deref(resp.RiskScore, defaultQualitativeScore),
		MarketCondition: deref(resp.MarketCondition, defaultQualitativeScore),
		GeneratedAt:     time.Now().UTC(),
	}

	if e.cache != nil {
		if raw, err := json.Marshal(enhancement); err == nil {
			if err := e.cache.Set(ctx, key, raw, cacheTTL); err != nil {
				e.log.Warn().Err(err).Str("owner", owner).Msg("enhancement cache write failed, continuing")
			}
		}
	}

	return enhancement, nil
}

// AssessPortfolio builds a provider round-trip from the owner's exchange
// compatibility, persisting (never caching) the result. Distribution
// history is not part of the prompt.
func (e *Engine) AssessPortfolio(ctx context.Context, owner string, compat vault.ExchangeCompatibility) (*PortfolioAnalysis, error) {
	if err := e.consumeRateLimit(ctx, owner); err != nil {
		return nil, err
	}
	cred, err := e.selectCredential(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := buildPortfolioPrompt(owner, compat)
	resp, err := dispatch(ctx, e.httpClient, *cred, analysisRequest{Prompt: prompt, MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	analysis := &PortfolioAnalysis{
		Owner:           owner,
		Summary:         resp.Analysis,
		RiskScore:       deref(resp.RiskScore, defaultQualitativeScore),
		Diversification: compat.CompatibilityScore,
		GeneratedAt:     time.Now().UTC(),
	}
	if err := e.recorder.RecordPortfolioAnalysis(ctx, *analysis); err != nil {
		e.log.Warn().Err(err).Str("owner", owner).Msg("failed to persist portfolio analysis")
	}
	return analysis, nil
}

// Insights builds a provider round-trip from the window length (days) and
// the caller-supplied winRate, persisting (never caching) the result. No
// distribution records are read for the prompt.
func (e *Engine) Insights(ctx context.Context, owner string, days int, winRate float64) (*PerformanceInsights, error) {
	if err := e.consumeRateLimit(ctx, owner); err != nil {
		return nil, err
	}
	cred, err := e.selectCredential(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := buildInsightsPrompt(owner, days, winRate)
	resp, err := dispatch(ctx, e.httpClient, *cred, analysisRequest{Prompt: prompt, MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	insights := &PerformanceInsights{
		Owner:       owner,
		WindowDays:  days,
		Summary:     resp.Analysis,
		WinRate:     winRate,
		GeneratedAt: time.Now().UTC(),
	}
	if err := e.recorder.RecordPerformanceInsights(ctx, *insights); err != nil {
		e.log.Warn().Err(err).Str("owner", owner).Msg("failed to persist performance insights")
	}
	return insights, nil
}

// SuggestParams makes the same provider round-trip as
// Enhance/AssessPortfolio/Insights and returns one suggestion per entry of
// currentConfig. The provider's reply is not parsed into new values:
// SuggestedValue is the current value and Rationale is the free-text
// analysis.
func (e *Engine) SuggestParams(ctx context.Context, owner string, currentConfig map[string]string) ([]ParameterSuggestion, error) {
	if err := e.consumeRateLimit(ctx, owner); err != nil {
		return nil, err
	}
	cred, err := e.selectCredential(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := buildParamSuggestionPrompt(owner, currentConfig)
	resp, err := dispatch(ctx, e.httpClient, *cred, analysisRequest{Prompt: prompt, MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	suggestions := make([]ParameterSuggestion, 0, len(currentConfig))
	for param, current := range currentConfig {
		suggestions = append(suggestions, ParameterSuggestion{
			Parameter:      param,
			CurrentValue:   current,
			SuggestedValue: current,
			Rationale:      resp.Analysis,
		})
	}
	return suggestions, nil
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
