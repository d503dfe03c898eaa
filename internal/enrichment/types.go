// Package enrichment implements the AI Enrichment Coordinator (C7):
// bounded, rate-limited, cached per-user calls to an AI provider that turn
// a raw Opportunity into qualitative commentary, plus portfolio assessment,
// performance insights, and parameter suggestions built from the same
// provider-dispatch and response-extraction path.
package enrichment

import "time"

// Enhancement is the cached, structured result of enhancing one
// opportunity for one user.
type Enhancement struct {
	OpportunityID   string            `json:"opportunity_id"`
	Analysis        string            `json:"analysis"`
	Confidence      float64           `json:"confidence"`
	Recommendations []string          `json:"recommendations"`
	TimingScore     float64           `json:"timing_score"`
	RiskScore       float64           `json:"risk_score"`
	MarketCondition float64           `json:"market_condition_score"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// PortfolioAnalysis is the persisted (never cached) result of
// assess_portfolio.
type PortfolioAnalysis struct {
	Owner        string    `json:"owner"`
	Summary      string    `json:"summary"`
	RiskScore    float64   `json:"risk_score"`
	Diversification float64 `json:"diversification_score"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// PerformanceInsights is the persisted (never cached) result of insights.
type PerformanceInsights struct {
	Owner       string    `json:"owner"`
	WindowDays  int       `json:"window_days"`
	Summary     string    `json:"summary"`
	WinRate     float64   `json:"win_rate"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ParameterSuggestion is one recommended configuration change, with the
// reasoning the provider gave for it.
type ParameterSuggestion struct {
	Parameter      string `json:"parameter"`
	CurrentValue   string `json:"current_value"`
	SuggestedValue string `json:"suggested_value"`
	Rationale      string `json:"rationale"`
}

// OpportunitySnapshot is the minimal opportunity shape the coordinator
// needs to build a prompt, kept free of a direct dependency on the
// distribution package's full Opportunity type so enrichment can be
// exercised (and tested) independently of it.
type OpportunitySnapshot struct {
	ID             string
	Pair           string
	LongVenue      string
	ShortVenue     string
	NetRateDelta   float64
	ExpectedProfit float64
	Risk           string
}
