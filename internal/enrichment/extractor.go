package enrichment

import "strings"

const defaultConfidence = 0.7
const defaultQualitativeScore = 0.5

// patternScore is one (substring, score) entry in a qualitative
// pattern-class table.
type patternScore struct {
	pattern string
	score   float64
}

// timingPatterns, riskPatterns, and marketConditionPatterns are the fixed,
// ordered pattern-class tables the extractor consults: the first matching
// pattern (case-insensitive substring) in a dimension wins, so more
// specific terms should be listed before more general ones within a
// dimension's slice.
var (
	timingPatterns = []patternScore{
		{"excellent timing", 0.95},
		{"good timing", 0.8},
		{"poor timing", 0.2},
		{"immediate", 0.9},
		{"wait", 0.3},
	}

	riskPatterns = []patternScore{
		{"high risk", 0.85},
		{"medium risk", 0.5},
		{"low risk", 0.15},
		{"risky", 0.8},
		{"safe", 0.2},
	}

	marketConditionPatterns = []patternScore{
		{"volatile", 0.3},
		{"stable", 0.8},
		{"bullish", 0.75},
		{"bearish", 0.25},
	}
)

// score runs one pattern-class table against text, returning the first
// match's score or defaultQualitativeScore if nothing matches. The
// contract is total: every call returns a score, deterministic given text.
func score(patterns []patternScore, text string) float64 {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if strings.Contains(lower, p.pattern) {
			return p.score
		}
	}
	return defaultQualitativeScore
}

// extractFreeText derives the qualitative dimensions (timing, risk, market
// condition) from a provider's free-text analysis, and sets a default
// confidence. The Custom provider path overrides these defaults after the
// call with any explicit numeric fields its response carries; the OpenAI
// and Anthropic paths use them as extracted.
func extractFreeText(analysis string) analysisResponse {
	confidence := defaultConfidence
	timing := score(timingPatterns, analysis)
	risk := score(riskPatterns, analysis)
	market := score(marketConditionPatterns, analysis)
	return analysisResponse{
		Analysis:        analysis,
		Confidence:      &confidence,
		RiskScore:       &risk,
		TimingScore:     &timing,
		MarketCondition: &market,
	}
}
