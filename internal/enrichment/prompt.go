package enrichment

import (
	"fmt"

	"github.com/arbedge/arbedge-core/internal/vault"
)

func buildOpportunityPrompt(o OpportunitySnapshot) string {
	return fmt.Sprintf(
		"Analyze this arbitrage opportunity and comment on timing, risk, and market condition.\n"+
			"Pair: %s\nLong venue: %s\nShort venue: %s\nNet rate delta: %.6f\nExpected profit: %.2f\nRisk level: %s",
		o.Pair, o.LongVenue, o.ShortVenue, o.NetRateDelta, o.ExpectedProfit, o.Risk,
	)
}

func buildPortfolioPrompt(owner string, compat vault.ExchangeCompatibility) string {
	return fmt.Sprintf(
		"Assess the trading portfolio risk and diversification for user %s.\n"+
			"Arbitrage compatible: %v, technical compatible: %v, compatibility score: %.2f, supported features: %v",
		owner, compat.ArbitrageCompatible, compat.TechnicalCompatible, compat.CompatibilityScore, compat.SupportedFeatures,
	)
}

func buildInsightsPrompt(owner string, days int, winRate float64) string {
	return fmt.Sprintf("Summarize trading performance for user %s over the last %d days. Win rate: %.2f%%.", owner, days, winRate*100)
}

func buildParamSuggestionPrompt(owner string, currentConfig map[string]string) string {
	prompt := fmt.Sprintf("Suggest configuration parameter changes for user %s given their current settings:\n", owner)
	for k, v := range currentConfig {
		prompt += fmt.Sprintf("- %s = %s\n", k, v)
	}
	return prompt
}
