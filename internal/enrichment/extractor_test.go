package enrichment

import "testing"

func TestScore_FirstMatchingPatternWins(t *testing.T) {
	if got := score(marketConditionPatterns, "the market looks very volatile today"); got != 0.3 {
		t.Errorf("expected volatile score 0.3, got %v", got)
	}
	if got := score(marketConditionPatterns, "conditions are stable and bullish"); got != 0.8 {
		t.Errorf("expected the first-listed pattern (stable) to win, got %v", got)
	}
}

func TestScore_DefaultsWhenNoPatternMatches(t *testing.T) {
	if got := score(riskPatterns, "completely unrelated text"); got != defaultQualitativeScore {
		t.Errorf("expected default score %v, got %v", defaultQualitativeScore, got)
	}
}

func TestExtractFreeText_SetsDefaultConfidence(t *testing.T) {
	resp := extractFreeText("this trade looks stable and low risk, excellent timing")
	if resp.Confidence == nil || *resp.Confidence != defaultConfidence {
		t.Errorf("expected default confidence %v, got %v", defaultConfidence, resp.Confidence)
	}
	if resp.TimingScore == nil || *resp.TimingScore != 0.95 {
		t.Errorf("expected excellent-timing score 0.95, got %v", resp.TimingScore)
	}
	if resp.RiskScore == nil || *resp.RiskScore != 0.15 {
		t.Errorf("expected low-risk score 0.15, got %v", resp.RiskScore)
	}
}
