package distribution

import "testing"

func TestPriority_LowerRiskAndHigherConfidenceRankHigher(t *testing.T) {
	safer := Opportunity{Risk: RiskLow, Confidence: 0.9, ExpectedProfit: 10}
	riskier := Opportunity{Risk: RiskHigh, Confidence: 0.9, ExpectedProfit: 10}

	if Priority(safer, 10) <= Priority(riskier, 10) {
		t.Fatalf("expected the lower-risk opportunity to score higher")
	}
}

func TestRankByPriority_OrdersDescending(t *testing.T) {
	low := Opportunity{ID: "a", Risk: RiskHigh, Confidence: 0.1, ExpectedProfit: 1}
	high := Opportunity{ID: "b", Risk: RiskLow, Confidence: 0.9, ExpectedProfit: 100}
	mid := Opportunity{ID: "c", Risk: RiskMedium, Confidence: 0.5, ExpectedProfit: 50}

	ranked := RankByPriority([]Opportunity{low, mid, high})
	if ranked[0].ID != "b" || ranked[len(ranked)-1].ID != "a" {
		t.Fatalf("expected descending priority order b,c,a; got %v,%v,%v", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
}

func TestPriority_ZeroMaxReturnCollapsesReturnTerm(t *testing.T) {
	o := Opportunity{Risk: RiskMedium, Confidence: 0.5, ExpectedProfit: 1000}
	if got, want := Priority(o, 0), weightRisk*0.5+weightConfidence*0.5; got != want {
		t.Errorf("expected return term to collapse to 0 when maxExpectedReturn<=0, got %v want %v", got, want)
	}
}
