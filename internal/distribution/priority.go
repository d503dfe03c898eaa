package distribution

// Priority weights, fixed by design: risk contributes 0.4, confidence 0.35,
// normalized expected return 0.25.
const (
	weightRisk       = 0.4
	weightConfidence = 0.35
	weightReturn     = 0.25
)

// riskRank maps a RiskLevel to its [0,1] rank, where 0 is safest.
func riskRank(r RiskLevel) float64 {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 0.5
	case RiskHigh:
		return 1
	default:
		return 0.5
	}
}

// Priority computes the fan-out ordering score for an opportunity:
//
//	priority = w1*(1-riskRank) + w2*confidence + w3*normalizedExpectedReturn
//
// normalizedExpectedReturn scales o.ExpectedProfit against maxExpectedReturn
// observed across the current batch being ranked; callers pass 0 for
// maxExpectedReturn when ranking a single opportunity in isolation, which
// collapses the return term to 0.
func Priority(o Opportunity, maxExpectedReturn float64) float64 {
	normalizedReturn := 0.0
	if maxExpectedReturn > 0 {
		normalizedReturn = o.ExpectedProfit / maxExpectedReturn
		if normalizedReturn > 1 {
			normalizedReturn = 1
		}
		if normalizedReturn < 0 {
			normalizedReturn = 0
		}
	}
	return weightRisk*(1-riskRank(o.Risk)) + weightConfidence*o.Confidence + weightReturn*normalizedReturn
}

// RankByPriority sorts opportunities by descending Priority, computing
// normalizedExpectedReturn against the batch's own maximum ExpectedProfit.
func RankByPriority(opportunities []Opportunity) []Opportunity {
	ranked := make([]Opportunity, len(opportunities))
	copy(ranked, opportunities)

	maxReturn := 0.0
	for _, o := range ranked {
		if o.ExpectedProfit > maxReturn {
			maxReturn = o.ExpectedProfit
		}
	}

	scores := make([]float64, len(ranked))
	for i, o := range ranked {
		scores[i] = Priority(o, maxReturn)
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && scores[j] > scores[j-1]; j-- {
			scores[j], scores[j-1] = scores[j-1], scores[j]
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}
