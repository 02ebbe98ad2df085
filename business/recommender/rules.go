package recommender

import (
	"math"
	"strings"

	"policyPortal/domain"
)

type AffordabilityStrategy string

const (
	// AffordabilityLinear decays from 1 at a 10% premium/income ratio to 0 at 30%.
	AffordabilityLinear AffordabilityStrategy = "linear"
	// AffordabilityStep buckets the ratio at 10%, 20% and 30%.
	AffordabilityStep AffordabilityStrategy = "step"
)

var affordabilityStrategies = map[AffordabilityStrategy]func(ratio float64) float64{
	AffordabilityLinear: linearAffordability,
	AffordabilityStep:   stepAffordability,
}

func linearAffordability(ratio float64) float64 {
	switch {
	case ratio >= 0.3:
		return 0
	case ratio < 0.1:
		return 1
	default:
		return 1 - (ratio-0.1)/0.2
	}
}

func stepAffordability(ratio float64) float64 {
	switch {
	case ratio <= 0.1:
		return 1
	case ratio <= 0.2:
		return 0.7
	case ratio <= 0.3:
		return 0.4
	default:
		return 0.2
	}
}

// RuleScorer is the deterministic, auditable weighted-sum scorer.
type RuleScorer struct {
	tables        Tables
	affordability func(ratio float64) float64
}

func NewRuleScorer(tables Tables) (*RuleScorer, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &RuleScorer{
		tables:        tables,
		affordability: affordabilityStrategies[tables.Affordability],
	}, nil
}

func (s *RuleScorer) Tables() Tables {
	return s.tables
}

// Score returns every sub-score together with the clamped weighted total.
func (s *RuleScorer) Score(p domain.Policy, u domain.UserProfile) domain.ScoreBreakdown {
	w := s.tables.Weights
	b := domain.ScoreBreakdown{
		PolicyID:       p.ID,
		Age:            AgeScore(u.Age, p.Eligibility.MinAge, p.Eligibility.MaxAge),
		Affordability:  s.AffordabilityScore(p.Premium, u.Income),
		GoalMatch:      GoalsMatch(u.FinancialGoals, p.Goals),
		RiskAlignment:  s.RiskAlignmentScore(u.RiskAppetite(), p.Tags),
		IncomeEligible: u.Income >= p.Eligibility.MinIncome,
	}
	b.Total = clamp01(w.Age*b.Age +
		w.Affordability*b.Affordability +
		w.GoalMatch*b.GoalMatch +
		w.RiskAlignment*b.RiskAlignment)
	return b
}

// AgeScore peaks at the band midpoint and is exactly 0 outside the band.
func AgeScore(age, minAge, maxAge int) float64 {
	if age < minAge || age > maxAge {
		return 0
	}
	span := float64(maxAge - minAge)
	if span == 0 {
		return 1
	}
	mid := float64(minAge+maxAge) / 2
	return clamp01(1 - math.Abs(float64(age)-mid)/span)
}

func (s *RuleScorer) AffordabilityScore(premium, income float64) float64 {
	if income <= 0 {
		return 0
	}
	return clamp01(s.affordability(premium / income))
}

// RiskAlignmentScore counts how many words of the tier's vocabulary occur in
// any of the policy tags.
func (s *RuleScorer) RiskAlignmentScore(tier domain.RiskAppetite, tags []string) float64 {
	vocab := s.tables.RiskVocabulary[tier]
	if len(vocab) == 0 {
		return 0
	}
	lowered := lowerAll(tags)

	hits := 0
	for _, word := range vocab {
		for _, tag := range lowered {
			if strings.Contains(tag, word) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(vocab))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
