package recommender

import (
	"fmt"
	"testing"

	"policyPortal/domain"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleProfile() domain.UserProfile {
	return domain.UserProfile{
		UserID:         7,
		Age:            35,
		Income:         800000,
		Occupation:     "professional",
		FamilySize:     2,
		RiskTolerance:  0.5,
		FinancialGoals: []string{"Family Protection"},
	}
}

func samplePolicy(id string) domain.Policy {
	return domain.Policy{
		ID:                   id,
		Name:                 "Policy " + id,
		Category:             "term",
		Provider:             "Acme Life",
		Premium:              40000,
		Coverage:             5000000,
		Term:                 intPtr(20),
		ClaimSettlementRatio: floatPtr(95),
		Goals:                []string{"Family Protection", "Wealth Creation"},
		Tags:                 []string{"balanced", "hybrid"},
		Eligibility:          domain.Eligibility{MinAge: 25, MaxAge: 60},
		Active:               true,
	}
}

// syntheticExamples returns n varied examples whose target loosely tracks
// affordability, enough for the network to fit something.
func syntheticExamples(n int) []domain.TrainingExample {
	out := make([]domain.TrainingExample, 0, n)
	for i := 0; i < n; i++ {
		p := samplePolicy(fmt.Sprintf("p-%03d", i))
		p.Premium = float64(10000 + i*5000)
		p.Coverage = float64(1000000 + i*250000)
		u := sampleProfile()
		u.Age = 25 + i%30
		u.Income = float64(300000 + (i%7)*100000)
		u.RiskTolerance = float64(i%10) / 10

		target := 1 - p.Premium/u.Income
		out = append(out, domain.TrainingExample{
			Policy:      p,
			Profile:     u,
			TargetScore: clamp01(target),
		})
	}
	return out
}

func fastTrainingConfig() TrainingConfig {
	cfg := DefaultTrainingConfig()
	cfg.Epochs = 5
	cfg.Hidden = []int{8, 4}
	return cfg
}

func mustRuleScorer(t *testing.T, tables Tables) *RuleScorer {
	t.Helper()
	s, err := NewRuleScorer(tables)
	if err != nil {
		t.Fatalf("NewRuleScorer() error = %v", err)
	}
	return s
}
