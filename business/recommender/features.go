package recommender

import (
	"strings"

	"policyPortal/domain"
)

const FeatureDim = 10

type FeatureVector [FeatureDim]float64

// FeatureNames lists the vector layout in order.
var FeatureNames = [FeatureDim]string{
	"age",
	"income",
	"premium",
	"coverage",
	"term",
	"claim_settlement_ratio",
	"risk_tolerance",
	"family_size",
	"occupation_risk",
	"goals_match",
}

// ExtractFeatures encodes a (policy, profile) pair. Absent term and claim
// settlement ratio encode as 0.
func ExtractFeatures(p domain.Policy, u domain.UserProfile, tables Tables) FeatureVector {
	return FeatureVector{
		float64(u.Age),
		u.Income,
		p.Premium,
		p.Coverage,
		float64(p.TermYears()),
		p.CSR(),
		u.RiskTolerance,
		float64(u.FamilySize),
		tables.occupationRisk(u.Occupation),
		GoalsMatch(u.FinancialGoals, p.Goals),
	}
}

func (fv FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureDim)
	copy(out, fv[:])
	return out
}

func (t Tables) occupationRisk(occupation string) float64 {
	if v, ok := t.OccupationRisk[normalizeOccupation(occupation)]; ok {
		return v
	}
	return t.DefaultOccupationRisk
}

// normalizeOccupation maps "Self Employed" and "self_employed" to "self-employed".
func normalizeOccupation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	return strings.Join(strings.Fields(s), "-")
}

// GoalsMatch is the share of the user's goals the policy serves:
// |user ∩ policy| / |user|, compared case-insensitively.
func GoalsMatch(userGoals, policyGoals []string) float64 {
	user := goalSet(userGoals)
	policy := goalSet(policyGoals)
	if len(user) == 0 || len(policy) == 0 {
		return 0
	}

	matched := 0
	for g := range user {
		if _, ok := policy[g]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(user))
}

func goalSet(goals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(goals))
	for _, g := range goals {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		out[g] = struct{}{}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
